// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"sort"

	"elfdeps/srcs/binarytool/elfcore"
)

// LibraryGroup lists the binaries of one architecture that declare
// LibraryName.
type LibraryGroup struct {
	LibraryName      string               `json:"library_name"`
	Architecture     elfcore.Architecture `json:"architecture"`
	ReferencingFiles []string             `json:"referencing_files"`
}

func (g LibraryGroup) Count() int {
	return len(g.ReferencingFiles)
}

type ArchitectureReport struct {
	Architecture elfcore.Architecture `json:"architecture"`
	Libraries    []LibraryGroup       `json:"libraries"`
}

// Report holds the libraries per architecture. Architectures are sorted by
// name; libraries by descending count, then by name.
type Report struct {
	Architectures []ArchitectureReport `json:"architectures"`
	Warnings      []Warning            `json:"warnings"`
	Stats         Stats                `json:"stats"`
}

type archGroups struct {
	groups map[string]*LibraryGroup
	seen   map[string]map[string]bool
}

// Aggregate groups facts by architecture then library. Files keep the order
// of facts and a file counts once per library. Facts carrying a sentinel
// architecture are dropped.
func Aggregate(facts []Fact) *Report {

	byArch := make(map[elfcore.Architecture]*archGroups)

	for _, fact := range facts {
		if fact.Architecture.IsSentinel() {
			continue
		}

		ag, ok := byArch[fact.Architecture]
		if !ok {
			ag = &archGroups{
				groups: make(map[string]*LibraryGroup),
				seen:   make(map[string]map[string]bool),
			}
			byArch[fact.Architecture] = ag
		}

		group, ok := ag.groups[fact.LibraryName]
		if !ok {
			group = &LibraryGroup{
				LibraryName:  fact.LibraryName,
				Architecture: fact.Architecture,
			}
			ag.groups[fact.LibraryName] = group
			ag.seen[fact.LibraryName] = make(map[string]bool)
		}

		if ag.seen[fact.LibraryName][fact.FilePath] {
			continue
		}
		ag.seen[fact.LibraryName][fact.FilePath] = true
		group.ReferencingFiles = append(group.ReferencingFiles, fact.FilePath)
	}

	report := &Report{
		Architectures: make([]ArchitectureReport, 0, len(byArch)),
		Warnings:      make([]Warning, 0),
	}

	for arch, ag := range byArch {
		libraries := make([]LibraryGroup, 0, len(ag.groups))
		for _, group := range ag.groups {
			libraries = append(libraries, *group)
		}
		sort.Slice(libraries, func(i, j int) bool {
			if libraries[i].Count() != libraries[j].Count() {
				return libraries[i].Count() > libraries[j].Count()
			}
			return libraries[i].LibraryName < libraries[j].LibraryName
		})
		report.Architectures = append(report.Architectures, ArchitectureReport{
			Architecture: arch,
			Libraries:    libraries,
		})
	}

	sort.Slice(report.Architectures, func(i, j int) bool {
		a, b := report.Architectures[i].Architecture, report.Architectures[j].Architecture
		if a.String() != b.String() {
			return a.String() < b.String()
		}
		return a < b
	})

	return report
}

// Facts flattens the report back into facts.
func (r *Report) Facts() []Fact {
	facts := make([]Fact, 0)
	for _, ar := range r.Architectures {
		for _, group := range ar.Libraries {
			for _, path := range group.ReferencingFiles {
				facts = append(facts, Fact{
					FilePath:     path,
					LibraryName:  group.LibraryName,
					Architecture: ar.Architecture,
				})
			}
		}
	}
	return facts
}

// Filter returns a copy of the report restricted to archs. An empty archs
// keeps everything.
func (r *Report) Filter(archs []elfcore.Architecture) *Report {

	filtered := &Report{Warnings: r.Warnings, Stats: r.Stats}
	if len(archs) == 0 {
		filtered.Architectures = r.Architectures
		return filtered
	}

	keep := make(map[elfcore.Architecture]bool, len(archs))
	for _, arch := range archs {
		keep[arch] = true
	}

	filtered.Architectures = make([]ArchitectureReport, 0, len(archs))
	for _, ar := range r.Architectures {
		if keep[ar.Architecture] {
			filtered.Architectures = append(filtered.Architectures, ar)
		}
	}
	return filtered
}

// Scan collects and aggregates the binaries under root.
//
// It returns an error wrapping ErrRootUnreadable when root cannot be read;
// every other problem is a warning inside the report.
func Scan(root string, recursive bool, collector *Collector) (*Report, error) {

	facts, err := collector.Collect(root, recursive)
	if err != nil {
		return nil, err
	}

	report := Aggregate(facts)
	report.Warnings = collector.Warnings.Records()
	report.Stats = collector.Stats()
	return report, nil
}
