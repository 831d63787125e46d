// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	u "elfdeps/srcs/common"
)

// RunScanTool allows to run the shared libraries scan tool from the command
// line argv. It exits with status 1 when arguments are invalid or the root
// path cannot be read; skipped files never change the exit status.
func RunScanTool(argv []string) {

	// Init and parse local arguments
	args := new(u.Arguments)
	p, err := args.InitArguments("elfdeps",
		"Search for libraries in a directory ELF files and display all found "+
			"dependencies on libraries in a directory")
	if err != nil {
		u.PrintErr(err)
	}
	if err := parseLocalArguments(p, args, argv); err != nil {
		u.PrintErr(err)
	}

	config, err := buildConfig(args)
	if err != nil {
		u.PrintErr(err)
	}

	if config.NoColor {
		u.DisableColors()
	}
	u.Verbose = config.Verbose

	u.PrintHeader1("SCAN " + config.Path)
	if config.Workers > 1 {
		u.PrintInfo("Using " + strconv.Itoa(config.Workers) + " workers")
	}

	collector := NewCollector(config.Workers)
	collector.OnSkip = func(path, reason string) {
		u.PrintVerbose("Skip " + path + " (" + reason + ")")
	}

	report, err := Scan(config.Path, config.Recursive, collector)
	if err != nil {
		u.PrintErr(err)
	}

	for _, w := range report.Warnings {
		u.PrintWarning(w.Kind.String() + ": " + w.Path + ": " + w.Message)
	}

	archs, err := config.ArchitectureFilter()
	if err != nil {
		u.PrintErr(err)
	}
	displayed := report.Filter(archs)

	if config.Interactive {
		selected, err := selectArchitectures(displayed)
		if err != nil {
			u.PrintErr(err)
		}
		if len(selected) == 0 {
			displayed.Architectures = nil
		} else {
			displayed = displayed.Filter(selected)
		}
	}

	if err := NewTextRenderer(!config.NoColor).Render(color.Output, displayed); err != nil {
		u.PrintErr(err)
	}

	u.PrintOk(fmt.Sprintf("%d entries, %d ELF files analysed, %d skipped, %d warnings",
		report.Stats.Entries, report.Stats.Analysed, report.Stats.Skipped,
		report.Stats.Warnings))

	if len(config.JSON) > 0 {
		if err := u.RecordDataJson(config.JSON, displayed); err != nil {
			u.PrintWarning(err)
		} else {
			u.PrintOk("JSON report saved into " + config.JSON)
		}
	}

	if len(config.Graph) > 0 {
		if err := WriteGraph(displayed, config.Graph); err != nil {
			u.PrintWarning(err)
		} else {
			u.PrintOk("Graph saved into " + config.Graph)
		}
	}

	if len(config.Baseline) > 0 {
		compareWithBaseline(displayed, config.Baseline)
	}
}

// compareWithBaseline prints the differences between the report and a saved
// text report, or saves the report when the baseline does not exist yet.
func compareWithBaseline(report *Report, baseline string) {

	content, err := os.ReadFile(baseline)
	if os.IsNotExist(err) {
		if err := u.WriteToFile(baseline, []byte(PlainText(report))); err != nil {
			u.PrintWarning(err)
			return
		}
		u.PrintOk("Baseline saved into " + baseline)
		return
	} else if err != nil {
		u.PrintWarning(err)
		return
	}

	diff, changed := CompareBaseline(report, content)
	if !changed {
		u.PrintOk("Report matches baseline " + baseline)
		return
	}

	u.PrintHeader2("DIFF WITH " + baseline)
	fmt.Fprint(color.Output, diff)
}
