// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fatih/color"

	"elfdeps/srcs/common"
)

// TextRenderer prints a report as an architecture banner followed by each
// library, its count and the binaries that need it.
type TextRenderer struct {
	archStyle *color.Color
	libStyle  *color.Color
}

func NewTextRenderer(colored bool) *TextRenderer {
	r := &TextRenderer{
		archStyle: color.New(color.FgCyan, color.Bold),
		libStyle:  color.New(color.FgGreen),
	}
	if !colored {
		r.archStyle.DisableColor()
		r.libStyle.DisableColor()
	}
	return r
}

func (r *TextRenderer) Render(w io.Writer, report *Report) error {
	for _, ar := range report.Architectures {
		if _, err := r.archStyle.Fprintf(w, "\n\n---------- %s ----------\n", ar.Architecture); err != nil {
			return err
		}
		for _, group := range ar.Libraries {
			if _, err := fmt.Fprint(w, "  "); err != nil {
				return err
			}
			if _, err := r.libStyle.Fprint(w, group.LibraryName); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, " (%d executables) ->\n", group.Count()); err != nil {
				return err
			}
			for _, path := range group.ReferencingFiles {
				if _, err := fmt.Fprintf(w, "    %s\n", path); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// PlainText renders report without colors, as saved for baselines.
func PlainText(report *Report) string {
	var buf bytes.Buffer
	_ = NewTextRenderer(false).Render(&buf, report)
	return buf.String()
}

// graphData links every architecture to its libraries and every library to
// its binaries. Library nodes are prefixed with their architecture so that
// the same library name stays distinct across architectures.
func graphData(report *Report) (map[string][]string, map[string]string) {
	data := make(map[string][]string)
	labels := make(map[string]string)
	for _, ar := range report.Architectures {
		arch := ar.Architecture.String()
		for _, group := range ar.Libraries {
			node := arch + "/" + group.LibraryName
			labels[node] = group.LibraryName
			data[arch] = append(data[arch], node)
			data[node] = append(data[node], group.ReferencingFiles...)
		}
	}
	return data, labels
}

// WriteGraph saves report as a dot graph.
func WriteGraph(report *Report, path string) error {
	data, labels := graphData(report)
	return common.GenerateGraph("elfdeps", path, data, labels)
}

// CompareBaseline diffs the plain text rendering of report against the
// content of a previously saved report.
//
// It returns the line diff and whether anything changed.
func CompareBaseline(report *Report, baseline []byte) (string, bool) {
	return common.DiffLines(string(baseline), PlainText(report))
}
