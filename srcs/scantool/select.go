// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"github.com/AlecAivazis/survey/v2"

	"elfdeps/srcs/binarytool/elfcore"
)

const pageSize = 15

// selectArchitectures prompts the user to pick which architectures of
// report to display. Every architecture is selected by default.
func selectArchitectures(report *Report) ([]elfcore.Architecture, error) {

	options := make([]string, 0, len(report.Architectures))
	byName := make(map[string]elfcore.Architecture, len(report.Architectures))
	for _, ar := range report.Architectures {
		name := ar.Architecture.String()
		options = append(options, name)
		byName[name] = ar.Architecture
	}

	if len(options) == 0 {
		return nil, nil
	}

	prompt := &survey.MultiSelect{
		Message:  "Select the architectures to display",
		Options:  options,
		Default:  options,
		PageSize: pageSize,
	}

	var selected []string
	if err := survey.AskOne(prompt, &selected); err != nil {
		return nil, err
	}

	archs := make([]elfcore.Architecture, 0, len(selected))
	for _, name := range selected {
		archs = append(archs, byName[name])
	}
	return archs, nil
}
