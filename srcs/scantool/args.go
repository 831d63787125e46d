// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"strings"

	"github.com/akamensky/argparse"

	u "elfdeps/srcs/common"
)

const (
	pathArg        = "path"
	recursiveArg   = "recursive"
	workersArg     = "workers"
	verboseArg     = "verbose"
	archArg        = "arch"
	jsonArg        = "json"
	graphArg       = "graph"
	baselineArg    = "baseline"
	interactiveArg = "interactive"
	configArg      = "config"
	noColorArg     = "no-color"
)

// parseLocalArguments parses arguments of the application.
//
// It returns an error if any, otherwise it returns nil.
func parseLocalArguments(p *argparse.Parser, args *u.Arguments, argv []string) error {

	args.InitArgParse(p, args, u.STRING, "p", pathArg,
		&argparse.Options{Required: false, Help: "The path to the directory to read"})
	args.InitArgParse(p, args, u.BOOL, "r", recursiveArg,
		&argparse.Options{Required: false, Default: false,
			Help: "Recursive traversal of directory"})
	args.InitArgParse(p, args, u.INT, "w", workersArg,
		&argparse.Options{Required: false, Default: 0,
			Help: "Number of files analysed in parallel (default: 1)"})
	args.InitArgParse(p, args, u.BOOL, "v", verboseArg,
		&argparse.Options{Required: false, Default: false,
			Help: "Display skipped files"})
	args.InitArgParse(p, args, u.STRING, "a", archArg,
		&argparse.Options{Required: false, Default: "",
			Help: "Comma separated list of architectures to display (e.g. x86-64,AArch64)"})
	args.InitArgParse(p, args, u.STRING, "j", jsonArg,
		&argparse.Options{Required: false, Default: "",
			Help: "Save the report as a JSON file"})
	args.InitArgParse(p, args, u.STRING, "g", graphArg,
		&argparse.Options{Required: false, Default: "",
			Help: "Save the report as a dot graph"})
	args.InitArgParse(p, args, u.STRING, "b", baselineArg,
		&argparse.Options{Required: false, Default: "",
			Help: "Compare the report with a previously saved text report"})
	args.InitArgParse(p, args, u.BOOL, "i", interactiveArg,
		&argparse.Options{Required: false, Default: false,
			Help: "Select interactively the architectures to display"})
	args.InitArgParse(p, args, u.STRING, "c", configArg,
		&argparse.Options{Required: false, Default: "",
			Help: "Path of a YAML config file"})
	args.InitArgParse(p, args, u.BOOL, "n", noColorArg,
		&argparse.Options{Required: false, Default: false,
			Help: "Disable colored output"})

	return u.ParserWrapper(p, argv)
}

// buildConfig merges the config file (if any) with the command line.
// Arguments given on the command line win.
func buildConfig(args *u.Arguments) (*Config, error) {

	config := new(Config)
	if path := *args.StringArg[configArg]; len(path) > 0 {
		var err error
		if config, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if path := *args.StringArg[pathArg]; len(path) > 0 {
		config.Path = path
	}
	if *args.BoolArg[recursiveArg] {
		config.Recursive = true
	}
	if workers := *args.IntArg[workersArg]; workers != 0 {
		config.Workers = workers
	}
	if *args.BoolArg[verboseArg] {
		config.Verbose = true
	}
	if archs := *args.StringArg[archArg]; len(archs) > 0 {
		config.Architectures = strings.Split(archs, ",")
	}
	if path := *args.StringArg[jsonArg]; len(path) > 0 {
		config.JSON = path
	}
	if path := *args.StringArg[graphArg]; len(path) > 0 {
		config.Graph = path
	}
	if path := *args.StringArg[baselineArg]; len(path) > 0 {
		config.Baseline = path
	}
	if *args.BoolArg[noColorArg] {
		config.NoColor = true
	}
	config.Interactive = *args.BoolArg[interactiveArg]

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
