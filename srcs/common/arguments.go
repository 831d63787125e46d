// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package common

import (
	"github.com/akamensky/argparse"
	"github.com/pkg/errors"
)

// Exported constants to determine arguments type.
const (
	INT = iota
	BOOL
	STRING
	STRINGLIST
)

// Exported struct that represents the arguments of a tool, indexed by their
// long name.
type Arguments struct {
	IntArg        map[string]*int
	BoolArg       map[string]*bool
	StringArg     map[string]*string
	StringListArg map[string]*[]string
}

// InitArguments allows to initialize the parser in order to parse given
// arguments.
//
// It returns a parser as well as an error if any, otherwise it returns nil.
func (args *Arguments) InitArguments(name, description string) (*argparse.Parser, error) {

	args.IntArg = make(map[string]*int)
	args.BoolArg = make(map[string]*bool)
	args.StringArg = make(map[string]*string)
	args.StringListArg = make(map[string]*[]string)

	p := argparse.NewParser(name, description)
	if p == nil {
		return nil, errors.New("cannot create argument parser")
	}

	return p, nil
}

// InitArgParse registers an argument of the given type on the parser and
// stores its destination into args.
func (*Arguments) InitArgParse(p *argparse.Parser, args *Arguments, typeVar int,
	short, name string, options *argparse.Options) {

	switch typeVar {
	case INT:
		args.IntArg[name] = p.Int(short, name, options)
	case BOOL:
		args.BoolArg[name] = p.Flag(short, name, options)
	case STRING:
		args.StringArg[name] = p.String(short, name, options)
	case STRINGLIST:
		args.StringListArg[name] = p.StringList(short, name, options)
	}
}

// ParserWrapper parses the given command line.
//
// It returns an error embedding the usage message if any, otherwise it returns
// nil.
func ParserWrapper(p *argparse.Parser, args []string) error {
	if err := p.Parse(args); err != nil {
		return errors.New(p.Usage(err))
	}
	return nil
}
