// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"elfdeps/srcs/binarytool/elfcore"
)

// Config holds every setting of a scan. It can be loaded from a YAML file
// and is then overridden by command line arguments.
type Config struct {
	Path          string   `yaml:"path"`
	Recursive     bool     `yaml:"recursive"`
	Workers       int      `yaml:"workers"`
	Verbose       bool     `yaml:"verbose"`
	Architectures []string `yaml:"architectures"`
	JSON          string   `yaml:"json"`
	Graph         string   `yaml:"graph"`
	Baseline      string   `yaml:"baseline"`
	NoColor       bool     `yaml:"no_color"`
	Interactive   bool     `yaml:"-"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}

	config := new(Config)
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}

	return config, nil
}

// Validate checks the config and fills defaults.
func (c *Config) Validate() error {

	if c.Path == "" {
		return errors.New("a path to scan must be provided")
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if _, err := c.ArchitectureFilter(); err != nil {
		return err
	}
	return nil
}

// ArchitectureFilter resolves the configured architecture names.
func (c *Config) ArchitectureFilter() ([]elfcore.Architecture, error) {
	archs := make([]elfcore.Architecture, 0, len(c.Architectures))
	for _, name := range c.Architectures {
		if strings.TrimSpace(name) == "" {
			continue
		}
		arch, err := elfcore.ParseArchitecture(name)
		if err != nil {
			return nil, err
		}
		archs = append(archs, arch)
	}
	return archs, nil
}
