// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package common

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const jsonExt = ".json"

// RecordDataJson saves data into a JSON file. The ".json" extension is added
// when filename does not carry it.
//
// It returns an error if any, otherwise it returns nil.
func RecordDataJson(filename string, data interface{}) error {

	if !strings.HasSuffix(filename, jsonExt) {
		filename += jsonExt
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot encode JSON data")
	}

	return WriteToFile(filename, append(b, '\n'))
}

// WriteToFile creates (or truncates) filename and writes content into it.
//
// It returns an error if any, otherwise it returns nil.
func WriteToFile(filename string, content []byte) error {
	if err := os.WriteFile(filename, content, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write %s", filename)
	}
	return nil
}
