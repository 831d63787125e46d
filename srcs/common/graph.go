// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package common

import (
	"sort"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

const dotExt = ".dot"

// BuildGraph creates a directed graph where every key of data is linked to
// each of its values. mapLabel optionally gives a display label to a node.
//
// It returns the graph in dot format and an error if any, otherwise it
// returns nil.
func BuildGraph(graphName string, data map[string][]string,
	mapLabel map[string]string) (string, error) {

	graph := gographviz.NewGraph()
	if err := graph.SetName(strconv.Quote(graphName)); err != nil {
		return "", err
	}
	if err := graph.SetDir(true); err != nil {
		return "", err
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	addNode := func(name string) error {
		id := strconv.Quote(name)
		if graph.IsNode(id) {
			return nil
		}
		attrs := map[string]string{}
		if label, ok := mapLabel[name]; ok {
			attrs["label"] = strconv.Quote(label)
		}
		return graph.AddNode(graph.Name, id, attrs)
	}

	for _, key := range keys {
		if err := addNode(key); err != nil {
			return "", errors.Wrapf(err, "cannot add node %s", key)
		}
		for _, value := range data[key] {
			if err := addNode(value); err != nil {
				return "", errors.Wrapf(err, "cannot add node %s", value)
			}
			if err := graph.AddEdge(strconv.Quote(key), strconv.Quote(value),
				true, nil); err != nil {
				return "", errors.Wrapf(err, "cannot link %s to %s", key, value)
			}
		}
	}

	return graph.String(), nil
}

// GenerateGraph saves the graph of data into fullPathName (".dot" is added
// when missing).
//
// It returns an error if any, otherwise it returns nil.
func GenerateGraph(graphName, fullPathName string, data map[string][]string,
	mapLabel map[string]string) error {

	content, err := BuildGraph(graphName, data, mapLabel)
	if err != nil {
		return err
	}

	if !strings.HasSuffix(fullPathName, dotExt) {
		fullPathName += dotExt
	}
	return WriteToFile(fullPathName, []byte(content))
}
