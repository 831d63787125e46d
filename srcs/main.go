// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package main

import (
	"os"

	"elfdeps/srcs/scantool"
)

func main() {
	scantool.RunScanTool(os.Args)
}
