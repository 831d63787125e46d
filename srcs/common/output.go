// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package common

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Verbose enables PrintVerbose output.
var Verbose = false

var (
	headerStyle  = color.New(color.FgCyan, color.Bold)
	infoStyle    = color.New(color.FgBlue)
	okStyle      = color.New(color.FgGreen)
	warningStyle = color.New(color.FgYellow)
	errStyle     = color.New(color.FgRed, color.Bold)
	verboseStyle = color.New(color.Faint)
)

// DisableColors turns off colored output for every printer.
func DisableColors() {
	color.NoColor = true
}

// PrintHeader1 prints a big header.
func PrintHeader1(v ...interface{}) {
	_, _ = headerStyle.Fprintf(color.Output, "[*] %s\n", fmt.Sprint(v...))
}

// PrintHeader2 prints a small header.
func PrintHeader2(v ...interface{}) {
	_, _ = headerStyle.Fprintf(color.Output, "----- %s -----\n", fmt.Sprint(v...))
}

// PrintInfo prints an information message.
func PrintInfo(v ...interface{}) {
	_, _ = infoStyle.Fprint(color.Output, "[-] ")
	fmt.Fprintln(color.Output, v...)
}

// PrintOk prints a success message.
func PrintOk(v ...interface{}) {
	_, _ = okStyle.Fprint(color.Output, "[+] ")
	fmt.Fprintln(color.Output, v...)
}

// PrintWarning prints a warning message on stderr.
func PrintWarning(v ...interface{}) {
	_, _ = warningStyle.Fprint(color.Error, "[!] ")
	fmt.Fprintln(color.Error, v...)
}

// PrintVerbose prints a message only when Verbose is set.
func PrintVerbose(v ...interface{}) {
	if !Verbose {
		return
	}
	_, _ = verboseStyle.Fprintln(color.Output, append([]interface{}{"[.]"}, v...)...)
}

// PrintErr prints an error message on stderr and exits with status 1.
func PrintErr(v ...interface{}) {
	_, _ = errStyle.Fprint(color.Error, "[x] ")
	fmt.Fprintln(color.Error, v...)
	os.Exit(1)
}
