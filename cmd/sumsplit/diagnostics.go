package main

import (
	"fmt"
	"io"

	sumsplit "github.com/reoring/sumsplit"
)

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// printError writes every diagnostic of err on its own line in compiler
// style, or the plain error when it carries none.
func printError(w io.Writer, err error, color bool) {
	ds, ok := sumsplit.AsDiagnostics(err)
	if !ok {
		if color {
			fmt.Fprintf(w, "%serror:%s %v\n", ansiRed, ansiReset, err)
			return
		}
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	for _, d := range ds {
		if color {
			fmt.Fprintf(w, "%s%s%s %s[%s]%s\n", ansiBold, d.String(), ansiReset, ansiRed, d.Code, ansiReset)
			continue
		}
		fmt.Fprintf(w, "%s [%s]\n", d.String(), d.Code)
	}
}
