// Command workbook generates participant workbooks from the command line.
//
//	workbook single --name "Jane Doe" --survey via.pdf --roster conflict.csv --date 2025-03-01 --cohort Spring
//	workbook batch --survey a.pdf --survey b.pdf --roster conflict.csv --date 2025-03-01 --cohort Spring
//	workbook match --survey a.pdf --survey b.pdf --roster conflict.csv
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
