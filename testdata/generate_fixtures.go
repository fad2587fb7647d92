//go:build ignore

// This program regenerates sample.docx from sample.md.
package main

import (
	"fmt"
	"os"

	"github.com/klytics/md2docx/internal/formats/convert"
)

func main() {
	res, err := convert.ConvertFile("sample.md", "sample.docx")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.docx: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s (%d blocks, %d bytes).\n", res.Output, res.Blocks, res.Bytes)
}
