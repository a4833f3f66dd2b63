// Command pixz compresses a tar archive into a parallel, block-indexed
// xz stream: read INFILE.tar, write OUTFILE.xz. It is the writer half
// of the pixz tool pair; cmd/pixz-list is the reader half.
//
// spec.md §1 scopes argument parsing as an external collaborator
// ("CLI front ends... specified only by interface"), so this main
// package stays a thin driver: two positional arguments, no flags,
// wired straight into the pipeline package.
package main

import (
	"fmt"
	"os"

	"github.com/timgates42/pixz/pipeline"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s INFILE.tar OUTFILE.xz\n", os.Args[0])
		os.Exit(1)
	}

	in, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "pixz: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	out, err := os.Create(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "pixz: %v\n", err)
		os.Exit(1)
	}

	numWorkers := pipeline.NumWorkers(0)
	if err := pipeline.Run(in, out, numWorkers); err != nil {
		out.Close()
		fmt.Fprintf(os.Stderr, "pixz: %v\n", err)
		os.Exit(1)
	}
	if err := out.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "pixz: %v\n", err)
		os.Exit(1)
	}
}
