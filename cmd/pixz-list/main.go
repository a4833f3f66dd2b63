// Command pixz-list prints the block layout and file index of a pixz
// stream, matching original_source/list.c: one "%9d / %9d" line per
// data block, then (unless -t) the file index.
//
// FILE defaults to standard input. Since listing needs to seek to the
// stream footer, a non-seekable FILE (a pipe, or stdin) is first
// buffered into memory in full.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/timgates42/pixz/list"
)

func main() {
	tarOnly := flag.Bool("t", false, "list data blocks only, skip the file index")
	flag.Parse()

	var f *os.File
	switch flag.NArg() {
	case 0:
		f = os.Stdin
	case 1:
		var err error
		f, err = os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "pixz-list: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [-t] [FILE]\n", os.Args[0])
		os.Exit(1)
	}

	ra, size, err := readerAt(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pixz-list: %v\n", err)
		os.Exit(1)
	}

	s, err := list.Open(ra, size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pixz-list: %v\n", err)
		os.Exit(1)
	}

	// The last index record is the file-index block, not a data block.
	blocks := s.Blocks()
	if len(blocks) > 0 {
		blocks = blocks[:len(blocks)-1]
	}
	if err := list.PrintBlocks(os.Stdout, blocks); err != nil {
		fmt.Fprintf(os.Stderr, "pixz-list: %v\n", err)
		os.Exit(1)
	}

	if *tarOnly {
		return
	}

	fi, err := s.ReadFileIndex()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pixz-list: %v\n", err)
		os.Exit(1)
	}
	if fi == nil {
		return
	}
	fmt.Println()
	if err := list.DumpFileIndex(os.Stdout, fi); err != nil {
		fmt.Fprintf(os.Stderr, "pixz-list: %v\n", err)
		os.Exit(1)
	}
}

// readerAt adapts f into an io.ReaderAt with a known length. Regular
// files already satisfy io.ReaderAt directly; anything else (a pipe,
// stdin redirected from one) is read into memory in full first.
func readerAt(f *os.File) (io.ReaderAt, int64, error) {
	if fi, err := f.Stat(); err == nil && fi.Mode().IsRegular() {
		return f, fi.Size(), nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
