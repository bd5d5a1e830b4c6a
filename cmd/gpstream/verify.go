package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/qrv0/gpstream/internal/fileformat"
)

func cmdVerify() {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	in := fs.String("in", "", "input .gpf")
	fs.Parse(os.Args[2:])
	if *in == "" {
		fmt.Println("usage: gpstream verify --in p.gpf")
		os.Exit(1)
	}
	path, cleanup := localInput(*in)
	code := verify(path)
	cleanup()
	os.Exit(code)
}

func verify(path string) int {
	r, err := fileformat.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: open error: %v\n", err)
		return 1
	}
	defer r.Close()
	checks, err := r.Verify()
	if errors.Is(err, fileformat.ErrNoChecksums) {
		fmt.Println("no checksum_index in META")
		return 2
	}
	if checks == nil && err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}
	for _, c := range checks {
		name := fileformat.SectionName(c.Type)
		switch {
		case c.Err != nil:
			fmt.Printf("section %s: %v\n", name, c.Err)
		case len(c.Mismatched) > 0:
			fmt.Printf("section %s: chunks %v mismatch\n", name, c.Mismatched)
		default:
			fmt.Printf("section %s: %d chunks ok\n", name, c.Chunks)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "checksum verify: FAILED")
		return 3
	}
	fmt.Println("checksum verify: OK")
	return 0
}
