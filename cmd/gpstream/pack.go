package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/qrv0/gpstream/internal/config"
	"github.com/qrv0/gpstream/internal/downloader"
	"github.com/qrv0/gpstream/internal/fileformat"
)

func cmdPack() {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	in := fs.String("in", "", "problem description (YAML path or http(s) URL)")
	out := fs.String("out", "", "output .gpf")
	compress := fs.String("compress", "", "none, zstd or lz4")
	chunk := fs.Int("chunk", 0, "checksum chunk size in bytes")
	rf := addRunFlags(fs)
	fs.Parse(os.Args[2:])
	if *in == "" || *out == "" {
		fmt.Println("usage: gpstream pack --in problem.yaml --out p.gpf [--compress none|zstd|lz4]")
		os.Exit(1)
	}
	c := rf.load(fs, func(c *config.Run, name string) {
		switch name {
		case "compress":
			c.Compression = *compress
		case "chunk":
			c.ChecksumChunk = *chunk
		}
	})
	logger := newLogger(c)
	if err := pack(context.Background(), *in, *out, c); err != nil {
		log.Fatal(err)
	}
	logger.Info("packed", "in", *in, "out", *out, "compression", c.Compression)
	fmt.Println("Wrote:", *out)
}

// pack reads the YAML problem at in, a path or an http(s) URL, and writes it
// to out as a .gpf.
func pack(ctx context.Context, in, out string, c config.Run) error {
	path, cleanup, err := downloader.Local(ctx, in)
	if err != nil {
		return err
	}
	defer cleanup()
	spec, err := config.LoadProblem(path)
	if err != nil {
		return err
	}
	p, err := spec.ToProblem()
	if err != nil {
		return err
	}
	flags, err := fileformat.ParseCompression(c.Compression)
	if err != nil {
		return err
	}
	return fileformat.WriteProblem(out, p, spec.Mean, fileformat.WriteOptions{Flags: flags, ChecksumChunk: c.ChecksumChunk})
}
