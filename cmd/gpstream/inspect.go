package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/qrv0/gpstream/internal/fileformat"
)

func cmdInspect() {
	if len(os.Args) < 3 {
		fmt.Println("usage: gpstream inspect <p.gpf>")
		os.Exit(1)
	}
	path, cleanup := localInput(os.Args[2])
	err := inspectGPF(path)
	cleanup()
	if err != nil {
		log.Fatal(err)
	}
}

func inspectGPF(path string) error {
	r, err := fileformat.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	fmt.Printf("GPF: version=%d sections=%d\n", r.Ver, len(r.TOC))
	for _, e := range r.TOC {
		comp := "none"
		switch {
		case e.Flags&fileformat.FlagCompZSTD != 0:
			comp = "zstd"
		case e.Flags&fileformat.FlagCompLZ4 != 0:
			comp = "lz4"
		}
		fmt.Printf("  %-8s offset=%-8d size=%-8d compression=%s\n", fileformat.SectionName(e.TypeID), e.Offset, e.Size, comp)
	}
	meta, err := r.Meta()
	if err != nil {
		return err
	}
	idx := meta.ChecksumIndex
	meta.ChecksumIndex = nil
	b, _ := json.MarshalIndent(meta, "", "  ")
	fmt.Println("META:")
	fmt.Println(string(b))
	if len(idx) > 0 {
		fmt.Println("Checksums:")
		for k, v := range idx {
			fmt.Printf("  section %s: chunks=%d chunk_size=%d algo=%s\n", k, v.Count, v.ChunkSize, v.Algo)
		}
	}
	return nil
}
