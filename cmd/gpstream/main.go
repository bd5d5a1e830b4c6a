package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/qrv0/gpstream/internal/config"
	"github.com/qrv0/gpstream/internal/downloader"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "pack":
		cmdPack()
	case "inspect":
		cmdInspect()
	case "verify":
		cmdVerify()
	case "predict":
		cmdPredict()
	case "compare":
		cmdCompare()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("gpstream - streaming Gaussian Process prediction")
	fmt.Println("usage: gpstream <command> [args]")
	fmt.Println("  pack    --in problem.yaml --out p.gpf [--compress none|zstd|lz4]")
	fmt.Println("  inspect <p.gpf>                 print header, sections and META")
	fmt.Println("  verify  --in p.gpf              verify section checksums")
	fmt.Println("  predict --in p.gpf [--mode stream|batch] [--capacity N] [--config run.yaml]")
	fmt.Println("  compare --in p.gpf [--capacity N] [--tol 1e-6]")
	fmt.Println("--in and inspect also accept an http(s) URL")
}

// localInput resolves in to a local file, downloading URLs to a temp file.
func localInput(in string) (string, func()) {
	path, cleanup, err := downloader.Local(context.Background(), in)
	if err != nil {
		log.Fatal(err)
	}
	return path, cleanup
}

// runFlags are shared by subcommands that read a run config.
type runFlags struct {
	config   *string
	logLevel *string
}

func addRunFlags(fs *flag.FlagSet) runFlags {
	return runFlags{
		config:   fs.String("config", "", "run config (YAML)"),
		logLevel: fs.String("log-level", "", "debug, info, warn or error"),
	}
}

// load reads the run config, then applies flags that were set explicitly.
func (rf runFlags) load(fs *flag.FlagSet, override func(c *config.Run, name string)) config.Run {
	c := config.Default()
	if *rf.config != "" {
		var err error
		if c, err = config.Load(*rf.config); err != nil {
			log.Fatal(err)
		}
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "log-level" {
			c.LogLevel = *rf.logLevel
		}
		if override != nil {
			override(&c, f.Name)
		}
	})
	if err := c.Validate(); err != nil {
		log.Fatal(err)
	}
	return c
}

func newLogger(c config.Run) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		log.Fatal(err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
