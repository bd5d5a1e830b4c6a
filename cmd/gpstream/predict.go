package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/qrv0/gpstream/internal/config"
	"github.com/qrv0/gpstream/internal/fileformat"
	"github.com/qrv0/gpstream/internal/gp"
	"github.com/qrv0/gpstream/internal/metric"
	"github.com/qrv0/gpstream/internal/reference"
)

func cmdPredict() {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	in := fs.String("in", "", "input .gpf")
	mode := fs.String("mode", "", "stream or batch")
	capacity := fs.Int("capacity", 0, "channel capacity (stream mode)")
	showMetrics := fs.Bool("metrics", false, "print pipeline metrics to stderr")
	rf := addRunFlags(fs)
	fs.Parse(os.Args[2:])
	if *in == "" {
		fmt.Println("usage: gpstream predict --in p.gpf [--mode stream|batch] [--capacity N] [--config run.yaml]")
		os.Exit(1)
	}
	c := rf.load(fs, func(c *config.Run, name string) {
		switch name {
		case "mode":
			c.Mode = *mode
		case "capacity":
			c.Capacity = *capacity
		}
	})
	logger := newLogger(c)

	path, cleanup := localInput(*in)
	p, _, err := fileformat.ReadProblem(path)
	cleanup()
	if err != nil {
		log.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	m, err := metric.New(reg)
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	y, err := predict(ctx, p, c, logger, m)
	if err != nil {
		log.Fatal(err)
	}
	printVector(os.Stdout, y)
	if *showMetrics {
		if err := writeMetrics(os.Stderr, reg); err != nil {
			log.Fatal(err)
		}
	}
}

func cmdCompare() {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	in := fs.String("in", "", "input .gpf")
	capacity := fs.Int("capacity", 0, "channel capacity")
	tol := fs.Float64("tol", reference.DefaultTolerance, "absolute tolerance")
	rf := addRunFlags(fs)
	fs.Parse(os.Args[2:])
	if *in == "" {
		fmt.Println("usage: gpstream compare --in p.gpf [--capacity N] [--tol 1e-6]")
		os.Exit(1)
	}
	c := rf.load(fs, func(c *config.Run, name string) {
		switch name {
		case "capacity":
			c.Capacity = *capacity
		case "tol":
			c.Tolerance = *tol
		}
	})
	logger := newLogger(c)

	path, cleanup := localInput(*in)
	p, _, err := fileformat.ReadProblem(path)
	cleanup()
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	maxDiff, ok, err := compare(ctx, p, c, logger)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("max abs diff: %g (tolerance %g)\n", maxDiff, c.Tolerance)
	if !ok {
		fmt.Fprintln(os.Stderr, "compare: FAILED")
		os.Exit(3)
	}
	fmt.Println("compare: OK")
}

func predict(ctx context.Context, p gp.Problem, c config.Run, logger *slog.Logger, m *metric.Metrics) ([]float64, error) {
	if c.Mode == config.ModeBatch {
		y, err := gp.PredictBatch(p)
		if m != nil {
			result := "ok"
			if err != nil {
				result = "failed"
			}
			m.Runs.WithLabelValues(config.ModeBatch, result).Inc()
		}
		return y, err
	}
	distance, kernel := c.Capacities()
	return gp.Predict(ctx, p,
		gp.WithDistanceCapacity(distance),
		gp.WithKernelCapacity(kernel),
		gp.WithLogger(logger),
		gp.WithMetrics(m),
	)
}

// compare runs both modes on p and checks the largest absolute difference
// against c.Tolerance.
func compare(ctx context.Context, p gp.Problem, c config.Run, logger *slog.Logger) (float64, bool, error) {
	c.Mode = config.ModeBatch
	want, err := predict(ctx, p, c, logger, nil)
	if err != nil {
		return 0, false, fmt.Errorf("batch: %w", err)
	}
	c.Mode = config.ModeStream
	got, err := predict(ctx, p, c, logger, nil)
	if err != nil {
		return 0, false, fmt.Errorf("stream: %w", err)
	}
	return reference.Compare(got, want, c.Tolerance)
}

func printVector(w io.Writer, y []float64) {
	for _, v := range y {
		fmt.Fprintln(w, strconv.FormatFloat(v, 'g', -1, 64))
	}
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
