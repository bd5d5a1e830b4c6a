package main

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/qrv0/gpstream/internal/config"
	"github.com/qrv0/gpstream/internal/fileformat"
	"github.com/qrv0/gpstream/internal/metric"
)

const problemYAML = `
x: [[1, 2, 3], [2, 4, 1], [4, 2, 2]]
xstar: [[1, 3, 2], [3, 2, 1]]
length_scales: [0, 0, 0]
sigma: 0
weights: [1.9407565, 2.93451157, 3.95432381]
`

func TestPackPredictCompare(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "problem.yaml")
	out := filepath.Join(dir, "problem.gpf")
	if err := os.WriteFile(in, []byte(problemYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c := config.Default()
	c.Compression = "lz4"
	c.ChecksumChunk = 8
	if err := pack(context.Background(), in, out, c); err != nil {
		t.Fatalf("pack: %v", err)
	}
	if code := verify(out); code != 0 {
		t.Fatalf("verify exit code %d", code)
	}
	if err := inspectGPF(out); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	r, err := fileformat.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := r.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	p, _, err := r.Problem()
	r.Close()
	if err != nil {
		t.Fatalf("problem: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	reg := prometheus.NewRegistry()
	m, err := metric.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1.39538648, 1.73114001}
	for _, mode := range []string{config.ModeStream, config.ModeBatch} {
		c.Mode = mode
		y, err := predict(context.Background(), p, c, logger, m)
		if err != nil {
			t.Fatalf("%s predict: %v", mode, err)
		}
		for i := range want {
			if math.Abs(y[i]-want[i]) > 1e-6 {
				t.Fatalf("%s y[%d] = %v want %v", mode, i, y[i], want[i])
			}
		}
	}

	c.Capacity = 1
	maxDiff, ok, err := compare(context.Background(), p, c, logger)
	if err != nil || !ok {
		t.Fatalf("compare: diff=%g ok=%v err=%v", maxDiff, ok, err)
	}

	var buf bytes.Buffer
	if err := writeMetrics(&buf, reg); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		`gpstream_runs_total{mode="stream",result="ok"} 1`,
		`gpstream_runs_total{mode="batch",result="ok"} 1`,
		`gpstream_stage_elements_total{stage="distance"} 6`,
	} {
		if !strings.Contains(buf.String(), name) {
			t.Fatalf("metrics missing %q:\n%s", name, buf.String())
		}
	}

	buf.Reset()
	printVector(&buf, []float64{0.5, -2})
	if buf.String() != "0.5\n-2\n" {
		t.Fatalf("printVector: %q", buf.String())
	}
}

func TestPackRejectsRaggedRows(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "problem.yaml")
	bad := strings.Replace(problemYAML, "[2, 4, 1]", "[2, 4]", 1)
	if err := os.WriteFile(in, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := pack(context.Background(), in, filepath.Join(dir, "p.gpf"), config.Default()); err == nil {
		t.Fatal("ragged rows packed")
	}
}

func TestPackFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(problemYAML))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "remote.gpf")
	if err := pack(context.Background(), srv.URL+"/problem.yaml", out, config.Default()); err != nil {
		t.Fatalf("pack from url: %v", err)
	}
	p, _, err := fileformat.ReadProblem(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if p.NX != 3 || p.NXStar != 2 || p.Dim != 3 {
		t.Fatalf("shape %dx%dx%d", p.NX, p.NXStar, p.Dim)
	}
}
