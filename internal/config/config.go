// Package config loads YAML run settings and problem descriptions for the
// gpstream CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qrv0/gpstream/internal/fileformat"
	"github.com/qrv0/gpstream/internal/stream"
)

const (
	ModeStream = "stream"
	ModeBatch  = "batch"
)

// Run holds settings for pack, predict and compare. Zero channel capacities
// fall back to Capacity.
type Run struct {
	Mode             string  `yaml:"mode"`
	Capacity         int     `yaml:"capacity"`
	DistanceCapacity int     `yaml:"distance_capacity,omitempty"`
	KernelCapacity   int     `yaml:"kernel_capacity,omitempty"`
	Tolerance        float64 `yaml:"tolerance"`
	Compression      string  `yaml:"compression"`
	ChecksumChunk    int     `yaml:"checksum_chunk"`
	LogLevel         string  `yaml:"log_level"`
}

// Default returns the settings used when no config file is given.
func Default() Run {
	return Run{
		Mode:          ModeStream,
		Capacity:      stream.DefaultCapacity,
		Tolerance:     1e-6,
		Compression:   "none",
		ChecksumChunk: fileformat.DefaultChecksumChunk,
		LogLevel:      "info",
	}
}

// Load reads path over Default and validates the result. Unknown keys are
// rejected.
func Load(path string) (Run, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := decodeStrict(data, &c); err != nil {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks field ranges.
func (c Run) Validate() error {
	switch c.Mode {
	case ModeStream, ModeBatch:
	default:
		return fmt.Errorf("mode %q must be %s or %s", c.Mode, ModeStream, ModeBatch)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("capacity %d must be at least 1", c.Capacity)
	}
	if c.DistanceCapacity < 0 || c.KernelCapacity < 0 {
		return errors.New("channel capacities must not be negative")
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance %g must be positive", c.Tolerance)
	}
	if _, err := fileformat.ParseCompression(c.Compression); err != nil {
		return err
	}
	if c.ChecksumChunk < 1 {
		return fmt.Errorf("checksum_chunk %d must be positive", c.ChecksumChunk)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Capacities resolves the per-channel capacities.
func (c Run) Capacities() (distance, kernel int) {
	distance, kernel = c.Capacity, c.Capacity
	if c.DistanceCapacity > 0 {
		distance = c.DistanceCapacity
	}
	if c.KernelCapacity > 0 {
		kernel = c.KernelCapacity
	}
	return distance, kernel
}

// Level parses LogLevel (debug, info, warn, error).
func (c Run) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
