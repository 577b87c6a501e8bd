package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"filesig/config"
	"filesig/signature"
	"filesig/volume"
)

const SchemaVersion = "1"

type Metrics struct {
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	PathsResolved int    `json:"paths_resolved"`
	Failures      int    `json:"failures"`
}

// SignatureRecord is the per-path result record.
type SignatureRecord struct {
	Path        string               `json:"path"`
	Signature   *signature.Signature `json:"signature,omitempty"`
	Volume      *volume.Info         `json:"volume,omitempty"`
	StableIDs   *bool                `json:"stable_ids,omitempty"`
	Changed     *bool                `json:"changed,omitempty"`
	Error       string               `json:"error,omitempty"`
	OSErrorCode uint64               `json:"os_error_code,omitempty"`
}

// CompareRecord is the result of comparing two paths.
type CompareRecord struct {
	PathA      string               `json:"path_a"`
	PathB      string               `json:"path_b"`
	SignatureA *signature.Signature `json:"signature_a,omitempty"`
	SignatureB *signature.Signature `json:"signature_b,omitempty"`
	SameFile   bool                 `json:"same_file"`
	SameVolume bool                 `json:"same_volume"`
}

type Writer struct {
	file    *os.File
	buf     *bufio.Writer
	mu      sync.Mutex
	first   bool
	metrics *Metrics
	format  string
	stdout  bool
}

func New(cfg *config.Config, m *Metrics) (*Writer, error) {
	w := &Writer{
		first:   true,
		metrics: m,
		format:  cfg.OutputFormat,
	}

	if cfg.OutputFileName == "" || cfg.OutputFileName == "-" {
		w.file = os.Stdout
		w.stdout = true
	} else {
		f, err := os.OpenFile(cfg.OutputFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, err
		}
		w.file = f
	}
	w.buf = bufio.NewWriter(w.file)

	if w.format == "json" {
		if _, err := fmt.Fprintf(w.buf, "{\n  \"schema_version\": %q,\n  \"signatures\": [\n", SchemaVersion); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Write emits one record. The record must marshal cleanly to JSON;
// marshal failures are reported back since a half-written document is
// worse than a loud error.
func (w *Writer) Write(record interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.format {
	case "ndjson":
		line, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if _, err := w.buf.Write(line); err != nil {
			return err
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return err
		}
	default:
		data, err := json.MarshalIndent(record, "    ", "  ")
		if err != nil {
			return err
		}
		if !w.first {
			if _, err := w.buf.WriteString(",\n"); err != nil {
				return err
			}
		}
		if _, err := w.buf.WriteString("    "); err != nil {
			return err
		}
		if _, err := w.buf.Write(data); err != nil {
			return err
		}
		w.first = false
	}
	return nil
}

// SetMetrics replaces the metrics written at Close.
func (w *Writer) SetMetrics(m Metrics) {
	w.mu.Lock()
	defer w.mu.Unlock()
	*w.metrics = m
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.format {
	case "ndjson":
		line, err := json.Marshal(struct {
			Metrics *Metrics `json:"metrics"`
		}{w.metrics})
		if err == nil {
			w.buf.Write(line)
			w.buf.WriteByte('\n')
		}
	default:
		metricBytes, err := json.MarshalIndent(w.metrics, "  ", "  ")
		if err == nil {
			fmt.Fprintf(w.buf, "\n  ],\n  \"metrics\": %s\n}\n", metricBytes)
		}
	}

	if err := w.buf.Flush(); err != nil {
		return err
	}
	if w.stdout {
		return nil
	}
	return w.file.Close()
}
