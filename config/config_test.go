package config

import (
	"os"
	"testing"
)

func TestParseCommaSeparated(t *testing.T) {
	res := parseCommaSeparated("a,b , c")
	if len(res) != 3 || res[1] != "b" {
		t.Fatalf("unexpected result: %v", res)
	}
	if res := parseCommaSeparated(""); len(res) != 0 {
		t.Fatalf("expected empty slice")
	}
	if res := parseCommaSeparated(" , ,"); len(res) != 0 {
		t.Fatalf("expected empty slice for blank entries, got %v", res)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmp, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatalf("temp: %v", err)
	}
	tmp.WriteString(`{"paths":["/var/log/syslog"],"output_format":"ndjson","volume_info":true}`)
	tmp.Close()
	defer os.Remove(tmp.Name())

	cfg := &Config{}
	if err := cfg.loadFromFile(tmp.Name()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths[0] != "/var/log/syslog" || cfg.OutputFormat != "ndjson" || !cfg.VolumeInfo {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := &Config{}
	if err := cfg.loadFromFile("/definitely/missing/config.json"); err == nil {
		t.Fatal("expected error for missing config file")
	}

	tmp, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatalf("temp: %v", err)
	}
	tmp.WriteString("{broken")
	tmp.Close()
	defer os.Remove(tmp.Name())
	if err := cfg.loadFromFile(tmp.Name()); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{OutputFormat: "json"}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error when nothing to do")
	}
	cfg = &Config{Paths: []string{"/tmp/a"}, OutputFormat: "xml"}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid output format error")
	}
	cfg = &Config{ComparePaths: []string{"/tmp/a"}, OutputFormat: "json"}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for single compare path")
	}
	cfg = &Config{Paths: []string{"/tmp/a"}, OutputFormat: "json", MaxIOPerSecond: -1}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid rate limit error")
	}
	cfg = &Config{Paths: []string{"/tmp/a"}, OutputFormat: "json", RecordSnapshot: true}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected missing snapshot file error")
	}
	cfg = &Config{Paths: []string{"/tmp/a"}, OutputFormat: "json", LogLevel: "loud"}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid log level error")
	}
	cfg = &Config{
		Paths:         []string{"/tmp/a"},
		OutputFormat:  "ndjson",
		LogLevel:      "debug",
		SnapshotFile:  "snap.json",
		CheckSnapshot: true,
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg = &Config{ComparePaths: []string{"/tmp/a", "/tmp/b"}, OutputFormat: "json"}
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected error for compare config: %v", err)
	}
}
