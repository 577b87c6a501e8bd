//go:build linux

package signature

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"
)

func openFDCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("cannot read /proc/self/fd: %v", err)
	}
	return len(entries)
}

// Every resolution must release its descriptor, success or failure.
func TestNoDescriptorLeak(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "leak.txt", "x")
	missing := filepath.Join(dir, "missing")

	// Warm up once so lazily-opened runtime descriptors do not skew the
	// baseline.
	if _, err := Resolve(path); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	before := openFDCount(t)
	for i := 0; i < 100; i++ {
		if _, err := Resolve(path); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if _, err := Resolve(missing); err == nil {
			t.Fatalf("resolve %d: expected failure for missing path", i)
		}
	}
	after := openFDCount(t)

	if after > before {
		t.Fatalf("descriptor count grew from %d to %d", before, after)
	}
}

// /proc lives on a different device than a tmpfs or disk-backed temp
// directory, which gives a second volume without any test setup.
func TestCrossVolumeDistinctness(t *testing.T) {
	procPath := "/proc/self/status"
	if _, err := os.Stat(procPath); err != nil {
		t.Skipf("procfs unavailable: %v", err)
	}

	tmpSig, err := Resolve(writeFile(t, t.TempDir(), "v.txt", "v"))
	if err != nil {
		t.Fatalf("resolve temp file: %v", err)
	}
	procSig, err := Resolve(procPath)
	if err != nil {
		t.Skipf("cannot resolve %s: %v", procPath, err)
	}

	if tmpSig.SameVolume(procSig) {
		t.Skipf("temp dir unexpectedly shares a device with procfs")
	}
	if tmpSig.Equal(procSig) {
		t.Fatal("files on different volumes compare equal")
	}
}

func TestUTF16RoundTripNoLeak(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wide.txt", "w")
	wide := utf16.Encode([]rune(path))

	before := openFDCount(t)
	for i := 0; i < 50; i++ {
		if _, err := ResolveUTF16(wide); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
	if after := openFDCount(t); after > before {
		t.Fatalf("descriptor count grew from %d to %d", before, after)
	}
}
