// Package snapshot persists resolved file identities between runs so a
// caller can notice that a path was rotated or replaced by a different
// file object. Nothing here is a cache: every check resolves the live
// identity and only uses the stored one for comparison.
package snapshot

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/djherbis/times"

	"filesig/logger"
	"filesig/signature"
)

// Entry is the recorded identity of one path.
type Entry struct {
	Signature    signature.Signature `json:"signature"`
	RecordedAt   string              `json:"recorded_at"`
	ModTime      string              `json:"mod_time,omitempty"`
	ChangeTime   string              `json:"change_time,omitempty"`
	CreationTime string              `json:"creation_time,omitempty"`
}

type Snapshot struct {
	entries map[string]Entry
}

// jsonSnapshot is the on-disk layout.
type jsonSnapshot struct {
	Entries map[string]Entry `json:"snapshot"`
}

func New() *Snapshot {
	return &Snapshot{entries: map[string]Entry{}}
}

// Load reads a snapshot file. A missing file is not an error; it yields
// an empty snapshot so first runs need no setup.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}

	var raw jsonSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	s := New()
	if raw.Entries != nil {
		s.entries = raw.Entries
	}
	return s, nil
}

func (s *Snapshot) Save(path string) error {
	data, err := json.MarshalIndent(jsonSnapshot{Entries: s.entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Record resolves the current identity of path and stores it, replacing
// any previous entry.
func (s *Snapshot) Record(path string) (Entry, error) {
	sig, err := signature.Resolve(path)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Signature:  sig,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if ts, err := times.Stat(path); err == nil {
		entry.ModTime = ts.ModTime().Format(time.RFC3339)
		if ts.HasChangeTime() {
			entry.ChangeTime = ts.ChangeTime().Format(time.RFC3339)
		}
		if ts.HasBirthTime() {
			entry.CreationTime = ts.BirthTime().Format(time.RFC3339)
		}
	} else {
		logger.Debugf("No timestamps for %s: %v", path, err)
	}

	s.entries[path] = entry
	return entry, nil
}

// Lookup returns the recorded entry for path, if any.
func (s *Snapshot) Lookup(path string) (Entry, bool) {
	entry, ok := s.entries[path]
	return entry, ok
}

// Changed reports whether the file object behind path differs from the
// recorded one. A path that was never recorded counts as changed. The
// live identity is always re-resolved.
func (s *Snapshot) Changed(path string) (bool, error) {
	current, err := signature.Resolve(path)
	if err != nil {
		return false, err
	}
	entry, ok := s.entries[path]
	if !ok || entry.Signature.IsZero() {
		return true, nil
	}
	return !entry.Signature.Equal(current), nil
}

func (s *Snapshot) Forget(path string) {
	delete(s.entries, path)
}

// Paths returns the recorded paths in sorted order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (s *Snapshot) Len() int {
	return len(s.entries)
}
