// Package signature resolves the persistent identity of a file on disk.
//
// A Signature pairs a per-volume file index (the inode equivalent) with
// the serial number of the containing volume. Two paths carry an equal
// Signature exactly when they name the same underlying file object on
// the same volume, hard links included. Filesystems without persistent
// file IDs (FAT variants, most network mounts) are outside that
// guarantee; see the volume package for detection.
package signature

import (
	"errors"
	"fmt"
	"syscall"
	"unicode/utf16"
)

// Signature identifies a file object on a volume. The zero value is not
// a valid identity.
type Signature struct {
	FileIndex uint64 `json:"file_index"`
	VolumeID  uint64 `json:"volume_id"`
}

func (s Signature) Equal(other Signature) bool {
	return s == other
}

// SameVolume reports whether both signatures come from the same volume.
func (s Signature) SameVolume(other Signature) bool {
	return s.VolumeID == other.VolumeID
}

// IsZero reports whether s is the zero value, which no successful
// resolution produces.
func (s Signature) IsZero() bool {
	return s == Signature{}
}

func (s Signature) String() string {
	return fmt.Sprintf("vol=%d,file=%d", s.VolumeID, s.FileIndex)
}

// Resolve computes the signature for a path in the platform's native
// text encoding. The file is opened existing, read-only, share-read;
// the handle is released before returning on every path. Resolve never
// writes, truncates, or creates anything.
//
// Errors are *os.PathError values with Op "open" or "stat" wrapping the
// unmodified OS error. A close failure after a successful query is
// logged and does not mask the result.
func Resolve(path string) (Signature, error) {
	return resolve(path)
}

// ResolveUTF16 is the wide-encoding counterpart of Resolve. The slice
// is treated as a wide C string: an embedded NUL terminates it. On
// Windows the buffer reaches the OS without transcoding; elsewhere it
// is decoded to the native byte form first.
func ResolveUTF16(path []uint16) (Signature, error) {
	if i := indexNUL(path); i >= 0 {
		path = path[:i]
	}
	return resolveUTF16(path)
}

// SameFile reports whether two paths denote the same file object, which
// includes hard links to it.
func SameFile(pathA, pathB string) (bool, error) {
	a, err := Resolve(pathA)
	if err != nil {
		return false, err
	}
	b, err := Resolve(pathB)
	if err != nil {
		return false, err
	}
	return a.Equal(b), nil
}

// SameFilesystem reports whether two paths live on the same volume.
// Hard links can only be created when this holds.
func SameFilesystem(pathA, pathB string) (bool, error) {
	a, err := Resolve(pathA)
	if err != nil {
		return false, err
	}
	b, err := Resolve(pathB)
	if err != nil {
		return false, err
	}
	return a.SameVolume(b), nil
}

// Errno extracts the numeric OS error code carried by an error returned
// from this package, or 0 when err carries none.
func Errno(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

func indexNUL(s []uint16) int {
	for i, c := range s {
		if c == 0 {
			return i
		}
	}
	return -1
}

func decodeUTF16(s []uint16) string {
	return string(utf16.Decode(s))
}
