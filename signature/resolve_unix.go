//go:build !windows

package signature

import (
	"os"

	"golang.org/x/sys/unix"

	"filesig/logger"
)

// resolve opens the file read-only and reads identity attributes from
// the open descriptor, so the result always reflects the object that
// was actually opened rather than whatever the path points at later.
func resolve(path string) (Signature, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return Signature{}, &os.PathError{Op: "open", Path: path, Err: err}
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		if cerr := unix.Close(fd); cerr != nil {
			logger.Warnf("Failed to close %s after stat failure: %v", path, cerr)
		}
		return Signature{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}

	sig := Signature{
		FileIndex: uint64(stat.Ino),
		VolumeID:  uint64(stat.Dev),
	}

	if err := unix.Close(fd); err != nil {
		// The identity was already read; a release failure is reported
		// out-of-band instead of replacing the result.
		logger.Warnf("Failed to close %s: %v", path, err)
	}
	return sig, nil
}

func resolveUTF16(path []uint16) (Signature, error) {
	return resolve(decodeUTF16(path))
}
