//go:build windows

package signature

import (
	"os"

	"golang.org/x/sys/windows"

	"filesig/logger"
)

func resolve(path string) (Signature, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return Signature{}, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return resolveHandle(p, path)
}

func resolveUTF16(path []uint16) (Signature, error) {
	// Reattach the terminator stripped by the caller; the buffer itself
	// is handed to the OS untouched.
	buf := make([]uint16, len(path)+1)
	copy(buf, path)
	return resolveHandle(&buf[0], decodeUTF16(path))
}

// resolveHandle opens the file existing, read-only, share-read, queries
// identity attributes by handle, and releases the handle on every exit
// path. pathText is only used for error reporting and logging.
func resolveHandle(p *uint16, pathText string) (Signature, error) {
	h, err := windows.CreateFile(
		p,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return Signature{}, &os.PathError{Op: "open", Path: pathText, Err: err}
	}

	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		if cerr := windows.CloseHandle(h); cerr != nil {
			logger.Warnf("Failed to close %s after query failure: %v", pathText, cerr)
		}
		return Signature{}, &os.PathError{Op: "stat", Path: pathText, Err: err}
	}

	// The file index arrives as two 32-bit halves.
	sig := Signature{
		FileIndex: uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow),
		VolumeID:  uint64(info.VolumeSerialNumber),
	}

	if err := windows.CloseHandle(h); err != nil {
		// The identity was already read; a release failure is reported
		// out-of-band instead of replacing the result.
		logger.Warnf("Failed to close %s: %v", pathText, err)
	}
	return sig, nil
}
