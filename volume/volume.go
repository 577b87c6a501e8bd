// Package volume maps paths to their containing mount so callers can
// tell which volume a signature's VolumeID belongs to, and whether that
// volume's filesystem provides persistent file IDs at all.
package volume

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// Info describes the mount containing a path.
type Info struct {
	Mountpoint string `json:"mountpoint"`
	Device     string `json:"device"`
	FSType     string `json:"fstype"`
}

// Filesystem types that allocate file IDs per mount session or not at
// all. Signatures from these volumes are not stable across remounts.
var unstableFSTypes = map[string]struct{}{
	"fat":        {},
	"fat32":      {},
	"vfat":       {},
	"msdos":      {},
	"exfat":      {},
	"9p":         {},
	"cifs":       {},
	"smb":        {},
	"smbfs":      {},
	"smb2":       {},
	"nfs":        {},
	"nfs4":       {},
	"fuse.sshfs": {},
}

// SupportsStableIDs reports whether a filesystem type is known to keep
// persistent per-file IDs. Unknown types are assumed stable.
func SupportsStableIDs(fstype string) bool {
	_, unstable := unstableFSTypes[strings.ToLower(fstype)]
	return !unstable
}

// ForPath returns the mount holding path, chosen as the partition with
// the longest mountpoint prefix of the absolute path.
func ForPath(path string) (Info, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Info{}, err
	}

	partitions, err := disk.Partitions(true)
	if err != nil {
		return Info{}, err
	}

	best := -1
	bestLen := -1
	for i, p := range partitions {
		mp := filepath.Clean(p.Mountpoint)
		if !isWithin(abs, mp) {
			continue
		}
		if len(mp) > bestLen {
			best = i
			bestLen = len(mp)
		}
	}
	if best < 0 {
		return Info{}, fmt.Errorf("no mount found for %s", abs)
	}

	p := partitions[best]
	return Info{
		Mountpoint: p.Mountpoint,
		Device:     p.Device,
		FSType:     p.Fstype,
	}, nil
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
