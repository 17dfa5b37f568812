//go:build linux

package drives

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// virtualFSTypes lists filesystem types that never back a removable
// card or drive.
var virtualFSTypes = map[string]bool{
	"tmpfs": true, "devtmpfs": true, "sysfs": true, "proc": true,
	"cgroup": true, "cgroup2": true, "overlay": true, "squashfs": true,
	"autofs": true, "fusectl": true, "debugfs": true, "tracefs": true,
	"securityfs": true, "pstore": true, "bpf": true, "mqueue": true,
	"hugetlbfs": true, "configfs": true, "ramfs": true,
}

// Enumerate lists removable volumes by parsing /proc/mounts. Only
// mounts under /media and /mnt are considered removable; system mounts
// and virtual filesystems are skipped.
func Enumerate() ([]VolumeInfo, error) {
	file, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var volumes []VolumeInfo
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountPoint := fields[1]
		fsType := fields[2]

		if virtualFSTypes[fsType] || seen[mountPoint] {
			continue
		}
		if !strings.HasPrefix(mountPoint, "/media/") && !strings.HasPrefix(mountPoint, "/mnt/") {
			continue
		}
		seen[mountPoint] = true

		vol := VolumeInfo{
			Name:       filepath.Base(mountPoint),
			Path:       mountPoint,
			Filesystem: fsType,
		}
		var st syscall.Statfs_t
		if err := syscall.Statfs(mountPoint, &st); err == nil {
			vol.TotalBytes = st.Blocks * uint64(st.Bsize)
			vol.FreeBytes = st.Bavail * uint64(st.Bsize)
		}
		volumes = append(volumes, vol)
	}
	return volumes, scanner.Err()
}
