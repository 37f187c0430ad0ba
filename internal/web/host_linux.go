//go:build linux

package web

import (
	"golang.org/x/sys/unix"
)

func snapshotHost() *HostSnapshot {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return &HostSnapshot{LastError: err.Error()}
	}
	// Loads are fixed point with 16 fractional bits.
	const scale = 1 << 16
	unit := uint64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	h := &HostSnapshot{
		UptimeSec:     int64(si.Uptime),
		Load1:         float64(si.Loads[0]) / scale,
		Load5:         float64(si.Loads[1]) / scale,
		Load15:        float64(si.Loads[2]) / scale,
		MemTotalBytes: uint64(si.Totalram) * unit,
		MemFreeBytes:  uint64(si.Freeram) * unit,
	}
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		h.Hostname = unix.ByteSliceToString(uts.Nodename[:])
		h.Kernel = unix.ByteSliceToString(uts.Release[:])
	}
	return h
}
