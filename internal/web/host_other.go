//go:build !linux

package web

import "os"

func snapshotHost() *HostSnapshot {
	name, err := os.Hostname()
	if err != nil {
		return &HostSnapshot{LastError: err.Error()}
	}
	return &HostSnapshot{Hostname: name}
}
