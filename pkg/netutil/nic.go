package netutil

import (
	"os"
	"path"
)

const sysNetPath = "/sys/class/net"

// IsPhyNic reports whether nic is backed by a device, bridges and other
// virtual links have no device entry.
func IsPhyNic(nic string) bool {
	_, err := os.Stat(path.Join(sysNetPath, nic, "device"))
	return err == nil
}
