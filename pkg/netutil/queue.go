package netutil

import (
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/pkg/errors"
)

func GetTxQueues(iface string) ([]int, error) {
	_, tx, err := GetQueues(iface)
	return tx, err
}

// GetQueues lists the rx-N and tx-N queue indexes sysfs exposes for iface,
// sorted ascending.
func GetQueues(iface string) ([]int, []int, error) {
	entries, err := os.ReadDir(path.Join(sysNetPath, iface, "queues"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "os.ReadDir")
	}

	var rxQueues, txQueues []int
	for _, entry := range entries {
		var id int
		if _, err := fmt.Sscanf(entry.Name(), "rx-%d", &id); err == nil {
			rxQueues = append(rxQueues, id)
		} else if _, err := fmt.Sscanf(entry.Name(), "tx-%d", &id); err == nil {
			txQueues = append(txQueues, id)
		}
	}
	slices.Sort(rxQueues)
	slices.Sort(txQueues)
	return rxQueues, txQueues, nil
}
