package model

import (
	"fmt"
	"path"
	"strings"
)

type Role string

const (
	RoleTX Role = "tx"
	RoleRX Role = "rx"
)

func (r Role) Valid() bool { return r == RoleTX || r == RoleRX }

// CoreAssignment binds an "{iface}-{role}" key to its base core.
type CoreAssignment struct {
	Interface string `json:"interface"`
	Role      Role   `json:"role"`
	Core      int    `json:"core"`
}

func (c CoreAssignment) Key() string { return fmt.Sprintf("%s-%s", c.Interface, c.Role) }

type InterfaceGroup struct {
	Name       string           `json:"name"`
	Members    []string         `json:"members"`
	Cores      []CoreAssignment `json:"cores"`
	Delay      string           `json:"delay"`
	QueueCount int              `json:"queue_count"`
}

type KernelTweak struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Path maps the dotted parameter onto root, e.g. net.core.rmem_max ->
// root/net/core/rmem_max.
func (k KernelTweak) Path(root string) string {
	return path.Join(root, strings.ReplaceAll(k.Key, ".", "/"))
}

type IRQAssignment struct {
	Key   string `json:"key"`
	Index int    `json:"index"`
	IRQ   string `json:"irq"`
	Core  int    `json:"core"`
	Mask  string `json:"mask"`
}
