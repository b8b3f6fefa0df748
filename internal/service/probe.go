package service

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
)

type Detection int

const (
	DetectionNotConfigured Detection = iota
	DetectionConfigured
	DetectionProbeFailed
)

func (d Detection) String() string {
	switch d {
	case DetectionNotConfigured:
		return "not-configured"
	case DetectionConfigured:
		return "configured"
	case DetectionProbeFailed:
		return "probe-failed"
	default:
		return fmt.Sprintf("detection(%d)", int(d))
	}
}

type Prober interface {
	Probe(bridge string) (Detection, error)
}

// NetlinkProber treats a queryable link named after the bridge as configured.
type NetlinkProber struct{}

func (NetlinkProber) Probe(bridge string) (Detection, error) {
	_, err := netlink.LinkByName(bridge)
	if err == nil {
		return DetectionConfigured, nil
	}

	var notFound netlink.LinkNotFoundError
	if errors.As(err, &notFound) {
		return DetectionNotConfigured, nil
	}
	return DetectionProbeFailed, errors.Wrap(err, "netlink.LinkByName")
}
