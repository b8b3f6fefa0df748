package service

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/zxhio/delaysim/internal/executor"
	"github.com/zxhio/delaysim/internal/irq"
	"github.com/zxhio/delaysim/internal/model"
	"github.com/zxhio/delaysim/internal/state"
	"github.com/zxhio/delaysim/pkg/netutil"
	"github.com/zxhio/delaysim/pkg/utils"
)

const (
	DefaultSysctlRoot = "/proc/sys"
	netemLimit        = 100000
)

// Runner performs or previews one external operation.
type Runner interface {
	Run(op executor.Op) error
	ShowOnly() bool
}

type Options struct {
	Group          *model.InterfaceGroup
	KernelTweaks   []model.KernelTweak
	Force          bool
	SysctlRoot     string
	InterruptsPath string
	IRQRoot        string
}

// Group drives setup and teardown of one interface group's bridge.
type Group struct {
	opts     Options
	runner   Runner
	prober   Prober
	store    *state.Store
	bridgeID int
	log      *logrus.Entry
}

// NewGroup resolves the group's bridge id from store, assigning a fresh one
// to members that have none. The assignment is persisted by Setup.
func NewGroup(opts Options, store *state.Store, runner Runner, prober Prober) (*Group, error) {
	if opts.SysctlRoot == "" {
		opts.SysctlRoot = DefaultSysctlRoot
	}
	if opts.InterruptsPath == "" {
		opts.InterruptsPath = irq.DefaultInterruptsPath
	}
	if opts.IRQRoot == "" {
		opts.IRQRoot = irq.DefaultIRQRoot
	}

	id, err := store.EnsureGroupID(opts.Group.Members)
	if err != nil {
		logrus.WithField("state", store.Path()).Error("Detected multiple bridge ids in a single group, delete the state file and try again")
		return nil, err
	}

	g := &Group{
		opts:     opts,
		runner:   runner,
		prober:   prober,
		store:    store,
		bridgeID: id,
	}
	g.log = logrus.WithFields(logrus.Fields{"group": opts.Group.Name, "bridge": g.Bridge()})
	g.log.WithField("interfaces", utils.SliceString(opts.Group.Members)).Debug("Resolved bridge id")
	return g, nil
}

func (g *Group) BridgeID() int { return g.bridgeID }

func (g *Group) Bridge() string { return "br" + strconv.Itoa(g.bridgeID) }

// Detect probes for the bridge device. A failed probe is reported and
// handled as not configured.
func (g *Group) Detect() Detection {
	d, err := g.prober.Probe(g.Bridge())
	if err != nil {
		g.log.WithError(err).Warn("Fail to probe bridge interface")
	}
	return d
}

func (g *Group) Setup() error {
	if g.Detect() == DetectionConfigured {
		g.log.Info("Bridge interface detected, assuming initial setup is complete")
		if !g.opts.Force {
			return nil
		}
		g.log.Warn("Force enabled, proceeding anyway")
	}
	g.announceShowOnly()

	g.log.Info("Killing irqbalance")
	if err := g.runner.Run(executor.Command("killall", "irqbalance")); err != nil {
		g.log.WithError(err).Warn("Unable to kill irqbalance, perhaps it is dead")
	}

	g.log.Info("Bringing up hw interfaces")
	for _, iface := range g.opts.Group.Members {
		g.inspectMember(iface)
		if err := g.runner.Run(executor.Command("ifconfig", iface, "0.0.0.0", "promisc", "up")); err != nil {
			return err
		}
	}

	g.log.Info("Creating and configuring bridge group")
	if err := g.runner.Run(executor.Command("brctl", "addbr", g.Bridge())); err != nil {
		return err
	}
	for _, iface := range g.opts.Group.Members {
		if err := g.runner.Run(executor.Command("brctl", "addif", g.Bridge(), iface)); err != nil {
			return err
		}
	}
	if err := g.runner.Run(executor.Command("ifconfig", g.Bridge(), "up")); err != nil {
		return err
	}

	g.log.Info("Tuning CPU")
	if err := g.runner.Run(executor.Command("cpufreq-set", "-r", "-g", "performance")); err != nil {
		return err
	}

	g.log.Info("Tuning kernel values")
	for _, tweak := range g.opts.KernelTweaks {
		if err := g.runner.Run(executor.Write(tweak.Path(g.opts.SysctlRoot), tweak.Value)); err != nil {
			return err
		}
	}

	g.log.WithField("delay", g.opts.Group.Delay).Info("Using tc to add delay queues")
	g.forEachQueue(func(iface string, queue int) {
		err := g.runner.Run(executor.Command(g.netemArgs("add", iface, queue)...))
		if err != nil {
			g.log.WithError(err).WithFields(logrus.Fields{"iface": iface, "queue": queue}).
				Warn("Unable to add tc configuration, does it already exist?")
		}
	})

	if err := g.store.Save(); err != nil {
		return err
	}
	g.log.Info("All configured")
	return nil
}

func (g *Group) Teardown() error {
	if g.Detect() != DetectionConfigured {
		g.log.Info("Bridge interface is not detected")
		if !g.opts.Force {
			return nil
		}
		g.log.Warn("Force enabled, proceeding anyway")
	}
	g.announceShowOnly()

	g.log.Info("Bringing down hw interfaces")
	for _, iface := range g.opts.Group.Members {
		if err := g.runner.Run(executor.Command("ifconfig", iface, "down")); err != nil {
			return err
		}
	}

	g.log.Info("Removing tc delay queues")
	g.forEachQueue(func(iface string, queue int) {
		err := g.runner.Run(executor.Command(g.netemArgs("del", iface, queue)...))
		if err != nil {
			g.log.WithError(err).WithFields(logrus.Fields{"iface": iface, "queue": queue}).
				Warn("Unable to remove tc configuration, possibly it never existed")
		}
	})

	g.log.Info("Removing bridge interface")
	if err := g.runner.Run(executor.Command("ifconfig", g.Bridge(), "down")); err != nil {
		return err
	}
	if err := g.runner.Run(executor.Command("brctl", "delbr", g.Bridge())); err != nil {
		return err
	}

	if err := g.store.ForgetGroup(g.opts.Group.Members); err != nil {
		return err
	}
	g.log.Info("Torn down")
	return nil
}

// ProcessIRQs runs the affinity planner over the live interrupt table.
func (g *Group) ProcessIRQs(mode irq.Mode) ([]model.IRQAssignment, error) {
	p := irq.NewPlanner(g.opts.Group.Cores, g.runner, irq.WithIRQRoot(g.opts.IRQRoot))
	return p.RunFile(g.opts.InterruptsPath, mode)
}

// Queues are addressed 1..QueueCount under the root qdisc.
func (g *Group) forEachQueue(fn func(iface string, queue int)) {
	for _, iface := range g.opts.Group.Members {
		for queue := 1; queue <= g.opts.Group.QueueCount; queue++ {
			fn(iface, queue)
		}
	}
}

func (g *Group) netemArgs(action, iface string, queue int) []string {
	return []string{
		"tc", "qdisc", action, "dev", iface, "parent", fmt.Sprintf(":%d", queue),
		"netem", "delay", g.opts.Group.Delay, "limit", strconv.Itoa(netemLimit),
	}
}

func (g *Group) announceShowOnly() {
	if g.runner.ShowOnly() {
		g.log.Warn("Showing configuration only, performing no actual config")
	}
}

func (g *Group) inspectMember(iface string) {
	l := g.log.WithField("iface", iface)
	if !netutil.IsPhyNic(iface) {
		l.Warn("Interface is not a physical nic")
		return
	}
	if queues, err := netutil.GetTxQueues(iface); err == nil {
		l.WithFields(logrus.Fields{"tx_queues": len(queues), "queue_count": g.opts.Group.QueueCount}).Debug("Detected link queues")
	}
}
