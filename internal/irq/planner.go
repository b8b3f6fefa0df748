package irq

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zxhio/delaysim/internal/errcode"
	"github.com/zxhio/delaysim/internal/executor"
	"github.com/zxhio/delaysim/internal/model"
	"github.com/zxhio/delaysim/pkg/netutil"
)

const (
	DefaultInterruptsPath = "/proc/interrupts"
	DefaultIRQRoot        = "/proc/irq"
)

type Mode int

const (
	ModeReport Mode = iota
	ModeShowExisting
	ModeApply
)

func (m Mode) String() string {
	switch m {
	case ModeReport:
		return "report"
	case ModeShowExisting:
		return "show-existing"
	case ModeApply:
		return "apply"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

type Runner interface {
	Run(op executor.Op) error
}

type plannerOpts struct {
	irqRoot string
	out     io.Writer
}

type PlannerOpt func(*plannerOpts)

func WithIRQRoot(root string) PlannerOpt { return func(o *plannerOpts) { o.irqRoot = root } }

func WithOutput(w io.Writer) PlannerOpt { return func(o *plannerOpts) { o.out = w } }

// Planner spreads the IRQ lines of each "{iface}-{role}" key over ascending
// cores starting at the key's base core.
type Planner struct {
	*plannerOpts
	cores  []model.CoreAssignment
	runner Runner
}

func NewPlanner(cores []model.CoreAssignment, runner Runner, opts ...PlannerOpt) *Planner {
	o := plannerOpts{irqRoot: DefaultIRQRoot, out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Planner{plannerOpts: &o, cores: cores, runner: runner}
}

func (p *Planner) AffinityPath(irq string) string {
	return path.Join(p.irqRoot, irq, "smp_affinity")
}

// Plan scans the interrupt table once. Table order decides which line gets
// which offset, the first matching key wins for a line.
func (p *Planner) Plan(r io.Reader) ([]model.IRQAssignment, error) {
	counters := make(map[string]int, len(p.cores))

	var res []model.IRQAssignment
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, c := range p.cores {
			key := c.Key()
			if !strings.Contains(line, key) {
				continue
			}

			fields := strings.Split(strings.TrimSpace(line), ":")
			if len(fields) < 2 {
				return nil, errcode.New(errcode.CodeMalformed, "interrupt line %d: %q", lineNo, line)
			}

			idx := counters[key]
			core := c.Core + idx
			mask, err := netutil.CoreToBitmask(core)
			if err != nil {
				return nil, errors.Wrapf(err, "%s-%d irq %s", key, idx, fields[0])
			}
			res = append(res, model.IRQAssignment{Key: key, Index: idx, IRQ: fields[0], Core: core, Mask: mask})
			counters[key]++
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan interrupts")
	}
	return res, nil
}

func (p *Planner) Run(r io.Reader, mode Mode) ([]model.IRQAssignment, error) {
	assignments, err := p.Plan(r)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeReport:
		logrus.Info("Displaying proposed new IRQ mappings")
		p.Render(assignments)
	case ModeShowExisting:
		for _, a := range assignments {
			fmt.Fprintf(p.out, "cat %s\n", p.AffinityPath(a.IRQ))
		}
	case ModeApply:
		logrus.Info("Configuring IRQ values")
		for _, a := range assignments {
			if err := p.runner.Run(executor.Write(p.AffinityPath(a.IRQ), a.Mask)); err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{"key": a.Key, "index": a.Index, "irq": a.IRQ, "core": a.Core}).Debug("Set irq affinity")
		}
	default:
		return nil, errors.Errorf("unknown irq mode %s", mode)
	}
	return assignments, nil
}

// RunFile plans against an interrupt table on disk, normally /proc/interrupts.
func (p *Planner) RunFile(name string, mode Mode) ([]model.IRQAssignment, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "os.Open")
	}
	defer f.Close()
	return p.Run(f, mode)
}
