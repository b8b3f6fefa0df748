package executor

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zxhio/delaysim/pkg/utils"
)

type OpKind int

const (
	OpCommand OpKind = iota
	OpWrite
)

// Op is one external side effect: a process argument vector or a literal
// value written to a pseudo-file.
type Op struct {
	Kind  OpKind
	Args  []string
	Path  string
	Value string
}

func Command(args ...string) Op { return Op{Kind: OpCommand, Args: args} }

func Write(path, value string) Op { return Op{Kind: OpWrite, Path: path, Value: value} }

func (o Op) String() string {
	if o.Kind == OpWrite {
		return fmt.Sprintf("echo '%s' > %s", o.Value, o.Path)
	}
	return strings.Join(o.Args, " ")
}

type CommandError struct {
	Op     Op
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

type RunFunc func(name string, args ...string) ([]byte, error)

type WriteFunc func(path, value string) error

type executorOpts struct {
	show    bool
	verbose bool
	out     io.Writer
	run     RunFunc
	write   WriteFunc
}

type Opt func(*executorOpts)

func WithShowOnly(show bool) Opt { return func(o *executorOpts) { o.show = show } }

func WithVerbose(verbose bool) Opt { return func(o *executorOpts) { o.verbose = verbose } }

// WithOutput sets where show-only and verbose echoes go, stdout by default.
func WithOutput(w io.Writer) Opt { return func(o *executorOpts) { o.out = w } }

func WithRunFunc(run RunFunc) Opt { return func(o *executorOpts) { o.run = run } }

func WithWriteFunc(write WriteFunc) Opt { return func(o *executorOpts) { o.write = write } }

type Executor struct {
	*executorOpts
}

func New(opts ...Opt) *Executor {
	o := executorOpts{
		out:   os.Stdout,
		run:   utils.RunCommand,
		write: writePseudoFile,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Executor{executorOpts: &o}
}

func (e *Executor) ShowOnly() bool { return e.show }

// Run performs op, or only echoes it in show-only mode. Nothing is undone on
// failure.
func (e *Executor) Run(op Op) error {
	if e.show {
		fmt.Fprintln(e.out, op)
		return nil
	}
	if e.verbose {
		fmt.Fprintln(e.out, op)
	}

	switch op.Kind {
	case OpWrite:
		if err := e.write(op.Path, op.Value); err != nil {
			return &CommandError{Op: op, Err: err}
		}
		logrus.WithFields(logrus.Fields{"path": op.Path, "value": op.Value}).Info("Wrote value to file")
	case OpCommand:
		if len(op.Args) == 0 {
			return errors.New("empty command")
		}
		out, err := e.run(op.Args[0], op.Args[1:]...)
		if err != nil {
			return &CommandError{Op: op, Stderr: strings.TrimSpace(string(out)), Err: err}
		}
		logrus.WithField("cmd", op.String()).Debug("Command executed successfully")
	default:
		return errors.Errorf("unknown op kind %d", op.Kind)
	}
	return nil
}

func writePseudoFile(path, value string) error {
	return errors.Wrap(os.WriteFile(path, []byte(value), 0644), "os.WriteFile")
}
