package executor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls  [][]string
	stderr string
	err    error
}

func (r *recorder) run(name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.err != nil {
		return []byte(r.stderr), r.err
	}
	return nil, nil
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "brctl addbr br42", Command("brctl", "addbr", "br42").String())
	assert.Equal(t, "echo '16777216' > /proc/sys/net/core/rmem_max",
		Write("/proc/sys/net/core/rmem_max", "16777216").String())
}

func TestRunShowOnly(t *testing.T) {
	var (
		out bytes.Buffer
		rec recorder
	)
	e := New(WithShowOnly(true), WithOutput(&out), WithRunFunc(rec.run),
		WithWriteFunc(func(string, string) error { return errors.New("must not write") }))

	assert.True(t, e.ShowOnly())
	assert.NoError(t, e.Run(Command("ifconfig", "nic0", "down")))
	assert.NoError(t, e.Run(Write("/proc/irq/35/smp_affinity", "00000000,00000001")))
	assert.Empty(t, rec.calls)
	assert.Equal(t, "ifconfig nic0 down\necho '00000000,00000001' > /proc/irq/35/smp_affinity\n", out.String())
}

func TestRunVerbose(t *testing.T) {
	var (
		out bytes.Buffer
		rec recorder
	)
	e := New(WithVerbose(true), WithOutput(&out), WithRunFunc(rec.run))

	assert.NoError(t, e.Run(Command("brctl", "addbr", "br42")))
	assert.Equal(t, [][]string{{"brctl", "addbr", "br42"}}, rec.calls)
	assert.Equal(t, "brctl addbr br42\n", out.String())
}

func TestRunCommandFailure(t *testing.T) {
	var out bytes.Buffer
	rec := recorder{stderr: "RTNETLINK answers: File exists\n", err: errors.New("exit status 2")}
	e := New(WithOutput(&out), WithRunFunc(rec.run))

	err := e.Run(Command("tc", "qdisc", "add", "dev", "nic0"))
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "RTNETLINK answers: File exists", cmdErr.Stderr)
	assert.Equal(t, "tc qdisc add dev nic0", cmdErr.Op.String())
	assert.Empty(t, out.String())

	assert.Error(t, e.Run(Command()))
}

func TestRunWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "smp_affinity")
	require.NoError(t, os.WriteFile(target, []byte("ffffffff,ffffffff"), 0644))

	e := New()
	require.NoError(t, e.Run(Write(target, "00000000,00000010")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "00000000,00000010", string(data))

	err = e.Run(Write(filepath.Join(dir, "missing", "file"), "1"))
	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr))
}
