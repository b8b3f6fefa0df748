package netutil

import (
	"math/big"
	"strings"

	"github.com/zxhio/delaysim/internal/errcode"
)

const MaxAffinityCore = 64

// CoreToBitmask renders 1<<core as the two comma separated 32-bit hex groups
// written to /proc/irq/N/smp_affinity, e.g. 32 -> "00000001,00000000".
func CoreToBitmask(core int) (string, error) {
	if core < 0 {
		return "", errcode.New(errcode.CodeInvalid, "negative core %d", core)
	}
	if core > MaxAffinityCore {
		return "", errcode.New(errcode.CodeUnsupported, "core %d exceeds %d", core, MaxAffinityCore)
	}

	hex := new(big.Int).Lsh(big.NewInt(1), uint(core)).Text(16)
	if len(hex) <= 8 {
		return "00000000," + leftPad(hex, 8), nil
	}
	// Core 64 yields 17 digits, only the first 16 are kept.
	hex = leftPad(hex, 16)
	return hex[0:8] + "," + hex[8:16], nil
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
