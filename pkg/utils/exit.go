package utils

import (
	"fmt"
	"os"
)

func CheckErrorAndExit(err error, format string, a ...any) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", fmt.Sprintf(format, a...), err)
		os.Exit(1)
	}
}
