package config

import (
	"fmt"
	"os"
	"strings"
)

// Exitf reports a fatal CLI error on stderr and terminates the process
// with exit code 1. Entry points use it for configuration failures that
// happen before logging is set up.
func Exitf(format string, args ...any) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
