package config

import (
	"fmt"
	"io"
	"os"
)

// exitCodeConfig is the process status reported for unusable configuration.
const exitCodeConfig = 1

var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// Exitf writes a formatted diagnostic to stderr and exits with code 1.
// Entry points call it for configuration that must exist before serving.
func Exitf(format string, args ...any) {
	fmt.Fprintf(stderr, format+"\n", args...)
	exit(exitCodeConfig)
}
