package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents how csvload reports progress.
type Mode int

const (
	// ModeNonInteractive is used for CI/CD pipelines, cron jobs and redirected output.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is at the terminal.
	ModeInteractive
)

// DetectMode determines whether csvload should draw a live progress view.
//
// Returns ModeNonInteractive if:
//   - stdin or stdout is not a terminal
//   - CSVLOAD_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	return detectMode(os.Getenv,
		term.IsTerminal(int(os.Stdin.Fd())),
		term.IsTerminal(int(os.Stdout.Fd())))
}

func detectMode(getenv func(string) string, stdinTTY, stdoutTTY bool) Mode {
	if getenv("CSVLOAD_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if getenv("CI") != "" {
		return ModeNonInteractive
	}
	if getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}

	// The progress view reads keys from stdin and renders on stdout.
	if !stdinTTY || !stdoutTTY {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
