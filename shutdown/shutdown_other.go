//go:build !windows

// Package shutdown wires OS termination signals to a channel. Windows has
// no SIGTERM, hence the split.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
