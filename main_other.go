//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

// The hotkey library requires registration to happen on the process main
// thread everywhere except linux.
func init() {
	runtime.LockOSThread()
}

func main() {
	mainthread.Init(run)
}
