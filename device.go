package main

import (
	"fmt"
	"os"

	"murmur/audio"

	"golang.org/x/term"
)

type pickerAction int

const (
	pickNone pickerAction = iota
	pickUp
	pickDown
	pickAccept
	pickQuit
)

// decodeKey maps one raw stdin read to a picker action. Arrow keys arrive
// as 3-byte CSI sequences; j/k work as vim fallbacks.
func decodeKey(buf []byte, n int) pickerAction {
	if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
		switch buf[2] {
		case 'A':
			return pickUp
		case 'B':
			return pickDown
		}
		return pickNone
	}
	if n != 1 {
		return pickNone
	}
	switch buf[0] {
	case 13:
		return pickAccept
	case 3:
		return pickQuit
	case 'k':
		return pickUp
	case 'j':
		return pickDown
	}
	return pickNone
}

func deviceLabel(d audio.DeviceInfo) string {
	if audio.IsBluetooth(d.Name) {
		return d.Name + " (BT!)"
	}
	return d.Name
}

// selectDevice runs an interactive microphone picker on a raw-mode terminal.
func selectDevice(ctx audio.Context) (*audio.DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, fmt.Errorf("no capture devices found")
	case 1:
		fmt.Printf("Using device: %s\n", devices[0].Name)
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	render := func(cursor int) {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select microphone (↑/↓, Enter to confirm):\r\n\r\n")
		for i, d := range devices {
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", deviceLabel(d))
			} else {
				fmt.Printf("    %s\r\n", deviceLabel(d))
			}
		}
	}

	cursor := 0
	render(cursor)

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch decodeKey(buf, n) {
		case pickUp:
			if cursor > 0 {
				cursor--
			}
		case pickDown:
			if cursor < len(devices)-1 {
				cursor++
			}
		case pickAccept:
			fmt.Printf("\r\n")
			term.Restore(fd, oldState)
			return &devices[cursor], nil
		case pickQuit:
			fmt.Printf("\r\n")
			term.Restore(fd, oldState)
			os.Exit(0)
		}
		// Move back up over the list and repaint in place.
		fmt.Printf("\x1b[%dA", len(devices)+2)
		render(cursor)
	}
}
