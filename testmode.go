package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/dictation"
	"murmur/injector"
	"murmur/log"
	"murmur/rewrite"
	"murmur/transcriber"
)

// printInjector writes injected output to stdout instead of synthesizing
// keystrokes, so headless runs can be verified by inspecting the output.
type printInjector struct{}

func (printInjector) TypeText(text string) error {
	fmt.Print(text)
	return nil
}

func (printInjector) DeleteLastWords(count int) error {
	fmt.Printf("[delete %d]", count)
	return nil
}

func (printInjector) InsertPunctuation(ch rune) error {
	fmt.Printf("%c", ch)
	return nil
}

func (printInjector) InsertNewLine() error {
	fmt.Println()
	return nil
}

// runTestMode replays a WAV file through the full pipeline, driven by
// commands on stdin: KEYDOWN/KEYUP toggle push-to-talk, WAIT_AUDIO_DONE
// blocks until the file has been delivered, SLEEP <ms> pauses, QUIT exits.
func runTestMode(wavPath string, cfg dictation.Config, engine transcriber.Engine, rewriter rewrite.Rewriter) {
	beep.Disable()

	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	capture, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: uint32(cfg.SampleRate), Channels: 1,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	fakeCapture := capture.(*audio.FakeCapture)

	cfg.CharDelay = 0
	cfg.OwnWindowProbe = nil

	session, err := dictation.NewSession(cfg, dictation.Deps{
		Capture:  capture,
		Engine:   engine,
		Injector: printInjector{},
		Rewriter: rewriter,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := session.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting session: %v\n", err)
		os.Exit(1)
	}

	go func() {
		for ev := range session.Events() {
			if ev.Kind == dictation.EventError {
				fmt.Fprintf(os.Stderr, "! %v\n", ev.Err)
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "KEYDOWN":
			session.SetPTT(true)
		case "KEYUP":
			session.SetPTT(false)
		case "WAIT_AUDIO_DONE":
			<-fakeCapture.AudioDone()
		case "QUIT":
			session.Stop()
			log.Close()
			os.Exit(0)
		default:
			if strings.HasPrefix(cmd, "SLEEP ") {
				if ms, err := strconv.Atoi(cmd[6:]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		}
	}
	session.Stop()
}

var _ injector.Injector = printInjector{}
