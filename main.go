package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/dictation"
	"murmur/hotkey"
	"murmur/injector"
	"murmur/log"
	"murmur/rewrite"
	"murmur/shutdown"
	"murmur/transcriber"
)

var version = "dev"

// windowMarker is what the own-window probe looks for in the focused
// window's title, so murmur never types into its own terminal.
const windowMarker = "murmur"

func run() {
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	thresholdFlag := flag.Float64("threshold", 500, "Amplitude threshold for voice activation")
	silenceFlag := flag.Duration("silence", time.Second, "Silence duration that ends an utterance")
	gainFlag := flag.Float64("gain", 1.0, "Input gain applied before amplitude measurement")
	charDelayFlag := flag.Duration("chardelay", 10*time.Millisecond, "Delay between typed characters")
	vadFlag := flag.Bool("vad", true, "Enable voice activation (push-to-talk always works)")
	clipboardFlag := flag.Bool("clipboard", false, "Inject text via clipboard paste instead of keystrokes")
	langFlag := flag.String("lang", "en", "Language code for transcription (empty = auto-detect)")
	filterFlag := flag.String("filter", "", "Extra filter phrases to discard, comma-separated")
	rewriteModelFlag := flag.String("rewrite-model", "", "Ollama model for the rewrite command (empty disables)")
	modelsFlag := flag.Bool("models", false, "List available Ollama models and exit")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location)")
	profileFlag := flag.String("profile", "", "Enable pprof server (e.g., localhost:6060)")
	testFlag := flag.Bool("test", false, "Headless test mode: replay a WAV file, stdin-driven")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *modelsFlag {
		names, err := rewrite.NewOllama("").Models(context.Background())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		os.Exit(0)
	}

	engine, err := transcriber.New()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	engine.SetLanguage(*langFlag)

	cfg := dictation.DefaultConfig()
	cfg.Model = engine.Name()
	cfg.Language = *langFlag
	cfg.AmplitudeThreshold = *thresholdFlag
	cfg.SilenceDuration = *silenceFlag
	cfg.Gain = *gainFlag
	cfg.CharDelay = *charDelayFlag
	cfg.VADEnabled = *vadFlag
	if *filterFlag != "" {
		cfg.FilterWords = append(append([]string{}, dictation.DefaultFilterWords...),
			strings.Split(*filterFlag, ",")...)
	}
	cfg.OwnWindowProbe = injector.OwnWindowProbe(windowMarker)

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	var rewriter rewrite.Rewriter
	if *rewriteModelFlag != "" {
		rewriter = rewrite.NewOllama(*rewriteModelFlag)
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: murmur -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], cfg, engine, rewriter)
		return
	}

	keys, err := injector.NewKeystroke()
	if err != nil {
		fmt.Printf("Error initializing text injection: %v\n", err)
		fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		os.Exit(1)
	}
	var inj injector.Injector = keys
	if *clipboardFlag {
		inj = injector.NewClipboard(keys)
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	selectedDevice, err := resolveDevice(audioCtx, *setupFlag, *deviceFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if selectedDevice != nil && audio.IsBluetooth(selectedDevice.Name) {
		fmt.Println("Warning: Bluetooth microphone detected; capture quality will suffer.")
		log.Warnf("bluetooth capture device selected: %s", selectedDevice.Name)
	}

	capture, err := audioCtx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: uint32(cfg.SampleRate),
		Channels:   1,
	})
	if err != nil {
		fmt.Printf("Error opening capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	session, err := dictation.NewSession(cfg, dictation.Deps{
		Capture:  capture,
		Engine:   engine,
		Injector: inj,
		Rewriter: rewriter,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := session.Start(context.Background()); err != nil {
		fmt.Printf("Error starting session: %v\n", err)
		os.Exit(1)
	}

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("Warning: push-to-talk unavailable: %v\n", err)
	} else {
		go func() {
			for {
				select {
				case <-hk.Keydown():
					session.SetPTT(true)
					beep.PlayStart()
				case <-hk.Keyup():
					session.SetPTT(false)
					beep.PlayEnd()
				}
			}
		}()
		defer hk.Unregister()
	}

	go printEvents(session)

	fmt.Printf("murmur %s listening [%s]  mic: %s  (ctrl+shift+space to talk, ctrl+c to quit)\n",
		version, engine.Name(), capture.DeviceName())

	sig := make(chan os.Signal, 1)
	shutdown.Notify(sig)
	<-sig

	fmt.Println("\nStopping...")
	session.Stop()
	dropped, malformed := session.DroppedFrames()
	if dropped > 0 || malformed > 0 {
		fmt.Printf("Dropped %d frames, %d malformed blocks\n", dropped, malformed)
	}
}

func printEvents(s *dictation.Session) {
	for ev := range s.Events() {
		switch ev.Kind {
		case dictation.EventTranscript:
			fmt.Printf("> %s\n", strings.TrimSpace(ev.Text))
		case dictation.EventCommand:
			fmt.Printf("* %s\n", ev.Text)
		case dictation.EventStatus:
			log.Infof("session %s", ev.Text)
		case dictation.EventError:
			beep.PlayError()
			fmt.Printf("! %v\n", ev.Err)
		}
	}
}

// resolveDevice maps the -setup/-device flags to a concrete capture device.
// Nil means the system default.
func resolveDevice(ctx audio.Context, setup bool, name string) (*audio.DeviceInfo, error) {
	if setup && name == "" {
		return selectDevice(ctx)
	}
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device named %q", name)
}
