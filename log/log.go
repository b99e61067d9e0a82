package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

// ResolveDir picks the log directory: the -logpath flag wins, then the
// MURMUR_LOG_PATH environment variable, then the OS-specific default.
// Relative paths resolve against the working directory.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv("MURMUR_LOG_PATH")} {
		if p == "" {
			continue
		}
		if filepath.IsAbs(p) {
			return p, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, p), nil
	}
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart records the engine and language a dictation session opens with.
func SessionStart(engine, language string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("engine", engine).
		Str("language", language).
		Msg("session_start")
}

func SessionEnd(segments int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("segments", segments).
		Msg("session_end")
}

// Segment records one flushed utterance: how much audio went to the engine
// and how long inference took.
func Segment(samples int, audioS, latencyS float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("samples", samples).
		Float64("audio_s", audioS).
		Float64("latency_s", latencyS).
		Msg("segment")
}

// Command records an executed voice command.
func Command(kind string, count int) {
	if !logReady {
		return
	}
	ev := diagLog.Info().Str("command", kind)
	if count > 0 {
		ev = ev.Int("count", count)
	}
	ev.Msg("command")
}

func Filtered(text string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("text", text).Msg("filtered")
}

// DroppedFrames records ingestion-channel overflow observed during a session.
func DroppedFrames(dropped, malformed uint64) {
	if !logReady {
		return
	}
	if dropped == 0 && malformed == 0 {
		return
	}
	diagLog.Warn().
		Uint64("dropped", dropped).
		Uint64("malformed", malformed).
		Msg("frames_lost")
}

func InjectionSkipped() {
	if !logReady {
		return
	}
	diagLog.Info().Msg("injection_skipped_own_window")
}

func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}
