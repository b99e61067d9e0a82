package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func readDiag(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestResolveDir(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag absolute", "/tmp/mylog", "", "/tmp/mylog"},
		{"flag relative", "logs", "", filepath.Join(wd, "logs")},
		{"flag beats env", "/tmp/mylog", "/tmp/envlog", "/tmp/mylog"},
		{"env absolute", "", "/tmp/envlog", "/tmp/envlog"},
		{"env relative", "", "envlogs", filepath.Join(wd, "envlogs")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("MURMUR_LOG_PATH", tc.env)
			got, err := ResolveDir(tc.flag)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("ResolveDir(%q) = %q, want %q", tc.flag, got, tc.want)
			}
		})
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("MURMUR_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected non-empty default directory")
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"diagnostics_log.txt", "transcribe_log.txt"} {
		if _, err := os.Stat(filepath.Join(tmp, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestSessionEventsLogged(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	SessionStart("groq", "en")
	Segment(4800, 0.3, 0.12)
	Command("delete_words", 3)
	DroppedFrames(7, 1)
	SessionEnd(2)
	Close()

	diag := readDiag(t, tmp)
	for _, want := range []string{
		"session_start", "engine=groq",
		"segment", "samples=4800",
		"command=delete_words", "count=3",
		"frames_lost", "dropped=7",
		"session_end", "segments=2",
	} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics log missing %q, got:\n%s", want, diag)
		}
	}
}

func TestDroppedFramesQuietWhenZero(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	DroppedFrames(0, 0)
	Close()

	if diag := readDiag(t, tmp); strings.Contains(diag, "frames_lost") {
		t.Errorf("frames_lost logged for zero counters:\n%s", diag)
	}
}

func TestTranscriptionText(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	TranscriptionText("hello world")

	data, err := os.ReadFile(filepath.Join(tmp, "transcribe_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, "hello world") {
		t.Errorf("transcribe_log.txt missing text, got: %q", line)
	}
	if !strings.Contains(line, "\t") {
		t.Errorf("expected tab-separated format, got: %q", line)
	}
}

func TestHelpersSafeBeforeInit(t *testing.T) {
	Close()
	// None of these may panic while logging is down.
	Info("x")
	Warnf("x %d", 1)
	Errorf("x %v", os.ErrClosed)
	SessionStart("groq", "en")
	Segment(1, 0, 0)
	Command("new_line", 0)
	Filtered("you")
	InjectionSkipped()
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close()
}
