package injector

import (
	"os/exec"
	"strings"
)

// OwnWindowProbe returns a function reporting whether the window currently
// holding focus has marker in its title. Used to suppress injection into the
// application's own console. Returns nil when no focus query tool is
// available, in which case the caller injects unconditionally.
func OwnWindowProbe(marker string) func() bool {
	xdotool, err := exec.LookPath("xdotool")
	if err != nil {
		return nil
	}
	return func() bool {
		out, err := exec.Command(xdotool, "getactivewindow", "getwindowname").Output()
		if err != nil {
			return false
		}
		return strings.Contains(string(out), marker)
	}
}
