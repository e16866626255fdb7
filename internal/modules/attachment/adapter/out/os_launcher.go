package out

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	attachmentout "studyvault/internal/modules/attachment/port/out"
)

type OSLauncher struct{}

func NewOSLauncher() attachmentout.Launcher {
	return &OSLauncher{}
}

// Open hands path to the desktop's default application and returns
// without waiting for it.
func (l *OSLauncher) Open(_ context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return fmt.Errorf("opening attachments is not supported on %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
