// Package notify shows desktop notifications for executed commands.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Send posts a macOS notification via osascript. An empty sound plays
// no sound.
func Send(ctx context.Context, title, message, sound string) error {
	script := notificationScript(title, message, sound)
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func notificationScript(title, message, sound string) string {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeAppleScript(message), escapeAppleScript(title))
	if sound != "" {
		script += fmt.Sprintf(` sound name "%s"`, escapeAppleScript(sound))
	}
	return script
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
