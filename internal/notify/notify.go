package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/status"
)

const appTitle = "Outfit Switcher"

// Desktop shows status messages as native OS notifications. With
// ErrorsOnly set, success and info messages are skipped.
type Desktop struct {
	ErrorsOnly bool
	Logger     *zap.Logger

	goos string
	run  func(cmd *exec.Cmd) error
}

// NewDesktop returns a notifier for the current platform.
func NewDesktop(errorsOnly bool, logger *zap.Logger) *Desktop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desktop{ErrorsOnly: errorsOnly, Logger: logger, goos: runtime.GOOS, run: (*exec.Cmd).Run}
}

// Notify implements status.Notifier. It never blocks the caller.
func (d *Desktop) Notify(m status.Message) {
	if d.ErrorsOnly && m.OK() {
		return
	}
	cmd := Command(d.goos, appTitle, m.Text)
	if cmd == nil {
		return
	}
	go func() {
		if err := d.run(cmd); err != nil {
			d.Logger.Debug("desktop notification failed", zap.Error(err))
		}
	}()
}

// Command builds the notification command for goos, or nil when the
// platform has no supported notifier.
func Command(goos, title, body string) *exec.Cmd {
	title = sanitize(title)
	body = sanitize(body)

	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, body, title)
		return exec.Command("osascript", "-e", script)

	case "linux":
		return exec.Command("notify-send", "--app-name=outfitswitch", title, body)

	case "windows":
		ps := fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] > $null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$textNodes = $template.GetElementsByTagName('text')
$textNodes.Item(0).AppendChild($template.CreateTextNode('%s')) > $null
$textNodes.Item(1).AppendChild($template.CreateTextNode('%s')) > $null
$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('OutfitSwitch').Show($toast)
`, title, body)
		return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", ps)
	}
	return nil
}

// sanitize strips characters that break the quoting above and caps length.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "'", "’")
	s = strings.ReplaceAll(s, "\\", "")
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
