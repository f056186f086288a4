package notify

import (
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/outfitswitch/internal/status"
)

func TestCommandPerPlatform(t *testing.T) {
	linux := Command("linux", "Outfit Switcher", "Updated to Alice/winter.")
	require.NotNil(t, linux)
	assert.Equal(t, []string{"notify-send", "--app-name=outfitswitch", "Outfit Switcher", "Updated to Alice/winter."}, linux.Args[0:4])

	darwin := Command("darwin", "T", `say "hi"`)
	require.NotNil(t, darwin)
	assert.Contains(t, darwin.Args[2], `display notification "say \"hi\"" with title "T"`)

	assert.Nil(t, Command("plan9", "T", "B"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "it’s cold", sanitize(`it's co\ld`))
	long := sanitize(strings.Repeat("a", 300))
	assert.Len(t, long, 259)
}

func TestDesktopErrorsOnly(t *testing.T) {
	ran := make(chan string, 2)
	d := NewDesktop(true, nil)
	d.goos = "linux"
	d.run = func(cmd *exec.Cmd) error {
		ran <- cmd.Args[len(cmd.Args)-1]
		return nil
	}

	d.Notify(status.New(status.KindSuccess, "fine"))
	d.Notify(status.New(status.KindError, "broken"))

	select {
	case body := <-ran:
		assert.Equal(t, "broken", body)
	case <-time.After(time.Second):
		t.Fatal("error notification not shown")
	}
	select {
	case body := <-ran:
		t.Fatalf("success message was shown: %q", body)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDesktopUnsupportedPlatform(t *testing.T) {
	d := NewDesktop(false, nil)
	d.goos = "plan9"
	d.run = func(*exec.Cmd) error {
		t.Fatal("no command expected")
		return nil
	}
	d.Notify(status.New(status.KindError, "broken"))
}
