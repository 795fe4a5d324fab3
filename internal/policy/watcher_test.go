package policy

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "rules.yaml")

	_, err := WatchFile(path, NewRegistry(), time.Millisecond, discardLog())
	require.Error(t, err)
}

func TestWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")

	w, err := WatchFile(path, NewRegistry(), time.Millisecond, discardLog())
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	registry := NewRegistry()

	w, err := WatchFile(path, registry, 10*time.Millisecond, discardLog())
	require.NoError(t, err)
	defer func() { assert.NoError(t, w.Stop()) }()

	spamOnly := "spam_language_patterns:\n  - name: flash sale\n    pattern: flash sale\n"
	require.NoError(t, os.WriteFile(path, []byte(spamOnly), 0o644))

	assert.Eventually(t, func() bool {
		return len(registry.Scanner("").Scan("flash sale today")) > 0
	}, 5*time.Second, 25*time.Millisecond, "rule file change never applied")

	// The file only declared a spam list, so the sensitive defaults stay.
	assert.NotEmpty(t, registry.Scanner("").Scan("enter your password"))
	assert.Empty(t, registry.Scanner("").Scan("buy now"))
}

func TestWatcher_KeepsRulesWhenFileBreaks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	registry := NewRegistry()

	w, err := WatchFile(path, registry, 10*time.Millisecond, discardLog())
	require.NoError(t, err)
	defer func() { assert.NoError(t, w.Stop()) }()

	spamOnly := "spam_language_patterns:\n  - name: flash sale\n    pattern: flash sale\n"
	require.NoError(t, os.WriteFile(path, []byte(spamOnly), 0o644))
	assert.Eventually(t, func() bool {
		return len(registry.Scanner("").Scan("flash sale today")) > 0
	}, 5*time.Second, 25*time.Millisecond, "initial rule file never applied")

	// A broken write must be skipped without disturbing the active rules.
	require.NoError(t, os.WriteFile(path, []byte("spam_language_patterns: [unclosed\n"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.NotEmpty(t, registry.Scanner("").Scan("flash sale today"))

	// The watcher keeps running and applies the next good write.
	fixed := "spam_language_patterns:\n  - name: mega deal\n    pattern: mega deal\n"
	require.NoError(t, os.WriteFile(path, []byte(fixed), 0o644))
	assert.Eventually(t, func() bool {
		return len(registry.Scanner("").Scan("mega deal weekend")) > 0
	}, 5*time.Second, 25*time.Millisecond, "recovered rule file never applied")
}
