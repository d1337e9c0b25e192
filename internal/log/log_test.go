package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLog_CategoryAndLevels(t *testing.T) {
	var buf syncBuffer
	SetOutput(&buf, false)
	t.Cleanup(Disable)

	Debug(CatAudio, "hidden")
	Info(CatBank, "Loaded sound", "id", 3)
	ErrorErr(CatAssets, "Failed to read", errors.New("boom"), "path", "a.sdef")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "cat=bank")
	require.Contains(t, out, "id=3")
	require.Contains(t, out, "error=boom")
	require.Contains(t, out, "path=a.sdef")
}

func TestLog_DebugEnabled(t *testing.T) {
	var buf syncBuffer
	SetOutput(&buf, true)
	t.Cleanup(Disable)

	Debug(CatUI, "visible")
	require.Contains(t, buf.String(), "visible")
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partymix.log")

	cleanup, err := Init(path, false)
	require.NoError(t, err)
	Warn(CatConfig, "config missing")
	cleanup()
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "config missing")
}

func TestInit_BadPath(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "missing", "dir", "x.log"), false)
	require.Error(t, err)
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	var buf syncBuffer
	SetOutput(&buf, false)
	t.Cleanup(Disable)

	done := make(chan struct{})
	SafeGo("test.panic", func() {
		defer close(done)
		panic("kaboom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(buf.String()), []byte("kaboom"))
	}, time.Second, 10*time.Millisecond)
}
