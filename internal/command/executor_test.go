package command

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

type capturedLine struct {
	stream Stream
	text   string
}

func TestDefaultExecutor_StreamsOutput(t *testing.T) {
	requireShell(t)

	var lines []capturedLine
	code, err := NewExecutor().Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "echo one; echo two >&2; echo three"},
	}, func(s Stream, line string) {
		lines = append(lines, capturedLine{s, line})
	})

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, lines, capturedLine{Stdout, "one"})
	assert.Contains(t, lines, capturedLine{Stderr, "two"})
	assert.Contains(t, lines, capturedLine{Stdout, "three"})
}

func TestDefaultExecutor_ReturnsExitCode(t *testing.T) {
	requireShell(t)

	code, err := NewExecutor().Run(context.Background(), Spec{Name: "sh", Args: []string{"-c", "exit 3"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestDefaultExecutor_WorkingDirAndEnv(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()

	var out []string
	code, err := NewExecutor().Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", `pwd; echo "$FONTRELEASE_PROBE"`},
		Dir:  dir,
		Env:  []string{"FONTRELEASE_PROBE=hello"},
	}, func(_ Stream, line string) { out = append(out, line) })

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	require.Len(t, out, 2)
	assert.Equal(t, filepath.Base(dir), filepath.Base(out[0]))
	assert.Equal(t, "hello", out[1])
}

func TestDefaultExecutor_BackgroundChildHoldingPipes(t *testing.T) {
	requireShell(t)

	ex := NewExecutor()
	ex.WaitDelay = 100 * time.Millisecond

	var out []string
	start := time.Now()
	code, err := ex.Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "sleep 10 & echo started"},
	}, func(_ Stream, line string) { out = append(out, line) })

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"started"}, out)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDefaultExecutor_CancelWithBackgroundChild(t *testing.T) {
	requireShell(t)

	ex := NewExecutor()
	ex.WaitDelay = 100 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	code, err := ex.Run(ctx, Spec{Name: "sh", Args: []string{"-c", "sleep 10 & sleep 10"}}, nil)

	require.NoError(t, err)
	assert.NotEqual(t, 0, code)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDefaultExecutor_MissingBinary(t *testing.T) {
	_, err := NewExecutor().Run(context.Background(), Spec{Name: "fontrelease-definitely-missing"}, nil)
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		err := Require(context.Background(), &MockExecutor{}, Spec{Name: "true"}, nil)
		assert.NoError(t, err)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		mock := &MockExecutor{FailOn: "main.py", FailCode: 2}
		err := Require(context.Background(), mock, Spec{Name: "python3", Args: []string{"main.py"}}, nil)

		require.Error(t, err)
		code, ok := ExitCode(err)
		assert.True(t, ok)
		assert.Equal(t, 2, code)
		assert.Equal(t, "python3 main.py: exit status 2", err.Error())
	})

	t.Run("start failure", func(t *testing.T) {
		boom := errors.New("exec: not found")
		err := Require(context.Background(), &MockExecutor{Err: boom}, Spec{Name: "python3"}, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		_, ok := ExitCode(err)
		assert.False(t, ok)
	})
}

func TestMockExecutor_RecordsCalls(t *testing.T) {
	mock := &MockExecutor{Output: []string{"line"}}
	var got []string
	_, _ = mock.Run(context.Background(), Spec{Name: "a", Args: []string{"b"}}, func(_ Stream, l string) { got = append(got, l) })
	_, _ = mock.Run(context.Background(), Spec{Name: "c"}, nil)

	assert.Equal(t, []string{"a b", "c"}, mock.Commands())
	assert.Equal(t, []string{"line"}, got)
}

func TestSpec_String(t *testing.T) {
	assert.Equal(t, "python3", Spec{Name: "python3"}.String())
	assert.Equal(t, "python3 -m pip install msgspec", Spec{Name: "python3", Args: []string{"-m", "pip", "install", "msgspec"}}.String())
}
