package utils

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunner(t *testing.T) {
	r := &ShellRunner{}

	t.Run("stdout only", func(t *testing.T) {
		out, err := r.Run(context.Background(), "sh", "-c", "echo out; echo warn >&2")
		require.NoError(t, err)
		assert.Equal(t, "out\n", out)
	})

	t.Run("error carries stderr", func(t *testing.T) {
		_, err := r.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := r.Run(context.Background(), "definitely-not-a-zpool-binary")
		require.Error(t, err)
		assert.True(t, errors.Is(err, exec.ErrNotFound))
	})
}

func TestMockRunner(t *testing.T) {
	m := &MockRunner{Out: "ok"}
	out, err := m.Run(context.Background(), "zpool", "list", "-H")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, []string{"zpool", "list", "-H"}, m.Calls[0])
}
