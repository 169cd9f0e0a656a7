package config

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	t.Parallel()

	cfg, err := Merge([]io.Reader{
		strings.NewReader(`{"window": {"buffer": 3, "use_sentinel_expansion": true}}`),
		strings.NewReader("  \n"),
		strings.NewReader(`{"window": {"buffer": 0}, "list": {"item_count": 12}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, *cfg.Window.Buffer)
	assert.True(t, cfg.Window.UseSentinelExpansion)
	assert.Equal(t, 12, cfg.List.Items())
}

func TestMergeBlank(t *testing.T) {
	t.Parallel()

	cfg, err := Merge([]io.Reader{strings.NewReader("")})
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestMergeInvalid(t *testing.T) {
	t.Parallel()

	_, err := Merge([]io.Reader{strings.NewReader(`{"window": `)})
	require.Error(t, err)
}
