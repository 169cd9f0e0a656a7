package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumosx/lazyscroll/internal/config"
	"github.com/yumosx/lazyscroll/internal/fixture"
)

const testTrace = `{
	"itemCount": 100,
	"estimatedHeight": 10,
	"viewport": {"client_height": 50},
	"events": [
		{"t": 0, "type": "scroll", "position": 105},
		{"t": 40, "type": "activate", "index": 50}
	]
}`

// execute runs the root command in a fresh working directory.
func execute(t *testing.T, files map[string]string, args ...string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestSimulate(t *testing.T) {
	out := execute(t, map[string]string{
		"trace.json":      testTrace,
		"lazyscroll.json": `{"window": {"buffer": 2, "dynamic_buffering": false}}`,
	}, "simulate", "trace.json")

	dec := json.NewDecoder(bytes.NewBufferString(out))
	var records []fixture.Record
	for dec.More() {
		var rec fixture.Record
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)

	// Buffer 2 above, 2 plus the default extra 10 below.
	assert.Equal(t, 8, records[0].State.StartIndex)
	assert.Equal(t, 27, records[0].State.EndIndex)

	require.NotNil(t, records[1].Correction)
	assert.Equal(t, 490.0, *records[1].Correction)
}

func TestSchema(t *testing.T) {
	out := execute(t, nil, "schema")

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "lazyscroll configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "window")
	assert.Contains(t, props, "list")
}

func TestTraceInput(t *testing.T) {
	t.Parallel()

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "trace.json")
		require.NoError(t, os.WriteFile(path, []byte(testTrace), 0o644))

		r, err := traceInput([]string{path}, nil)
		require.NoError(t, err)
		defer r.Close()
		tr, err := fixture.LoadTrace(r)
		require.NoError(t, err)
		assert.Equal(t, 100, tr.ItemCount)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := traceInput([]string{filepath.Join(t.TempDir(), "nope.json")}, nil)
		require.Error(t, err)
	})

	t.Run("pipe", func(t *testing.T) {
		t.Parallel()
		pr, pw, err := os.Pipe()
		require.NoError(t, err)
		defer pr.Close()
		go func() {
			_, _ = io.WriteString(pw, testTrace)
			pw.Close()
		}()

		r, err := traceInput([]string{"-"}, pr)
		require.NoError(t, err)
		tr, err := fixture.LoadTrace(r)
		require.NoError(t, err)
		assert.Len(t, tr.Events, 2)
	})
}

func TestListOptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "heights.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"estimated": 4, "heights": {"2": 9}}`), 0o644))

	cfg, err := config.LoadReader(bytes.NewBufferString(`{"list": {"item_count": 50, "orientation": "vertical-alternating"}}`))
	require.NoError(t, err)
	cfg.List.HeightsFile = path
	cfg.List.EstimatedItemHeight = 3

	opts, err := listOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, 50, opts.ItemCount)
	assert.Equal(t, 4.0, opts.EstimatedHeight)
	assert.Equal(t, map[int]float64{2: 9}, opts.Heights.Heights)
	assert.Equal(t, "vertical-alternating", opts.Mode.String())

	cfg.List.HeightsFile = filepath.Join(dir, "missing.json")
	_, err = listOptions(cfg)
	require.Error(t, err)
}
