package fixture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHeights(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		hf, err := ReadHeights(strings.NewReader(`{"estimated": 3, "heights": {"12": 7, "40": 1.5}}`))
		require.NoError(t, err)
		assert.Equal(t, 3.0, hf.Estimated)
		assert.Equal(t, map[int]float64{12: 7, 40: 1.5}, hf.Heights)
	})

	t.Run("missing heights", func(t *testing.T) {
		t.Parallel()
		hf, err := ReadHeights(strings.NewReader(`{"estimated": 2}`))
		require.NoError(t, err)
		assert.NotNil(t, hf.Heights)
		assert.Empty(t, hf.Heights)
	})

	t.Run("non-positive height", func(t *testing.T) {
		t.Parallel()
		_, err := ReadHeights(strings.NewReader(`{"heights": {"3": 0}}`))
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		_, err := ReadHeights(strings.NewReader(`{"heights": `))
		require.Error(t, err)
	})
}

func TestLoadHeights(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "heights.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"heights": {"1": 4}}`), 0o644))

	hf, err := LoadHeights(path)
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 4}, hf.Heights)

	_, err = LoadHeights(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestDiff(t *testing.T) {
	t.Parallel()

	old := HeightsFile{Heights: map[int]float64{1: 4, 2: 5, 3: 6}}
	next := HeightsFile{Heights: map[int]float64{1: 4, 2: 9, 7: 1}}

	changed, removed := Diff(old, next)
	assert.Equal(t, map[int]float64{2: 9, 7: 1}, changed)
	assert.Equal(t, []int{3}, removed)
}

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "heights.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"heights": {"1": 4}}`), 0o644))

	var (
		mu   sync.Mutex
		seen []HeightsFile
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(hf HeightsFile) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, hf)
		})
	}()

	// The watch is registered asynchronously, so keep rewriting the same
	// content until it is observed. Identical content is reported once.
	require.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(path, []byte(`{"heights": {"1": 8}}`), 0o644))
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 5*time.Second, 50*time.Millisecond)

	time.Sleep(3 * reloadDebounce)
	mu.Lock()
	assert.Len(t, seen, 1)
	assert.Equal(t, map[int]float64{1: 8}, seen[0].Heights)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
