package texture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainAll(t *testing.T, l Loader, want int) []Result {
	t.Helper()
	var got []Result
	require.Eventually(t, func() bool {
		l.Drain(func(r Result) { got = append(got, r) })
		return len(got) >= want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestLoaderDeliversResults(t *testing.T) {
	l := NewLoader(WithDecodeFunc(func(path string) (common.TextureStagingData, error) {
		if path == "bad.png" {
			return common.TextureStagingData{}, errors.New("corrupt")
		}
		return Checkerboard(4, 2), nil
	}))
	defer l.Close()

	goodID, err := l.Submit("good.png")
	require.NoError(t, err)
	badID, err := l.Submit("bad.png")
	require.NoError(t, err)
	assert.NotEqual(t, goodID, badID)

	results := drainAll(t, l, 2)
	byID := map[int]Result{}
	for _, r := range results {
		byID[r.ID] = r
	}
	require.Contains(t, byID, goodID)
	require.Contains(t, byID, badID)

	assert.NoError(t, byID[goodID].Err)
	assert.Equal(t, "good.png", byID[goodID].Path)
	assert.Equal(t, uint32(4), byID[goodID].Staging.Width)
	assert.Error(t, byID[badID].Err)
	assert.Equal(t, 0, l.Pending())
}

func TestLoaderDrainDoesNotBlock(t *testing.T) {
	l := NewLoader()
	defer l.Close()
	assert.Equal(t, 0, l.Drain(func(Result) { t.Fatal("unexpected result") }))
}

func TestLoaderRejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	l := NewLoader(
		WithWorkers(1),
		WithQueueSize(2),
		WithDecodeFunc(func(string) (common.TextureStagingData, error) {
			<-release
			return Checkerboard(1, 1), nil
		}),
	)
	defer l.Close()
	defer once.Do(func() { close(release) })

	_, err := l.Submit("a")
	require.NoError(t, err)
	_, err = l.Submit("b")
	require.NoError(t, err)
	_, err = l.Submit("c")
	assert.ErrorIs(t, err, ErrLoaderBusy)
	assert.Equal(t, 2, l.Pending())

	once.Do(func() { close(release) })
	drainAll(t, l, 2)

	_, err = l.Submit("c")
	assert.NoError(t, err)
	drainAll(t, l, 1)
}

func TestLoaderClosed(t *testing.T) {
	l := NewLoader()
	l.Close()
	l.Close()
	_, err := l.Submit("a")
	assert.ErrorIs(t, err, ErrLoaderClosed)
}
