package tts_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts"
)

var errCacheDown = errors.New("cache down")

type memoryCache struct {
	entries map[string][]byte
	getErr  error
	setErr  error
	mu      sync.Mutex
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, false, m.getErr
	}

	data, ok := m.entries[key]

	return data, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setErr != nil {
		return m.setErr
	}

	m.entries[key] = data

	return nil
}

func TestCachedSynthesizer_ServesRepeatedSentences(t *testing.T) {
	t.Parallel()

	backend := newFakeSynthesizer()
	backend.levels = map[string]float64{"Посадка окончена": 0.5}

	cache := newMemoryCache()
	synth := tts.NewCachedSynthesizer(backend, cache, createTestLogger(t))
	voice := core.Voice{Temperature: 0.75, Speed: 1}

	first, err := synth.Synthesize(context.Background(), "Посадка окончена", "ru", voice)
	require.NoError(t, err)

	second, err := synth.Synthesize(context.Background(), "Посадка окончена", "ru", voice)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.callCount())
	assert.Len(t, cache.entries, 1)
	assert.Equal(t, first.SampleRate, second.SampleRate)
	assert.InDeltaSlice(t, first.Samples, second.Samples, 1e-6)
}

func TestCachedSynthesizer_CacheFailuresAreIgnored(t *testing.T) {
	t.Parallel()

	backend := newFakeSynthesizer()
	backend.levels = map[string]float64{"Hello": 0.5}

	cache := newMemoryCache()
	cache.getErr = errCacheDown
	cache.setErr = errCacheDown

	synth := tts.NewCachedSynthesizer(backend, cache, createTestLogger(t))

	for range 2 {
		wave, err := synth.Synthesize(context.Background(), "Hello", "en", core.Voice{})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.5, 0.5}, wave.Samples, 1e-9)
	}

	assert.Equal(t, 2, backend.callCount())
}

func TestCachedSynthesizer_CorruptEntry(t *testing.T) {
	t.Parallel()

	backend := newFakeSynthesizer()
	cache := newMemoryCache()
	cache.entries[tts.CacheKey("Hello", "en", core.Voice{})] = []byte("not audio")

	synth := tts.NewCachedSynthesizer(backend, cache, createTestLogger(t))

	_, err := synth.Synthesize(context.Background(), "Hello", "en", core.Voice{})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.callCount())
}

func TestCachedSynthesizer_BackendErrorNotCached(t *testing.T) {
	t.Parallel()

	backend := newFakeSynthesizer()
	backend.failures = map[string]error{"Hello": errBackendDown}
	backend.healthErr = errBackendDown

	cache := newMemoryCache()
	synth := tts.NewCachedSynthesizer(backend, cache, createTestLogger(t))

	_, err := synth.Synthesize(context.Background(), "Hello", "en", core.Voice{})
	require.ErrorIs(t, err, errBackendDown)
	assert.Empty(t, cache.entries)
	require.ErrorIs(t, synth.HealthCheck(context.Background()), errBackendDown)
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	base := tts.CacheKey("Hello", "en", core.Voice{Temperature: 0.7, Speed: 1})

	assert.Equal(t, base, tts.CacheKey("Hello", "en", core.Voice{Temperature: 0.7, Speed: 1}))
	assert.Contains(t, base, "voicegen:sentence:")
	assert.NotEqual(t, base, tts.CacheKey("Hello", "fr", core.Voice{Temperature: 0.7, Speed: 1}))
	assert.NotEqual(t, base, tts.CacheKey("Hello", "en", core.Voice{Temperature: 0.8, Speed: 1}))
	assert.NotEqual(t, base, tts.CacheKey("Hello", "en", core.Voice{Temperature: 0.7, Speed: 1.2}))
	assert.NotEqual(t, base, tts.CacheKey("Hello", "en", core.Voice{SpeakerRefPath: "a.wav", Temperature: 0.7, Speed: 1}))
	assert.NotEqual(t, base, tts.CacheKey("Hello.", "en", core.Voice{Temperature: 0.7, Speed: 1}))
}
