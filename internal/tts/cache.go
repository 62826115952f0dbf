package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/book-expert/logger"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts/audio"
)

const (
	cacheKeyPrefix    = "voicegen:sentence:"
	cacheKeySeparator = "\x00"
	cacheBitDepth     = audio.BitDepth32
	logFmtCacheRead   = "Sentence cache read failed, synthesizing: %v"
	logFmtCacheDecode = "Sentence cache entry %s is unreadable, synthesizing: %v"
	logFmtCacheWrite  = "Sentence cache write failed: %v"
)

// CachedSynthesizer serves repeated sentences from an AudioCache and stores fresh
// results in it. Cache failures are logged and never fail synthesis.
type CachedSynthesizer struct {
	next  core.Synthesizer
	cache core.AudioCache
	log   *logger.Logger
}

// NewCachedSynthesizer wraps next with cache.
func NewCachedSynthesizer(next core.Synthesizer, cache core.AudioCache, log *logger.Logger) *CachedSynthesizer {
	return &CachedSynthesizer{next: next, cache: cache, log: log}
}

// Synthesize returns the cached waveform for the request or asks the wrapped backend.
func (c *CachedSynthesizer) Synthesize(
	ctx context.Context,
	sentence, language string,
	voice core.Voice,
) (audio.Waveform, error) {
	key := CacheKey(sentence, language, voice)

	data, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn(logFmtCacheRead, err)
	}

	if found {
		wave, decodeErr := audio.DecodeWAV(data)
		if decodeErr == nil {
			return wave, nil
		}

		c.log.Warn(logFmtCacheDecode, key, decodeErr)
	}

	wave, err := c.next.Synthesize(ctx, sentence, language, voice)
	if err != nil {
		return audio.Waveform{}, err
	}

	encoded, err := audio.EncodeWAV(wave, cacheBitDepth)
	if err != nil {
		c.log.Warn(logFmtCacheWrite, err)

		return wave, nil
	}

	setErr := c.cache.Set(ctx, key, encoded)
	if setErr != nil {
		c.log.Warn(logFmtCacheWrite, setErr)
	}

	return wave, nil
}

// HealthCheck forwards to the wrapped backend when it supports health checks.
func (c *CachedSynthesizer) HealthCheck(ctx context.Context) error {
	checker, ok := c.next.(HealthChecker)
	if !ok {
		return nil
	}

	return checker.HealthCheck(ctx)
}

// CacheKey identifies a sentence rendered with a specific voice.
func CacheKey(sentence, language string, voice core.Voice) string {
	material := strings.Join([]string{
		language,
		voice.SpeakerRefPath,
		strconv.FormatFloat(voice.Temperature, 'g', -1, floatBitSize),
		strconv.FormatFloat(voice.Speed, 'g', -1, floatBitSize),
		sentence,
	}, cacheKeySeparator)

	sum := sha256.Sum256([]byte(material))

	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
