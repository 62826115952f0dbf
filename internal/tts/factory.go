package tts

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"

	"github.com/book-expert/voicegen/internal/cache"
	"github.com/book-expert/voicegen/internal/config"
	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts/ttsutils"
)

// Runtime bundles an engine built from configuration with the resources it holds.
type Runtime struct {
	Engine *Engine
	Voice  core.Voice
	cache  *cache.RedisCache
}

// Close releases the sentence cache connection, if any.
func (r *Runtime) Close() error {
	if r.cache == nil {
		return nil
	}

	return r.cache.Close()
}

// NewRuntime builds the backend selected in cfg, wraps it in the Redis sentence
// cache when one is configured and creates the engine.
func NewRuntime(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	voice, err := DefaultVoice(&cfg.TTS)
	if err != nil {
		return nil, err
	}

	synth, err := NewSynthesizer(&cfg.TTS, log)
	if err != nil {
		return nil, err
	}

	runtime := &Runtime{Voice: voice}

	if cfg.Cache.Enabled() {
		redisCache, cacheErr := cache.NewRedis(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL())
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to open sentence cache: %w", cacheErr)
		}

		runtime.cache = redisCache
		synth = NewCachedSynthesizer(synth, redisCache, log)
		log.Info("Sentence cache enabled (ttl %s)", cfg.Cache.TTL())
	}

	engine, err := NewEngine(synth, cfg.Audio.ToQuality(), Options{
		Workers:              cfg.TTS.Workers,
		SentenceTimeout:      cfg.TTS.Timeout(),
		SentencePause:        cfg.TTS.SentencePause(),
		BypassPostProcessing: cfg.Audio.Bypass,
	}, log)
	if err != nil {
		_ = runtime.Close()

		return nil, err
	}

	runtime.Engine = engine

	return runtime, nil
}

// NewSynthesizer creates the backend named by cfg.Backend.
func NewSynthesizer(cfg *config.TTSServiceConfig, log *logger.Logger) (core.Synthesizer, error) {
	switch cfg.Backend {
	case config.BackendHTTP:
		log.Info("Using HTTP synthesis backend at %s", cfg.GetServiceURL())

		return NewHTTPClient(cfg.GetServiceURL(), cfg.Timeout()), nil
	case config.BackendCommand:
		log.Info("Using model binary %s", cfg.CommandPath)

		return NewCommandSynthesizer(cfg.CommandPath, log)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

// DefaultVoice returns the configured voice with the speaker reference resolved.
func DefaultVoice(cfg *config.TTSServiceConfig) (core.Voice, error) {
	voice := core.Voice{Temperature: cfg.Temperature, Speed: cfg.Speed}

	if cfg.SpeakerRefPath == "" {
		return voice, nil
	}

	speakerRef, err := ttsutils.ResolveSpeakerRef(cfg.SpeakerRefPath)
	if err != nil {
		return core.Voice{}, err
	}

	voice.SpeakerRefPath = speakerRef

	return voice, nil
}
