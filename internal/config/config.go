// Package config provides the configuration structure for voicegen.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"

	"github.com/book-expert/voicegen/internal/tts/audio"
)

// Synthesis backends.
const (
	BackendHTTP    = "http"
	BackendCommand = "command"
)

// Defaults applied to unset fields by Load.
const (
	defaultServiceHost       = "127.0.0.1"
	defaultServicePort       = 8000
	defaultTimeoutSeconds    = 60
	defaultHandleTimeout     = 300
	defaultWorkers           = 2
	defaultLanguage          = "ru"
	defaultTemperature       = 0.75
	defaultSpeed             = 1.0
	defaultSentencePauseMS   = 250
	defaultObjectStoreBucket = "VOICEGEN"
	defaultCacheTTLSeconds   = 7 * 24 * 60 * 60
	maxPort                  = 65535
	serviceURLScheme         = "http://"
)

// Validation errors.
var (
	ErrNATSURLEmpty       = errors.New("nats url cannot be empty")
	ErrSubjectEmpty       = errors.New("speech requested subject cannot be empty")
	ErrUnknownBackend     = errors.New("unknown synthesis backend")
	ErrCommandPathEmpty   = errors.New("command backend requires command_path")
	ErrInvalidServicePort = errors.New("service port out of range")
	ErrInvalidWorkers     = errors.New("workers must be at least 1")
	ErrInvalidTimeout     = errors.New("timeout must be positive")
	ErrInvalidPause       = errors.New("sentence pause must be non-negative")
	ErrInvalidCacheTTL    = errors.New("cache ttl must be non-negative")
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	SpeechRequestedSubject string `toml:"speech_requested_subject"`
	ObjectStoreBucket      string `toml:"object_store_bucket"`
	HandleTimeoutSeconds   int    `toml:"handle_timeout_seconds"`
}

// TTSServiceConfig holds the synthesis backend and engine settings.
type TTSServiceConfig struct {
	Backend         string  `toml:"backend"`
	ServiceHost     string  `toml:"service_host"`
	CommandPath     string  `toml:"command_path"`
	SpeakerRefPath  string  `toml:"speaker_ref_path"`
	DefaultLanguage string  `toml:"default_language"`
	Temperature     float64 `toml:"temperature"`
	Speed           float64 `toml:"speed"`
	ServicePort     int     `toml:"service_port"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	Workers         int     `toml:"workers"`
	SentencePauseMS int     `toml:"sentence_pause_ms"`
}

// AudioConfig holds the post-processing settings.
type AudioConfig struct {
	BitDepth            int     `toml:"bit_depth"`
	Volume              float64 `toml:"volume"`
	HighPass            int     `toml:"high_pass"`
	LowPass             int     `toml:"low_pass"`
	CompressThresholdDB float64 `toml:"compress_threshold_db"`
	CompressRatio       float64 `toml:"compress_ratio"`
	FadeIn              float64 `toml:"fade_in"`
	FadeOut             float64 `toml:"fade_out"`
	Normalize           bool    `toml:"normalize"`
	Bypass              bool    `toml:"bypass"`
}

// CacheConfig holds the sentence audio cache settings. An empty RedisURL disables it.
type CacheConfig struct {
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	OutputDir   string `toml:"output_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS  NATSConfig       `toml:"nats"`
	TTS   TTSServiceConfig `toml:"tts_service"`
	Audio AudioConfig      `toml:"audio"`
	Cache CacheConfig      `toml:"cache"`
	Paths PathsConfig      `toml:"paths"`
}

// Load loads the configuration for voicegen, fills defaults and validates it.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// LoadFile reads a local TOML file for tools that synthesize without NATS. Only the
// synthesis sections are validated.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	validateErr := cfg.ValidateSynthesis()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields. An absent audio section gets the default speech
// band and compression; a present one only gets a bit depth and unity volume.
func (c *Config) ApplyDefaults() {
	if c.NATS.ObjectStoreBucket == "" {
		c.NATS.ObjectStoreBucket = defaultObjectStoreBucket
	}

	if c.NATS.HandleTimeoutSeconds == 0 {
		c.NATS.HandleTimeoutSeconds = defaultHandleTimeout
	}

	c.TTS.applyDefaults()

	c.Audio.applyDefaults()

	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = defaultCacheTTLSeconds
	}
}

func (a *AudioConfig) applyDefaults() {
	if (*a == AudioConfig{Bypass: a.Bypass}) {
		bypass := a.Bypass
		*a = FromQuality(audio.NewDefaultQuality())
		a.Bypass = bypass

		return
	}

	if a.BitDepth == 0 {
		a.BitDepth = audio.DefaultBitDepth
	}

	if a.Volume == 0 {
		a.Volume = audio.DefaultVolume
	}
}

func (t *TTSServiceConfig) applyDefaults() {
	if t.Backend == "" {
		t.Backend = BackendHTTP
	}

	if t.ServiceHost == "" {
		t.ServiceHost = defaultServiceHost
	}

	if t.ServicePort == 0 {
		t.ServicePort = defaultServicePort
	}

	if t.TimeoutSeconds == 0 {
		t.TimeoutSeconds = defaultTimeoutSeconds
	}

	if t.Workers == 0 {
		t.Workers = defaultWorkers
	}

	if t.DefaultLanguage == "" {
		t.DefaultLanguage = defaultLanguage
	}

	if t.Temperature == 0 {
		t.Temperature = defaultTemperature
	}

	if t.Speed == 0 {
		t.Speed = defaultSpeed
	}

	if t.SentencePauseMS == 0 {
		t.SentencePauseMS = defaultSentencePauseMS
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return ErrNATSURLEmpty
	}

	if c.NATS.SpeechRequestedSubject == "" {
		return ErrSubjectEmpty
	}

	if c.NATS.HandleTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: handle_timeout_seconds", ErrInvalidTimeout)
	}

	return c.ValidateSynthesis()
}

// ValidateSynthesis checks the backend, cache and audio sections.
func (c *Config) ValidateSynthesis() error {
	ttsErr := c.TTS.Validate()
	if ttsErr != nil {
		return ttsErr
	}

	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCacheTTL, c.Cache.TTLSeconds)
	}

	quality := c.Audio.ToQuality()

	qualityErr := quality.Validate()
	if qualityErr != nil {
		return fmt.Errorf("audio: %w", qualityErr)
	}

	return nil
}

// Validate checks the backend selection and engine limits.
func (t *TTSServiceConfig) Validate() error {
	switch t.Backend {
	case BackendHTTP:
		if t.ServicePort <= 0 || t.ServicePort > maxPort {
			return fmt.Errorf("%w: %d", ErrInvalidServicePort, t.ServicePort)
		}
	case BackendCommand:
		if t.CommandPath == "" {
			return ErrCommandPathEmpty
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, t.Backend)
	}

	if t.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, t.Workers)
	}

	if t.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeout_seconds", ErrInvalidTimeout)
	}

	if t.SentencePauseMS < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPause, t.SentencePauseMS)
	}

	return nil
}

// HandleTimeout bounds the processing of one NATS request.
func (n *NATSConfig) HandleTimeout() time.Duration {
	return time.Duration(n.HandleTimeoutSeconds) * time.Second
}

// GetServiceURL returns the base URL of the HTTP synthesis service.
func (t *TTSServiceConfig) GetServiceURL() string {
	return serviceURLScheme + net.JoinHostPort(t.ServiceHost, strconv.Itoa(t.ServicePort))
}

// Timeout returns the per-sentence synthesis timeout.
func (t *TTSServiceConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// SentencePause returns the silence inserted between sentences, in seconds.
func (t *TTSServiceConfig) SentencePause() float64 {
	return float64(t.SentencePauseMS) / float64(time.Second/time.Millisecond)
}

// Enabled reports whether a sentence cache is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

// TTL returns how long cached sentence audio is kept.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ToQuality converts the audio section into post-processing settings.
func (a AudioConfig) ToQuality() audio.Quality {
	return audio.Quality{
		BitDepth:            a.BitDepth,
		Volume:              a.Volume,
		FadeIn:              a.FadeIn,
		FadeOut:             a.FadeOut,
		HighPass:            a.HighPass,
		LowPass:             a.LowPass,
		CompressThresholdDB: a.CompressThresholdDB,
		CompressRatio:       a.CompressRatio,
		Normalize:           a.Normalize,
	}
}

// FromQuality converts post-processing settings into an audio section.
func FromQuality(q audio.Quality) AudioConfig {
	return AudioConfig{
		BitDepth:            q.BitDepth,
		Volume:              q.Volume,
		HighPass:            q.HighPass,
		LowPass:             q.LowPass,
		CompressThresholdDB: q.CompressThresholdDB,
		CompressRatio:       q.CompressRatio,
		FadeIn:              q.FadeIn,
		FadeOut:             q.FadeOut,
		Normalize:           q.Normalize,
	}
}
