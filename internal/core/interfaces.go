// Package core defines the domain types and interfaces shared by the speech service.
package core

import (
	"context"
	"time"

	"github.com/book-expert/events"

	"github.com/book-expert/voicegen/internal/tts/audio"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// Voice holds the per-request settings handed to the synthesis backend.
type Voice struct {
	SpeakerRefPath string  `json:"speaker_ref_path,omitempty"`
	Temperature    float64 `json:"temperature"`
	Speed          float64 `json:"speed,omitempty"`
}

// Synthesizer turns one normalized sentence into a waveform.
type Synthesizer interface {
	Synthesize(ctx context.Context, sentence, language string, voice Voice) (audio.Waveform, error)
}

// SentenceFailure describes a sentence that produced no audio.
type SentenceFailure struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
	Index  int    `json:"index"`
}

// Speech is the result of synthesizing a whole text.
type Speech struct {
	Audio      []byte
	Failures   []SentenceFailure
	Duration   time.Duration
	SampleRate int
	Sentences  int
}

// SpeechRequestedEvent asks the worker to voice the text stored under TextKey.
type SpeechRequestedEvent struct {
	Header   events.EventHeader `json:"header"`
	TextKey  string             `json:"text_key"`
	Language string             `json:"language"`
	Voice    Voice              `json:"voice"`
}

// SpeechCompletedEvent is the reply to a SpeechRequestedEvent. Error is set, and
// AudioKey empty, when the request could not be voiced at all.
type SpeechCompletedEvent struct {
	Header    events.EventHeader `json:"header"`
	AudioKey  string             `json:"audio_key,omitempty"`
	Language  string             `json:"language"`
	Error     string             `json:"error,omitempty"`
	Failures  []SentenceFailure  `json:"failures,omitempty"`
	Sentences int                `json:"sentences"`
}

// AudioCache stores encoded sentence audio by key. A miss is reported by found=false.
type AudioCache interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}
