// Package whisper transcribes synthesized speech back to text with a Whisper-compatible
// API, so the output of the engine can be checked against the normalized sentences.
package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"
)

// Environment variables.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "WHISPER_BASE_URL"
)

const (
	audioFileName          = "speech.wav"
	errFmtTranscribeFailed = "whisper transcription failed: %w"
)

// ErrAPIKeyNotSet is returned when no API key is configured.
var ErrAPIKeyNotSet = errors.New(EnvAPIKey + " environment variable not set")

// languages maps voicegen language codes to ISO-639-1 codes where they differ.
var languages = map[string]string{
	"zh-cn": "zh",
	"kaz":   "kk",
	"grc":   "el",
}

// Client provides Whisper API client functionality.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a client. An empty baseURL uses the OpenAI endpoint; set it to
// talk to a self-hosted Whisper server.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  openai.Whisper1,
	}, nil
}

// Transcribe returns the text heard in a WAV recording.
func (c *Client) Transcribe(ctx context.Context, wavData []byte, language string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		Reader:   bytes.NewReader(wavData),
		FilePath: audioFileName,
		Language: Language(language),
	})
	if err != nil {
		return "", fmt.Errorf(errFmtTranscribeFailed, err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Language converts a voicegen language code into the code Whisper expects.
func Language(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if mapped, ok := languages[code]; ok {
		return mapped
	}

	return code
}

// WordMatchRatio reports the share of expected words that also occur in transcript,
// compared case-insensitively without surrounding punctuation. Each transcript word
// can match once.
func WordMatchRatio(expected, transcript string) float64 {
	expectedWords := words(expected)
	if len(expectedWords) == 0 {
		return 1
	}

	heard := make(map[string]int)
	for _, word := range words(transcript) {
		heard[word]++
	}

	matched := 0

	for _, word := range expectedWords {
		if heard[word] > 0 {
			heard[word]--
			matched++
		}
	}

	return float64(matched) / float64(len(expectedWords))
}

func words(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	result := make([]string, 0, len(fields))

	for _, field := range fields {
		trimmed := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
