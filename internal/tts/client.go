// Package tts turns text into speech: synthesis backends for the external model,
// the sentence-level speech engine, and the chunk batch mode used by the client.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts/audio"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
	contentTypeXWAV   = "audio/x-wav"
)

// Error messages.
const (
	errFmtUnexpectedContentType = "%w: expected audio/wav, got %q"
	errFmtServiceErrorWithCode  = "%w (%s): %s (code: %s)"
	errFmtServiceNonOKStatus    = "%w: %s, body: %s"
)

// Client errors.
var (
	ErrTextEmpty             = errors.New("text cannot be empty")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrEmptyAudio            = errors.New("received empty audio data")
	ErrServiceError          = errors.New("TTS service error")
	ErrServiceUnhealthy      = errors.New("TTS service is unhealthy")
)

// HTTPClient talks to the standalone synthesis HTTP service.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// Request is the JSON payload of a speech generation request.
type Request struct {
	// Text is one normalized sentence.
	Text string `json:"text"`

	// Language is the language code the sentence was normalized for.
	Language string `json:"language"`

	// SpeakerRefPath optionally names a server-side reference recording to clone.
	SpeakerRefPath string `json:"speaker_ref_path,omitempty"`

	// Temperature controls randomness in speech generation.
	Temperature float64 `json:"temperature"`

	// Speed scales the speaking rate; 1.0 is the model's natural pace.
	Speed float64 `json:"speed,omitempty"`
}

// ErrorResponse is a structured error body returned by the service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates a client for the service at baseURL (e.g. "http://localhost:8000").
// The timeout applies to every HTTP request made by this client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize generates speech for one sentence and decodes the returned WAV.
func (c *HTTPClient) Synthesize(
	ctx context.Context,
	sentence, language string,
	voice core.Voice,
) (audio.Waveform, error) {
	data, err := c.GenerateSpeech(ctx, Request{
		Text:           sentence,
		Language:       language,
		SpeakerRefPath: voice.SpeakerRefPath,
		Temperature:    voice.Temperature,
		Speed:          voice.Speed,
	})
	if err != nil {
		return audio.Waveform{}, err
	}

	wave, decodeErr := audio.DecodeWAV(data)
	if decodeErr != nil {
		return audio.Waveform{}, fmt.Errorf("failed to decode service audio: %w", decodeErr)
	}

	return wave, nil
}

// GenerateSpeech sends a generation request and returns the raw WAV bytes.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	contentTypeErr := checkContentType(resp.Header.Get(headerContentType))
	if contentTypeErr != nil {
		return nil, contentTypeErr
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the service is running. Run it before large batches to
// fail fast with a clear diagnostic.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrServiceUnhealthy, resp.Status)
	}

	return nil
}

func checkContentType(header string) error {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || (mediaType != contentTypeWAV && mediaType != contentTypeXWAV) {
		return fmt.Errorf(errFmtUnexpectedContentType, ErrUnexpectedContentType, header)
	}

	return nil
}

// parseErrorResponse decodes a structured JSON error, falling back to the raw body.
func parseErrorResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf(errFmtServiceNonOKStatus, ErrServiceError, resp.Status, readErr.Error())
	}

	var errorResp ErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf(errFmtServiceErrorWithCode,
			ErrServiceError, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, ErrServiceError, resp.Status, string(body))
}
