package tts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts"
	"github.com/book-expert/voicegen/internal/tts/audio"
)

const testTimeout = 10 * time.Second

func encodeTestWAV(t *testing.T, samples []float64, sampleRate int) []byte {
	t.Helper()

	data, err := audio.EncodeWAV(audio.Waveform{Samples: samples, SampleRate: sampleRate}, audio.BitDepth16)
	require.NoError(t, err)

	return data
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	client := tts.NewHTTPClient("http://localhost:8000", testTimeout)
	require.NotNil(t, client)
}

func TestHTTPClient_Synthesize(t *testing.T) {
	t.Parallel()

	wavData := encodeTestWAV(t, []float64{0, 0.5, -0.5}, 24000)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/generate/speech", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "audio/wav", r.Header.Get("Accept"))

		var req tts.Request

		decodeErr := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, decodeErr)
		assert.Equal(t, tts.Request{
			Text:           "Выход номер сто двадцать",
			Language:       "ru",
			SpeakerRefPath: "/voices/announcer.wav",
			Temperature:    0.6,
			Speed:          1.2,
		}, req)

		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(wavData)
	}))
	defer server.Close()

	client := tts.NewHTTPClient(server.URL, testTimeout)

	wave, err := client.Synthesize(context.Background(), "Выход номер сто двадцать", "ru", core.Voice{
		SpeakerRefPath: "/voices/announcer.wav",
		Temperature:    0.6,
		Speed:          1.2,
	})
	require.NoError(t, err)
	assert.Equal(t, 24000, wave.SampleRate)
	assert.InDeltaSlice(t, []float64{0, 0.5, -0.5}, wave.Samples, 1e-3)
}

func TestHTTPClient_GenerateSpeech_EmptyText(t *testing.T) {
	t.Parallel()

	client := tts.NewHTTPClient("http://localhost:8000", testTimeout)

	_, err := client.GenerateSpeech(context.Background(), tts.Request{Language: "en"})
	require.ErrorIs(t, err, tts.ErrTextEmpty)
}

func TestHTTPClient_GenerateSpeech_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantErr  error
		contains []string
	}{
		{
			name: "structured service error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(tts.ErrorResponse{
					Detail:    "Model failed to load",
					ErrorCode: "MODEL_LOAD_ERROR",
				})
			},
			wantErr:  tts.ErrServiceError,
			contains: []string{"Model failed to load", "MODEL_LOAD_ERROR"},
		},
		{
			name: "plain text service error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream down"))
			},
			wantErr:  tts.ErrServiceError,
			contains: []string{"502", "upstream down"},
		},
		{
			name: "wrong content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("not audio data"))
			},
			wantErr:  tts.ErrUnexpectedContentType,
			contains: []string{"text/plain"},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "audio/wav")
				w.WriteHeader(http.StatusOK)
			},
			wantErr: tts.ErrEmptyAudio,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(testCase.handler)
			defer server.Close()

			client := tts.NewHTTPClient(server.URL, testTimeout)

			_, err := client.GenerateSpeech(context.Background(), tts.Request{Text: "Hello", Language: "en"})
			require.ErrorIs(t, err, testCase.wantErr)

			for _, substring := range testCase.contains {
				assert.Contains(t, err.Error(), substring)
			}
		})
	}
}

func TestHTTPClient_GenerateSpeech_AcceptsContentTypeParameters(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/x-wav; charset=binary")
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer server.Close()

	client := tts.NewHTTPClient(server.URL, testTimeout)

	data, err := client.GenerateSpeech(context.Background(), tts.Request{Text: "Hello", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)
}

func TestHTTPClient_Synthesize_UndecodableAudio(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("fake-wav-data"))
	}))
	defer server.Close()

	client := tts.NewHTTPClient(server.URL, testTimeout)

	_, err := client.Synthesize(context.Background(), "Hello", "en", core.Voice{})
	require.ErrorIs(t, err, audio.ErrUnsupportedWAVInput)
}

func TestHTTPClient_HealthCheck(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	require.NoError(t, tts.NewHTTPClient(healthy.URL, testTimeout).HealthCheck(context.Background()))

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	err := tts.NewHTTPClient(unhealthy.URL, testTimeout).HealthCheck(context.Background())
	require.ErrorIs(t, err, tts.ErrServiceUnhealthy)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	t.Parallel()

	client := tts.NewHTTPClient("http://127.0.0.1:1", time.Second)

	require.Error(t, client.HealthCheck(context.Background()))

	_, err := client.GenerateSpeech(context.Background(), tts.Request{Text: "Hello", Language: "en"})
	require.Error(t, err)
}
