package tts_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts"
)

// writeModelScript creates an executable shell script standing in for a model binary.
func writeModelScript(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "model.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700))

	return path
}

func TestNewCommandSynthesizer(t *testing.T) {
	t.Parallel()

	_, err := tts.NewCommandSynthesizer("", createTestLogger(t))
	require.ErrorIs(t, err, tts.ErrBinaryPathEmpty)

	synth, err := tts.NewCommandSynthesizer("/usr/bin/model", createTestLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, synth)
}

func TestCommandSynthesizer_Synthesize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.wav")
	argsFile := filepath.Join(dir, "args.txt")
	require.NoError(t, os.WriteFile(fixture, encodeTestWAV(t, []float64{0.25, -0.25}, testSampleRate), 0o600))

	script := writeModelScript(t, fmt.Sprintf(`printf '%%s\n' "$@" > %q
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; fi
  shift
done
cp %q "$out"
`, argsFile, fixture))

	synth, err := tts.NewCommandSynthesizer(script, createTestLogger(t))
	require.NoError(t, err)

	voice := core.Voice{SpeakerRefPath: "voices/anna.wav", Temperature: 0.75, Speed: 1}

	wave, err := synth.Synthesize(context.Background(), "Выход пять открыт", "ru", voice)
	require.NoError(t, err)
	assert.Equal(t, testSampleRate, wave.SampleRate)
	assert.InDeltaSlice(t, []float64{0.25, -0.25}, wave.Samples, 1e-3)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)

	args := strings.Split(strings.TrimSpace(string(recorded)), "\n")
	require.Len(t, args, 12)
	assert.Equal(t, []string{
		"--text", "Выход пять открыт",
		"--language", "ru",
		"--speaker-ref", "voices/anna.wav",
		"--temperature", "0.75",
		"--speed", "1.00",
	}, args[:10])
	assert.Equal(t, "--output", args[10])
	assert.True(t, strings.HasSuffix(args[11], ".wav"))
	assert.NoFileExists(t, args[11])
}

func TestCommandSynthesizer_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		script  string
		text    string
		wantErr error
		message string
	}{
		{
			name:    "empty text",
			script:  "exit 0\n",
			text:    "",
			wantErr: tts.ErrTextEmpty,
		},
		{
			name:    "binary fails",
			script:  "echo 'cuda unavailable'\nexit 3\n",
			text:    "Hello",
			message: "cuda unavailable",
		},
		{
			name:    "no audio written",
			script:  "exit 0\n",
			text:    "Hello",
			wantErr: tts.ErrEmptyAudio,
		},
		{
			name:    "not a wav file",
			script:  "out=\"\"\nwhile [ $# -gt 0 ]; do\n  if [ \"$1\" = \"--output\" ]; then out=\"$2\"; fi\n  shift\ndone\necho garbage > \"$out\"\n",
			text:    "Hello",
			message: "failed to decode model audio",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			synth, err := tts.NewCommandSynthesizer(writeModelScript(t, testCase.script), createTestLogger(t))
			require.NoError(t, err)

			_, err = synth.Synthesize(context.Background(), testCase.text, "en", core.Voice{Speed: 1})
			require.Error(t, err)

			if testCase.wantErr != nil {
				require.ErrorIs(t, err, testCase.wantErr)
			}

			if testCase.message != "" {
				assert.Contains(t, err.Error(), testCase.message)
			}
		})
	}
}
