package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/book-expert/logger"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts/audio"
)

const (
	tempOutputPattern = "voicegen-sentence-*.wav"
	floatFormatFlag   = 'f'
	floatPrecision    = 2
	floatBitSize      = 64
)

// ErrBinaryPathEmpty is returned when no model binary is configured.
var ErrBinaryPathEmpty = errors.New("model binary path cannot be empty")

// CommandSynthesizer runs a local model binary once per sentence. The binary is
// invoked as
//
//	<binary> --text T --language L [--speaker-ref P] --temperature X --speed S --output F
//
// and must write a PCM WAV file to F.
type CommandSynthesizer struct {
	log        *logger.Logger
	binaryPath string
}

// NewCommandSynthesizer creates a synthesizer for the binary at binaryPath.
func NewCommandSynthesizer(binaryPath string, log *logger.Logger) (*CommandSynthesizer, error) {
	if binaryPath == "" {
		return nil, ErrBinaryPathEmpty
	}

	return &CommandSynthesizer{
		binaryPath: binaryPath,
		log:        log,
	}, nil
}

// Synthesize runs the binary for one sentence and decodes the WAV it wrote.
func (p *CommandSynthesizer) Synthesize(
	ctx context.Context,
	sentence, language string,
	voice core.Voice,
) (audio.Waveform, error) {
	if sentence == "" {
		return audio.Waveform{}, ErrTextEmpty
	}

	tempFile, err := os.CreateTemp("", tempOutputPattern)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("failed to create temp file for tts output: %w", err)
	}

	closeErr := tempFile.Close()
	if closeErr != nil {
		p.log.Warn("Failed to close temp file '%s': %v", tempFile.Name(), closeErr)
	}

	defer func() {
		removeErr := os.Remove(tempFile.Name())
		if removeErr != nil && !os.IsNotExist(removeErr) {
			p.log.Warn("Failed to remove temp file '%s': %v", tempFile.Name(), removeErr)
		}
	}()

	args := commandArgs(sentence, language, voice, tempFile.Name())

	// #nosec G204 -- the binary comes from configuration; the text is passed as a single argument
	cmd := exec.CommandContext(ctx, p.binaryPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("model binary execution failed: %w - output: %s", err, string(output))
	}

	audioData, err := os.ReadFile(tempFile.Name())
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("failed to read audio data from temp file: %w", err)
	}

	if len(audioData) == 0 {
		return audio.Waveform{}, ErrEmptyAudio
	}

	wave, err := audio.DecodeWAV(audioData)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("failed to decode model audio: %w", err)
	}

	return wave, nil
}

func commandArgs(sentence, language string, voice core.Voice, outputPath string) []string {
	args := []string{"--text", sentence, "--language", language}

	if voice.SpeakerRefPath != "" {
		args = append(args, "--speaker-ref", voice.SpeakerRefPath)
	}

	return append(args,
		"--temperature", strconv.FormatFloat(voice.Temperature, floatFormatFlag, floatPrecision, floatBitSize),
		"--speed", strconv.FormatFloat(voice.Speed, floatFormatFlag, floatPrecision, floatBitSize),
		"--output", outputPath,
	)
}
