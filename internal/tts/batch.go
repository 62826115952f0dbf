package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts/ttsutils"
)

const (
	filePermissions = 0o600
	outputFileName  = "chunk_%04d"
)

// Batch errors.
var (
	ErrChunksPathEmpty = errors.New("chunks path cannot be empty")
	ErrOutputDirEmpty  = errors.New("output directory cannot be empty")
	ErrOutputPathEmpty = errors.New("output path cannot be empty")
	ErrNoChunksFound   = errors.New("no chunks found")
)

const (
	errFmtHealthCheckFailed = "TTS service health check failed: %w"
	errFmtChunkFailed       = "chunk %d failed: %w"
	logFmtServiceHealthy    = "TTS service is healthy, processing %d chunks"
	logFmtGeneratedAudio    = "Generated audio: %s (%s, %s)"
	logFmtChunkFailed       = "Failed to process chunk %d: %v"
	logFmtChunkProcessed    = "Processed chunk %d/%d"
	logFmtPartialOutput     = "%s: %d sentence(s) could not be voiced"
)

// ProcessChunks voices every entry of a JSON array of strings into outputDir as
// chunk_0001.wav, chunk_0002.wav and so on. A failed chunk does not stop the
// others; the returned error joins all chunk failures.
func (e *Engine) ProcessChunks(
	ctx context.Context,
	chunksPath, outputDir, language string,
	voice core.Voice,
) error {
	if chunksPath == "" {
		return ErrChunksPathEmpty
	}

	if outputDir == "" {
		return ErrOutputDirEmpty
	}

	chunks, err := readChunksFile(chunksPath)
	if err != nil {
		return fmt.Errorf("failed to read chunks: %w", err)
	}

	dirErr := ttsutils.EnsureDir(outputDir)
	if dirErr != nil {
		return dirErr
	}

	healthErr := e.HealthCheck(ctx)
	if healthErr != nil {
		return fmt.Errorf(errFmtHealthCheckFailed, healthErr)
	}

	e.logger.Info(logFmtServiceHealthy, len(chunks))

	var chunkErrs []error

	for index, chunk := range chunks {
		outputPath := ttsutils.OutputPath(outputDir, fmt.Sprintf(outputFileName, index+1))

		_, speakErr := e.SpeakToFile(ctx, chunk, outputPath, language, voice)
		if speakErr != nil {
			e.logger.Error(logFmtChunkFailed, index+1, speakErr)
			chunkErrs = append(chunkErrs, fmt.Errorf(errFmtChunkFailed, index+1, speakErr))

			if ctx.Err() != nil {
				break
			}

			continue
		}

		e.logger.Info(logFmtChunkProcessed, index+1, len(chunks))
	}

	return errors.Join(chunkErrs...)
}

// SpeakToFile voices input and writes the WAV to outputPath, creating its directory.
func (e *Engine) SpeakToFile(
	ctx context.Context,
	input, outputPath, language string,
	voice core.Voice,
) (*core.Speech, error) {
	if input == "" {
		return nil, ErrTextEmpty
	}

	if outputPath == "" {
		return nil, ErrOutputPathEmpty
	}

	dirErr := ttsutils.EnsureDir(filepath.Dir(outputPath))
	if dirErr != nil {
		return nil, dirErr
	}

	speech, err := e.Speak(ctx, input, language, voice)
	if err != nil {
		return speech, err
	}

	writeErr := os.WriteFile(outputPath, speech.Audio, filePermissions)
	if writeErr != nil {
		return nil, fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	if len(speech.Failures) > 0 {
		e.logger.Warn(logFmtPartialOutput, outputPath, len(speech.Failures))
	}

	e.logger.Info(
		logFmtGeneratedAudio,
		outputPath,
		ttsutils.FormatFileSize(int64(len(speech.Audio))),
		ttsutils.FormatDuration(speech.Duration.Seconds()),
	)

	return speech, nil
}

// readChunksFile reads a JSON array of strings.
func readChunksFile(chunksPath string) ([]string, error) {
	data, err := os.ReadFile(chunksPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var chunks []string

	err = parseJSON(data, &chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chunks JSON: %w", err)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoChunksFound, chunksPath)
	}

	return chunks, nil
}
