package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"golang.org/x/sync/errgroup"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts/audio"
	"github.com/book-expert/voicegen/internal/tts/text"
)

const (
	// DefaultSentenceTimeout bounds a single backend call when Options leaves it unset.
	DefaultSentenceTimeout = 60 * time.Second

	// HealthCheckTimeout defines the timeout for health check operations.
	HealthCheckTimeout = 10 * time.Second
)

// Engine errors.
var (
	ErrNoSpeech       = errors.New("no sentence could be synthesized")
	ErrInvalidWorkers = errors.New("workers must be at least 1")
)

const (
	logFmtSentenceWarning   = "Sentence %d (%s): %v"
	logFmtSentenceSkipped   = "Sentence %d skipped, normalization failed: %v"
	logFmtSentenceFailed    = "Sentence %d failed to synthesize: %v"
	logFmtSampleRateUnusual = "Backend returned %d Hz for %s, expected %d Hz"
	logFmtSpeechReady       = "Synthesized %d/%d sentences (%s, %.1fs of audio)"
	errFmtNormalize         = "failed to normalize text: %w"
	errFmtNoSpeech          = "%w: %w"
)

// Options tunes the engine.
type Options struct {
	// Workers is the number of sentences synthesized concurrently.
	Workers int

	// SentenceTimeout bounds each backend call.
	SentenceTimeout time.Duration

	// SentencePause is the silence, in seconds, inserted between sentences.
	SentencePause float64

	// BypassPostProcessing skips the quality effects; the WAV is still encoded at
	// the quality's bit depth.
	BypassPostProcessing bool
}

// HealthChecker is implemented by backends that can report their availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Engine turns text into a single WAV: it normalizes the text, synthesizes the
// sentences concurrently, joins them in order and post-processes the result.
type Engine struct {
	synth      core.Synthesizer
	normalizer *text.Normalizer
	logger     *logger.Logger
	quality    audio.Quality
	options    Options
}

type sentenceResult struct {
	err  error
	wave audio.Waveform
}

// NewEngine creates an engine around synth.
func NewEngine(
	synth core.Synthesizer,
	quality audio.Quality,
	options Options,
	log *logger.Logger,
) (*Engine, error) {
	if options.Workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, options.Workers)
	}

	qualityErr := quality.Validate()
	if qualityErr != nil {
		return nil, qualityErr
	}

	if options.SentenceTimeout <= 0 {
		options.SentenceTimeout = DefaultSentenceTimeout
	}

	return &Engine{
		synth:      synth,
		normalizer: text.NewNormalizer(),
		logger:     log,
		quality:    quality,
		options:    options,
	}, nil
}

// Normalize exposes the engine's normalizer.
func (e *Engine) Normalize(input, language string) ([]text.Sentence, error) {
	return e.normalizer.Normalize(input, language)
}

// HealthCheck asks the backend for its status when it supports one.
func (e *Engine) HealthCheck(ctx context.Context) error {
	checker, ok := e.synth.(HealthChecker)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	return checker.HealthCheck(ctx)
}

// Speak synthesizes input in language. An unsupported language fails before any
// backend call. Sentences that fail to normalize or synthesize are reported in
// Speech.Failures; if none succeed, the error wraps ErrNoSpeech.
func (e *Engine) Speak(
	ctx context.Context,
	input, language string,
	voice core.Voice,
) (*core.Speech, error) {
	lang, err := e.normalizer.Language(language)
	if err != nil {
		return nil, fmt.Errorf(errFmtNormalize, err)
	}

	sentences, err := e.normalizer.Normalize(input, language)
	if err != nil {
		return nil, fmt.Errorf(errFmtNormalize, err)
	}

	e.logSentenceIssues(sentences)

	results, err := e.synthesizeAll(ctx, sentences, lang.Code, voice)
	if err != nil {
		return nil, err
	}

	waves, failures := e.collect(sentences, results, lang)
	if len(waves) == 0 {
		return &core.Speech{Failures: failures}, fmt.Errorf(errFmtNoSpeech, ErrNoSpeech, failureError(failures))
	}

	speech, err := e.render(waves)
	if err != nil {
		return nil, err
	}

	speech.Failures = failures
	speech.Sentences = len(waves)

	e.logger.Info(logFmtSpeechReady, len(waves), len(sentences), lang.Code, speech.Duration.Seconds())

	return speech, nil
}

func (e *Engine) logSentenceIssues(sentences []text.Sentence) {
	for _, sentence := range sentences {
		for _, warning := range sentence.Warnings {
			e.logger.Warn(logFmtSentenceWarning, sentence.Index, sentence.Source, warning)
		}

		if !sentence.OK() {
			e.logger.Warn(logFmtSentenceSkipped, sentence.Index, sentence.Err)
		}
	}
}

// synthesizeAll fans the speakable sentences out to the backend. Results are stored
// by sentence index so the output order never depends on completion order.
func (e *Engine) synthesizeAll(
	ctx context.Context,
	sentences []text.Sentence,
	language string,
	voice core.Voice,
) ([]sentenceResult, error) {
	results := make([]sentenceResult, len(sentences))

	var group errgroup.Group

	group.SetLimit(e.options.Workers)

	for i, sentence := range sentences {
		if !sentence.OK() {
			continue
		}

		group.Go(func() error {
			if ctx.Err() != nil {
				results[i].err = ctx.Err()

				return nil
			}

			sentenceCtx, cancel := context.WithTimeout(ctx, e.options.SentenceTimeout)
			defer cancel()

			wave, err := e.synth.Synthesize(sentenceCtx, sentence.Text, language, voice)
			results[i] = sentenceResult{wave: wave, err: err}

			return nil
		})
	}

	_ = group.Wait()

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return nil, fmt.Errorf("speech synthesis interrupted: %w", ctxErr)
	}

	return results, nil
}

func (e *Engine) collect(
	sentences []text.Sentence,
	results []sentenceResult,
	lang *text.Language,
) ([]audio.Waveform, []core.SentenceFailure) {
	var (
		waves    []audio.Waveform
		failures []core.SentenceFailure
	)

	for i, sentence := range sentences {
		if !sentence.OK() {
			failures = append(failures, newFailure(sentence, sentence.Err))

			continue
		}

		result := results[i]
		if result.err != nil {
			e.logger.Error(logFmtSentenceFailed, sentence.Index, result.err)
			failures = append(failures, newFailure(sentence, result.err))

			continue
		}

		if result.wave.SampleRate != lang.SampleRate {
			e.logger.Warn(logFmtSampleRateUnusual, result.wave.SampleRate, lang.Code, lang.SampleRate)
		}

		waves = append(waves, result.wave)
	}

	return waves, failures
}

func (e *Engine) render(waves []audio.Waveform) (*core.Speech, error) {
	joined, err := audio.Concat(waves, e.options.SentencePause)
	if err != nil {
		return nil, fmt.Errorf("failed to join sentence audio: %w", err)
	}

	if !e.options.BypassPostProcessing {
		joined, err = e.quality.Process(joined)
		if err != nil {
			return nil, fmt.Errorf("failed to post-process audio: %w", err)
		}
	}

	data, err := audio.EncodeWAV(joined, e.quality.BitDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audio: %w", err)
	}

	return &core.Speech{
		Audio:      data,
		SampleRate: joined.SampleRate,
		Duration:   joined.Duration(),
	}, nil
}

func newFailure(sentence text.Sentence, err error) core.SentenceFailure {
	return core.SentenceFailure{
		Index:  sentence.Index,
		Text:   sentence.Source,
		Reason: err.Error(),
	}
}

func failureError(failures []core.SentenceFailure) error {
	if len(failures) == 0 {
		return errors.New("text has no speakable sentences")
	}

	errs := make([]error, 0, len(failures))
	for _, failure := range failures {
		errs = append(errs, fmt.Errorf("sentence %d %q: %s", failure.Index, failure.Text, failure.Reason))
	}

	return errors.Join(errs...)
}
