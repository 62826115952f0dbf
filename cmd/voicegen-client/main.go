package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"
	"github.com/joho/godotenv"

	"github.com/book-expert/voicegen/internal/config"
	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts"
	"github.com/book-expert/voicegen/internal/tts/text"
	"github.com/book-expert/voicegen/internal/tts/ttsutils"
	"github.com/book-expert/voicegen/internal/tts/whisper"
)

// Flag descriptions.
const (
	flagOutputDesc    = "Output file path (.wav), or output directory with --chunks"
	flagChunksDesc    = "JSON file containing text chunks to process"
	flagConfigDesc    = "Path to the TOML configuration file"
	flagVerboseDesc   = "Enable verbose logging"
	flagHealthDesc    = "Check TTS service health and exit"
	flagTextDesc      = "Text to convert to speech"
	flagFileDesc      = "Text or markdown file to convert to speech"
	flagLangDesc      = "Language code (defaults to tts_service.default_language)"
	flagNormalizeDesc = "Print the normalized sentences without synthesizing"
	flagVerifyDesc    = "Transcribe the result with Whisper and report how much of it was heard"
)

// Flag names.
const (
	flagText      = "text"
	flagFile      = "file"
	flagOutput    = "output"
	flagChunks    = "chunks"
	flagConfig    = "config"
	flagLang      = "lang"
	flagVerbose   = "verbose"
	flagHealth    = "health"
	flagNormalize = "normalize"
	flagVerify    = "verify"
)

// Error and log messages.
const (
	errFailedToLoadConfig    = "failed to load configuration: %w"
	errFailedToInitLogger    = "failed to initialize logger: %w"
	errFailedToReadFile      = "failed to read text file: %w"
	errHealthCheckFailed     = "Health check failed: %v"
	errServiceNotHealthy     = "TTS service is not healthy: %v\n"
	msgServiceHealthy        = "TTS service is healthy"
	errFailedToProcessText   = "Failed to process text: %v"
	errFailedToProcessChunks = "Failed to process chunks: %v"
	errFmtProcessText        = "failed to process text: %w"
	errFmtProcessChunks      = "failed to process chunks: %w"
	errFmtVerify             = "failed to verify speech: %w"
)

// Log and output messages.
const (
	logClientInitialized     = "voicegen client initialized (config: %s, language: %s)"
	logProcessingSingleText  = "Processing single text to: %s"
	logSuccessfullyGenerated = "Successfully generated speech: %s"
	msgGenerated             = "Generated: %s (%d sentences, %s)\n"
	msgSentenceFailed        = "  sentence %d %q not voiced: %s\n"
	msgNormalizedSentence    = "%d\t%s\n"
	msgNormalizeFailed       = "%d\t! %v\n"
	msgTranscript            = "Transcript: %s\nHeard %.0f%% of the expected words\n"
	logProcessingChunks      = "Processing chunks from: %s"
	logOutputDirectory       = "Output directory: %s"
	logSuccessfullyProcessed = "Successfully processed all chunks"
	msgGeneratedAudioFiles   = "Generated audio files in: %s\n"
)

// File names and paths.
const (
	defaultConfigFile  = "project.toml"
	logFileNameDefault = "voicegen-client.log"
	logFileNameVerbose = "voicegen-client-verbose.log"
	defaultOutputFile  = "output.wav"
	percent            = 100
)

// Argument errors.
var (
	ErrEitherTextOrChunks = errors.New("one of --text, --file or --chunks must be provided")
	ErrCannotSpecifyBoth  = errors.New("only one of --text, --file and --chunks may be provided")
	ErrInvalidTextFile    = errors.New("--file must be a .txt or .md file")
	ErrVerifyChunks       = errors.New("--verify cannot be combined with --chunks")
	ErrOutputNotWAV       = errors.New("--output must be a .wav file")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text      string
	file      string
	output    string
	chunks    string
	config    string
	lang      string
	verbose   bool
	health    bool
	normalize bool
	verify    bool
}

func main() {
	// A missing .env file is normal; the environment may already be populated.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := run(ctx, os.Args[1:], os.Stdout)

	stop()

	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run(ctx context.Context, args []string, out io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	validateErr := validateArguments(flags)
	if validateErr != nil {
		return validateErr
	}

	cfg, clientLog, err := setup(flags)
	if err != nil {
		return err
	}

	defer func() {
		_ = clientLog.Close()
	}()

	language := flags.lang
	if language == "" {
		language = cfg.TTS.DefaultLanguage
	}

	clientLog.Info(logClientInitialized, flags.config, language)

	input, err := readInput(flags)
	if err != nil {
		return err
	}

	if flags.normalize {
		return printNormalized(out, input, language)
	}

	runtime, err := tts.NewRuntime(ctx, cfg, clientLog)
	if err != nil {
		return err
	}

	defer func() {
		_ = runtime.Close()
	}()

	if flags.health {
		return handleHealthCheck(ctx, out, runtime.Engine, clientLog)
	}

	if flags.chunks != "" {
		return processChunks(ctx, out, runtime, cfg, clientLog, flags, language)
	}

	return processSingleText(ctx, out, runtime, cfg, clientLog, flags, input, language)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	var flags appFlags

	flagSet := flag.NewFlagSet("voicegen-client", flag.ContinueOnError)
	flagSet.StringVar(&flags.text, flagText, "", flagTextDesc)
	flagSet.StringVar(&flags.file, flagFile, "", flagFileDesc)
	flagSet.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flagSet.StringVar(&flags.chunks, flagChunks, "", flagChunksDesc)
	flagSet.StringVar(&flags.config, flagConfig, defaultConfigFile, flagConfigDesc)
	flagSet.StringVar(&flags.lang, flagLang, "", flagLangDesc)
	flagSet.BoolVar(&flags.verbose, flagVerbose, false, flagVerboseDesc)
	flagSet.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flagSet.BoolVar(&flags.normalize, flagNormalize, false, flagNormalizeDesc)
	flagSet.BoolVar(&flags.verify, flagVerify, false, flagVerifyDesc)

	err := flagSet.Parse(args)
	if err != nil {
		return appFlags{}, fmt.Errorf("failed to parse flags: %w", err)
	}

	return flags, nil
}

// validateArguments checks for required and conflicting arguments.
func validateArguments(flags appFlags) error {
	if flags.health {
		return nil
	}

	sources := 0

	for _, source := range []string{flags.text, flags.file, flags.chunks} {
		if source != "" {
			sources++
		}
	}

	switch {
	case sources == 0:
		return ErrEitherTextOrChunks
	case sources > 1:
		return ErrCannotSpecifyBoth
	case flags.file != "" && !ttsutils.IsValidTextFile(flags.file):
		return fmt.Errorf("%w: %s", ErrInvalidTextFile, flags.file)
	case flags.verify && flags.chunks != "":
		return ErrVerifyChunks
	case flags.chunks == "" && !flags.normalize && flags.output != "" && !ttsutils.IsWAVFile(flags.output):
		return fmt.Errorf("%w: %s", ErrOutputNotWAV, flags.output)
	}

	return nil
}

// setup loads config and initializes the logger.
func setup(flags appFlags) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadFile(flags.config)
	if err != nil {
		return nil, nil, fmt.Errorf(errFailedToLoadConfig, err)
	}

	logFileName := logFileNameDefault
	if flags.verbose {
		logFileName = logFileNameVerbose
	}

	logDir := cfg.Paths.BaseLogsDir
	if logDir == "" {
		logDir = os.TempDir()
	}

	clientLog, err := logger.New(logDir, logFileName)
	if err != nil {
		return nil, nil, fmt.Errorf(errFailedToInitLogger, err)
	}

	return cfg, clientLog, nil
}

// readInput returns the text to voice from --text or --file.
func readInput(flags appFlags) (string, error) {
	if flags.file == "" {
		return flags.text, nil
	}

	data, err := os.ReadFile(flags.file)
	if err != nil {
		return "", fmt.Errorf(errFailedToReadFile, err)
	}

	return string(data), nil
}

// printNormalized writes one line per sentence: its index and the text sent to the
// backend, or the reason it would be skipped.
func printNormalized(out io.Writer, input, language string) error {
	sentences, err := text.NewNormalizer().Normalize(input, language)
	if err != nil {
		return err
	}

	for _, sentence := range sentences {
		if !sentence.OK() {
			_, _ = fmt.Fprintf(out, msgNormalizeFailed, sentence.Index, sentence.Err)

			continue
		}

		_, _ = fmt.Fprintf(out, msgNormalizedSentence, sentence.Index, sentence.Text)
	}

	return nil
}

// handleHealthCheck performs a service health check and prints the result.
func handleHealthCheck(ctx context.Context, out io.Writer, engine *tts.Engine, clientLog *logger.Logger) error {
	err := engine.HealthCheck(ctx)
	if err != nil {
		clientLog.Error(errHealthCheckFailed, err)
		_, _ = fmt.Fprintf(out, errServiceNotHealthy, err)

		return err
	}

	_, _ = fmt.Fprintln(out, msgServiceHealthy)

	return nil
}

// processSingleText voices one text into a single WAV file.
func processSingleText(
	ctx context.Context,
	out io.Writer,
	runtime *tts.Runtime,
	cfg *config.Config,
	clientLog *logger.Logger,
	flags appFlags,
	input, language string,
) error {
	outputPath := flags.output
	if outputPath == "" {
		outputPath = filepath.Join(cfg.Paths.OutputDir, defaultOutputFile)
	}

	clientLog.Info(logProcessingSingleText, outputPath)

	speech, err := runtime.Engine.SpeakToFile(ctx, input, outputPath, language, runtime.Voice)
	if speech != nil {
		printFailures(out, speech.Failures)
	}

	if err != nil {
		clientLog.Error(errFailedToProcessText, err)

		return fmt.Errorf(errFmtProcessText, err)
	}

	clientLog.Info(logSuccessfullyGenerated, outputPath)
	_, _ = fmt.Fprintf(out, msgGenerated, outputPath, speech.Sentences, ttsutils.FormatDuration(speech.Duration.Seconds()))

	if flags.verify {
		return verifySpeech(ctx, out, runtime.Engine, input, language, speech.Audio)
	}

	return nil
}

func printFailures(out io.Writer, failures []core.SentenceFailure) {
	for _, failure := range failures {
		_, _ = fmt.Fprintf(out, msgSentenceFailed, failure.Index, failure.Text, failure.Reason)
	}
}

// verifySpeech transcribes the generated audio and compares it with the normalized
// sentences.
func verifySpeech(
	ctx context.Context,
	out io.Writer,
	engine *tts.Engine,
	input, language string,
	wavData []byte,
) error {
	client, err := whisper.NewClient(os.Getenv(whisper.EnvAPIKey), os.Getenv(whisper.EnvBaseURL))
	if err != nil {
		return fmt.Errorf(errFmtVerify, err)
	}

	sentences, err := engine.Normalize(input, language)
	if err != nil {
		return fmt.Errorf(errFmtVerify, err)
	}

	transcript, err := client.Transcribe(ctx, wavData, language)
	if err != nil {
		return fmt.Errorf(errFmtVerify, err)
	}

	ratio := whisper.WordMatchRatio(strings.Join(text.Texts(sentences), " "), transcript)
	_, _ = fmt.Fprintf(out, msgTranscript, transcript, ratio*percent)

	return nil
}

// processChunks voices a JSON file of text chunks into a directory.
func processChunks(
	ctx context.Context,
	out io.Writer,
	runtime *tts.Runtime,
	cfg *config.Config,
	clientLog *logger.Logger,
	flags appFlags,
	language string,
) error {
	outputDir := flags.output
	if outputDir == "" {
		outputDir = cfg.Paths.OutputDir
	}

	if outputDir == "" {
		outputDir = "."
	}

	clientLog.Info(logProcessingChunks, flags.chunks)
	clientLog.Info(logOutputDirectory, outputDir)

	err := runtime.Engine.ProcessChunks(ctx, flags.chunks, outputDir, language, runtime.Voice)
	if err != nil {
		clientLog.Error(errFailedToProcessChunks, err)

		return fmt.Errorf(errFmtProcessChunks, err)
	}

	clientLog.Info(logSuccessfullyProcessed)
	_, _ = fmt.Fprintf(out, msgGeneratedAudioFiles, outputDir)

	return nil
}
