// main package for the voicegen service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/voicegen/internal/config"
	"github.com/book-expert/voicegen/internal/objectstore"
	"github.com/book-expert/voicegen/internal/tts"
	"github.com/book-expert/voicegen/internal/worker"
)

const (
	bootstrapLogFile = "voicegen-bootstrap.log"
	serviceLogFile   = "voicegen.log"
	natsClientName   = "voicegen"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run(ctx context.Context) error {
	// A missing .env file is normal; the environment may already be populated.
	_ = godotenv.Load()

	bootstrapLog, err := setupLogger(os.TempDir(), bootstrapLogFile)
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, serviceLogFile)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(ctx, cfg, finalLog)
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL, nats.Name(natsClientName))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	js, err := jetstream.New(natsConnection)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(ctx, js, cfg.NATS.ObjectStoreBucket)
	if err != nil {
		return err
	}

	runtime, err := tts.NewRuntime(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create speech engine: %w", err)
	}

	defer func() {
		closeErr := runtime.Close()
		if closeErr != nil {
			log.Warn("Failed to close sentence cache: %v", closeErr)
		}
	}()

	healthErr := runtime.Engine.HealthCheck(ctx)
	if healthErr != nil {
		log.Warn("Synthesis backend is not healthy yet: %v", healthErr)
	}

	speechWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.SpeechRequestedSubject,
		store,
		runtime.Engine,
		worker.Defaults{Language: cfg.TTS.DefaultLanguage, Voice: runtime.Voice},
		cfg.NATS.HandleTimeout(),
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	log.System(
		"voicegen successfully initialized. Listening for jobs on subject: %s",
		cfg.NATS.SpeechRequestedSubject,
	)

	return speechWorker.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
