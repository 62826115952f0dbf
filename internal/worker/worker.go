// Package worker provides a NATS worker that voices speech requests.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/voicegen/internal/core"
	"github.com/book-expert/voicegen/internal/tts/text"
)

const (
	// DefaultHandleTimeout bounds one request when the worker is created without one.
	DefaultHandleTimeout = 5 * time.Minute

	// QueueGroup lets several workers share the request subject.
	QueueGroup = "voicegen"

	audioKeySuffix = ".wav"
	minSpeed       = 0.25
	maxSpeed       = 4.0
)

var (
	// ErrConnectionNil indicates that no NATS connection was provided.
	ErrConnectionNil = errors.New("nats connection cannot be nil")
	// ErrSubjectEmpty indicates that the request subject is empty.
	ErrSubjectEmpty = errors.New("subject cannot be empty")
	// ErrTextKeyEmpty indicates that the request names no text object.
	ErrTextKeyEmpty = errors.New("text key cannot be empty")
	// ErrTemperatureRange indicates that the Temperature parameter is negative.
	ErrTemperatureRange = errors.New("temperature must be >= 0.0")
	// ErrSpeedRange indicates that the Speed parameter is outside [0.25, 4.0].
	ErrSpeedRange = errors.New("speed must be between 0.25 and 4.0")
)

// Speaker voices a whole text. *tts.Engine implements it.
type Speaker interface {
	Speak(ctx context.Context, input, language string, voice core.Voice) (*core.Speech, error)
}

// Defaults fill the fields a request leaves empty.
type Defaults struct {
	Language string
	Voice    core.Voice
}

// NatsWorker listens for speech requests on a NATS subject and processes them.
type NatsWorker struct {
	natsConnection *nats.Conn
	store          core.ObjectStore
	speaker        Speaker
	log            *logger.Logger
	subject        string
	defaults       Defaults
	handleTimeout  time.Duration
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	speaker Speaker,
	defaults Defaults,
	handleTimeout time.Duration,
	log *logger.Logger,
) (*NatsWorker, error) {
	if natsConnection == nil {
		return nil, ErrConnectionNil
	}

	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	if handleTimeout <= 0 {
		handleTimeout = DefaultHandleTimeout
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		store:          store,
		speaker:        speaker,
		log:            log,
		subject:        subject,
		defaults:       defaults,
		handleTimeout:  handleTimeout,
	}, nil
}

// Run starts the worker and blocks until ctx is cancelled, then drains the
// subscription so in-flight requests finish.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.QueueSubscribe(w.subject, QueueGroup, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for speech requests on %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.handleTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)
		w.reply(msg, w.failedEvent(event, err))

		return
	}

	completed, processErr := w.processSpeechJob(ctx, event)
	if processErr != nil {
		w.log.Error("Failed to process speech job for workflow %s: %v", event.Header.WorkflowID, processErr)
		w.reply(msg, w.failedEvent(event, processErr))

		return
	}

	w.log.Info(
		"Workflow %s voiced %d sentence(s) into %s, %d failed",
		event.Header.WorkflowID, completed.Sentences, completed.AudioKey, len(completed.Failures),
	)
	w.reply(msg, completed)
}

// processSpeechJob downloads the text, voices it and uploads the audio.
func (w *NatsWorker) processSpeechJob(
	ctx context.Context,
	event *core.SpeechRequestedEvent,
) (*core.SpeechCompletedEvent, error) {
	textData, err := w.store.Download(ctx, event.TextKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download text data for key '%s': %w", event.TextKey, err)
	}

	speech, err := w.speaker.Speak(ctx, string(textData), event.Language, event.Voice)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	audioKey := uuid.NewString() + audioKeySuffix

	err = w.store.Upload(ctx, audioKey, speech.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	return &core.SpeechCompletedEvent{
		Header:    replyHeader(event.Header),
		AudioKey:  audioKey,
		Language:  event.Language,
		Failures:  speech.Failures,
		Sentences: speech.Sentences,
	}, nil
}

func (w *NatsWorker) failedEvent(event *core.SpeechRequestedEvent, err error) *core.SpeechCompletedEvent {
	completed := &core.SpeechCompletedEvent{
		Header: replyHeader(events.EventHeader{}),
		Error:  err.Error(),
	}

	if event != nil {
		completed.Header = replyHeader(event.Header)
		completed.Language = event.Language
	}

	return completed
}

// reply answers request-reply callers; fire-and-forget messages get no reply.
func (w *NatsWorker) reply(msg *nats.Msg, completed *core.SpeechCompletedEvent) {
	if msg.Reply == "" {
		return
	}

	err := w.publishReplyEvent(msg, completed)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", completed.Header.WorkflowID, err)
	}
}

// publishReplyEvent marshals and responds with the SpeechCompletedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *core.SpeechCompletedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

// parseAndValidateEvent decodes the request, fills defaults and validates it. The
// returned event is non-nil whenever the message was valid JSON.
func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*core.SpeechRequestedEvent, error) {
	var event core.SpeechRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.applyDefaults(&event)

	validationErr := validateEvent(&event)
	if validationErr != nil {
		return &event, validationErr
	}

	return &event, nil
}

// applyDefaults fills the language and zero voice fields from the worker defaults.
func (w *NatsWorker) applyDefaults(event *core.SpeechRequestedEvent) {
	event.Language = strings.ToLower(strings.TrimSpace(event.Language))
	if event.Language == "" {
		event.Language = w.defaults.Language
	}

	if event.Voice.SpeakerRefPath == "" {
		event.Voice.SpeakerRefPath = w.defaults.Voice.SpeakerRefPath
	}

	if event.Voice.Temperature == 0 {
		event.Voice.Temperature = w.defaults.Voice.Temperature
	}

	if event.Voice.Speed == 0 {
		event.Voice.Speed = w.defaults.Voice.Speed
	}
}

// validateEvent ensures that the request contains valid and safe values.
func validateEvent(event *core.SpeechRequestedEvent) error {
	if event.TextKey == "" {
		return ErrTextKeyEmpty
	}

	_, err := text.Lookup(event.Language)
	if err != nil {
		return err
	}

	if event.Voice.Temperature < 0.0 {
		return fmt.Errorf("%w: got %f", ErrTemperatureRange, event.Voice.Temperature)
	}

	if event.Voice.Speed != 0 && (event.Voice.Speed < minSpeed || event.Voice.Speed > maxSpeed) {
		return fmt.Errorf("%w: got %f", ErrSpeedRange, event.Voice.Speed)
	}

	return nil
}

func replyHeader(request events.EventHeader) events.EventHeader {
	header := request
	header.EventID = uuid.NewString()
	header.Timestamp = time.Now()

	return header
}
