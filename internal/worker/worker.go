// Package worker provides the NATS worker that turns processed chapter text
// into narrated audio.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/narration-service/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// A whole chapter passes through the LLM rewrite and every TTS chunk before
// the job finishes, so the per-message budget is generous.
const handleMessageTimeout = 30 * time.Minute

// ErrTextKeyEmpty indicates an event without a chapter text key.
var ErrTextKeyEmpty = errors.New("text key cannot be empty")

// NatsWorker listens for text-processed events and runs the narration
// pipeline for each one: download text, rewrite, synthesize, store audio,
// publish one audio-chunk-created event per chunk.
type NatsWorker struct {
	natsConnection   *nats.Conn
	jetstreamContext nats.JetStreamContext
	subject          string
	publishSubject   string
	textStore        core.ObjectStore
	audioStore       core.ObjectStore
	formatter        core.Formatter
	narrator         core.Narrator
	voiceDefaults    core.VoiceParams
	log              *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	jetstreamContext nats.JetStreamContext,
	subject, publishSubject string,
	textStore, audioStore core.ObjectStore,
	formatter core.Formatter,
	narrator core.Narrator,
	voiceDefaults core.VoiceParams,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection:   natsConnection,
		jetstreamContext: jetstreamContext,
		subject:          subject,
		publishSubject:   publishSubject,
		textStore:        textStore,
		audioStore:       audioStore,
		formatter:        formatter,
		narrator:         narrator,
		voiceDefaults:    voiceDefaults,
		log:              log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	audioKeys, err := w.processNarrationJob(ctx, event)
	if err != nil {
		w.log.Error("Failed to narrate chapter for workflow %s: %v",
			event.Header.WorkflowID, err)

		return
	}

	err = w.publishAudioChunkEvents(event, audioKeys)
	if err != nil {
		w.log.Error("Failed to publish audio chunk events for workflow %s: %v",
			event.Header.WorkflowID, err)
	}
}

// processNarrationJob runs the full pipeline for one chapter and returns
// the audio object keys in chunk order.
func (w *NatsWorker) processNarrationJob(
	ctx context.Context,
	event *events.TextProcessedEvent,
) ([]string, error) {
	textData, err := w.textStore.Download(ctx, event.TextKey)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to download chapter text for key '%s': %w", event.TextKey, err,
		)
	}

	formatted, err := w.formatter.FormatChapter(ctx, string(textData))
	if err != nil {
		return nil, fmt.Errorf("failed to format chapter text: %w", err)
	}

	audioChunks, err := w.narrator.Narrate(ctx, formatted, w.voiceParams(event))
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize chapter audio: %w", err)
	}

	audioKeys := make([]string, 0, len(audioChunks))

	for index, audioData := range audioChunks {
		audioKey := uuid.NewString() + ".wav"

		uploadErr := w.audioStore.Upload(ctx, audioKey, audioData)
		if uploadErr != nil {
			return nil, fmt.Errorf(
				"failed to upload audio chunk %d/%d: %w",
				index+1, len(audioChunks), uploadErr,
			)
		}

		audioKeys = append(audioKeys, audioKey)
	}

	return audioKeys, nil
}

// publishAudioChunkEvents emits one event per stored audio chunk, carrying
// the chunk's position so downstream assembly can order the files.
func (w *NatsWorker) publishAudioChunkEvents(
	event *events.TextProcessedEvent,
	audioKeys []string,
) error {
	for index, audioKey := range audioKeys {
		chunkEvent := &events.AudioChunkCreatedEvent{
			Header:     event.Header,
			AudioKey:   audioKey,
			PageNumber: index + 1,
			TotalPages: len(audioKeys),
		}

		data, err := json.Marshal(chunkEvent)
		if err != nil {
			return fmt.Errorf("failed to marshal audio chunk event: %w", err)
		}

		_, err = w.jetstreamContext.Publish(w.publishSubject, data)
		if err != nil {
			return fmt.Errorf(
				"failed to publish audio chunk event %d/%d: %w",
				index+1, len(audioKeys), err,
			)
		}
	}

	return nil
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*events.TextProcessedEvent, error) {
	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.TextKey == "" {
		return nil, ErrTextKeyEmpty
	}

	return &event, nil
}

// voiceParams merges the worker's configured defaults with any per-job
// overrides carried by the event.
func (w *NatsWorker) voiceParams(event *events.TextProcessedEvent) core.VoiceParams {
	params := w.voiceDefaults

	if event.Voice != "" {
		params.Voice = event.Voice
	}

	if event.Temperature != 0 {
		params.Temperature = event.Temperature
	}

	return params
}
