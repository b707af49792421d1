package services

import (
	"encoding/json"
	"time"

	"github.com/benmeehan/fieldcase/internal/capture"
	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Capture event statuses
const (
	EventStatusState    = "state"
	EventStatusProgress = "progress"
)

// States published after the case write, in place of the session's committed state.
const (
	EventStateSaved      = "saved"
	EventStateSaveFailed = "save_failed"
)

// CaptureEvent is the MQTT payload describing a capture session update.
type CaptureEvent struct {
	SessionID string                 `json:"session_id"`
	CaseID    string                 `json:"case_id"`
	Timestamp time.Time              `json:"timestamp"`
	Status    string                 `json:"status"`
	State     string                 `json:"state,omitempty"`
	Completed int                    `json:"completed,omitempty"`
	Target    int                    `json:"target,omitempty"`
	Accuracy  float64                `json:"accuracy,omitempty"`
	Location  *models.LocationRecord `json:"location,omitempty"`
}

// EventPublisher publishes capture events to an MQTT topic.
type EventPublisher struct {
	topic      string
	qos        int
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

// NewEventPublisher creates a new EventPublisher. A nil client disables publishing.
func NewEventPublisher(topic string, qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *EventPublisher {
	return &EventPublisher{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Publish serializes and sends the event. Failures are logged and returned.
func (p *EventPublisher) Publish(event CaptureEvent) error {
	if p == nil || p.mqttClient == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to serialize capture event")
		return err
	}

	token := p.mqttClient.Publish(p.topic, byte(p.qos), false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		p.logger.Error().
			Err(err).
			Str("topic", p.topic).
			Msg("Failed to publish capture event")
		return err
	}

	p.logger.Debug().
		Str("topic", p.topic).
		Str("status", event.Status).
		Str("case_id", event.CaseID).
		Msg("Capture event published")
	return nil
}

// caseObserver forwards session notifications to the publisher and the caller's observer.
type caseObserver struct {
	caseID    string
	publisher *EventPublisher
	next      capture.Observer
	now       func() time.Time
}

func (o *caseObserver) StateChanged(sessionID string, state capture.State) {
	// committed is reported by the service once the case write finished
	if state == capture.StateCommitted {
		if o.next != nil {
			o.next.StateChanged(sessionID, state)
		}
		return
	}

	o.publisher.Publish(CaptureEvent{
		SessionID: sessionID,
		CaseID:    o.caseID,
		Timestamp: o.now(),
		Status:    EventStatusState,
		State:     state.String(),
	})
	if o.next != nil {
		o.next.StateChanged(sessionID, state)
	}
}

func (o *caseObserver) ProgressUpdated(sessionID string, progress capture.Progress) {
	o.publisher.Publish(CaptureEvent{
		SessionID: sessionID,
		CaseID:    o.caseID,
		Timestamp: o.now(),
		Status:    EventStatusProgress,
		Completed: progress.Completed,
		Target:    progress.Target,
		Accuracy:  progress.Latest.Accuracy,
	})
	if o.next != nil {
		o.next.ProgressUpdated(sessionID, progress)
	}
}
