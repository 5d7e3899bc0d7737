// Package bridge republishes bus lifecycle events to MQTT for external
// dashboards and feeds camera-controller completions back onto the bus.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/coordinators"
	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/pkg/events"
	"github.com/astroviz/orrery/pkg/mqtt"
)

// envelope is the wire format for republished events.
type envelope struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Payload       any       `json:"payload,omitempty"`
}

// cameraCompletion is the inbound wire format from the camera controller.
type cameraCompletion struct {
	CorrelationID  string         `json:"correlation_id"`
	FinalPosition  models.Vector3 `json:"final_position"`
	FinalTarget    models.Vector3 `json:"final_target"`
	ActualDuration int64          `json:"actual_duration_ms"`
	Reason         string         `json:"reason"`
}

// Bridge connects the in-process event bus to an MQTT broker.
type Bridge struct {
	bus    *events.Bus
	client *mqtt.Client
	logger *zap.Logger
	unsub  func()
}

// New creates a bridge; Start connects and installs subscriptions.
func New(bus *events.Bus, client *mqtt.Client, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		bus:    bus,
		client: client,
		logger: logger.With(zap.String("component", "mqtt_bridge")),
	}
}

// Start connects to the broker, republishes every bus event and subscribes
// to camera completions.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.client.Connect(); err != nil {
		return fmt.Errorf("bridge failed to connect: %w", err)
	}

	// Outbound: low priority and async so diagnostics never delay
	// coordination listeners.
	b.unsub = b.bus.SubscribeAll(func(_ context.Context, ev events.Event) error {
		return b.client.PublishJSON(mqtt.EventTopic(string(ev.Type)), 0, false, envelope{
			ID:            ev.ID,
			Type:          string(ev.Type),
			Source:        ev.Source,
			Timestamp:     ev.Timestamp,
			CorrelationID: ev.CorrelationID,
			Payload:       ev.Payload,
		})
	}, events.SubscribeOptions{Priority: -100, Async: true})

	// Inbound: camera controller completions become bus events.
	if err := b.client.Subscribe(mqtt.CameraCompletedTopic(), 1, b.handleCameraCompleted); err != nil {
		b.Stop(ctx)
		return err
	}

	b.logger.Info("MQTT bridge started")
	return nil
}

// Stop removes the bus subscription and disconnects.
func (b *Bridge) Stop(ctx context.Context) {
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	if b.client.IsConnected() {
		b.client.Disconnect()
	}
	b.logger.Info("MQTT bridge stopped")
}

func (b *Bridge) handleCameraCompleted(topic string, payload []byte) error {
	var msg cameraCompletion
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("malformed camera completion: %w", err)
	}

	return b.bus.Emit(context.Background(), events.NewCorrelated(
		events.CameraAnimationCompleted, "camera-controller", msg.CorrelationID,
		coordinators.CameraAnimationComplete{
			FinalPosition:  msg.FinalPosition,
			FinalTarget:    msg.FinalTarget,
			ActualDuration: time.Duration(msg.ActualDuration) * time.Millisecond,
			Reason:         msg.Reason,
		}))
}
