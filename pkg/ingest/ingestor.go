// Package ingest subscribes to the device MQTT topics and stores what the sensors publish.
// It never uploads anything; anchoring readings is always an explicit user request.
package ingest

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/config"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

const (
	TopicKindTemperature = "temperature"
	TopicKindStatus      = "status"
)

var ErrInvalidMessage = errors.New("invalid device message")

type TemperatureMessage struct {
	ChipID      string    `json:"chipId" zog:"chipId"`
	MAC         string    `json:"mac" zog:"mac"`
	Temperature float64   `json:"temperature" zog:"temperature"`
	Timestamp   time.Time `json:"timestamp" zog:"timestamp"`
}

var temperatureMessageSchema = z.Struct(z.Shape{
	"ChipID": z.String().Required(),
	"MAC":    z.String().Required(),
	// a zero reading is valid, presence is checked on the raw object
	"Temperature": z.Float64(),
	"Timestamp":   z.Time().Required(),
})

type Ingestor struct {
	Anchor    *anchor.Anchor
	TopicRoot string
	QoS       byte

	options *mqtt.ClientOptions
	client  mqtt.Client
}

func NewIngestor(cfg config.MQTTConfig, a *anchor.Anchor) *Ingestor {
	options := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(true)

	if cfg.User != "" {
		options.SetUsername(cfg.User)
		options.SetPassword(cfg.Pass)
	}

	return &Ingestor{
		Anchor:    a,
		TopicRoot: strings.TrimSuffix(cfg.TopicRoot, "/"),
		QoS:       1,
		options:   options,
	}
}

func (i *Ingestor) Topics() []string {
	return []string{
		i.TopicRoot + "/+/" + TopicKindTemperature,
		i.TopicRoot + "/+/" + TopicKindStatus,
	}
}

// Run connects, subscribes on every (re)connect, and blocks until ctx is done.
func (i *Ingestor) Run(ctx context.Context) error {
	logger := common.GetLogger().Named(common.LoggerNameIngestor)

	i.options.OnConnect = func(c mqtt.Client) {
		for _, topic := range i.Topics() {
			logger.Info("MQTT connected, subscribing", zap.String("topic", topic))
			if token := c.Subscribe(topic, i.QoS, i.onMessage(ctx)); token.Wait() && token.Error() != nil {
				logger.Error("Failed to subscribe", zap.String("topic", topic), zap.Error(token.Error()))
			}
		}
	}
	i.options.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	}

	i.client = mqtt.NewClient(i.options)
	if token := i.client.Connect(); token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "connect to mqtt broker")
	}

	<-ctx.Done()
	i.client.Disconnect(500)
	logger.Info("Ingestor stopped")
	return nil
}

func (i *Ingestor) onMessage(ctx context.Context) mqtt.MessageHandler {
	logger := common.GetLogger().Named(common.LoggerNameIngestor)

	return func(_ mqtt.Client, msg mqtt.Message) {
		if err := i.HandleMessage(ctx, msg.Topic(), msg.Payload()); err != nil {
			if errors.Is(err, ErrInvalidMessage) {
				logger.Warn("Dropped device message", zap.String("topic", msg.Topic()), zap.Error(err))
				return
			}
			logger.Error("Failed to store device message", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	}
}

// HandleMessage routes one message by its topic, {root}/{chipId}/{kind}.
func (i *Ingestor) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	chipID, kind, ok := i.splitTopic(topic)
	if !ok {
		i.Anchor.Metrics.ObserveIngest("unknown", "invalid")
		return errors.Wrapf(ErrInvalidMessage, "unexpected topic %q", topic)
	}

	switch kind {
	case TopicKindTemperature:
		return i.handleTemperature(ctx, chipID, payload)
	case TopicKindStatus:
		return i.handleStatus(ctx, chipID, payload)
	default:
		i.Anchor.Metrics.ObserveIngest("unknown", "invalid")
		return errors.Wrapf(ErrInvalidMessage, "unexpected topic kind %q", kind)
	}
}

func (i *Ingestor) splitTopic(topic string) (string, string, bool) {
	rest, ok := strings.CutPrefix(topic, i.TopicRoot+"/")
	if !ok {
		return "", "", false
	}
	chipID, kind, ok := strings.Cut(rest, "/")
	if !ok || chipID == "" || strings.Contains(kind, "/") {
		return "", "", false
	}
	return chipID, kind, true
}

func (i *Ingestor) handleTemperature(ctx context.Context, topicChipID string, payload []byte) error {
	logger := common.GetLogger().Named(common.LoggerNameIngestor)

	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		i.Anchor.Metrics.ObserveIngest(TopicKindTemperature, "invalid")
		return errors.Wrapf(ErrInvalidMessage, "temperature payload is not a json object: %v", err)
	}

	if v, ok := data["temperature"]; !ok || v == nil {
		i.Anchor.Metrics.ObserveIngest(TopicKindTemperature, "invalid")
		return errors.Wrap(ErrInvalidMessage, "temperature payload has no temperature")
	}

	var msg TemperatureMessage
	if issues := temperatureMessageSchema.Parse(data, &msg); issues != nil {
		i.Anchor.Metrics.ObserveIngest(TopicKindTemperature, "invalid")
		logger.Debug("Temperature payload failed validation", zap.Reflect("issues", issues))
		return errors.Wrap(ErrInvalidMessage, "temperature payload is missing fields")
	}
	if msg.ChipID != topicChipID {
		i.Anchor.Metrics.ObserveIngest(TopicKindTemperature, "invalid")
		return errors.Wrapf(ErrInvalidMessage, "chip %q published on topic of chip %q", msg.ChipID, topicChipID)
	}

	reading := &models.Reading{
		ChipID:          msg.ChipID,
		MAC:             msg.MAC,
		Temperature:     msg.Temperature,
		SourceTimestamp: msg.Timestamp,
	}
	if err := i.Anchor.Reading.SaveReading(ctx, reading); err != nil {
		i.Anchor.Metrics.ObserveIngest(TopicKindTemperature, "error")
		return errors.Wrap(err, "save reading")
	}

	i.Anchor.Metrics.ObserveIngest(TopicKindTemperature, "stored")
	logger.Debug("Stored temperature reading",
		zap.String("chip_id", reading.ChipID),
		zap.String("reading_id", reading.ID),
		zap.Float64("temperature", reading.Temperature),
	)
	return nil
}

func (i *Ingestor) handleStatus(ctx context.Context, chipID string, payload []byte) error {
	raw := strings.TrimSpace(string(payload))

	status := ParseStatus(raw)
	if failure, ok := status.(ParseFailure); ok {
		i.Anchor.Metrics.ObserveIngest(TopicKindStatus, "invalid")
		return errors.Wrapf(ErrInvalidMessage, "status %q: %s", failure.Raw, failure.Reason)
	}

	record := &models.DeviceStatus{
		ChipID: chipID,
		State:  State(status),
		Raw:    raw,
	}
	if hb, ok := status.(Heartbeat); ok {
		record.UptimeSeconds = hb.UptimeSeconds
		record.RSSI = hb.RSSI
	}

	if err := i.Anchor.Device.UpsertDeviceStatus(ctx, record); err != nil {
		i.Anchor.Metrics.ObserveIngest(TopicKindStatus, "error")
		return errors.Wrap(err, "upsert device status")
	}

	i.Anchor.Metrics.ObserveIngest(TopicKindStatus, "stored")
	return nil
}
