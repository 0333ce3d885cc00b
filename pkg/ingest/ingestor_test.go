package ingest

import (
	"context"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor/mocks"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/config"
	"liyu1981.xyz/iot-anchor-service/pkg/metrics"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
	_ "liyu1981.xyz/iot-anchor-service/pkg/testing"
)

type testIngestor struct {
	ingestor *Ingestor
	reading  *mocks.MockIReading
	device   *mocks.MockIDevice
}

func newTestIngestor(t *testing.T) *testIngestor {
	common.SetTestLoggerNop()
	ctrl := gomock.NewController(t)

	reading := mocks.NewMockIReading(ctrl)
	device := mocks.NewMockIDevice(ctrl)
	a := (&anchor.Anchor{Metrics: metrics.New(prometheus.NewRegistry())}).
		WithServices(anchor.ServiceOpts{Reading: reading, Device: device})

	ingestor := NewIngestor(config.MQTTConfig{
		Broker:    "tcp://localhost:1883",
		ClientID:  "test",
		TopicRoot: "sensors/",
	}, a)

	return &testIngestor{ingestor: ingestor, reading: reading, device: device}
}

func TestTopics(t *testing.T) {
	ti := newTestIngestor(t)
	assert.Equal(t, []string{"sensors/+/temperature", "sensors/+/status"}, ti.ingestor.Topics())
}

func TestHandleTemperature(t *testing.T) {
	ti := newTestIngestor(t)

	ti.reading.EXPECT().
		SaveReading(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, r *models.Reading) error {
			assert.Equal(t, "c1", r.ChipID)
			assert.Equal(t, "aa:bb", r.MAC)
			assert.Equal(t, 0.0, r.Temperature)
			assert.True(t, r.SourceTimestamp.Equal(time.Date(2024, time.March, 5, 11, 0, 0, 0, time.UTC)))
			r.ID = "r1"
			return nil
		})

	payload := []byte(`{"chipId":"c1","mac":"aa:bb","temperature":0,"timestamp":"2024-03-05T11:00:00Z"}`)
	require.NoError(t, ti.ingestor.HandleMessage(context.Background(), "sensors/c1/temperature", payload))
}

func TestHandleTemperatureDropsInvalid(t *testing.T) {
	ti := newTestIngestor(t)

	payloads := map[string]string{
		"not json":          `{"chipId":`,
		"array":             `[1,2]`,
		"missing mac":       `{"chipId":"c1","temperature":21.5,"timestamp":"2024-03-05T11:00:00Z"}`,
		"missing timestamp": `{"chipId":"c1","mac":"aa:bb","temperature":21.5}`,
		"missing reading":   `{"chipId":"c1","mac":"aa:bb","timestamp":"2024-03-05T11:00:00Z"}`,
		"other chip":        `{"chipId":"c2","mac":"aa:bb","temperature":21.5,"timestamp":"2024-03-05T11:00:00Z"}`,
	}

	// no SaveReading expectation: nothing may be stored
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			err := ti.ingestor.HandleMessage(context.Background(), "sensors/c1/temperature", []byte(payload))
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestHandleTemperatureStoreError(t *testing.T) {
	ti := newTestIngestor(t)
	ti.reading.EXPECT().SaveReading(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	payload := []byte(`{"chipId":"c1","mac":"aa:bb","temperature":21.5,"timestamp":"2024-03-05T11:00:00Z"}`)
	err := ti.ingestor.HandleMessage(context.Background(), "sensors/c1/temperature", payload)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidMessage)
	assert.Contains(t, err.Error(), "disk full")
}

func TestHandleStatus(t *testing.T) {
	ti := newTestIngestor(t)

	gomock.InOrder(
		ti.device.EXPECT().UpsertDeviceStatus(gomock.Any(), &models.DeviceStatus{
			ChipID: "c1", State: "online", Raw: "online",
		}).Return(nil),
		ti.device.EXPECT().UpsertDeviceStatus(gomock.Any(), &models.DeviceStatus{
			ChipID: "c1", State: "heartbeat", UptimeSeconds: 60, RSSI: -50, Raw: "heartbeat uptime=60 rssi=-50",
		}).Return(nil),
	)

	ctx := context.Background()
	require.NoError(t, ti.ingestor.HandleMessage(ctx, "sensors/c1/status", []byte("online\n")))
	require.NoError(t, ti.ingestor.HandleMessage(ctx, "sensors/c1/status", []byte("heartbeat uptime=60 rssi=-50")))

	err := ti.ingestor.HandleMessage(ctx, "sensors/c1/status", []byte("heartbeat uptime=60"))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestHandleMessageRejectsUnknownTopics(t *testing.T) {
	ti := newTestIngestor(t)
	ctx := context.Background()

	for _, topic := range []string{"other/c1/status", "sensors/c1", "sensors//status", "sensors/c1/humidity", "sensors/c1/status/extra"} {
		assert.ErrorIs(t, ti.ingestor.HandleMessage(ctx, topic, []byte("online")), ErrInvalidMessage, topic)
	}
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func TestOnMessageSwallowsErrors(t *testing.T) {
	ti := newTestIngestor(t)
	ti.device.EXPECT().UpsertDeviceStatus(gomock.Any(), gomock.Any()).Return(errors.New("locked"))

	handler := ti.ingestor.onMessage(context.Background())
	assert.NotPanics(t, func() {
		handler(nil, fakeMessage{topic: "sensors/c1/status", payload: []byte("offline")})
		handler(nil, fakeMessage{topic: "sensors/c1/status", payload: []byte("garbage")})
	})
}
