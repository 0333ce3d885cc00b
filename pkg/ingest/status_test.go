package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want DeviceStatus
	}{
		{"online", Online{}},
		{"  offline\n", Offline{}},
		{"heartbeat uptime=360 rssi=-61", Heartbeat{UptimeSeconds: 360, RSSI: -61}},
		{"heartbeat rssi=-70 uptime=5", Heartbeat{UptimeSeconds: 5, RSSI: -70}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.raw))
		})
	}
}

func TestParseStatusFailures(t *testing.T) {
	tests := map[string]string{
		"":                                  "empty status",
		"rebooting":                         "unknown status",
		"Online":                            "unknown status",
		"online now":                        "unexpected fields",
		"heartbeat":                         "needs uptime and rssi",
		"heartbeat uptime=1":                "needs uptime and rssi",
		"heartbeat uptime=1 rssi=2 extra=3": "needs uptime and rssi",
		"heartbeat uptime=1 uptime=2":       "duplicate uptime",
		"heartbeat rssi=1 rssi=2":           "duplicate rssi",
		"heartbeat uptime=-1 rssi=2":        "non-negative",
		"heartbeat uptime=abc rssi=2":       "non-negative",
		"heartbeat uptime=1 rssi=strong":    "rssi is not an integer",
		"heartbeat uptime=1 rssi=":          "malformed field",
		"heartbeat uptime:1 rssi=2":         "malformed field",
		"heartbeat uptime=1 battery=2":      "unknown field",
	}

	for raw, reason := range tests {
		t.Run(raw, func(t *testing.T) {
			got := ParseStatus(raw)
			failure, ok := got.(ParseFailure)
			if assert.True(t, ok, "%q parsed as %#v", raw, got) {
				assert.Equal(t, raw, failure.Raw)
				assert.Contains(t, failure.Reason, reason)
			}
			assert.Empty(t, State(got))
		})
	}
}

func TestState(t *testing.T) {
	assert.Equal(t, "online", State(Online{}))
	assert.Equal(t, "offline", State(Offline{}))
	assert.Equal(t, "heartbeat", State(Heartbeat{}))
}
