package ingest

import (
	"strconv"
	"strings"
)

// DeviceStatus is the parsed form of a status topic message. It is one of
// Online, Offline, Heartbeat or ParseFailure.
type DeviceStatus interface {
	isDeviceStatus()
}

type Online struct{}

type Offline struct{}

type Heartbeat struct {
	UptimeSeconds int64
	RSSI          int
}

// ParseFailure carries text that matched no known status form. It is logged, never stored.
type ParseFailure struct {
	Raw    string
	Reason string
}

func (Online) isDeviceStatus()       {}
func (Offline) isDeviceStatus()      {}
func (Heartbeat) isDeviceStatus()    {}
func (ParseFailure) isDeviceStatus() {}

// State is the stored device_statuses.state value, empty for ParseFailure.
func State(s DeviceStatus) string {
	switch s.(type) {
	case Online:
		return "online"
	case Offline:
		return "offline"
	case Heartbeat:
		return "heartbeat"
	default:
		return ""
	}
}

// ParseStatus accepts exactly:
//
//	online
//	offline
//	heartbeat uptime=<int> rssi=<int>
//
// Heartbeat fields may come in either order but each exactly once.
func ParseStatus(raw string) DeviceStatus {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ParseFailure{Raw: raw, Reason: "empty status"}
	}

	switch fields[0] {
	case "online", "offline":
		if len(fields) != 1 {
			return ParseFailure{Raw: raw, Reason: "unexpected fields after " + fields[0]}
		}
		if fields[0] == "online" {
			return Online{}
		}
		return Offline{}
	case "heartbeat":
		return parseHeartbeat(raw, fields[1:])
	default:
		return ParseFailure{Raw: raw, Reason: "unknown status " + strconv.Quote(fields[0])}
	}
}

func parseHeartbeat(raw string, fields []string) DeviceStatus {
	if len(fields) != 2 {
		return ParseFailure{Raw: raw, Reason: "heartbeat needs uptime and rssi"}
	}

	var (
		hb                   Heartbeat
		haveUptime, haveRSSI bool
	)
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok || value == "" {
			return ParseFailure{Raw: raw, Reason: "malformed field " + strconv.Quote(field)}
		}

		switch key {
		case "uptime":
			if haveUptime {
				return ParseFailure{Raw: raw, Reason: "duplicate uptime"}
			}
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return ParseFailure{Raw: raw, Reason: "uptime is not a non-negative integer"}
			}
			hb.UptimeSeconds, haveUptime = n, true
		case "rssi":
			if haveRSSI {
				return ParseFailure{Raw: raw, Reason: "duplicate rssi"}
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return ParseFailure{Raw: raw, Reason: "rssi is not an integer"}
			}
			hb.RSSI, haveRSSI = n, true
		default:
			return ParseFailure{Raw: raw, Reason: "unknown field " + strconv.Quote(key)}
		}
	}
	return hb
}
