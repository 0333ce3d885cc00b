package anchor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

type PayloadReading struct {
	T  float64 `json:"t"`
	TS string  `json:"ts"`
}

// PayloadDocument field order is the serialized key order.
type PayloadDocument struct {
	ChipID   string           `json:"chipId"`
	MAC      string           `json:"mac"`
	Readings []PayloadReading `json:"readings"`
}

type Payload struct {
	Document PayloadDocument
	Bytes    []byte
	Text     string
	Size     int
	Hash     string
}

// BuildPayload serializes readings in the order given. The same readings in the same order always
// produce the same bytes and hash.
func BuildPayload(readings []models.Reading) (*Payload, error) {
	if len(readings) == 0 {
		return nil, errors.New("payload needs at least one reading")
	}

	doc := PayloadDocument{
		ChipID: readings[0].ChipID,
		MAC:    readings[0].MAC,
		Readings: common.Mapper(readings, func(r models.Reading) PayloadReading {
			return PayloadReading{
				T:  r.Temperature,
				TS: r.SourceTimestamp.UTC().Format(time.RFC3339Nano),
			}
		}),
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	return &Payload{
		Document: doc,
		Bytes:    b,
		Text:     string(b),
		Size:     len(b),
		Hash:     HashHex(b),
	}, nil
}

func HashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
