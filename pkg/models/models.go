package models

import "time"

type Chain string

const (
	ChainIota   Chain = "iota"
	ChainSignum Chain = "signum"
)

func (c Chain) Valid() bool {
	return c == ChainIota || c == ChainSignum
}

type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "PENDING"
	UploadStatusSent      UploadStatus = "SENT"
	UploadStatusConfirmed UploadStatus = "CONFIRMED"
	UploadStatusFailed    UploadStatus = "FAILED"
)

// iota blocks are confirmed on acceptance, signum transactions wait for the poller.
var initialStatus = map[Chain]UploadStatus{
	ChainIota:   UploadStatusConfirmed,
	ChainSignum: UploadStatusPending,
}

var confirmableFrom = map[Chain][]UploadStatus{
	ChainIota:   {},
	ChainSignum: {UploadStatusPending, UploadStatusSent},
}

func InitialStatus(chain Chain) UploadStatus {
	return initialStatus[chain]
}

// ConfirmableFrom lists the statuses a record of chain may be confirmed from.
func ConfirmableFrom(chain Chain) []UploadStatus {
	return confirmableFrom[chain]
}

type Reading struct {
	ID              string `gorm:"primaryKey;size:64"`
	ChipID          string `gorm:"index;size:64"`
	MAC             string `gorm:"size:32"`
	Temperature     float64
	SourceTimestamp time.Time `gorm:"index"`
	ReceivedAt      time.Time

	UploadedBy []ReadingUpload `gorm:"foreignKey:ReadingID;references:ID"`
}

// ReadingUpload is one member of a reading's uploaded-by set.
type ReadingUpload struct {
	ReadingID  string `gorm:"primaryKey;size:64"`
	UserID     string `gorm:"primaryKey;size:128;index"`
	UploadedAt time.Time
}

type DeviceStatus struct {
	ChipID        string `gorm:"primaryKey;size:64"`
	MAC           string `gorm:"size:32"`
	State         string `gorm:"type:varchar(20);check:state IN ('online','offline','heartbeat')"`
	UptimeSeconds int64
	RSSI          int
	Raw           string
	UpdatedAt     time.Time
}

type UserPreference struct {
	UserID          string `gorm:"primaryKey;size:128"`
	TagPrefix       string `gorm:"size:64"`
	IotaNodeURL     string
	SignumRecipient string
	UpdatedAt       time.Time
}

type UploadAttempt struct {
	ID            string       `gorm:"primaryKey;size:36"`
	UserID        string       `gorm:"size:128;uniqueIndex:idx_attempt_lineage,priority:1"`
	Chain         Chain        `gorm:"type:varchar(16);uniqueIndex:idx_attempt_lineage,priority:2"`
	CorrelationID string       `gorm:"size:64;uniqueIndex:idx_attempt_lineage,priority:3"`
	AttemptNo     int          `gorm:"uniqueIndex:idx_attempt_lineage,priority:4"`
	Status        UploadStatus `gorm:"type:varchar(16)"`

	Tag         string
	NodeAddress string
	FeePlanck   int64
	TxID        string

	PayloadHash string `gorm:"size:64"`
	PayloadSize int
	ReadingIDs  []string `gorm:"serializer:json"`

	CreatedAt    time.Time `gorm:"index"`
	ElapsedMs    int64
	HTTPStatus   int
	ErrorKind    string `gorm:"size:32"`
	ErrorCode    string `gorm:"size:64"`
	ErrorMessage string
	ErrorStack   string `gorm:"type:text"`
}

// PendingCursor is the keyset position (sent_at, id) of the last pending record handed out.
type PendingCursor struct {
	SentAt time.Time
	ID     string
}

type UploadedMessage struct {
	ID           string `gorm:"primaryKey;size:36"`
	BatchID      string `gorm:"uniqueIndex;size:200"`
	UserID       string `gorm:"index;size:128"`
	Chain        Chain  `gorm:"type:varchar(16);uniqueIndex:idx_chain_tx,priority:1;index:idx_chain_status,priority:1"`
	TxID         string `gorm:"size:128;uniqueIndex:idx_chain_tx,priority:2"`
	Tag          string
	NodeAddress  string
	PayloadHash  string   `gorm:"size:64;index"`
	ReadingIDs   []string `gorm:"serializer:json"`
	ReadingCount int
	PayloadSize  int
	SentAt       time.Time `gorm:"index"`
	ElapsedMs    int64
	FeePlanck    int64
	Status       UploadStatus `gorm:"type:varchar(16);index:idx_chain_status,priority:2"`
	Confirmed    bool
	ConfirmedAt  *time.Time
	BlockHeight  *int64
	ExplorerURL  string
	Network      string
}
