package anchor

import (
	"context"
	"time"

	"liyu1981.xyz/iot-anchor-service/pkg/db"
	"liyu1981.xyz/iot-anchor-service/pkg/ledger"
	"liyu1981.xyz/iot-anchor-service/pkg/metrics"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

//go:generate mockgen -destination=mocks/anchor.go -package=mocks . IReading,IDevice,IPreference,IAttempt,IUpload

type IReading interface {
	SaveReading(ctx context.Context, reading *models.Reading) error
	// SelectUnsent returns the readings among ids that userID has not uploaded yet, oldest first.
	SelectUnsent(ctx context.Context, userID string, ids []string) ([]models.Reading, error)
}

type IDevice interface {
	UpsertDeviceStatus(ctx context.Context, status *models.DeviceStatus) error
	GetDeviceStatus(ctx context.Context, chipID string) (*models.DeviceStatus, error)
}

type IPreference interface {
	GetPreference(ctx context.Context, userID string) (*models.UserPreference, error)
	UpsertPreference(ctx context.Context, pref *models.UserPreference) error
}

type IAttempt interface {
	Record(ctx context.Context, attempt *models.UploadAttempt, cause error) (*models.UploadAttempt, error)
	ListAttempts(ctx context.Context, userID string, chain models.Chain, correlationID string, limit int) ([]models.UploadAttempt, error)
}

type IUpload interface {
	CreateSuccess(ctx context.Context, msg *models.UploadedMessage) error
	MarkConfirmed(ctx context.Context, chain models.Chain, txID string, height int64, confirmedAt time.Time) (*models.UploadedMessage, bool, error)
	ListPending(ctx context.Context, chain models.Chain, after *models.PendingCursor, limit int) ([]models.UploadedMessage, error)
	GetByTx(ctx context.Context, chain models.Chain, txID string) (*models.UploadedMessage, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.UploadedMessage, error)
}

// Ledgers are the chain clients, constructed by the application root.
type Ledgers struct {
	Iota   ledger.TaggedSubmitter
	Signum ledger.MessageSubmitter
}

type IotaSettings struct {
	NodeURL     string
	ExplorerURL string
	Network     string
}

type SignumSettings struct {
	ExplorerURL   string
	Network       string
	Recipient     string
	Keys          ledger.SigningKeys
	FeeUnitPlanck int64
}

type Settings struct {
	AppNamespace  string
	LedgerTimeout time.Duration
	Iota          IotaSettings
	Signum        SignumSettings
}

type Anchor struct {
	Db       db.DB
	Ledgers  Ledgers
	Settings Settings
	Metrics  *metrics.Collectors
	Clock    func() time.Time

	Reading    IReading
	Device     IDevice
	Preference IPreference
	Attempt    IAttempt
	Upload     IUpload
}

type ServiceOpts struct {
	Reading    IReading
	Device     IDevice
	Preference IPreference
	Attempt    IAttempt
	Upload     IUpload
}

func (a *Anchor) WithServices(opts ServiceOpts) *Anchor {
	if opts.Reading != nil {
		a.Reading = opts.Reading
	}
	if opts.Device != nil {
		a.Device = opts.Device
	}
	if opts.Preference != nil {
		a.Preference = opts.Preference
	}
	if opts.Attempt != nil {
		a.Attempt = opts.Attempt
	}
	if opts.Upload != nil {
		a.Upload = opts.Upload
	}
	return a
}

// WithDefaultServices installs the gorm backed implementation of every service.
func (a *Anchor) WithDefaultServices() *Anchor {
	return a.WithServices(ServiceOpts{
		Reading:    a.GetIReading(),
		Device:     a.GetIDevice(),
		Preference: a.GetIPreference(),
		Attempt:    a.GetIAttempt(),
		Upload:     a.GetIUpload(),
	})
}

func (a *Anchor) now() time.Time {
	if a.Clock != nil {
		return a.Clock().UTC()
	}
	return time.Now().UTC()
}

func (a *Anchor) ledgerTimeout() time.Duration {
	if a.Settings.LedgerTimeout > 0 {
		return a.Settings.LedgerTimeout
	}
	return 30 * time.Second
}

func (a *Anchor) feeUnit() int64 {
	if a.Settings.Signum.FeeUnitPlanck > 0 {
		return a.Settings.Signum.FeeUnitPlanck
	}
	return DefaultSignumFeeUnitPlanck
}

func (a *Anchor) lookupFor(chain models.Chain) ledger.Lookup {
	switch chain {
	case models.ChainIota:
		if a.Ledgers.Iota != nil {
			return a.Ledgers.Iota
		}
	case models.ChainSignum:
		if a.Ledgers.Signum != nil {
			return a.Ledgers.Signum
		}
	}
	return nil
}
