package anchor

import (
	"context"

	"gorm.io/gorm/clause"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

func (a *Anchor) upsertDeviceStatus(ctx context.Context, input *models.DeviceStatus) error {
	status := *input
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = a.now()
	}

	// mac is only known from the first report, later status text never carries it
	return a.Db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chip_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "uptime_seconds", "rssi", "raw", "updated_at"}),
	}).Create(&status).Error
}

func (a *Anchor) getDeviceStatus(ctx context.Context, chipID string) (*models.DeviceStatus, error) {
	var status models.DeviceStatus
	err := a.Db.Conn.WithContext(ctx).First(&status, "chip_id = ?", chipID).Error
	return &status, err
}

type IDeviceImpl struct {
	anchor *Anchor
}

func (id *IDeviceImpl) UpsertDeviceStatus(ctx context.Context, status *models.DeviceStatus) error {
	return id.anchor.upsertDeviceStatus(ctx, status)
}

func (id *IDeviceImpl) GetDeviceStatus(ctx context.Context, chipID string) (*models.DeviceStatus, error) {
	return id.anchor.getDeviceStatus(ctx, chipID)
}

func (a *Anchor) GetIDevice() IDevice {
	return &IDeviceImpl{anchor: a}
}
