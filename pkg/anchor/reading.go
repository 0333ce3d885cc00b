package anchor

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

func (a *Anchor) saveReading(ctx context.Context, reading *models.Reading) error {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryReading)

	if reading.ID == "" {
		reading.ID = uuid.NewString()
	}
	if reading.ReceivedAt.IsZero() {
		reading.ReceivedAt = a.now()
	}
	reading.SourceTimestamp = reading.SourceTimestamp.UTC()

	if err := a.Db.Conn.WithContext(ctx).Create(reading).Error; err != nil {
		return err
	}

	logger.Debug("Stored reading", zap.String("reading_id", reading.ID), zap.String("chip_id", reading.ChipID))
	return nil
}

func (a *Anchor) selectUnsent(ctx context.Context, userID string, ids []string) ([]models.Reading, error) {
	var readings []models.Reading
	ids = common.SortedUnique(ids)
	if len(ids) == 0 {
		return readings, nil
	}

	err := a.Db.Conn.WithContext(ctx).
		Where("id IN ?", ids).
		Where("NOT EXISTS (SELECT 1 FROM reading_uploads ru WHERE ru.reading_id = readings.id AND ru.user_id = ?)", userID).
		Order("source_timestamp asc, id asc").
		Find(&readings).Error
	return readings, err
}

type IReadingImpl struct {
	anchor *Anchor
}

func (ir *IReadingImpl) SaveReading(ctx context.Context, reading *models.Reading) error {
	return ir.anchor.saveReading(ctx, reading)
}

func (ir *IReadingImpl) SelectUnsent(ctx context.Context, userID string, ids []string) ([]models.Reading, error) {
	return ir.anchor.selectUnsent(ctx, userID, ids)
}

func (a *Anchor) GetIReading() IReading {
	return &IReadingImpl{anchor: a}
}
