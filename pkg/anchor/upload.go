package anchor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

func (a *Anchor) createSuccess(ctx context.Context, msg *models.UploadedMessage) error {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryUpload)

	err := a.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return errors.Wrap(err, "insert uploaded message")
		}

		if len(msg.ReadingIDs) == 0 {
			return nil
		}

		marks := common.Mapper(common.SortedUnique(msg.ReadingIDs), func(id string) models.ReadingUpload {
			return models.ReadingUpload{ReadingID: id, UserID: msg.UserID, UploadedAt: msg.SentAt}
		})
		// add-to-set: a reading already marked for this user stays as it is
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&marks).Error; err != nil {
			return errors.Wrap(err, "mark readings uploaded")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Stored uploaded message",
		zap.String("batch_id", msg.BatchID),
		zap.String("chain", string(msg.Chain)),
		zap.String("tx_id", msg.TxID),
		zap.String("status", string(msg.Status)),
		zap.Int("reading_count", msg.ReadingCount),
	)
	return nil
}

// markConfirmed moves a record to CONFIRMED once. changed is false when the record was already
// confirmed or its chain allows no confirmation from its current status.
func (a *Anchor) markConfirmed(ctx context.Context, chain models.Chain, txID string, height int64, confirmedAt time.Time) (*models.UploadedMessage, bool, error) {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryConfirm)
	conn := a.Db.Conn.WithContext(ctx)

	msg, err := a.getByTx(ctx, chain, txID)
	if err != nil {
		return nil, false, err
	}

	sources := models.ConfirmableFrom(chain)
	if msg.Confirmed || len(sources) == 0 {
		return msg, false, nil
	}

	confirmedAt = confirmedAt.UTC()
	res := conn.Model(&models.UploadedMessage{}).
		Where("id = ? AND confirmed = ? AND status IN ?", msg.ID, false, sources).
		Updates(map[string]any{
			"confirmed":    true,
			"confirmed_at": confirmedAt,
			"block_height": height,
			"status":       models.UploadStatusConfirmed,
		})
	if res.Error != nil {
		return nil, false, errors.Wrap(res.Error, "confirm uploaded message")
	}

	if res.RowsAffected == 0 {
		// lost the race to another confirmer
		current, err := a.getByTx(ctx, chain, txID)
		if err != nil {
			return nil, false, err
		}
		return current, false, nil
	}

	msg.Confirmed = true
	msg.ConfirmedAt = &confirmedAt
	msg.BlockHeight = &height
	msg.Status = models.UploadStatusConfirmed

	logger.Info("Confirmed uploaded message",
		zap.String("chain", string(chain)),
		zap.String("tx_id", txID),
		zap.Int64("block_height", height),
	)
	return msg, true, nil
}

func (a *Anchor) getByTx(ctx context.Context, chain models.Chain, txID string) (*models.UploadedMessage, error) {
	var msg models.UploadedMessage
	err := a.Db.Conn.WithContext(ctx).First(&msg, "chain = ? AND tx_id = ?", chain, txID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Error{
			Kind:    KindNoMatchingRecord,
			Code:    string(KindNoMatchingRecord),
			Message: "no upload record for " + string(chain) + " transaction " + txID,
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "find uploaded message")
	}
	return &msg, nil
}

func (a *Anchor) listPending(ctx context.Context, chain models.Chain, after *models.PendingCursor, limit int) ([]models.UploadedMessage, error) {
	var pending []models.UploadedMessage
	sources := models.ConfirmableFrom(chain)
	if len(sources) == 0 {
		return pending, nil
	}

	q := a.Db.Conn.WithContext(ctx).
		Where("chain = ? AND confirmed = ? AND status IN ?", chain, false, sources)
	if after != nil {
		q = q.Where("sent_at > ? OR (sent_at = ? AND id > ?)", after.SentAt, after.SentAt, after.ID)
	}
	q = q.Order("sent_at asc").Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&pending).Error
	return pending, err
}

func (a *Anchor) listByUser(ctx context.Context, userID string, limit int) ([]models.UploadedMessage, error) {
	var msgs []models.UploadedMessage
	q := a.Db.Conn.WithContext(ctx).Where("user_id = ?", userID).Order("sent_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&msgs).Error
	return msgs, err
}

type IUploadImpl struct {
	anchor *Anchor
}

func (iu *IUploadImpl) CreateSuccess(ctx context.Context, msg *models.UploadedMessage) error {
	return iu.anchor.createSuccess(ctx, msg)
}

func (iu *IUploadImpl) MarkConfirmed(ctx context.Context, chain models.Chain, txID string, height int64, confirmedAt time.Time) (*models.UploadedMessage, bool, error) {
	return iu.anchor.markConfirmed(ctx, chain, txID, height, confirmedAt)
}

func (iu *IUploadImpl) ListPending(ctx context.Context, chain models.Chain, after *models.PendingCursor, limit int) ([]models.UploadedMessage, error) {
	return iu.anchor.listPending(ctx, chain, after, limit)
}

func (iu *IUploadImpl) GetByTx(ctx context.Context, chain models.Chain, txID string) (*models.UploadedMessage, error) {
	return iu.anchor.getByTx(ctx, chain, txID)
}

func (iu *IUploadImpl) ListByUser(ctx context.Context, userID string, limit int) ([]models.UploadedMessage, error) {
	return iu.anchor.listByUser(ctx, userID, limit)
}

func (a *Anchor) GetIUpload() IUpload {
	return &IUploadImpl{anchor: a}
}
