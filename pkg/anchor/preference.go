package anchor

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

// getPreference never fails for a missing row; callers fall back to configured defaults on empty fields.
func (a *Anchor) getPreference(ctx context.Context, userID string) (*models.UserPreference, error) {
	var pref models.UserPreference
	err := a.Db.Conn.WithContext(ctx).First(&pref, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserPreference{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (a *Anchor) upsertPreference(ctx context.Context, input *models.UserPreference) error {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryPreference)

	if err := CheckNodeURL(input.IotaNodeURL); err != nil {
		return err
	}

	pref := models.UserPreference{
		UserID:          input.UserID,
		TagPrefix:       input.TagPrefix,
		IotaNodeURL:     input.IotaNodeURL,
		SignumRecipient: input.SignumRecipient,
		UpdatedAt:       a.now(),
	}

	logger.Info("Received preference for user", zap.Reflect("preference", pref))

	err := a.Db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&pref).Error

	if err == nil {
		logger.Info("Upserted preference for user", zap.String("user_id", pref.UserID))
	}

	return err
}

type IPreferenceImpl struct {
	anchor *Anchor
}

func (ip *IPreferenceImpl) GetPreference(ctx context.Context, userID string) (*models.UserPreference, error) {
	return ip.anchor.getPreference(ctx, userID)
}

func (ip *IPreferenceImpl) UpsertPreference(ctx context.Context, pref *models.UserPreference) error {
	return ip.anchor.upsertPreference(ctx, pref)
}

func (a *Anchor) GetIPreference() IPreference {
	return &IPreferenceImpl{anchor: a}
}
