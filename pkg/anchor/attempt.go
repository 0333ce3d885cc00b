package anchor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

// a duplicate (user, chain, correlation, attemptNo) means another writer won the count race
const maxAttemptInsertRetries = 3

// CorrelationID groups every attempt at the same logical upload:
// sha256 of chain|userID|payloadHash|sorted reading ids joined by ",".
func CorrelationID(chain models.Chain, userID string, payloadHash string, readingIDs []string) string {
	ids := common.SortedUnique(readingIDs)
	key := strings.Join([]string{string(chain), userID, payloadHash, strings.Join(ids, ",")}, "|")
	return HashHex([]byte(key))
}

func (a *Anchor) recordAttempt(ctx context.Context, input *models.UploadAttempt, cause error) (*models.UploadAttempt, error) {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryAttempt)

	attempt := *input
	attempt.Status = models.UploadStatusFailed
	attempt.ReadingIDs = common.SortedUnique(input.ReadingIDs)
	attempt.CorrelationID = CorrelationID(attempt.Chain, attempt.UserID, attempt.PayloadHash, attempt.ReadingIDs)
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = a.now()
	}
	fillAttemptError(&attempt, cause)

	conn := a.Db.Conn.WithContext(ctx)

	var err error
	for try := 0; try <= maxAttemptInsertRetries; try++ {
		var count int64
		if err = conn.Model(&models.UploadAttempt{}).
			Where("user_id = ? AND chain = ? AND correlation_id = ?", attempt.UserID, attempt.Chain, attempt.CorrelationID).
			Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "count attempts")
		}

		attempt.ID = uuid.NewString()
		attempt.AttemptNo = int(count) + 1

		err = conn.Create(&attempt).Error
		if err == nil {
			logger.Info("Recorded failed attempt",
				zap.String("user_id", attempt.UserID),
				zap.String("chain", string(attempt.Chain)),
				zap.String("correlation_id", attempt.CorrelationID),
				zap.Int("attempt_no", attempt.AttemptNo),
				zap.String("error_code", attempt.ErrorCode),
			)
			return &attempt, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrap(err, "insert attempt")
		}

		logger.Warn("Attempt number taken, recounting",
			zap.String("correlation_id", attempt.CorrelationID),
			zap.Int("attempt_no", attempt.AttemptNo),
			zap.Int("try", try+1),
		)
	}

	return nil, errors.Wrapf(err, "attempt number still contended after %d retries", maxAttemptInsertRetries)
}

// fillAttemptError copies kind, code, message, status and stack from cause unless already set.
func fillAttemptError(attempt *models.UploadAttempt, cause error) {
	if cause == nil {
		return
	}

	var e *Error
	if errors.As(cause, &e) {
		if attempt.ErrorKind == "" {
			attempt.ErrorKind = string(e.Kind)
		}
		if attempt.ErrorCode == "" {
			attempt.ErrorCode = e.Code
		}
		if attempt.HTTPStatus == 0 {
			attempt.HTTPStatus = e.NodeStatus
		}
	}
	if attempt.ErrorKind == "" {
		attempt.ErrorKind = string(KindInternal)
	}
	if attempt.ErrorMessage == "" {
		attempt.ErrorMessage = cause.Error()
	}
	if attempt.ErrorStack == "" {
		attempt.ErrorStack = stackOf(cause)
	}
}

// stackOf prints the innermost pkg/errors stack found in the chain.
func stackOf(err error) string {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}

	var st stackTracer
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if t, ok := cur.(stackTracer); ok {
			st = t
		}
	}
	if st == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%+v", st.StackTrace()))
}

// listAttempts returns userID's attempts newest first. Empty chain or correlationID match any.
func (a *Anchor) listAttempts(ctx context.Context, userID string, chain models.Chain, correlationID string, limit int) ([]models.UploadAttempt, error) {
	var attempts []models.UploadAttempt
	q := a.Db.Conn.WithContext(ctx).Where("user_id = ?", userID)
	if chain != "" {
		q = q.Where("chain = ?", chain)
	}
	if correlationID != "" {
		q = q.Where("correlation_id = ?", correlationID)
	}
	q = q.Order("created_at desc").Order("attempt_no desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&attempts).Error
	return attempts, err
}

type IAttemptImpl struct {
	anchor *Anchor
}

func (ia *IAttemptImpl) Record(ctx context.Context, attempt *models.UploadAttempt, cause error) (*models.UploadAttempt, error) {
	return ia.anchor.recordAttempt(ctx, attempt, cause)
}

func (ia *IAttemptImpl) ListAttempts(ctx context.Context, userID string, chain models.Chain, correlationID string, limit int) ([]models.UploadAttempt, error) {
	return ia.anchor.listAttempts(ctx, userID, chain, correlationID, limit)
}

func (a *Anchor) GetIAttempt() IAttempt {
	return &IAttemptImpl{anchor: a}
}
