package anchor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
	_ "liyu1981.xyz/iot-anchor-service/pkg/testing"
)

func TestAggregateEmpty(t *testing.T) {
	result := aggregate(models.ChainSignum, nil)
	assert.Equal(t, &UploadStats{Chain: models.ChainSignum, Daily: []DailyStats{}}, result)
}

func TestAggregatePercentilesAndDays(t *testing.T) {
	day1 := time.Date(2024, time.March, 4, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, time.March, 5, 1, 0, 0, 0, time.UTC)
	confirmed := func(sentAt time.Time, after time.Duration) *time.Time {
		at := sentAt.Add(after)
		return &at
	}

	msgs := []models.UploadedMessage{
		{SentAt: day2, ElapsedMs: 40, ReadingCount: 4, PayloadSize: 400, FeePlanck: 1470000, Status: models.UploadStatusConfirmed, Confirmed: true, ConfirmedAt: confirmed(day2, 240*time.Second)},
		{SentAt: day1, ElapsedMs: 10, ReadingCount: 1, PayloadSize: 100, FeePlanck: 735000, Status: models.UploadStatusConfirmed, Confirmed: true, ConfirmedAt: confirmed(day1, 60*time.Second)},
		{SentAt: day1, ElapsedMs: 30, ReadingCount: 3, PayloadSize: 300, FeePlanck: 735000, Status: models.UploadStatusPending},
		{SentAt: day2, ElapsedMs: 20, ReadingCount: 2, PayloadSize: 200, FeePlanck: 735000, Status: models.UploadStatusSent},
	}

	result := aggregate(models.ChainSignum, msgs)
	assert.Equal(t, 4, result.TotalUploads)
	assert.Equal(t, 2, result.Confirmed)
	assert.Equal(t, 2, result.Pending)
	assert.Equal(t, 10, result.TotalReadings)
	assert.EqualValues(t, 1000, result.TotalBytes)
	assert.EqualValues(t, 3675000, result.TotalFeePlanck)

	assert.Equal(t, LatencyStats{P50: 20, P95: 40, Max: 40}, result.SubmitLatencyMs)
	assert.Equal(t, LatencyStats{P50: 60, P95: 240, Max: 240}, result.ConfirmLatencySec)

	assert.Equal(t, []DailyStats{
		{Date: "2024-03-04", Uploads: 2, Readings: 4, Bytes: 400, FeePlanck: 1470000},
		{Date: "2024-03-05", Uploads: 2, Readings: 6, Bytes: 600, FeePlanck: 2205000},
	}, result.Daily)
}

func TestGetUploadStats(t *testing.T) {
	common.SetTestLoggerNop()
	env := GetMockAnchorWithMemorySqliteDialector(t, false, false)
	ctx := context.Background()

	require.NoError(t, env.anchor.Upload.CreateSuccess(ctx, pendingMessage("u1", "1", fixedNow, nil)))
	require.NoError(t, env.anchor.Upload.CreateSuccess(ctx, pendingMessage("u2", "2", fixedNow.Add(time.Minute), nil)))
	_, _, err := env.anchor.Upload.MarkConfirmed(ctx, models.ChainSignum, "1", 3, fixedNow.Add(2*time.Minute))
	require.NoError(t, err)
	_, err = env.anchor.Attempt.Record(ctx, newAttempt("u1"), nodeFailure(nodeRejection("TOO_LARGE")))
	require.NoError(t, err)

	result, err := env.anchor.GetUploadStats(ctx, models.ChainSignum)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalUploads)
	assert.Equal(t, 1, result.Confirmed)
	assert.Equal(t, 1, result.Pending)
	assert.EqualValues(t, 1, result.FailedAttempts)
	assert.Equal(t, LatencyStats{P50: 120, P95: 120, Max: 120}, result.ConfirmLatencySec)
	require.Len(t, result.Daily, 1)
	assert.Equal(t, "2024-03-05", result.Daily[0].Date)

	iotaStats, err := env.anchor.GetUploadStats(ctx, models.ChainIota)
	require.NoError(t, err)
	assert.Zero(t, iotaStats.TotalUploads)
	assert.Zero(t, iotaStats.FailedAttempts)

	_, err = env.anchor.GetUploadStats(ctx, models.Chain("bitcoin"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
