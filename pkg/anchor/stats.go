package anchor

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

type LatencyStats struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	Max float64 `json:"max"`
}

type DailyStats struct {
	Date      string `json:"date"`
	Uploads   int    `json:"uploads"`
	Readings  int    `json:"readings"`
	Bytes     int64  `json:"bytes"`
	FeePlanck int64  `json:"fee_planck"`
}

type UploadStats struct {
	Chain          models.Chain `json:"chain"`
	TotalUploads   int          `json:"total_uploads"`
	Confirmed      int          `json:"confirmed"`
	Pending        int          `json:"pending"`
	TotalReadings  int          `json:"total_readings"`
	TotalBytes     int64        `json:"total_bytes"`
	TotalFeePlanck int64        `json:"total_fee_planck"`
	FailedAttempts int64        `json:"failed_attempts"`
	// SubmitLatencyMs is over elapsed submission time, ConfirmLatencySec over confirmedAt - sentAt.
	SubmitLatencyMs   LatencyStats `json:"submit_latency_ms"`
	ConfirmLatencySec LatencyStats `json:"confirm_latency_sec"`
	Daily             []DailyStats `json:"daily"`
}

// GetUploadStats aggregates every upload record of chain. Read only.
func (a *Anchor) GetUploadStats(ctx context.Context, chain models.Chain) (*UploadStats, error) {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryStats)

	if !chain.Valid() {
		return nil, invalidInput("unknown chain %q", chain)
	}

	var msgs []models.UploadedMessage
	if err := a.Db.Conn.WithContext(ctx).
		Select("chain", "reading_count", "payload_size", "sent_at", "elapsed_ms", "fee_planck", "status", "confirmed", "confirmed_at").
		Where("chain = ?", chain).
		Find(&msgs).Error; err != nil {
		return nil, internalError("failed to load upload records", errors.WithStack(err))
	}

	var failed int64
	if err := a.Db.Conn.WithContext(ctx).Model(&models.UploadAttempt{}).
		Where("chain = ?", chain).
		Count(&failed).Error; err != nil {
		return nil, internalError("failed to count attempts", errors.WithStack(err))
	}

	result := aggregate(chain, msgs)
	result.FailedAttempts = failed

	logger.Debug("Computed upload stats", zap.String("chain", string(chain)), zap.Int("uploads", result.TotalUploads))
	return result, nil
}

func aggregate(chain models.Chain, msgs []models.UploadedMessage) *UploadStats {
	result := &UploadStats{Chain: chain, Daily: []DailyStats{}}

	var submitMs, confirmSec stats.Float64Data
	days := map[string]*DailyStats{}

	for _, m := range msgs {
		result.TotalUploads++
		result.TotalReadings += m.ReadingCount
		result.TotalBytes += int64(m.PayloadSize)
		result.TotalFeePlanck += m.FeePlanck

		if m.Confirmed {
			result.Confirmed++
			if m.ConfirmedAt != nil {
				confirmSec = append(confirmSec, m.ConfirmedAt.Sub(m.SentAt).Seconds())
			}
		} else if m.Status == models.UploadStatusPending || m.Status == models.UploadStatusSent {
			result.Pending++
		}
		submitMs = append(submitMs, float64(m.ElapsedMs))

		date := m.SentAt.UTC().Format("2006-01-02")
		day, ok := days[date]
		if !ok {
			day = &DailyStats{Date: date}
			days[date] = day
		}
		day.Uploads++
		day.Readings += m.ReadingCount
		day.Bytes += int64(m.PayloadSize)
		day.FeePlanck += m.FeePlanck
	}

	result.SubmitLatencyMs = latency(submitMs)
	result.ConfirmLatencySec = latency(confirmSec)

	for _, day := range days {
		result.Daily = append(result.Daily, *day)
	}
	sort.Slice(result.Daily, func(i, j int) bool { return result.Daily[i].Date < result.Daily[j].Date })

	return result
}

// latency uses nearest-rank percentiles; an empty sample is all zeros.
func latency(data stats.Float64Data) LatencyStats {
	if len(data) == 0 {
		return LatencyStats{}
	}
	p50, _ := stats.PercentileNearestRank(data, 50)
	p95, _ := stats.PercentileNearestRank(data, 95)
	maximum, _ := stats.Max(data)
	return LatencyStats{P50: p50, P95: p95, Max: maximum}
}
