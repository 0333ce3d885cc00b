package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
	"github.com/pkg/errors"

	"liyu1981.xyz/iot-anchor-service/pkg/anchor"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type UploadRequest struct {
	Chain      string   `json:"chain" zog:"chain"`
	ReadingIDs []string `json:"reading_ids" zog:"reading_ids"`
}

var uploadRequestSchema = z.Struct(z.Shape{
	"Chain":      z.String().Required(),
	"ReadingIDs": z.Slice(z.String()).Required(),
})

type UploadResponse struct {
	BatchID      string `json:"batch_id"`
	TxID         string `json:"tx_id"`
	ExplorerURL  string `json:"explorer_url"`
	Tag          string `json:"tag,omitempty"`
	PayloadSize  int    `json:"payload_size"`
	ReadingCount int    `json:"reading_count"`
	ElapsedMs    int64  `json:"elapsed_ms"`
	FeePlanck    *int64 `json:"fee_planck,omitempty"`
	Status       string `json:"status"`
}

func (rs *RestfulServer) PostUpload(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		writeRateLimited(c)
		return
	}

	var req UploadRequest
	if issues := uploadRequestSchema.Parse(zhttp.Request(c.Request), &req); issues != nil {
		writeInvalid(c, "chain and reading_ids are required", issues)
		return
	}

	result, err := rs.Anchor.UploadToChain(c.Request.Context(), anchor.UploadRequest{
		UserID:     userID,
		Chain:      models.Chain(req.Chain),
		ReadingIDs: req.ReadingIDs,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		BatchID:      result.BatchID,
		TxID:         result.TxID,
		ExplorerURL:  result.ExplorerURL,
		Tag:          result.Tag,
		PayloadSize:  result.PayloadSize,
		ReadingCount: result.ReadingCount,
		ElapsedMs:    result.ElapsedMs,
		FeePlanck:    result.FeePlanck,
		Status:       string(result.Status),
	})
}

type UploadRecordResponse struct {
	BatchID      string     `json:"batch_id"`
	Chain        string     `json:"chain"`
	TxID         string     `json:"tx_id"`
	Tag          string     `json:"tag,omitempty"`
	Network      string     `json:"network,omitempty"`
	ExplorerURL  string     `json:"explorer_url"`
	ReadingCount int        `json:"reading_count"`
	PayloadSize  int        `json:"payload_size"`
	FeePlanck    int64      `json:"fee_planck"`
	SentAt       time.Time  `json:"sent_at"`
	Status       string     `json:"status"`
	Confirmed    bool       `json:"confirmed"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	BlockHeight  *int64     `json:"block_height,omitempty"`
}

func (rs *RestfulServer) GetUploads(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		writeRateLimited(c)
		return
	}

	limit, ok := listLimit(c)
	if !ok {
		return
	}

	msgs, err := rs.Anchor.Upload.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	records := make([]UploadRecordResponse, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, UploadRecordResponse{
			BatchID:      m.BatchID,
			Chain:        string(m.Chain),
			TxID:         m.TxID,
			Tag:          m.Tag,
			Network:      m.Network,
			ExplorerURL:  m.ExplorerURL,
			ReadingCount: m.ReadingCount,
			PayloadSize:  m.PayloadSize,
			FeePlanck:    m.FeePlanck,
			SentAt:       m.SentAt.UTC(),
			Status:       string(m.Status),
			Confirmed:    m.Confirmed,
			ConfirmedAt:  m.ConfirmedAt,
			BlockHeight:  m.BlockHeight,
		})
	}

	c.JSON(http.StatusOK, records)
}

// listLimit reads ?limit=, writing a 400 and returning false when it is out of range.
func listLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxListLimit {
		writeInvalid(c, "limit must be between 1 and "+strconv.Itoa(maxListLimit), nil)
		return 0, false
	}
	return n, true
}

type AttemptResponse struct {
	CorrelationID string    `json:"correlation_id"`
	AttemptNo     int       `json:"attempt_no"`
	Chain         string    `json:"chain"`
	Status        string    `json:"status"`
	Tag           string    `json:"tag"`
	NodeAddress   string    `json:"node_address"`
	FeePlanck     int64     `json:"fee_planck,omitempty"`
	TxID          string    `json:"tx_id,omitempty"`
	PayloadHash   string    `json:"payload_hash"`
	PayloadSize   int       `json:"payload_size"`
	ReadingIDs    []string  `json:"reading_ids"`
	CreatedAt     time.Time `json:"created_at"`
	ElapsedMs     int64     `json:"elapsed_ms"`
	HTTPStatus    int       `json:"http_status,omitempty"`
	ErrorKind     string    `json:"error_kind"`
	ErrorCode     string    `json:"error_code"`
	ErrorMessage  string    `json:"error_message"`
}

// GetAttempts lists failed submissions of a user, newest first, optionally narrowed by
// ?chain= and ?correlation_id=. Stacks stay server side.
func (rs *RestfulServer) GetAttempts(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		writeRateLimited(c)
		return
	}

	chain := models.Chain(c.Query("chain"))
	if chain != "" && !chain.Valid() {
		writeInvalid(c, "unknown chain "+string(chain), nil)
		return
	}
	limit, ok := listLimit(c)
	if !ok {
		return
	}

	attempts, err := rs.Anchor.Attempt.ListAttempts(c.Request.Context(), userID, chain, c.Query("correlation_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.Mapper(attempts, func(a models.UploadAttempt) AttemptResponse {
		return AttemptResponse{
			CorrelationID: a.CorrelationID,
			AttemptNo:     a.AttemptNo,
			Chain:         string(a.Chain),
			Status:        string(a.Status),
			Tag:           a.Tag,
			NodeAddress:   a.NodeAddress,
			FeePlanck:     a.FeePlanck,
			TxID:          a.TxID,
			PayloadHash:   a.PayloadHash,
			PayloadSize:   a.PayloadSize,
			ReadingIDs:    a.ReadingIDs,
			CreatedAt:     a.CreatedAt.UTC(),
			ElapsedMs:     a.ElapsedMs,
			HTTPStatus:    a.HTTPStatus,
			ErrorKind:     a.ErrorKind,
			ErrorCode:     a.ErrorCode,
			ErrorMessage:  a.ErrorMessage,
		}
	}))
}

type PreferenceRequest struct {
	TagPrefix       string `json:"tag_prefix" zog:"tag_prefix"`
	IotaNodeURL     string `json:"iota_node_url" zog:"iota_node_url"`
	SignumRecipient string `json:"signum_recipient" zog:"signum_recipient"`
}

var preferenceRequestSchema = z.Struct(z.Shape{
	"TagPrefix": z.String().Max(64),
	"IotaNodeURL": z.String().Max(2048).TestFunc(func(v *string, ctx z.Ctx) bool {
		return anchor.CheckNodeURL(*v) == nil
	}, z.Message("must be an http or https url")),
	"SignumRecipient": z.String().Max(128),
})

type PreferenceResponse struct {
	UserID          string `json:"user_id"`
	TagPrefix       string `json:"tag_prefix"`
	IotaNodeURL     string `json:"iota_node_url"`
	SignumRecipient string `json:"signum_recipient"`
}

func (rs *RestfulServer) PutPreferences(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		writeRateLimited(c)
		return
	}

	var req PreferenceRequest
	if issues := preferenceRequestSchema.Parse(zhttp.Request(c.Request), &req); issues != nil {
		writeInvalid(c, "invalid preference", issues)
		return
	}

	pref := &models.UserPreference{
		UserID:          userID,
		TagPrefix:       req.TagPrefix,
		IotaNodeURL:     req.IotaNodeURL,
		SignumRecipient: req.SignumRecipient,
	}
	if err := rs.Anchor.Preference.UpsertPreference(c.Request.Context(), pref); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, PreferenceResponse{
		UserID:          userID,
		TagPrefix:       pref.TagPrefix,
		IotaNodeURL:     pref.IotaNodeURL,
		SignumRecipient: pref.SignumRecipient,
	})
}

func (rs *RestfulServer) GetPreferences(c *gin.Context) {
	userID := c.Param("user_id")

	pref, err := rs.Anchor.Preference.GetPreference(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, PreferenceResponse{
		UserID:          userID,
		TagPrefix:       pref.TagPrefix,
		IotaNodeURL:     pref.IotaNodeURL,
		SignumRecipient: pref.SignumRecipient,
	})
}

func (rs *RestfulServer) GetStats(c *gin.Context) {
	stats, err := rs.Anchor.GetUploadStats(c.Request.Context(), models.Chain(c.Param("chain")))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

type DeviceStatusResponse struct {
	ChipID        string    `json:"chip_id"`
	MAC           string    `json:"mac,omitempty"`
	State         string    `json:"state"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	RSSI          int       `json:"rssi"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (rs *RestfulServer) GetDeviceStatus(c *gin.Context) {
	status, err := rs.Anchor.Device.GetDeviceStatus(c.Request.Context(), c.Param("chip_id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrorResponse{
			Kind:    string(anchor.KindNoMatchingRecord),
			Code:    string(anchor.KindNoMatchingRecord),
			Message: "no status reported for chip " + c.Param("chip_id"),
		}})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeviceStatusResponse{
		ChipID:        status.ChipID,
		MAC:           status.MAC,
		State:         status.State,
		UptimeSeconds: status.UptimeSeconds,
		RSSI:          status.RSSI,
		UpdatedAt:     status.UpdatedAt.UTC(),
	})
}

type ConfirmationResponse struct {
	Chain       string     `json:"chain"`
	TxID        string     `json:"tx_id"`
	Confirmed   bool       `json:"confirmed"`
	BlockHeight int64      `json:"block_height"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	Changed     bool       `json:"changed"`
}

func (rs *RestfulServer) PostConfirmation(c *gin.Context) {
	confirmation, err := rs.Anchor.ConfirmTransaction(c.Request.Context(), models.Chain(c.Param("chain")), c.Param("tx_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := ConfirmationResponse{
		Chain:       string(confirmation.Chain),
		TxID:        confirmation.TxID,
		Confirmed:   confirmation.Confirmed,
		BlockHeight: confirmation.BlockHeight,
		Changed:     confirmation.Changed,
	}
	if !confirmation.ConfirmedAt.IsZero() {
		resp.ConfirmedAt = &confirmation.ConfirmedAt
	}
	c.JSON(http.StatusOK, resp)
}

type SweepResponse struct {
	Checked   int  `json:"checked"`
	Confirmed int  `json:"confirmed"`
	Pending   int  `json:"pending"`
	Failed    int  `json:"failed"`
	Skipped   bool `json:"skipped"`
}

func (rs *RestfulServer) PostSweep(c *gin.Context) {
	if rs.Poller == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrorResponse{
			Kind:    "UNAVAILABLE",
			Code:    "POLLER_DISABLED",
			Message: "confirmation poller is not configured",
		}})
		return
	}

	result, err := rs.Poller.Sweep(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SweepResponse(result))
}

type LimiterRequest struct {
	Rate  float64 `json:"rate" zog:"rate"`
	Burst int     `json:"burst" zog:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"Rate":  z.Float64().Required().GT(0),
	"Burst": z.Int().Required().GT(0),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	userID := c.Param("user_id")

	var req LimiterRequest
	if issues := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); issues != nil {
		writeInvalid(c, "rate and burst must be positive", issues)
		return
	}

	rs.SetLimiter(userID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
