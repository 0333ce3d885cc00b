package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
)

const (
	iotaProtocolVersion   = 2
	iotaTaggedDataPayload = 5
)

type iotaTaggedData struct {
	Type int    `json:"type"`
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

type iotaBlockRequest struct {
	ProtocolVersion int            `json:"protocolVersion"`
	Payload         iotaTaggedData `json:"payload"`
}

type iotaBlockResponse struct {
	BlockID string `json:"blockId"`
}

type iotaBlockMetadata struct {
	BlockID                    string `json:"blockId"`
	LedgerInclusionState       string `json:"ledgerInclusionState"`
	ReferencedByMilestoneIndex int64  `json:"referencedByMilestoneIndex"`
}

type iotaMilestone struct {
	Index     int64 `json:"index"`
	Timestamp int64 `json:"timestamp"`
}

type iotaErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type IotaClient struct {
	httpClient  *resty.Client
	defaultNode string
	logger      *zap.Logger
}

func NewIotaClient(defaultNode string, timeout time.Duration) *IotaClient {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &IotaClient{
		httpClient:  client,
		defaultNode: strings.TrimRight(defaultNode, "/"),
		logger:      common.GetLoggerWith(common.LoggerNameLedger, zap.String("chain", "iota")),
	}
}

func (c *IotaClient) node(nodeURL string) string {
	if nodeURL = strings.TrimRight(strings.TrimSpace(nodeURL), "/"); nodeURL != "" {
		return nodeURL
	}
	return c.defaultNode
}

// SubmitTagged posts a tagged data block and returns its block id.
func (c *IotaClient) SubmitTagged(ctx context.Context, nodeURL string, tag string, payload []byte) (*Submission, error) {
	url := c.node(nodeURL) + "/api/core/v2/blocks"
	body := iotaBlockRequest{
		ProtocolVersion: iotaProtocolVersion,
		Payload: iotaTaggedData{
			Type: iotaTaggedDataPayload,
			Tag:  "0x" + hex.EncodeToString([]byte(tag)),
			Data: "0x" + hex.EncodeToString(payload),
		},
	}

	c.logger.Info("Submitting tagged block", zap.String("node", url), zap.String("tag", tag), zap.Int("size", len(payload)))

	resp, err := c.httpClient.R().SetContext(ctx).SetBody(body).Post(url)
	if err != nil {
		c.logger.Error("iota node call failed", zap.String("node", url), zap.Error(err))
		return nil, connectionError(url, err)
	}

	if resp.IsError() {
		return nil, c.nodeErrorFrom(resp)
	}

	var block iotaBlockResponse
	if err := json.Unmarshal(resp.Body(), &block); err != nil || block.BlockID == "" {
		return nil, nodeError(resp.StatusCode(), "INVALID_RESPONSE", fmt.Sprintf("unexpected block response: %s", truncate(resp.String())))
	}

	c.logger.Info("Tagged block accepted", zap.String("block_id", block.BlockID), zap.Int("status_code", resp.StatusCode()))

	return &Submission{TxID: block.BlockID, StatusCode: resp.StatusCode()}, nil
}

// LookupTransaction reports a block as included once a milestone references it.
func (c *IotaClient) LookupTransaction(ctx context.Context, txID string) (*Inclusion, error) {
	url := fmt.Sprintf("%s/api/core/v2/blocks/%s/metadata", c.defaultNode, txID)

	resp, err := c.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, connectionError(url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, notIncluded(txID)
	}
	if resp.IsError() {
		return nil, c.nodeErrorFrom(resp)
	}

	var meta iotaBlockMetadata
	if err := json.Unmarshal(resp.Body(), &meta); err != nil {
		return nil, nodeError(resp.StatusCode(), "INVALID_RESPONSE", err.Error())
	}
	if meta.LedgerInclusionState != "included" || meta.ReferencedByMilestoneIndex <= 0 {
		return nil, notIncluded(txID)
	}

	inclusion := &Inclusion{Height: meta.ReferencedByMilestoneIndex}
	if ts, err := c.milestoneTime(ctx, meta.ReferencedByMilestoneIndex); err == nil {
		inclusion.BlockTime = ts
	} else {
		c.logger.Warn("milestone timestamp unavailable", zap.Int64("milestone", meta.ReferencedByMilestoneIndex), zap.Error(err))
	}
	return inclusion, nil
}

func (c *IotaClient) milestoneTime(ctx context.Context, index int64) (time.Time, error) {
	url := fmt.Sprintf("%s/api/core/v2/milestones/by-index/%d", c.defaultNode, index)
	resp, err := c.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return time.Time{}, connectionError(url, err)
	}
	if resp.IsError() {
		return time.Time{}, c.nodeErrorFrom(resp)
	}
	var milestone iotaMilestone
	if err := json.Unmarshal(resp.Body(), &milestone); err != nil || milestone.Timestamp == 0 {
		return time.Time{}, nodeError(resp.StatusCode(), "INVALID_RESPONSE", "milestone without timestamp")
	}
	return time.Unix(milestone.Timestamp, 0).UTC(), nil
}

func (c *IotaClient) nodeErrorFrom(resp *resty.Response) error {
	var body iotaErrorResponse
	message := truncate(resp.String())
	code := ""
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error.Message != "" {
		message = body.Error.Message
		code = body.Error.Code
	}
	c.logger.Error("iota node rejected request",
		zap.Int("status_code", resp.StatusCode()),
		zap.String("code", code),
		zap.String("message", message),
	)
	return nodeError(resp.StatusCode(), code, message)
}

func truncate(s string) string {
	const limit = 512
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
