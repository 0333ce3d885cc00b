package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
)

// SignumGenesis is the origin of block timestamps reported by signum nodes.
var SignumGenesis = time.Date(2014, time.August, 11, 2, 0, 0, 0, time.UTC)

const (
	signumDeadlineMinutes = "1440"
	// unknown transaction / incorrect transaction
	signumErrUnknownTx   = 4
	signumErrIncorrectTx = 5
)

// numbers and ids come back either quoted or bare depending on node version
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(strings.Trim(string(b), `"`))
	return nil
}

type signumResponse struct {
	Transaction      flexString `json:"transaction"`
	Block            flexString `json:"block"`
	Height           *int64     `json:"height"`
	BlockTimestamp   *int64     `json:"blockTimestamp"`
	ErrorCode        *int       `json:"errorCode"`
	ErrorDescription string     `json:"errorDescription"`
}

type SignumClient struct {
	httpClient *resty.Client
	node       string
	logger     *zap.Logger
}

func NewSignumClient(node string, timeout time.Duration) *SignumClient {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &SignumClient{
		httpClient: client,
		node:       strings.TrimRight(node, "/"),
		logger:     common.GetLoggerWith(common.LoggerNameLedger, zap.String("chain", "signum")),
	}
}

func (c *SignumClient) Node() string {
	return c.node
}

// SubmitMessage sends a plain text message transaction, signed by the node with the given passphrase.
func (c *SignumClient) SubmitMessage(ctx context.Context, recipient string, feePlanck int64, text string, keys SigningKeys) (*Submission, error) {
	if keys.SecretPhrase == "" {
		return nil, nodeError(0, "MISSING_SIGNING_KEYS", "signum passphrase is not configured")
	}
	if recipient == "" {
		return nil, nodeError(0, "MISSING_RECIPIENT", "signum recipient is not configured")
	}

	url := c.node + "/api"
	form := map[string]string{
		"recipient":     recipient,
		"feeNQT":        strconv.FormatInt(feePlanck, 10),
		"message":       text,
		"messageIsText": "true",
		"deadline":      signumDeadlineMinutes,
		"secretPhrase":  keys.SecretPhrase,
	}
	if keys.PublicKey != "" {
		form["publicKey"] = keys.PublicKey
	}

	c.logger.Info("Submitting message transaction",
		zap.String("node", c.node),
		zap.String("recipient", recipient),
		zap.Int64("fee_planck", feePlanck),
		zap.Int("size", len(text)),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("requestType", "sendMessage").
		SetFormData(form).
		Post(url)
	if err != nil {
		c.logger.Error("signum node call failed", zap.String("node", c.node), zap.Error(err))
		return nil, connectionError(url, err)
	}

	body, err := c.decode(resp)
	if err != nil {
		return nil, err
	}
	if body.Transaction == "" {
		return nil, nodeError(resp.StatusCode(), "INVALID_RESPONSE", fmt.Sprintf("no transaction id in response: %s", truncate(resp.String())))
	}

	c.logger.Info("Message transaction accepted", zap.String("tx_id", string(body.Transaction)))

	return &Submission{TxID: string(body.Transaction), StatusCode: resp.StatusCode()}, nil
}

// LookupTransaction reports a transaction as included once the node places it in a block.
func (c *SignumClient) LookupTransaction(ctx context.Context, txID string) (*Inclusion, error) {
	url := c.node + "/api"

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"requestType": "getTransaction",
			"transaction": txID,
		}).
		Get(url)
	if err != nil {
		return nil, connectionError(url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, notIncluded(txID)
	}

	body, err := c.decode(resp)
	if err != nil {
		var nodeErr *NodeError
		if errors.As(err, &nodeErr) && (nodeErr.Code == strconv.Itoa(signumErrUnknownTx) || nodeErr.Code == strconv.Itoa(signumErrIncorrectTx)) {
			return nil, notIncluded(txID)
		}
		return nil, err
	}

	// unconfirmed transactions report height as Integer.MAX_VALUE
	if body.Block == "" || body.Height == nil || *body.Height >= math.MaxInt32 {
		return nil, notIncluded(txID)
	}

	inclusion := &Inclusion{Height: *body.Height}
	if body.BlockTimestamp != nil {
		inclusion.BlockTime = SignumGenesis.Add(time.Duration(*body.BlockTimestamp) * time.Second)
	}
	return inclusion, nil
}

func (c *SignumClient) decode(resp *resty.Response) (*signumResponse, error) {
	var body signumResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		status := resp.StatusCode()
		c.logger.Error("signum node returned unreadable body", zap.Int("status_code", status), zap.Error(err))
		return nil, nodeError(status, "INVALID_RESPONSE", truncate(resp.String()))
	}

	if body.ErrorCode != nil {
		status := resp.StatusCode()
		// signum answers rejections with 200
		if status < http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		c.logger.Warn("signum node rejected request",
			zap.Int("error_code", *body.ErrorCode),
			zap.String("error_description", body.ErrorDescription),
		)
		return nil, nodeError(status, strconv.Itoa(*body.ErrorCode), body.ErrorDescription)
	}

	if resp.IsError() {
		return nil, nodeError(resp.StatusCode(), "", truncate(resp.String()))
	}
	return &body, nil
}
