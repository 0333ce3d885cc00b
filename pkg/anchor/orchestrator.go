package anchor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/ledger"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

type UploadRequest struct {
	UserID     string
	Chain      models.Chain
	ReadingIDs []string
}

type UploadResult struct {
	BatchID      string
	TxID         string
	ExplorerURL  string
	Tag          string
	PayloadSize  int
	ReadingCount int
	ElapsedMs    int64
	FeePlanck    *int64
	Status       models.UploadStatus
}

type Confirmation struct {
	Chain       models.Chain
	TxID        string
	Confirmed   bool
	BlockHeight int64
	ConfirmedAt time.Time
	// Changed is false when the record had already been confirmed before this call.
	Changed bool
}

// submission is what a chain submitter needs and what a failed attempt records.
type submission struct {
	userID      string
	chain       models.Chain
	tag         string
	nodeAddress string
	recipient   string
	feePlanck   int64
	payload     *Payload
	readingIDs  []string
}

func (s *submission) attempt() *models.UploadAttempt {
	return &models.UploadAttempt{
		UserID:      s.userID,
		Chain:       s.chain,
		Tag:         s.tag,
		NodeAddress: s.nodeAddress,
		FeePlanck:   s.feePlanck,
		PayloadHash: s.payload.Hash,
		PayloadSize: s.payload.Size,
		ReadingIDs:  s.readingIDs,
	}
}

// UploadToChain anchors the given readings of userID on one chain. The ledger call runs to
// completion or to the ledger timeout even when ctx is cancelled.
func (a *Anchor) UploadToChain(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryUpload)

	req.UserID = strings.TrimSpace(req.UserID)
	ids := common.SortedUnique(common.Mapper(req.ReadingIDs, strings.TrimSpace))
	switch {
	case req.UserID == "":
		return nil, invalidInput("user id is required")
	case !req.Chain.Valid():
		return nil, invalidInput("unknown chain %q", req.Chain)
	case len(ids) == 0:
		return nil, invalidInput("at least one reading id is required")
	}

	readings, err := a.Reading.SelectUnsent(ctx, req.UserID, ids)
	if err != nil {
		return nil, internalError("failed to load readings", err)
	}
	if len(readings) == 0 {
		return nil, &Error{
			Kind:    KindNoMatchingReadings,
			Code:    string(KindNoMatchingReadings),
			Message: "no matching messages: readings not found or already uploaded",
		}
	}

	payload, err := BuildPayload(readings)
	if err != nil {
		return nil, internalError("failed to build payload", err)
	}

	pref, err := a.Preference.GetPreference(ctx, req.UserID)
	if err != nil {
		return nil, internalError("failed to load user preference", err)
	}

	sub := a.prepare(req, pref, payload, readings)

	logger.Info("Uploading readings",
		zap.String("user_id", sub.userID),
		zap.String("chain", string(sub.chain)),
		zap.Int("reading_count", len(readings)),
		zap.Int("payload_size", payload.Size),
		zap.String("payload_hash", payload.Hash),
	)

	if limit := MaxPayloadSize(sub.chain); payload.Size > limit {
		tooLarge := &Error{
			Kind:       KindPayloadTooLarge,
			Code:       string(KindPayloadTooLarge),
			Message:    "Payload too large",
			NodeStatus: 413,
			Size:       payload.Size,
			Limit:      limit,
		}
		a.recordFailure(ctx, sub.attempt(), tooLarge)
		a.Metrics.ObserveUpload(string(sub.chain), "too_large", 0, payload.Size)
		return nil, tooLarge
	}

	sentAt := a.now()
	started := time.Now()
	txID, err := a.submit(ctx, sub)
	elapsed := time.Since(started)
	if err != nil {
		failure := nodeFailure(err)
		attempt := sub.attempt()
		attempt.ElapsedMs = elapsed.Milliseconds()
		a.recordFailure(ctx, attempt, failure)
		a.Metrics.ObserveUpload(string(sub.chain), "node_error", elapsed, payload.Size)
		logger.Warn("Ledger submission failed", zap.String("chain", string(sub.chain)), zap.Error(err))
		return nil, failure
	}

	// the transaction exists on chain now, record it even if the caller went away
	msg := a.successRecord(sub, txID, sentAt, elapsed)
	if err := a.Upload.CreateSuccess(context.WithoutCancel(ctx), msg); err != nil {
		failure := internalError("submitted to ledger but failed to store upload record", err)
		attempt := sub.attempt()
		attempt.TxID = txID
		attempt.ElapsedMs = msg.ElapsedMs
		a.recordFailure(ctx, attempt, failure)
		a.Metrics.ObserveUpload(string(sub.chain), "store_error", elapsed, payload.Size)
		return nil, failure
	}

	a.Metrics.ObserveUpload(string(sub.chain), "success", elapsed, payload.Size)

	result := &UploadResult{
		BatchID:      msg.BatchID,
		TxID:         msg.TxID,
		ExplorerURL:  msg.ExplorerURL,
		Tag:          msg.Tag,
		PayloadSize:  msg.PayloadSize,
		ReadingCount: msg.ReadingCount,
		ElapsedMs:    msg.ElapsedMs,
		Status:       msg.Status,
	}
	if sub.chain == models.ChainSignum {
		fee := msg.FeePlanck
		result.FeePlanck = &fee
	}
	return result, nil
}

func (a *Anchor) prepare(req UploadRequest, pref *models.UserPreference, payload *Payload, readings []models.Reading) *submission {
	sub := &submission{
		userID:     req.UserID,
		chain:      req.Chain,
		tag:        Tag(pref.TagPrefix, req.UserID, a.Settings.AppNamespace, a.now()),
		payload:    payload,
		readingIDs: common.Mapper(readings, func(r models.Reading) string { return r.ID }),
	}

	switch req.Chain {
	case models.ChainIota:
		sub.nodeAddress = a.Settings.Iota.NodeURL
		if pref.IotaNodeURL != "" && CheckNodeURL(pref.IotaNodeURL) == nil {
			sub.nodeAddress = pref.IotaNodeURL
		}
	case models.ChainSignum:
		if a.Ledgers.Signum != nil {
			sub.nodeAddress = a.Ledgers.Signum.Node()
		}
		sub.recipient = firstNonEmpty(pref.SignumRecipient, a.Settings.Signum.Recipient)
		sub.feePlanck = SignumFee(payload.Size, a.feeUnit())
	}
	return sub
}

func (a *Anchor) submit(ctx context.Context, sub *submission) (string, error) {
	// not cancellable once issued, bounded by the ledger timeout only
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.ledgerTimeout())
	defer cancel()

	var (
		res *ledger.Submission
		err error
	)
	switch sub.chain {
	case models.ChainIota:
		if a.Ledgers.Iota == nil {
			return "", errors.Wrap(ledger.ErrConnection, "iota client not configured")
		}
		res, err = a.Ledgers.Iota.SubmitTagged(submitCtx, sub.nodeAddress, sub.tag, sub.payload.Bytes)
	case models.ChainSignum:
		if a.Ledgers.Signum == nil {
			return "", errors.Wrap(ledger.ErrConnection, "signum client not configured")
		}
		res, err = a.Ledgers.Signum.SubmitMessage(submitCtx, sub.recipient, sub.feePlanck, sub.payload.Text, a.Settings.Signum.Keys)
	default:
		return "", fmt.Errorf("unsupported chain %q", sub.chain)
	}
	if err != nil {
		return "", err
	}
	if res == nil || res.TxID == "" {
		return "", errors.WithStack(&ledger.NodeError{Code: "EMPTY_TX_ID", Message: "node returned no transaction id"})
	}
	return res.TxID, nil
}

func (a *Anchor) successRecord(sub *submission, txID string, sentAt time.Time, elapsed time.Duration) *models.UploadedMessage {
	msg := &models.UploadedMessage{
		ID:           uuid.NewString(),
		BatchID:      fmt.Sprintf("%s-%s-%d", sub.userID, sub.chain, sentAt.UnixNano()),
		UserID:       sub.userID,
		Chain:        sub.chain,
		TxID:         txID,
		Tag:          sub.tag,
		NodeAddress:  sub.nodeAddress,
		PayloadHash:  sub.payload.Hash,
		ReadingIDs:   sub.readingIDs,
		ReadingCount: len(sub.readingIDs),
		PayloadSize:  sub.payload.Size,
		SentAt:       sentAt,
		ElapsedMs:    elapsed.Milliseconds(),
		FeePlanck:    sub.feePlanck,
		Status:       models.InitialStatus(sub.chain),
	}

	switch sub.chain {
	case models.ChainIota:
		msg.Confirmed = true
		msg.ConfirmedAt = &sentAt
		msg.ExplorerURL = ExplorerURL(a.Settings.Iota.ExplorerURL, txID)
		msg.Network = a.Settings.Iota.Network
	case models.ChainSignum:
		msg.ExplorerURL = ExplorerURL(a.Settings.Signum.ExplorerURL, txID)
		msg.Network = a.Settings.Signum.Network
	}
	return msg
}

// recordFailure persists an attempt. Failing to record never changes what the caller gets back.
func (a *Anchor) recordFailure(ctx context.Context, attempt *models.UploadAttempt, cause *Error) {
	a.Metrics.ObserveAttempt(string(attempt.Chain), string(cause.Kind))

	if a.Attempt == nil {
		return
	}
	if _, err := a.Attempt.Record(context.WithoutCancel(ctx), attempt, cause); err != nil {
		common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryAttempt).
			Error("Failed to record upload attempt",
				zap.String("user_id", attempt.UserID),
				zap.String("chain", string(attempt.Chain)),
				zap.Error(err),
			)
	}
}

// ConfirmTransaction asks the chain whether txID is included and, if so, marks its record confirmed.
// Confirming an already confirmed record returns the stored confirmation without a ledger call.
func (a *Anchor) ConfirmTransaction(ctx context.Context, chain models.Chain, txID string) (*Confirmation, error) {
	txID = strings.TrimSpace(txID)
	if !chain.Valid() {
		return nil, invalidInput("unknown chain %q", chain)
	}
	if txID == "" {
		return nil, invalidInput("transaction id is required")
	}

	msg, err := a.Upload.GetByTx(ctx, chain, txID)
	if err != nil {
		if errors.Is(err, ErrNoMatchingRecord) {
			a.Metrics.ObserveConfirmation(string(chain), "no_record")
			return nil, err
		}
		return nil, internalError("failed to load upload record", err)
	}

	return a.confirm(ctx, msg)
}

func (a *Anchor) confirm(ctx context.Context, msg *models.UploadedMessage) (*Confirmation, error) {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryConfirm)

	if msg.Confirmed {
		a.Metrics.ObserveConfirmation(string(msg.Chain), "already_confirmed")
		return confirmationOf(msg, false), nil
	}

	lookup := a.lookupFor(msg.Chain)
	if lookup == nil {
		return nil, nodeFailure(errors.Wrapf(ledger.ErrConnection, "%s client not configured", msg.Chain))
	}

	inclusion, err := lookup.LookupTransaction(ctx, msg.TxID)
	if errors.Is(err, ledger.ErrNotIncluded) {
		a.Metrics.ObserveConfirmation(string(msg.Chain), "pending")
		return nil, &Error{
			Kind:    KindNotYetIncluded,
			Code:    string(KindNotYetIncluded),
			Message: "transaction " + msg.TxID + " is not yet included in a block",
			Err:     err,
		}
	}
	if err != nil {
		a.Metrics.ObserveConfirmation(string(msg.Chain), "lookup_error")
		logger.Warn("Transaction lookup failed", zap.String("tx_id", msg.TxID), zap.Error(err))
		return nil, nodeFailure(err)
	}

	confirmedAt := inclusion.BlockTime
	if confirmedAt.IsZero() {
		confirmedAt = a.now()
	}

	updated, changed, err := a.Upload.MarkConfirmed(ctx, msg.Chain, msg.TxID, inclusion.Height, confirmedAt)
	if err != nil {
		if errors.Is(err, ErrNoMatchingRecord) {
			return nil, err
		}
		return nil, internalError("failed to mark upload confirmed", err)
	}

	a.Metrics.ObserveConfirmation(string(msg.Chain), "confirmed")
	return confirmationOf(updated, changed), nil
}

func confirmationOf(msg *models.UploadedMessage, changed bool) *Confirmation {
	c := &Confirmation{
		Chain:     msg.Chain,
		TxID:      msg.TxID,
		Confirmed: msg.Confirmed,
		Changed:   changed,
	}
	if msg.BlockHeight != nil {
		c.BlockHeight = *msg.BlockHeight
	}
	if msg.ConfirmedAt != nil {
		c.ConfirmedAt = msg.ConfirmedAt.UTC()
	}
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
