// Package ledger holds the REST clients for the two chains an upload can be anchored on.
//
// Clients never retry. A failed submission is reported to the caller as ErrConnection
// (transport failure or timeout) or a *NodeError (the node answered and refused).
// ErrNotIncluded is returned by lookups while a transaction is still pending.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

//go:generate mockgen -destination=mocks/ledger.go -package=mocks . Lookup,TaggedSubmitter,MessageSubmitter

var (
	ErrConnection  = errors.New("ledger node connection failed")
	ErrNotIncluded = errors.New("transaction not yet included")
)

type NodeError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *NodeError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("node rejected request (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("node rejected request (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

type Submission struct {
	TxID       string
	StatusCode int
}

type Inclusion struct {
	Height    int64
	BlockTime time.Time
}

type SigningKeys struct {
	PublicKey    string
	SecretPhrase string
}

type Lookup interface {
	LookupTransaction(ctx context.Context, txID string) (*Inclusion, error)
}

type TaggedSubmitter interface {
	Lookup
	SubmitTagged(ctx context.Context, nodeURL string, tag string, payload []byte) (*Submission, error)
}

type MessageSubmitter interface {
	Lookup
	Node() string
	SubmitMessage(ctx context.Context, recipient string, feePlanck int64, text string, keys SigningKeys) (*Submission, error)
}

// StatusCode is the HTTP-like status carried by a ledger error, 0 when the node was never reached.
func StatusCode(err error) int {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.StatusCode
	}
	return 0
}

func connectionError(url string, err error) error {
	return errors.Wrapf(ErrConnection, "%s: %v", url, err)
}

func nodeError(statusCode int, code string, message string) error {
	return errors.WithStack(&NodeError{StatusCode: statusCode, Code: code, Message: message})
}

func notIncluded(txID string) error {
	return errors.Wrapf(ErrNotIncluded, "tx %s", txID)
}
