package anchor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/ledger"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
	_ "liyu1981.xyz/iot-anchor-service/pkg/testing"
)

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.unlocked++
		return nil
	}, true, nil
}

func seedPending(t *testing.T, a *Anchor, n int) {
	for i := 0; i < n; i++ {
		msg := pendingMessage("u1", fmt.Sprintf("%d", 1000+i), fixedNow.Add(time.Duration(i)*time.Second), nil)
		require.NoError(t, a.Upload.CreateSuccess(context.Background(), msg))
	}
}

func TestSweepLeavesRecordsOnLookupFailures(t *testing.T) {
	common.SetTestLoggerNop()
	env := GetMockAnchorWithMemorySqliteDialector(t, false, false)
	ctx := context.Background()
	seedPending(t, env.anchor, 3)

	env.signum.EXPECT().LookupTransaction(gomock.Any(), "1000").Return(nil, ledger.ErrNotIncluded)
	env.signum.EXPECT().LookupTransaction(gomock.Any(), "1001").
		Return(nil, errors.Wrap(ledger.ErrConnection, "dial tcp: i/o timeout"))
	env.signum.EXPECT().LookupTransaction(gomock.Any(), "1002").
		Return(&ledger.Inclusion{Height: 5}, nil)

	poller := &Poller{Anchor: env.anchor, Workers: 1}
	result, err := poller.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Checked: 3, Confirmed: 1, Pending: 1, Failed: 1}, result)

	for _, txID := range []string{"1000", "1001"} {
		msg, err := env.anchor.Upload.GetByTx(ctx, models.ChainSignum, txID)
		require.NoError(t, err)
		assert.False(t, msg.Confirmed, txID)
		assert.Equal(t, models.UploadStatusPending, msg.Status, txID)
		assert.Nil(t, msg.BlockHeight, txID)
	}

	// without a block time the poller stamps its own clock
	msg, err := env.anchor.Upload.GetByTx(ctx, models.ChainSignum, "1002")
	require.NoError(t, err)
	assert.True(t, msg.Confirmed)
	require.NotNil(t, msg.ConfirmedAt)
	assert.True(t, msg.ConfirmedAt.Equal(fixedNow))
}

func TestSweepPagesPastStuckRecords(t *testing.T) {
	common.SetTestLoggerNop()
	env := GetMockAnchorWithMemorySqliteDialector(t, false, false)
	ctx := context.Background()
	seedPending(t, env.anchor, 3)

	var mu sync.Mutex
	var looked []string
	env.signum.EXPECT().LookupTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, txID string) (*ledger.Inclusion, error) {
			mu.Lock()
			looked = append(looked, txID)
			mu.Unlock()
			if txID == "1002" {
				return &ledger.Inclusion{Height: 9}, nil
			}
			return nil, ledger.ErrNotIncluded
		}).
		AnyTimes()

	poller := &Poller{Anchor: env.anchor, BatchSize: 2, Workers: 1}

	result, err := poller.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Checked: 2, Pending: 2}, result)
	assert.Equal(t, []string{"1000", "1001"}, looked)

	looked = nil
	result, err = poller.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Checked: 1, Confirmed: 1}, result)
	assert.Equal(t, []string{"1002"}, looked)

	msg, err := env.anchor.Upload.GetByTx(ctx, models.ChainSignum, "1002")
	require.NoError(t, err)
	assert.True(t, msg.Confirmed)

	// short page wraps back to the oldest
	looked = nil
	result, err = poller.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Checked: 2, Pending: 2}, result)
	assert.Equal(t, []string{"1000", "1001"}, looked)

	// a full page that ends the set is followed by an empty one, which also wraps
	looked = nil
	result, err = poller.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, []string{"1000", "1001"}, looked)
}

func TestSweepBoundsConcurrency(t *testing.T) {
	common.SetTestLoggerNop()
	env := GetMockAnchorWithMemorySqliteDialector(t, false, false)
	seedPending(t, env.anchor, 12)

	var inFlight, peak atomic.Int32
	env.signum.EXPECT().LookupTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, txID string) (*ledger.Inclusion, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return nil, ledger.ErrNotIncluded
		}).
		Times(10)

	poller := &Poller{Anchor: env.anchor, BatchSize: 10, Workers: 3}
	result, err := poller.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Checked)
	assert.Equal(t, 10, result.Pending)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	common.SetTestLoggerNop()
	env := GetMockAnchorWithMemorySqliteDialector(t, false, true)
	ctx := context.Background()

	locker := &fakeLocker{held: true}
	poller := &Poller{Anchor: env.anchor, Locker: locker}

	// no ListPending expectation: a skipped sweep must not touch the store
	result, err := poller.Sweep(ctx)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	locker.held = false
	env.upload.EXPECT().ListPending(gomock.Any(), models.ChainSignum, nil, 50).Return(nil, nil)
	result, err = poller.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, result)
	assert.Equal(t, 1, locker.unlocked)
	assert.False(t, locker.held)
}

func TestSweepLockError(t *testing.T) {
	common.SetTestLoggerNop()
	env := GetMockAnchorWithMemorySqliteDialector(t, false, true)

	poller := &Poller{Anchor: env.anchor, Locker: &fakeLocker{err: errors.New("redis down")}}
	_, err := poller.Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire poller lock")
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	common.SetTestLoggerNop()
	env := GetMockAnchorWithMemorySqliteDialector(t, false, true)

	var sweeps atomic.Int32
	env.upload.EXPECT().ListPending(gomock.Any(), models.ChainSignum, gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, chain models.Chain, after *models.PendingCursor, limit int) ([]models.UploadedMessage, error) {
			sweeps.Add(1)
			return nil, nil
		}).
		AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		(&Poller{Anchor: env.anchor, Interval: 5 * time.Millisecond}).Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sweeps.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
