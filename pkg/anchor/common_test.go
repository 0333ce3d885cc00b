package anchor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor/mocks"
	"liyu1981.xyz/iot-anchor-service/pkg/db"
	"liyu1981.xyz/iot-anchor-service/pkg/ledger"
	ledgermocks "liyu1981.xyz/iot-anchor-service/pkg/ledger/mocks"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

var fixedNow = time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

const testSignumNode = "http://signum.test"

var testSettings = Settings{
	AppNamespace:  "sensors",
	LedgerTimeout: 2 * time.Second,
	Iota: IotaSettings{
		NodeURL:     "http://iota.test",
		ExplorerURL: "https://explorer.iota.test/block",
		Network:     "testnet",
	},
	Signum: SignumSettings{
		ExplorerURL:   "https://explorer.signum.test/tx",
		Network:       "signum-test",
		Recipient:     "S-TEST",
		Keys:          ledger.SigningKeys{SecretPhrase: "phrase"},
		FeeUnitPlanck: DefaultSignumFeeUnitPlanck,
	},
}

type testEnv struct {
	ctrl    *gomock.Controller
	anchor  *Anchor
	iota    *ledgermocks.MockTaggedSubmitter
	signum  *ledgermocks.MockMessageSubmitter
	attempt *mocks.MockIAttempt
	upload  *mocks.MockIUpload
}

// GetMockAnchorWithMemorySqliteDialector wires an Anchor over the shared memory db with mocked ledgers.
// The attempt and upload services are mocked only when asked for.
func GetMockAnchorWithMemorySqliteDialector(t *testing.T, useMockIAttempt, useMockIUpload bool) *testEnv {
	ctrl := gomock.NewController(t)

	dbInstance := db.GetInstance(db.UseMemorySqliteDialector()) // ensure migrations
	require.NoError(t, dbInstance.ResetTables())

	iotaClient := ledgermocks.NewMockTaggedSubmitter(ctrl)
	signumClient := ledgermocks.NewMockMessageSubmitter(ctrl)
	signumClient.EXPECT().Node().Return(testSignumNode).AnyTimes()

	anchorObj := &Anchor{
		Db:       *dbInstance,
		Ledgers:  Ledgers{Iota: iotaClient, Signum: signumClient},
		Settings: testSettings,
		Clock:    func() time.Time { return fixedNow },
	}
	anchorObj.WithDefaultServices()

	env := &testEnv{
		ctrl:    ctrl,
		anchor:  anchorObj,
		iota:    iotaClient,
		signum:  signumClient,
		attempt: mocks.NewMockIAttempt(ctrl),
		upload:  mocks.NewMockIUpload(ctrl),
	}

	if useMockIAttempt {
		anchorObj.WithServices(ServiceOpts{Attempt: env.attempt})
	}
	if useMockIUpload {
		anchorObj.WithServices(ServiceOpts{Upload: env.upload})
	}

	return env
}

// seedReadings stores n readings of one chip, a minute apart, and returns their ids in time order.
func seedReadings(t *testing.T, a *Anchor, n int) []string {
	ids := make([]string, n)
	base := fixedNow.Add(-time.Hour)
	for i := 0; i < n; i++ {
		r := &models.Reading{
			ID:              uuid.NewString(),
			ChipID:          "c1",
			MAC:             "m1",
			Temperature:     20 + float64(i)/4,
			SourceTimestamp: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, a.Reading.SaveReading(context.Background(), r))
		ids[i] = r.ID
	}
	return ids
}

func countRows(t *testing.T, a *Anchor, model any, query string, args ...any) int64 {
	var count int64
	q := a.Db.Conn.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}

func nodeRejection(code string) error {
	return &ledger.NodeError{StatusCode: 400, Code: code, Message: fmt.Sprintf("rejected with %s", code)}
}
