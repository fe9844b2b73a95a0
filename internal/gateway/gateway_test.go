package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/betbot/polyrelay/pkg/sdk/relayer"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/journal"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSafe = common.HexToAddress("0x40e8e5fd316a68c4e704d7f2e2a5b20b309e61b1")

type fakeRelayer struct {
	err        error
	lastAmount string
	lastSets   []uint64
	lastTxs    []types.SafeTransaction
	waitResult *types.RelayerTransaction
	waitPolls  int
	txs        []types.RelayerTransaction
	results    []relayer.RedeemResult
}

func (f *fakeRelayer) submitted() (*types.SubmitResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.SubmitResponse{TransactionID: "tx-1", State: "STATE_NEW"}, nil
}

func (f *fakeRelayer) ChainID() int64 { return 137 }
func (f *fakeRelayer) ContractConfig() types.ContractConfig {
	c, _ := types.GetContractConfig(137)
	return c
}
func (f *fakeRelayer) ExpectedSafe() (common.Address, error) { return testSafe, nil }
func (f *fakeRelayer) GetDeployed(ctx context.Context, address string) (bool, error) {
	return true, f.err
}
func (f *fakeRelayer) GetRedeemablePositions(ctx context.Context, user string) ([]types.RedeemablePosition, error) {
	return []types.RedeemablePosition{{ConditionID: "0xc1", Title: user, CurrentValue: decimal.NewFromInt(2)}}, f.err
}
func (f *fakeRelayer) Deploy(ctx context.Context) (*types.SubmitResponse, error) { return f.submitted() }
func (f *fakeRelayer) Execute(ctx context.Context, txs []types.SafeTransaction, metadata string) (*types.SubmitResponse, error) {
	f.lastTxs = txs
	return f.submitted()
}
func (f *fakeRelayer) RedeemPositions(ctx context.Context, conditionID string, indexSets []uint64, metadata string) (*types.SubmitResponse, error) {
	f.lastSets = indexSets
	return f.submitted()
}
func (f *fakeRelayer) SplitPosition(ctx context.Context, conditionID, amount, metadata string) (*types.SubmitResponse, error) {
	f.lastAmount = amount
	return f.submitted()
}
func (f *fakeRelayer) MergePositions(ctx context.Context, conditionID, amount, metadata string) (*types.SubmitResponse, error) {
	f.lastAmount = amount
	return f.submitted()
}
func (f *fakeRelayer) RedeemAllPositions(ctx context.Context) ([]relayer.RedeemResult, error) {
	return f.results, f.err
}
func (f *fakeRelayer) GetTransaction(ctx context.Context, id string) ([]types.RelayerTransaction, error) {
	return f.txs, f.err
}
func (f *fakeRelayer) WaitForTransaction(ctx context.Context, id string, maxPolls int, interval time.Duration) (*types.RelayerTransaction, error) {
	f.waitPolls = maxPolls
	return f.waitResult, f.err
}

func newTestServer(t *testing.T, f *fakeRelayer, j Journal) http.Handler {
	t.Helper()
	s, err := New(Config{Relayer: f, Journal: j})
	require.NoError(t, err)
	return s.Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestHealthzAndRequestID(t *testing.T) {
	h := newTestServer(t, &fakeRelayer{}, nil)
	w, _ := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestSafe(t *testing.T) {
	h := newTestServer(t, &fakeRelayer{}, nil)
	w, body := do(t, h, http.MethodGet, "/api/safe", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testSafe.Hex(), body["safe"])
	assert.Equal(t, true, body["deployed"])
	contracts := body["contracts"].(map[string]any)
	assert.NotEmpty(t, contracts["safeFactory"])
}

func TestRedeemablePositionsDefaultsToSafe(t *testing.T) {
	h := newTestServer(t, &fakeRelayer{}, nil)
	w, body := do(t, h, http.MethodGet, "/api/positions/redeemable", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testSafe.Hex(), body["user"])

	_, body = do(t, h, http.MethodGet, "/api/positions/redeemable?user=0xabc", "")
	assert.Equal(t, "0xabc", body["user"])
}

func TestSubmitEndpoints(t *testing.T) {
	f := &fakeRelayer{}
	h := newTestServer(t, f, nil)

	w, body := do(t, h, http.MethodPost, "/api/deploy", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "tx-1", body["transactionID"])

	w, _ = do(t, h, http.MethodPost, "/api/execute", `{"transactions":[{"to":"0x1","operation":0,"data":"0x","value":"0"}],"metadata":"m"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, f.lastTxs, 1)
	assert.Equal(t, "0x1", f.lastTxs[0].To)

	w, _ = do(t, h, http.MethodPost, "/api/redeem", `{"conditionId":"0xc"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []uint64{1, 2}, f.lastSets)

	w, _ = do(t, h, http.MethodPost, "/api/split", `{"conditionId":"0xc","usdc":"2.5"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "2500000", f.lastAmount)

	w, _ = do(t, h, http.MethodPost, "/api/merge", `{"conditionId":"0xc","amount":"42"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "42", f.lastAmount)

	w, _ = do(t, h, http.MethodPost, "/api/split", `{"conditionId":"0xc","usdc":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/execute", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"config", relayer.ErrSafeNotDeployed, http.StatusBadRequest},
		{"param", errors.WithMessage(relayer.ErrInvalidParameter, "empty"), http.StatusBadRequest},
		{"api", &relayer.APIError{Method: "POST", Path: "/submit", StatusCode: 429, Body: "quota exceeded"}, http.StatusBadGateway},
		{"failed", &relayer.TransactionFailedError{TransactionID: "tx-9", State: types.StateFailed}, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeRelayer{err: tt.err}, nil)
			w, body := do(t, h, http.MethodPost, "/api/deploy", "")
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, body["error"])
			if tt.name == "api" {
				assert.Equal(t, float64(429), body["upstreamStatus"])
				assert.Equal(t, "quota exceeded", body["upstreamBody"])
			}
			if tt.name == "failed" {
				assert.Equal(t, "tx-9", body["transactionId"])
				assert.Equal(t, "STATE_FAILED", body["state"])
			}
		})
	}
}

func TestRedeemAll(t *testing.T) {
	f := &fakeRelayer{results: []relayer.RedeemResult{
		{Position: types.RedeemablePosition{ConditionID: "0xa"}, Response: &types.SubmitResponse{TransactionID: "t1"}},
		{Position: types.RedeemablePosition{ConditionID: "0xb"}, Err: errors.New("nope")},
	}}
	h := newTestServer(t, f, nil)
	w, body := do(t, h, http.MethodPost, "/api/redeem-all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["submitted"])
	assert.Equal(t, float64(1), body["failed"])
}

func TestTransactions(t *testing.T) {
	f := &fakeRelayer{}
	h := newTestServer(t, f, nil)

	w, _ := do(t, h, http.MethodGet, "/api/transactions/tx-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.txs = []types.RelayerTransaction{{TransactionID: "tx-1", State: "STATE_MINED"}}
	w, body := do(t, h, http.MethodGet, "/api/transactions/tx-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STATE_MINED", body["state"])
	assert.Equal(t, true, body["terminal"])

	w, body = do(t, h, http.MethodPost, "/api/transactions/tx-1/wait", `{"maxPolls":3}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, false, body["terminal"])
	assert.Equal(t, 3, f.waitPolls)

	f.waitResult = &types.RelayerTransaction{TransactionID: "tx-1", State: "STATE_CONFIRMED"}
	w, body = do(t, h, http.MethodPost, "/api/transactions/tx-1/wait", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STATE_CONFIRMED", body["state"])
}

func TestJournalEndpoints(t *testing.T) {
	h := newTestServer(t, &fakeRelayer{}, nil)
	w, _ := do(t, h, http.MethodGet, "/api/journal", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, h, http.MethodGet, "/api/redeemer/stats", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	j, err := journal.Open(t.TempDir() + "/journal.db")
	require.NoError(t, err)
	defer j.Close()
	ctx := context.Background()
	require.NoError(t, j.RecordSubmission(ctx,
		types.TransactionRequest{Type: types.TransactionTypeSafe, From: "0xf", To: "0xt", ProxyWallet: testSafe.Hex()},
		types.SubmitResponse{TransactionID: "tx-7", State: "STATE_NEW"}))
	require.NoError(t, j.RecordState(ctx, types.RelayerTransaction{TransactionID: "tx-7", State: "STATE_MINED"}))

	h = newTestServer(t, &fakeRelayer{}, j)
	w, body := do(t, h, http.MethodGet, "/api/journal?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["entries"], 1)

	w, body = do(t, h, http.MethodGet, "/api/journal/tx-7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["events"], 1)

	w, _ = do(t, h, http.MethodGet, "/api/journal/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRequiresRelayer(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
