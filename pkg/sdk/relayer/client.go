// Package relayer submits gas-sponsored Safe transactions to the Polymarket
// relayer and tracks them to a terminal state.
//
// The client owns one signer, one set of builder credentials and the contract
// configuration of its chain for its whole lifetime. It holds no other mutable
// state: the Safe nonce is fetched on every Execute, so concurrent callers are
// not serialized and must coordinate writes to the same Safe themselves.
package relayer

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"strings"
	"time"

	sdkhttp "github.com/betbot/polyrelay/pkg/sdk/http"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/abienc"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/ctf"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/signing"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRelayerURL = "https://relayer-v2.polymarket.com"
	DefaultDataAPIURL = "https://data-api.polymarket.com"

	DefaultMaxPolls     = 30
	DefaultPollInterval = 2 * time.Second
)

// Recorder receives every submission and every polled state. The journal
// package provides a sqlite implementation.
type Recorder interface {
	RecordSubmission(ctx context.Context, req types.TransactionRequest, resp types.SubmitResponse) error
	RecordState(ctx context.Context, tx types.RelayerTransaction) error
}

// Client talks to the relayer (and the data API for position lookups).
type Client struct {
	http    *sdkhttp.Client
	dataAPI *sdkhttp.Client

	chainID   int64
	contracts types.ContractConfig
	signer    signing.Signer
	creds     *types.BuilderApiKeyCreds
	safe      common.Address

	recorder     Recorder
	maxPolls     int
	pollInterval time.Duration
	now          func() time.Time
	log          *logrus.Entry
}

type options struct {
	dataAPIURL   string
	timeout      time.Duration
	recorder     Recorder
	maxPolls     int
	pollInterval time.Duration
	now          func() time.Time
	log          *logrus.Entry
}

// Option customises a Client.
type Option func(*options)

// WithDataAPIURL overrides the data API base URL.
func WithDataAPIURL(url string) Option { return func(o *options) { o.dataAPIURL = url } }

// WithHTTPTimeout sets the per-request timeout for both APIs.
func WithHTTPTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithRecorder journals submissions and polled states.
func WithRecorder(r Recorder) Option { return func(o *options) { o.recorder = r } }

// WithPollDefaults changes the defaults WaitForTransaction uses when called
// with non-positive arguments.
func WithPollDefaults(maxPolls int, interval time.Duration) Option {
	return func(o *options) {
		o.maxPolls = maxPolls
		o.pollInterval = interval
	}
}

// WithClock replaces the clock used for builder auth timestamps.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithLogger sets the log entry used by the client.
func WithLogger(l *logrus.Entry) Option { return func(o *options) { o.log = l } }

// NewClient builds a relayer client for chainID. signer and creds may be nil
// for read-only use; operations that need them fail with ErrSignerRequired or
// ErrCredentialsRequired before touching the network.
func NewClient(relayerURL string, chainID int64, signer signing.Signer, creds *types.BuilderApiKeyCreds, opts ...Option) (*Client, error) {
	contracts, err := types.GetContractConfig(chainID)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	o := options{
		dataAPIURL:   DefaultDataAPIURL,
		timeout:      sdkhttp.DefaultTimeout,
		maxPolls:     DefaultMaxPolls,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.WithField("component", "relayer")
	}
	if o.maxPolls <= 0 {
		o.maxPolls = DefaultMaxPolls
	}
	if o.pollInterval <= 0 {
		o.pollInterval = DefaultPollInterval
	}

	relayerURL = strings.TrimRight(strings.TrimSpace(relayerURL), "/")
	if relayerURL == "" {
		relayerURL = DefaultRelayerURL
	}

	c := &Client{
		http:         sdkhttp.NewClient(relayerURL, sdkhttp.WithTimeout(o.timeout)),
		dataAPI:      sdkhttp.NewClient(o.dataAPIURL, sdkhttp.WithTimeout(o.timeout)),
		chainID:      chainID,
		contracts:    contracts,
		signer:       signer,
		creds:        creds,
		recorder:     o.recorder,
		maxPolls:     o.maxPolls,
		pollInterval: o.pollInterval,
		now:          o.now,
		log:          o.log.WithField("chain", chainID),
	}
	if signer != nil {
		c.safe = signing.DeriveSafeAddress(signer.Address(), common.HexToAddress(contracts.SafeFactory))
	}
	return c, nil
}

// ChainID returns the configured chain.
func (c *Client) ChainID() int64 { return c.chainID }

// ContractConfig returns the contract addresses of the configured chain.
func (c *Client) ContractConfig() types.ContractConfig { return c.contracts }

// RelayerURL returns the normalised relayer base URL.
func (c *Client) RelayerURL() string { return c.http.BaseURL() }

// ExpectedSafe returns the Safe address derived from the signer.
func (c *Client) ExpectedSafe() (common.Address, error) {
	if c.signer == nil {
		return common.Address{}, ErrSignerRequired
	}
	return c.safe, nil
}

// GetDeployed reports whether a Safe is deployed at address.
func (c *Client) GetDeployed(ctx context.Context, address string) (bool, error) {
	var out types.DeployedResponse
	_, err := c.http.DoRequest(ctx, http.MethodGet, "/deployed", &sdkhttp.RequestOptions{
		Params: map[string]any{"address": address},
	}, &out)
	if err != nil {
		return false, apiError(err)
	}
	return out.Deployed, nil
}

// GetNonce returns the current nonce for signerAddress. The relayer resolves
// the EOA to its Safe internally.
func (c *Client) GetNonce(ctx context.Context, signerAddress string, txType types.TransactionType) (string, error) {
	var out types.NonceResponse
	_, err := c.http.DoRequest(ctx, http.MethodGet, "/nonce", &sdkhttp.RequestOptions{
		Params: map[string]any{"address": signerAddress, "type": string(txType)},
	}, &out)
	if err != nil {
		return "", apiError(err)
	}
	return out.Nonce, nil
}

// GetTransaction fetches a transaction by relayer id. The relayer answers with
// an array that is empty while the id is unknown.
func (c *Client) GetTransaction(ctx context.Context, id string) ([]types.RelayerTransaction, error) {
	var out []types.RelayerTransaction
	_, err := c.http.DoRequest(ctx, http.MethodGet, "/transaction", &sdkhttp.RequestOptions{
		Params: map[string]any{"id": id},
	}, &out)
	if err != nil {
		return nil, apiError(err)
	}
	return out, nil
}

// Deploy creates the signer's Safe through the factory. It fails with
// ErrSafeAlreadyDeployed if the Safe exists.
func (c *Client) Deploy(ctx context.Context) (*types.SubmitResponse, error) {
	if err := c.requireWriter(); err != nil {
		return nil, err
	}
	safe := c.safe.Hex()

	deployed, err := c.GetDeployed(ctx, safe)
	if err != nil {
		return nil, err
	}
	if deployed {
		return nil, ErrSafeAlreadyDeployed
	}

	digest := signing.CreateProxyDigest(c.chainID, common.HexToAddress(c.contracts.SafeFactory))
	sig, err := signing.SignSafeDigest(c.signer, digest)
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	req := types.TransactionRequest{
		Type:            types.TransactionTypeSafeCreate,
		From:            c.signer.Address().Hex(),
		To:              c.contracts.SafeFactory,
		ProxyWallet:     safe,
		Data:            "0x",
		Signature:       sig,
		SignatureParams: types.SafeCreateParams(),
	}
	c.log.WithField("safe", safe).Info("submitting safe deployment")
	return c.submit(ctx, req)
}

// Execute runs txs from the Safe. More than one transaction is batched through
// MultiSend. The Safe must already be deployed.
func (c *Client) Execute(ctx context.Context, txs []types.SafeTransaction, metadata string) (*types.SubmitResponse, error) {
	if err := c.requireWriter(); err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, invalidParam("no transactions to execute")
	}
	tx, err := AggregateTransactions(txs, c.contracts.SafeMultisend)
	if err != nil {
		return nil, err
	}
	data, err := decodeCallData(tx.Data)
	if err != nil {
		return nil, invalidParam("call data: %v", err)
	}

	safe := c.safe.Hex()
	deployed, err := c.GetDeployed(ctx, safe)
	if err != nil {
		return nil, err
	}
	if !deployed {
		return nil, ErrSafeNotDeployed
	}

	from := c.signer.Address().Hex()
	nonceStr, err := c.GetNonce(ctx, from, types.TransactionTypeSafe)
	if err != nil {
		return nil, err
	}
	nonce, ok := new(big.Int).SetString(strings.TrimSpace(nonceStr), 10)
	if !ok || nonce.Sign() < 0 {
		return nil, &APIError{Method: http.MethodGet, Path: "/nonce", StatusCode: http.StatusOK, Body: nonceStr}
	}

	value := abienc.ParseUint(tx.Value)
	safeTx := signing.NewSponsoredSafeTx(
		common.HexToAddress(tx.To),
		value,
		data,
		tx.Operation,
		nonce,
	)
	digest := signing.SafeTxDigest(c.chainID, c.safe, safeTx)
	sig, err := signing.SignSafeDigest(c.signer, digest)
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	req := types.TransactionRequest{
		Type:            types.TransactionTypeSafe,
		From:            from,
		To:              tx.To,
		ProxyWallet:     safe,
		Data:            hexutil.Encode(data),
		Signature:       sig,
		Value:           value.String(),
		Nonce:           nonce.String(),
		SignatureParams: types.SafeExecutionParams(tx.Operation),
		Metadata:        types.TruncateMetadata(metadata),
	}
	c.log.WithFields(logrus.Fields{
		"safe":   safe,
		"calls":  len(txs),
		"nonce":  req.Nonce,
		"method": describeCall(txs),
	}).Info("submitting safe transaction")
	return c.submit(ctx, req)
}

// RedeemPositions redeems resolved positions of conditionID for the given
// index sets.
func (c *Client) RedeemPositions(ctx context.Context, conditionID string, indexSets []uint64, metadata string) (*types.SubmitResponse, error) {
	data := ctf.EncodeRedeemPositions(c.contracts.Collateral, conditionID, indexSets)
	return c.Execute(ctx, []types.SafeTransaction{types.NewSafeTransaction(c.contracts.ConditionalTokens, data)}, metadata)
}

// SplitPosition splits amount collateral (base units) into a full YES/NO set.
func (c *Client) SplitPosition(ctx context.Context, conditionID, amount, metadata string) (*types.SubmitResponse, error) {
	data := ctf.EncodeSplitPosition(c.contracts.Collateral, conditionID, amount)
	return c.Execute(ctx, []types.SafeTransaction{types.NewSafeTransaction(c.contracts.ConditionalTokens, data)}, metadata)
}

// MergePositions merges amount of a full YES/NO set back into collateral.
func (c *Client) MergePositions(ctx context.Context, conditionID, amount, metadata string) (*types.SubmitResponse, error) {
	data := ctf.EncodeMergePositions(c.contracts.Collateral, conditionID, amount)
	return c.Execute(ctx, []types.SafeTransaction{types.NewSafeTransaction(c.contracts.ConditionalTokens, data)}, metadata)
}

// Approve lets spender move amount of token from the Safe.
func (c *Client) Approve(ctx context.Context, token, spender, amount string) (*types.SubmitResponse, error) {
	data := ctf.EncodeApprove(spender, amount)
	return c.Execute(ctx, []types.SafeTransaction{types.NewSafeTransaction(token, data)}, "approve")
}

// ApproveMax grants spender an unlimited allowance on token.
func (c *Client) ApproveMax(ctx context.Context, token, spender string) (*types.SubmitResponse, error) {
	data := ctf.EncodeApproveMax(spender)
	return c.Execute(ctx, []types.SafeTransaction{types.NewSafeTransaction(token, data)}, "approve max")
}

func (c *Client) requireWriter() error {
	if c.signer == nil {
		return ErrSignerRequired
	}
	if !c.creds.Valid() {
		return ErrCredentialsRequired
	}
	return nil
}

func (c *Client) submit(ctx context.Context, req types.TransactionRequest) (*types.SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal transaction request")
	}
	const path = "/submit"
	headers, err := signing.BuildBuilderHeadersAt(c.creds, c.now(), http.MethodPost, path, string(body))
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	var out types.SubmitResponse
	if _, err := c.http.DoRequest(ctx, http.MethodPost, path, &sdkhttp.RequestOptions{
		Headers: headers,
		Data:    string(body),
	}, &out); err != nil {
		c.log.WithError(err).WithField("type", req.Type).Warn("submit failed")
		return nil, apiError(err)
	}

	c.log.WithFields(logrus.Fields{
		"id":    out.TransactionID,
		"hash":  out.TransactionHash,
		"state": out.State,
		"type":  req.Type,
	}).Info("transaction submitted")

	if c.recorder != nil {
		if err := c.recorder.RecordSubmission(ctx, req, out); err != nil {
			c.log.WithError(err).Warn("journal submission failed")
		}
	}
	return &out, nil
}

func describeCall(txs []types.SafeTransaction) string {
	names := make([]string, 0, len(txs))
	for _, tx := range txs {
		name := ctf.MethodName(tx.Data)
		if name == "" {
			name = "call"
		}
		names = append(names, name)
	}
	return strings.Join(names, ",")
}
