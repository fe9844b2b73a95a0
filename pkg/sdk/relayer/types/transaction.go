package types

import "strconv"

// OperationType Safe 调用类型
type OperationType uint8

const (
	OperationCall         OperationType = 0
	OperationDelegateCall OperationType = 1
)

func (o OperationType) String() string {
	switch o {
	case OperationCall:
		return "call"
	case OperationDelegateCall:
		return "delegatecall"
	}
	return "operation(" + strconv.Itoa(int(o)) + ")"
}

// TransactionType relayer 交易类型标签
type TransactionType string

const (
	TransactionTypeSafe       TransactionType = "SAFE"
	TransactionTypeSafeCreate TransactionType = "SAFE-CREATE"
	TransactionTypeProxy      TransactionType = "PROXY"
)

// MaxMetadataLength relayer 允许的 metadata 最大长度
const MaxMetadataLength = 500

// SafeTransaction is one call executed by the Safe. Values are immutable:
// the With* methods return modified copies.
type SafeTransaction struct {
	To        string        `json:"to"`
	Operation OperationType `json:"operation"`
	Data      string        `json:"data"`
	Value     string        `json:"value"`
}

// NewSafeTransaction builds a plain call with zero value.
func NewSafeTransaction(to, data string) SafeTransaction {
	return SafeTransaction{To: to, Operation: OperationCall, Data: data, Value: "0"}
}

// WithOperation returns a copy using op.
func (t SafeTransaction) WithOperation(op OperationType) SafeTransaction {
	t.Operation = op
	return t
}

// WithValue returns a copy sending value wei.
func (t SafeTransaction) WithValue(value string) SafeTransaction {
	t.Value = value
	return t
}

// SignatureParams 签名参数；未设置的字段不会出现在 JSON 中
type SignatureParams struct {
	GasPrice       string `json:"gasPrice,omitempty"`
	Operation      string `json:"operation,omitempty"`
	SafeTxnGas     string `json:"safeTxnGas,omitempty"`
	BaseGas        string `json:"baseGas,omitempty"`
	GasToken       string `json:"gasToken,omitempty"`
	RefundReceiver string `json:"refundReceiver,omitempty"`

	PaymentToken    string `json:"paymentToken,omitempty"`
	Payment         string `json:"payment,omitempty"`
	PaymentReceiver string `json:"paymentReceiver,omitempty"`
}

// SafeExecutionParams gas 由 relayer 代付，所有 gas 字段为 0
func SafeExecutionParams(op OperationType) *SignatureParams {
	return &SignatureParams{
		GasPrice:       "0",
		Operation:      strconv.Itoa(int(op)),
		SafeTxnGas:     "0",
		BaseGas:        "0",
		GasToken:       ZeroAddress,
		RefundReceiver: ZeroAddress,
	}
}

// SafeCreateParams 无创建费用
func SafeCreateParams() *SignatureParams {
	return &SignatureParams{
		PaymentToken:    ZeroAddress,
		Payment:         "0",
		PaymentReceiver: ZeroAddress,
	}
}

// TransactionRequest POST /submit 请求体
type TransactionRequest struct {
	Type            TransactionType  `json:"type"`
	From            string           `json:"from"`
	To              string           `json:"to"`
	ProxyWallet     string           `json:"proxyWallet"`
	Data            string           `json:"data"`
	Signature       string           `json:"signature"`
	Value           string           `json:"value,omitempty"`
	Nonce           string           `json:"nonce,omitempty"`
	SignatureParams *SignatureParams `json:"signatureParams,omitempty"`
	Metadata        string           `json:"metadata,omitempty"`
}

// SubmitResponse POST /submit 响应
type SubmitResponse struct {
	TransactionID   string `json:"transactionID"`
	TransactionHash string `json:"transactionHash,omitempty"`
	State           string `json:"state,omitempty"`
}

// RelayerTransaction GET /transaction 返回的交易记录
type RelayerTransaction struct {
	TransactionID   string `json:"transactionID"`
	TransactionHash string `json:"transactionHash,omitempty"`
	From            string `json:"from,omitempty"`
	To              string `json:"to,omitempty"`
	ProxyAddress    string `json:"proxyAddress,omitempty"`
	Data            string `json:"data,omitempty"`
	State           string `json:"state,omitempty"`
	Type            string `json:"type,omitempty"`
	Metadata        string `json:"metadata,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// ParsedState returns the typed state of the transaction.
func (t RelayerTransaction) ParsedState() TransactionState {
	return ParseTransactionState(t.State)
}

// NonceResponse GET /nonce 响应
type NonceResponse struct {
	Nonce string `json:"nonce"`
}

// DeployedResponse GET /deployed 响应
type DeployedResponse struct {
	Deployed bool `json:"deployed"`
}

// TruncateMetadata 超过 500 字符时截断为 497 字符加 "..."（按 rune 截断，避免切坏 UTF-8）
func TruncateMetadata(s string) string {
	r := []rune(s)
	if len(r) <= MaxMetadataLength {
		return s
	}
	return string(r[:MaxMetadataLength-3]) + "..."
}
