package types

import (
	"fmt"
	"sort"
)

// Chain 链 ID
type Chain int64

const (
	ChainPolygon Chain = 137   // Polygon 主网
	ChainAmoy    Chain = 80002 // Amoy 测试网
)

const (
	// ZeroAddress 零地址（无创建费用、无 gas 退款接收方）
	ZeroAddress = "0x0000000000000000000000000000000000000000"

	// SafeFactoryName Safe 工厂 EIP-712 域名
	SafeFactoryName = "Polymarket Contract Proxy Factory"

	// SafeInitCodeHash Safe 代理合约 init code 的 keccak256，用于 CREATE2 地址推导
	SafeInitCodeHash = "0x2bce2127ff07fb632d16c8347c4ebf501f4841168bed00d9e6ef715ddb6fcecf"

	// CollateralTokenDecimals 抵押品代币精度（USDC = 6）
	CollateralTokenDecimals = 6
)

// ContractConfig 中继所需的合约地址
type ContractConfig struct {
	SafeFactory       string `json:"safeFactory"`       // Safe 代理工厂
	SafeMultisend     string `json:"safeMultisend"`     // MultiSend 合约
	ConditionalTokens string `json:"conditionalTokens"` // 条件代币框架（CTF）
	Collateral        string `json:"collateral"`        // 抵押品代币（USDC.e）
}

// 每个链一份配置，进程内只读
var contractConfigs = map[Chain]ContractConfig{
	ChainPolygon: {
		SafeFactory:       "0xaacFeEa03eb1561C4e67d661e40682Bd20E3541b",
		SafeMultisend:     "0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761",
		ConditionalTokens: "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045",
		Collateral:        "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
	},
	ChainAmoy: {
		SafeFactory:       "0xaacFeEa03eb1561C4e67d661e40682Bd20E3541b",
		SafeMultisend:     "0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761",
		ConditionalTokens: "0x69308FB512518e39F9b16112fA8d994F4e2Bf8bB",
		Collateral:        "0x9c4e1703476e875070ee25b56a58b008cfb8fa78",
	},
}

// UnsupportedChainError 不支持的链 ID
type UnsupportedChainError struct {
	ChainID int64
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("unsupported chain id: %d", e.ChainID)
}

// GetContractConfig 根据链 ID 获取合约配置，未知链直接报错，不回退默认值
func GetContractConfig(chainID int64) (ContractConfig, error) {
	cfg, ok := contractConfigs[Chain(chainID)]
	if !ok {
		return ContractConfig{}, &UnsupportedChainError{ChainID: chainID}
	}
	return cfg, nil
}

// SupportedChains 返回所有已配置的链 ID（升序）
func SupportedChains() []int64 {
	out := make([]int64, 0, len(contractConfigs))
	for c := range contractConfigs {
		out = append(out, int64(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
