package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"gopkg.in/yaml.v3"
)

// Config 中继客户端配置（YAML/JSON）
type Config struct {
	ChainID    int64  `yaml:"chain_id" json:"chain_id"`
	RelayerURL string `yaml:"relayer_url" json:"relayer_url"`
	DataAPIURL string `yaml:"data_api_url" json:"data_api_url"`

	Wallet  WalletConfig             `yaml:"wallet" json:"wallet"`
	Builder types.BuilderApiKeyCreds `yaml:"builder" json:"builder"`

	Poll struct {
		MaxPolls   int `yaml:"max_polls" json:"max_polls"`
		IntervalMs int `yaml:"interval_ms" json:"interval_ms"`
	} `yaml:"poll" json:"poll"`

	HTTP struct {
		TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	} `yaml:"http" json:"http"`

	Log LogConfig `yaml:"log" json:"log"`

	Journal struct {
		Path string `yaml:"path" json:"path"` // 为空则不记录
	} `yaml:"journal" json:"journal"`

	SecretStore struct {
		Path          string `yaml:"path" json:"path"`
		EncryptionKey string `yaml:"encryption_key" json:"encryption_key"` // 32 字节 hex 或 base64
	} `yaml:"secret_store" json:"secret_store"`

	Redeem RedeemConfig `yaml:"redeem" json:"redeem"`

	Gateway struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"gateway" json:"gateway"`
}

// WalletConfig 签名钱包：私钥或助记词二选一
type WalletConfig struct {
	PrivateKey     string `yaml:"private_key" json:"private_key"`
	Mnemonic       string `yaml:"mnemonic" json:"mnemonic"`
	DerivationPath string `yaml:"derivation_path" json:"derivation_path"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// RedeemConfig 自动赎回配置
type RedeemConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds" json:"interval_seconds"`
	PerMinute       int    `yaml:"per_minute" json:"per_minute"` // relayer 限制 15/min
	MaxPerCycle     int    `yaml:"max_per_cycle" json:"max_per_cycle"`
	StateDir        string `yaml:"state_dir" json:"state_dir"`
}

// Default 返回带默认值的配置
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.ChainID == 0 {
		c.ChainID = int64(types.ChainPolygon)
	}
	if c.RelayerURL == "" {
		c.RelayerURL = "https://relayer-v2.polymarket.com"
	}
	if c.DataAPIURL == "" {
		c.DataAPIURL = "https://data-api.polymarket.com"
	}
	if c.Wallet.DerivationPath == "" {
		c.Wallet.DerivationPath = "m/44'/60'/0'/0/0"
	}
	if c.Poll.MaxPolls <= 0 {
		c.Poll.MaxPolls = 30
	}
	if c.Poll.IntervalMs <= 0 {
		c.Poll.IntervalMs = 2000
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 7
	}
	if c.Redeem.IntervalSeconds <= 0 {
		c.Redeem.IntervalSeconds = 180
	}
	if c.Redeem.PerMinute <= 0 {
		c.Redeem.PerMinute = 12
	}
	if c.Redeem.MaxPerCycle <= 0 {
		c.Redeem.MaxPerCycle = 50
	}
	if c.Redeem.StateDir == "" {
		c.Redeem.StateDir = "data/redeem"
	}
	if c.Gateway.Addr == "" {
		c.Gateway.Addr = "127.0.0.1:8088"
	}
}

// LoadFromFile 从文件加载配置；filePath 为空时只使用默认值和环境变量。
// 优先级：环境变量 > 配置文件 > 默认值
func LoadFromFile(filePath string) (*Config, error) {
	c := &Config{}
	if strings.TrimSpace(filePath) != "" {
		if err := loadConfigFile(filePath, c); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	c.applyDefaults()
	return c, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string, out *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", filePath)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Wallet.PrivateKey = getEnv("POLY_PRIVATE_KEY", c.Wallet.PrivateKey)
	c.Wallet.Mnemonic = getEnv("POLY_MNEMONIC", c.Wallet.Mnemonic)
	c.Wallet.DerivationPath = getEnv("POLY_DERIVATION_PATH", c.Wallet.DerivationPath)
	c.Builder.Key = getEnv("POLY_BUILDER_API_KEY", c.Builder.Key)
	c.Builder.Secret = getEnv("POLY_BUILDER_SECRET", c.Builder.Secret)
	c.Builder.Passphrase = getEnv("POLY_BUILDER_PASSPHRASE", c.Builder.Passphrase)
	c.RelayerURL = getEnv("POLY_RELAYER_URL", c.RelayerURL)
	c.DataAPIURL = getEnv("POLY_DATA_API_URL", c.DataAPIURL)
	c.Log.Level = getEnv("POLY_LOG_LEVEL", c.Log.Level)
	c.ChainID = parseInt64Env("POLY_CHAIN_ID", c.ChainID)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if _, err := types.GetContractConfig(c.ChainID); err != nil {
		return fmt.Errorf("chain_id 无效: %w", err)
	}
	if c.Wallet.PrivateKey != "" && c.Wallet.Mnemonic != "" {
		return fmt.Errorf("wallet.private_key 与 wallet.mnemonic 只能配置一个")
	}
	if c.Redeem.PerMinute > 15 {
		return fmt.Errorf("redeem.per_minute 不能超过 relayer 限制 15/min，当前 %d", c.Redeem.PerMinute)
	}
	return nil
}

// HasWallet 是否配置了签名钱包
func (c *Config) HasWallet() bool {
	return strings.TrimSpace(c.Wallet.PrivateKey) != "" || strings.TrimSpace(c.Wallet.Mnemonic) != ""
}

// PollInterval 轮询间隔
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}

// HTTPTimeout 单次请求超时
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RedeemInterval 自动赎回周期
func (c *Config) RedeemInterval() time.Duration {
	return time.Duration(c.Redeem.IntervalSeconds) * time.Second
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseInt64Env 解析整数环境变量
func parseInt64Env(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
