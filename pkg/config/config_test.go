package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFromFileYAML(t *testing.T) {
	p := writeFile(t, "relayer.yaml", `
chain_id: 80002
relayer_url: https://relayer.example.com
wallet:
  private_key: "0xabc"
builder:
  api_key: k
  secret: s
  passphrase: p
poll:
  max_polls: 10
redeem:
  per_minute: 6
`)
	c, err := LoadFromFile(p)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.ChainID != 80002 || c.RelayerURL != "https://relayer.example.com" {
		t.Errorf("chain/url = %d %s", c.ChainID, c.RelayerURL)
	}
	if c.Builder.Key != "k" || c.Builder.Secret != "s" || c.Builder.Passphrase != "p" {
		t.Errorf("builder = %+v", c.Builder)
	}
	if c.Poll.MaxPolls != 10 || c.PollInterval() != 2*time.Second {
		t.Errorf("poll = %d %v", c.Poll.MaxPolls, c.PollInterval())
	}
	if c.Redeem.PerMinute != 6 || c.Redeem.MaxPerCycle != 50 {
		t.Errorf("redeem = %+v", c.Redeem)
	}
	if !c.HasWallet() {
		t.Error("HasWallet = false")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFromFileJSON(t *testing.T) {
	p := writeFile(t, "relayer.json", `{"chain_id":137,"wallet":{"mnemonic":"a b c"}}`)
	c, err := LoadFromFile(p)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Wallet.Mnemonic != "a b c" || c.Wallet.DerivationPath != "m/44'/60'/0'/0/0" {
		t.Errorf("wallet = %+v", c.Wallet)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeFile(t, "relayer.yaml", "chain_id: 137\nbuilder:\n  api_key: from-file\n")
	t.Setenv("POLY_BUILDER_API_KEY", "from-env")
	t.Setenv("POLY_CHAIN_ID", "80002")
	c, err := LoadFromFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Builder.Key != "from-env" || c.ChainID != 80002 {
		t.Errorf("env not applied: key=%s chain=%d", c.Builder.Key, c.ChainID)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.ChainID = 1
	if err := c.Validate(); err == nil {
		t.Error("unsupported chain should fail")
	}

	c = Default()
	c.Wallet.PrivateKey = "x"
	c.Wallet.Mnemonic = "y"
	if err := c.Validate(); err == nil {
		t.Error("private key and mnemonic together should fail")
	}

	c = Default()
	c.Redeem.PerMinute = 20
	if err := c.Validate(); err == nil {
		t.Error("per_minute above relayer quota should fail")
	}
}

func TestUnsupportedExtension(t *testing.T) {
	p := writeFile(t, "relayer.toml", "chain_id = 137")
	if _, err := LoadFromFile(p); err == nil {
		t.Error("expected error for .toml")
	}
}
