package types

import "strings"

// BuilderApiKeyCreds Builder API 凭证（与 CLOB 交易凭证不同，不可混用）
type BuilderApiKeyCreds struct {
	Key        string `json:"key" yaml:"api_key"`
	Secret     string `json:"secret" yaml:"secret"`
	Passphrase string `json:"passphrase" yaml:"passphrase"`
}

// Valid 三个字段都非空
func (c *BuilderApiKeyCreds) Valid() bool {
	return c != nil &&
		strings.TrimSpace(c.Key) != "" &&
		strings.TrimSpace(c.Secret) != "" &&
		strings.TrimSpace(c.Passphrase) != ""
}
