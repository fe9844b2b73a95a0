package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/pkg/errors"
)

// Builder auth header names.
const (
	HeaderBuilderAPIKey     = "POLY_BUILDER_API_KEY"
	HeaderBuilderSignature  = "POLY_BUILDER_SIGNATURE"
	HeaderBuilderTimestamp  = "POLY_BUILDER_TIMESTAMP"
	HeaderBuilderPassphrase = "POLY_BUILDER_PASSPHRASE"
)

// BuildBuilderSignature 计算 HMAC-SHA256(secret, timestamp+method+path+body)
// 输出为标准 base64，再把 '+' 换成 '-'、'/' 换成 '_'，保留 '=' 填充
func BuildBuilderSignature(secret, timestamp, method, path, body string) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(timestamp + method + path + body))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	sig = strings.ReplaceAll(sig, "+", "-")
	sig = strings.ReplaceAll(sig, "/", "_")
	return sig, nil
}

// 先按标准 base64 解码，失败再按 URL-safe 解码
func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("builder secret is empty")
	}
	if b, err := base64.StdEncoding.DecodeString(secret); err == nil {
		return b, nil
	}
	b, err := base64.URLEncoding.DecodeString(secret)
	if err != nil {
		return nil, errors.Wrap(err, "decode builder secret")
	}
	return b, nil
}

// BuildBuilderHeaders 生成 builder 鉴权头，每次调用使用新的时间戳
func BuildBuilderHeaders(creds *types.BuilderApiKeyCreds, method, path, body string) (map[string]string, error) {
	return BuildBuilderHeadersAt(creds, time.Now(), method, path, body)
}

// BuildBuilderHeadersAt 使用指定时间生成鉴权头（便于测试）
func BuildBuilderHeadersAt(creds *types.BuilderApiKeyCreds, at time.Time, method, path, body string) (map[string]string, error) {
	if !creds.Valid() {
		return nil, errors.New("builder credentials are incomplete")
	}
	ts := strconv.FormatInt(at.Unix(), 10)
	sig, err := BuildBuilderSignature(creds.Secret, ts, method, path, body)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		HeaderBuilderAPIKey:     creds.Key,
		HeaderBuilderSignature:  sig,
		HeaderBuilderTimestamp:  ts,
		HeaderBuilderPassphrase: creds.Passphrase,
	}, nil
}
