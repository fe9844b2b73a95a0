package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Keys under which relayer secrets are stored.
const (
	KeyPrivateKey        = "wallet/private_key"
	KeyMnemonic          = "wallet/mnemonic"
	KeyDerivationPath    = "wallet/derivation_path"
	KeyBuilderAPIKey     = "builder/api_key"
	KeyBuilderSecret     = "builder/secret"
	KeyBuilderPassphrase = "builder/passphrase"
)

// KnownKeys lists every key the relayer reads.
var KnownKeys = []string{
	KeyPrivateKey,
	KeyMnemonic,
	KeyDerivationPath,
	KeyBuilderAPIKey,
	KeyBuilderSecret,
	KeyBuilderPassphrase,
}

// Store is a small encrypted-at-rest KV wrapper (Badger).
// Encryption is provided by Badger options (value log + key registry), not by this wrapper.
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 bytes; if nil, DB is opened without encryption (not recommended)
	ReadOnly      bool
	InMemory      bool
}

func Open(opts OpenOptions) (*Store, error) {
	if !opts.InMemory && strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}
	path := opts.Path
	if opts.InMemory {
		path = ""
	}
	bopts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithInMemory(opts.InMemory).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// Badger requires index cache for encrypted workloads
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func normalizeKey(key string) ([]byte, error) {
	k := []byte(strings.TrimSpace(key))
	if len(k) == 0 {
		return nil, errors.New("secretstore: key is empty")
	}
	return k, nil
}

// GetString returns the value and whether the key exists.
func (s *Store) GetString(key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, errors.New("secretstore: not opened")
	}
	k, err := normalizeKey(key)
	if err != nil {
		return "", false, err
	}
	var (
		out   string
		found bool
	)
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, err
	}
	return out, found, nil
}

func (s *Store) SetString(key string, val string) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	v := []byte(val)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, v)
	})
}

// Secrets is the relayer's signing and builder material.
type Secrets struct {
	PrivateKey        string
	Mnemonic          string
	DerivationPath    string
	BuilderAPIKey     string
	BuilderSecret     string
	BuilderPassphrase string
}

// Load reads every known key; missing keys stay empty.
func (s *Store) Load() (Secrets, error) {
	var out Secrets
	fields := map[string]*string{
		KeyPrivateKey:        &out.PrivateKey,
		KeyMnemonic:          &out.Mnemonic,
		KeyDerivationPath:    &out.DerivationPath,
		KeyBuilderAPIKey:     &out.BuilderAPIKey,
		KeyBuilderSecret:     &out.BuilderSecret,
		KeyBuilderPassphrase: &out.BuilderPassphrase,
	}
	for key, dst := range fields {
		v, ok, err := s.GetString(key)
		if err != nil {
			return Secrets{}, fmt.Errorf("secretstore: read %s: %w", key, err)
		}
		if ok {
			*dst = v
		}
	}
	return out, nil
}

// ParseKey expects 32 bytes (base64 or hex). Returns nil if input is empty.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	// hex first so a 64-char hex string is not misread as base64
	if b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
