package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/betbot/polyrelay/pkg/config"
	"github.com/betbot/polyrelay/pkg/logger"
	"github.com/betbot/polyrelay/pkg/sdk/relayer"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/journal"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/signing"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/betbot/polyrelay/pkg/secretstore"
	"github.com/betbot/polyrelay/pkg/shutdown"
	"github.com/pkg/errors"
)

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	client   *relayer.Client
	journal  *journal.Journal
	shutdown *shutdown.Manager
}

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadFromFile(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := mergeSecretStore(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Console:    os.Stderr,
	}); err != nil {
		return nil, errors.Wrap(err, "init logger")
	}
	return cfg, nil
}

// mergeSecretStore fills wallet and builder fields left empty by file and
// environment from the encrypted secret store, when one is configured.
func mergeSecretStore(cfg *config.Config) error {
	path := strings.TrimSpace(cfg.SecretStore.Path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	key, err := secretstore.ParseKey(getenv("POLY_SECRET_KEY", cfg.SecretStore.EncryptionKey))
	if err != nil {
		return errors.Wrap(err, "secret store key")
	}
	ss, err := secretstore.Open(secretstore.OpenOptions{Path: path, EncryptionKey: key, ReadOnly: true})
	if err != nil {
		return errors.Wrap(err, "open secret store")
	}
	defer ss.Close()

	sec, err := ss.Load()
	if err != nil {
		return err
	}
	applySecrets(cfg, sec)
	return nil
}

func applySecrets(cfg *config.Config, sec secretstore.Secrets) {
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	if !cfg.HasWallet() {
		fill(&cfg.Wallet.PrivateKey, sec.PrivateKey)
		if cfg.Wallet.PrivateKey == "" {
			fill(&cfg.Wallet.Mnemonic, sec.Mnemonic)
			if sec.DerivationPath != "" && sec.Mnemonic != "" {
				cfg.Wallet.DerivationPath = sec.DerivationPath
			}
		}
	}
	fill(&cfg.Builder.Key, sec.BuilderAPIKey)
	fill(&cfg.Builder.Secret, sec.BuilderSecret)
	fill(&cfg.Builder.Passphrase, sec.BuilderPassphrase)
}

func buildSigner(w config.WalletConfig) (signing.Signer, error) {
	switch {
	case strings.TrimSpace(w.PrivateKey) != "":
		return signing.NewPrivateKeySigner(w.PrivateKey)
	case strings.TrimSpace(w.Mnemonic) != "":
		return signing.NewMnemonicSigner(w.Mnemonic, w.DerivationPath)
	default:
		return nil, nil
	}
}

func newApp(g *globalFlags) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, shutdown: shutdown.NewManager()}

	signer, err := buildSigner(cfg.Wallet)
	if err != nil {
		return nil, errors.Wrap(err, "build signer")
	}

	opts := []relayer.Option{
		relayer.WithDataAPIURL(cfg.DataAPIURL),
		relayer.WithHTTPTimeout(cfg.HTTPTimeout()),
		relayer.WithPollDefaults(cfg.Poll.MaxPolls, cfg.PollInterval()),
		relayer.WithLogger(logger.Component("relayer")),
	}
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		a.journal = j
		opts = append(opts, relayer.WithRecorder(j))
		a.shutdown.OnShutdown("journal", func(context.Context) error { return j.Close() })
	}

	var creds *types.BuilderApiKeyCreds
	if cfg.Builder.Valid() {
		c := cfg.Builder
		creds = &c
	}
	a.client, err = relayer.NewClient(cfg.RelayerURL, cfg.ChainID, signer, creds, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.shutdown.Shutdown(ctx)
	_ = logger.Close()
}

// submitAndMaybeWait prints the submit response and, when wait is set, polls
// the transaction to a terminal state.
func (a *app) submitAndMaybeWait(ctx context.Context, resp *types.SubmitResponse, wait bool) error {
	if err := printJSON(resp); err != nil {
		return err
	}
	if !wait {
		return nil
	}
	tx, err := a.client.WaitForTransaction(ctx, resp.TransactionID, 0, 0)
	if err != nil {
		return err
	}
	if tx == nil {
		return fmt.Errorf("transaction %s not final after %d polls", resp.TransactionID, a.cfg.Poll.MaxPolls)
	}
	return printJSON(tx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
