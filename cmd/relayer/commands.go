package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/betbot/polyrelay/internal/gateway"
	"github.com/betbot/polyrelay/pkg/logger"
	"github.com/betbot/polyrelay/pkg/persistence"
	"github.com/betbot/polyrelay/pkg/sdk/redeem"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/betbot/polyrelay/pkg/secretstore"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
}

func runSafe(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("safe", flag.ExitOnError)
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	safe, err := a.client.ExpectedSafe()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	deployed, err := a.client.GetDeployed(ctx, safe.Hex())
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"chainId":   a.client.ChainID(),
		"safe":      safe.Hex(),
		"deployed":  deployed,
		"contracts": a.client.ContractConfig(),
	})
}

func runDeploy(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ExitOnError)
	wait := fs.Bool("wait", false, "poll until the transaction is final")
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()
	resp, err := a.client.Deploy(ctx)
	if err != nil {
		return err
	}
	return a.submitAndMaybeWait(ctx, resp, *wait)
}

func parseIndexSets(raw string) ([]uint64, error) {
	var out []uint64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("invalid index set %q", part)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one index set is required")
	}
	return out, nil
}

func runRedeem(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("redeem", flag.ExitOnError)
	condition := fs.String("condition", "", "condition id (bytes32 hex)")
	indexSets := fs.String("index-sets", "1,2", "comma separated index sets")
	metadata := fs.String("metadata", "", "relayer metadata")
	wait := fs.Bool("wait", false, "poll until the transaction is final")
	_ = fs.Parse(args)

	sets, err := parseIndexSets(*indexSets)
	if err != nil {
		return err
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()
	resp, err := a.client.RedeemPositions(ctx, *condition, sets, *metadata)
	if err != nil {
		return err
	}
	return a.submitAndMaybeWait(ctx, resp, *wait)
}

// resolveAmount returns base units from either -amount or -usdc.
func resolveAmount(amount, usdc string) (string, error) {
	amount, usdc = strings.TrimSpace(amount), strings.TrimSpace(usdc)
	switch {
	case amount != "" && usdc != "":
		return "", errors.New("use either -amount or -usdc, not both")
	case usdc != "":
		return types.USDCToBaseUnits(usdc)
	case amount != "":
		return amount, nil
	default:
		return "", errors.New("-amount or -usdc is required")
	}
}

func runAmountCommand(g *globalFlags, name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	condition := fs.String("condition", "", "condition id (bytes32 hex)")
	amount := fs.String("amount", "", "amount in base units")
	usdc := fs.String("usdc", "", "amount in USDC, converted to 6-decimal base units")
	metadata := fs.String("metadata", "", "relayer metadata")
	wait := fs.Bool("wait", false, "poll until the transaction is final")
	_ = fs.Parse(args)

	units, err := resolveAmount(*amount, *usdc)
	if err != nil {
		return err
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()
	call := a.client.SplitPosition
	if name == "merge" {
		call = a.client.MergePositions
	}
	resp, err := call(ctx, *condition, units, *metadata)
	if err != nil {
		return err
	}
	return a.submitAndMaybeWait(ctx, resp, *wait)
}

func runSplit(g *globalFlags, args []string) error { return runAmountCommand(g, "split", args) }
func runMerge(g *globalFlags, args []string) error { return runAmountCommand(g, "merge", args) }

func runApprove(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	token := fs.String("token", "", "ERC-20 token (default: chain collateral)")
	spender := fs.String("spender", "", "spender (default: conditional tokens)")
	amount := fs.String("amount", "", "amount in base units")
	usdc := fs.String("usdc", "", "amount in USDC")
	approveMax := fs.Bool("max", false, "approve the maximum uint256 amount")
	wait := fs.Bool("wait", false, "poll until the transaction is final")
	_ = fs.Parse(args)

	var units string
	if !*approveMax {
		var err error
		if units, err = resolveAmount(*amount, *usdc); err != nil {
			return err
		}
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	contracts := a.client.ContractConfig()
	if *token == "" {
		*token = contracts.Collateral
	}
	if *spender == "" {
		*spender = contracts.ConditionalTokens
	}

	ctx, cancel := signalContext()
	defer cancel()
	var resp *types.SubmitResponse
	if *approveMax {
		resp, err = a.client.ApproveMax(ctx, *token, *spender)
	} else {
		resp, err = a.client.Approve(ctx, *token, *spender, units)
	}
	if err != nil {
		return err
	}
	return a.submitAndMaybeWait(ctx, resp, *wait)
}

func runWait(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("wait", flag.ExitOnError)
	id := fs.String("id", "", "relayer transaction id")
	maxPolls := fs.Int("max-polls", 0, "number of polls (0 = config default)")
	interval := fs.Duration("interval", 0, "delay between polls (0 = config default)")
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()
	tx, err := a.client.WaitForTransaction(ctx, *id, *maxPolls, *interval)
	if err != nil {
		return err
	}
	if tx == nil {
		return printJSON(map[string]any{"transactionId": *id, "terminal": false})
	}
	return printJSON(tx)
}

func runRedeemAll(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("redeem-all", flag.ExitOnError)
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()
	results, err := a.client.RedeemAllPositions(ctx)
	if err != nil {
		return err
	}
	type row struct {
		ConditionID   string `json:"conditionId"`
		Title         string `json:"title"`
		TransactionID string `json:"transactionId,omitempty"`
		Error         string `json:"error,omitempty"`
	}
	rows := make([]row, 0, len(results))
	for _, r := range results {
		out := row{ConditionID: r.Position.ConditionID, Title: r.Position.Title}
		if r.Response != nil {
			out.TransactionID = r.Response.TransactionID
		}
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
		rows = append(rows, out)
	}
	return printJSON(rows)
}

func (a *app) newRedeemer() (*redeem.AutoRedeemer, error) {
	safe, err := a.client.ExpectedSafe()
	if err != nil {
		return nil, err
	}
	store := persistence.NewJSONFileService(a.cfg.Redeem.StateDir).NewStore("redeem", safe.Hex(), "submitted")
	return redeem.NewAutoRedeemer(a.client, redeem.Options{
		Interval:    a.cfg.RedeemInterval(),
		PerMinute:   a.cfg.Redeem.PerMinute,
		MaxPerCycle: a.cfg.Redeem.MaxPerCycle,
		Store:       store,
	})
}

func runAutoRedeem(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("auto-redeem", flag.ExitOnError)
	once := fs.Bool("once", false, "run a single cycle and exit")
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.newRedeemer()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if *once {
		res, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	if err := r.Start(ctx); err != nil {
		return err
	}
	a.shutdown.OnShutdown("auto-redeem", func(context.Context) error {
		r.Stop()
		return nil
	})
	<-ctx.Done()
	logger.Infof("received signal, shutting down")
	return nil
}

func runServe(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default: config gateway.addr)")
	autoRedeem := fs.Bool("auto-redeem", false, "also run the auto-redeem worker")
	_ = fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	cfg := gateway.Config{Relayer: a.client, Logger: logger.Component("gateway")}
	if a.journal != nil {
		cfg.Journal = a.journal
	}
	if *autoRedeem {
		r, err := a.newRedeemer()
		if err != nil {
			return err
		}
		if err := r.Start(ctx); err != nil {
			return err
		}
		a.shutdown.OnShutdown("auto-redeem", func(context.Context) error {
			r.Stop()
			return nil
		})
		cfg.Redeemer = r
	}

	srv, err := gateway.New(cfg)
	if err != nil {
		return err
	}
	listen := *addr
	if listen == "" {
		listen = a.cfg.Gateway.Addr
	}
	return srv.Serve(ctx, listen)
}

// envToSecretKey maps .env names to secret store keys.
var envToSecretKey = map[string]string{
	"POLY_PRIVATE_KEY":        secretstore.KeyPrivateKey,
	"POLY_MNEMONIC":           secretstore.KeyMnemonic,
	"POLY_DERIVATION_PATH":    secretstore.KeyDerivationPath,
	"POLY_BUILDER_API_KEY":    secretstore.KeyBuilderAPIKey,
	"POLY_BUILDER_SECRET":     secretstore.KeyBuilderSecret,
	"POLY_BUILDER_PASSPHRASE": secretstore.KeyBuilderPassphrase,
}

// secretsFromEnv picks the known relayer secrets out of a parsed .env file.
func secretsFromEnv(kv map[string]string) map[string]string {
	out := make(map[string]string)
	for envName, key := range envToSecretKey {
		if v := strings.TrimSpace(kv[envName]); v != "" {
			out[key] = v
		}
	}
	return out
}

func runSecretsPut(g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("secrets-put", flag.ExitOnError)
	in := fs.String("in", ".env", "input .env file")
	dbPath := fs.String("badger", getenv("POLY_SECRET_DB", "data/secrets.badger"), "badger secrets db path")
	secretKey := fs.String("secret-key", getenv("POLY_SECRET_KEY", ""), "badger encryption key (32 bytes base64/hex)")
	_ = fs.Parse(args)

	key, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		return err
	}
	if key == nil {
		return errors.New("secret key is required: set POLY_SECRET_KEY or pass -secret-key")
	}
	kv, err := godotenv.Read(*in)
	if err != nil {
		return errors.Wrapf(err, "read %s", *in)
	}
	secrets := secretsFromEnv(kv)
	if len(secrets) == 0 {
		return fmt.Errorf("no POLY_* secrets found in %s", *in)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o700); err != nil {
		return err
	}
	ss, err := secretstore.Open(secretstore.OpenOptions{Path: *dbPath, EncryptionKey: key})
	if err != nil {
		return err
	}
	defer ss.Close()

	for k, v := range secrets {
		if err := ss.SetString(k, v); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "imported %d secrets into %s\n", len(secrets), *dbPath)
	return nil
}
