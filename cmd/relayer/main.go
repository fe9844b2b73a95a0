package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

type command struct {
	usage string
	run   func(g *globalFlags, args []string) error
}

var commands = map[string]command{
	"safe":        {"show signer, derived Safe and deployment status", runSafe},
	"deploy":      {"deploy the signer's Safe", runDeploy},
	"redeem":      {"redeem positions of a condition", runRedeem},
	"split":       {"split collateral into outcome tokens", runSplit},
	"merge":       {"merge outcome tokens back into collateral", runMerge},
	"approve":     {"approve a spender for an ERC-20 token", runApprove},
	"wait":        {"wait for a relayer transaction to finish", runWait},
	"redeem-all":  {"redeem every redeemable position of the Safe", runRedeemAll},
	"auto-redeem": {"run the periodic auto-redeem worker", runAutoRedeem},
	"serve":       {"run the HTTP gateway", runServe},
	"secrets-put": {"import a .env file into the encrypted secret store", runSecretsPut},
}

type globalFlags struct {
	configPath string
	envPath    string
}

func main() {
	g := &globalFlags{}
	fs := flag.NewFlagSet("relayer", flag.ExitOnError)
	fs.StringVar(&g.configPath, "config", getenv("POLY_CONFIG", ""), "config file (.yaml/.yml/.json)")
	fs.StringVar(&g.envPath, "env", ".env", ".env file loaded before reading config")
	fs.Usage = usage(fs)
	_ = fs.Parse(os.Args[1:])

	if err := godotenv.Load(g.envPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: load %s: %v\n", g.envPath, err)
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		fs.Usage()
		os.Exit(2)
	}
	if err := cmd.run(g, args[1:]); err != nil {
		fatal(err)
	}
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(os.Stderr, "usage: relayer [-config file] [-env file] <command> [flags]")
		fmt.Fprintln(os.Stderr, "\ncommands:")
		names := make([]string, 0, len(commands))
		for name := range commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(os.Stderr, "  %-12s %s\n", name, commands[name].usage)
		}
		fmt.Fprintln(os.Stderr, "\nflags:")
		fs.PrintDefaults()
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
