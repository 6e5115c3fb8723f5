// Package cli wires the settlement core into the posd command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/posledger/config"
	"github.com/rustyeddy/posledger/exchange"
	"github.com/rustyeddy/posledger/exchange/hyperliquid"
	"github.com/rustyeddy/posledger/journal"
	"github.com/rustyeddy/posledger/ledger"
	"github.com/rustyeddy/posledger/market"
	"github.com/rustyeddy/posledger/prices"
	"github.com/rustyeddy/posledger/settle"
)

type app struct {
	configPath string
	dataDir    string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "posd",
		Short:         "posd — position ledger and order settlement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Override ledger data directory")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if a.log != nil {
			_ = a.log.Sync()
		}
	}

	cmd.AddCommand(
		newBuyCmd(a),
		newSellCmd(a),
		newPositionCmd(a),
		newNoTradeCmd(a),
		newPriceCmd(a),
		newHistoryCmd(a),
		newJournalCmd(a),
		newStateCmd(a),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("posd (dev)")
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	// Credentials and overrides may live in a local .env; absence is fine.
	_ = godotenv.Load()

	log, err := newLogger(a.logLevel)
	if err != nil {
		return err
	}
	a.log = log

	if a.configPath != "" {
		a.cfg, err = config.LoadFromFile(a.configPath)
		if err != nil {
			return err
		}
	} else {
		a.cfg = config.Default()
	}
	if a.dataDir != "" {
		a.cfg.Ledger.DataDir = a.dataDir
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"} // keep stdout clean for JSON results
	return cfg.Build()
}

func (a *app) statePath() string {
	return filepath.Join(a.cfg.Ledger.DataDir, "state.json")
}

func (a *app) store() *ledger.Store {
	return ledger.NewStore(a.cfg.Ledger.DataDir)
}

func (a *app) feed() *hyperliquid.Client {
	// Read-only client: live order submission additionally needs a signer.
	return hyperliquid.NewClient(nil, a.cfg.Exchange.Testnet)
}

func (a *app) cache() (*prices.Cache, error) {
	ttl, err := a.cfg.Cache.ParseTTL()
	if err != nil {
		return nil, err
	}
	return prices.NewCache(a.feed(), ttl), nil
}

func (a *app) daily() (*prices.Daily, error) {
	c, err := a.cache()
	if err != nil {
		return nil, err
	}
	return prices.NewDaily(c, a.cfg.Trading.Pair, market.Timeframe(a.cfg.Trading.Timeframe), a.cfg.Trading.HistoryLimit), nil
}

// engine builds the settlement engine from config. The returned closer
// flushes the journal, when one is configured.
func (a *app) engine() (*settle.Engine, func(), error) {
	cache, err := a.cache()
	if err != nil {
		return nil, nil, err
	}

	mode := exchange.Mode(a.cfg.Exchange.Mode)
	if mode == exchange.Live {
		// Live order submission needs an action signer with the venue's
		// signature scheme; that is handed in by embedders of the settle
		// package, not built from CLI flags.
		return nil, nil, fmt.Errorf("live mode is not supported from the CLI; embed the settle package with a venue signer")
	}

	gw, err := exchange.NewGateway(mode, cache, nil)
	if err != nil {
		return nil, nil, err
	}

	jrnl, err := a.journal()
	if err != nil {
		return nil, nil, err
	}

	eng := settle.NewEngine(a.store(), gw, settle.Options{
		Pair:    a.cfg.Trading.Pair,
		Journal: jrnl,
		Logger:  a.log,
	})

	closer := func() {
		if jrnl != nil {
			_ = jrnl.Close()
		}
	}
	return eng, closer, nil
}

func (a *app) journal() (journal.Journal, error) {
	switch a.cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(a.cfg.Journal.Path)
	case "csv":
		return journal.NewCSV(a.cfg.Journal.Path)
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", a.cfg.Journal.Type)
}

// session resolves the current agent and trading date from the state file.
func (a *app) session(eng *settle.Engine) (*settle.Session, *config.State, error) {
	st, err := config.LoadState(a.statePath())
	if err != nil {
		return nil, nil, err
	}
	if st.Signature == "" || st.TradingDate == "" {
		return nil, nil, errNoState()
	}
	return settle.NewSession(eng, st.Signature, st.TradingDate), st, nil
}

// printJSON writes a result payload to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
