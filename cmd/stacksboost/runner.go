package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/amount"
	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/clarity"
	"github.com/bituzin/stacks-boost-app/internal/config"
	"github.com/bituzin/stacks-boost-app/internal/engine"
	"github.com/bituzin/stacks-boost-app/internal/journal"
	"github.com/bituzin/stacks-boost-app/internal/logger"
	"github.com/bituzin/stacks-boost-app/internal/metrics"
	"github.com/bituzin/stacks-boost-app/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Runner executes the stacksboost command line
type Runner struct {
	stdout io.Writer
	stderr io.Writer

	// engineOpts are appended to every engine the runner builds
	engineOpts []engine.Option
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{stdout: stdout, stderr: stderr}
}

type runtimeState struct {
	runner  *Runner
	envFile string
	cfg     *config.Config
}

// Run executes args and returns the process exit code
func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		fmt.Fprintf(r.stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stacksboost",
		Short: "Stacks lending wallet and transaction engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if err := config.LoadDotEnv(s.envFile); err != nil {
				fmt.Fprintf(s.runner.stderr, "warning: %s not loaded: %v\n", s.envFile, err)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger.InitLogger(cfg.Stage)
			s.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&s.envFile, "env-file", ".env", "Path to a .env file")

	cmd.AddCommand(s.newServeCommand())
	cmd.AddCommand(s.newBalanceCommand())
	cmd.AddCommand(s.newPositionCommand())
	cmd.AddCommand(s.newTxStatusCommand())
	cmd.AddCommand(s.newHistoryCommand())
	return cmd
}

// openEngine builds an engine, with the journal attached when withJournal is
// set and a path is configured. The returned func releases both.
func (s *runtimeState) openEngine(ctx context.Context, withJournal bool, opts ...engine.Option) (*engine.Engine, func(), error) {
	var j *journal.Journal
	if withJournal && s.cfg.JournalEnabled() {
		var err error
		j, err = journal.Open(ctx, s.cfg.JournalPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, engine.WithJournal(j))
	}

	e, err := engine.New(s.cfg, append(opts, s.runner.engineOpts...)...)
	if err != nil {
		if j != nil {
			_ = j.Close()
		}
		return nil, nil, err
	}
	return e, func() {
		e.Close()
		if j != nil {
			if err := j.Close(); err != nil {
				logger.Warn("failed to close journal", zap.Error(err))
			}
		}
	}, nil
}

func (s *runtimeState) printJSON(v interface{}) error {
	enc := json.NewEncoder(s.runner.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validateAddress(address string) error {
	if _, _, err := clarity.ParseAddress(address); err != nil {
		return fmt.Errorf("invalid address %q: %w", address, err)
	}
	return nil
}

func (s *runtimeState) newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				s.cfg.HTTPAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return s.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	return cmd
}

func (s *runtimeState) serve(ctx context.Context) error {
	registry := metrics.New()
	e, closeEngine, err := s.openEngine(ctx, true, engine.WithMetrics(registry))
	if err != nil {
		return err
	}
	defer closeEngine()
	e.Start(ctx)

	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           server.NewRouter(e, registry),
		ReadHeaderTimeout: 20 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", s.cfg.HTTPAddr),
			zap.String("network", s.cfg.Network),
			zap.String("contract", s.cfg.ContractID()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exiting")
	return nil
}

type balanceOutput struct {
	Address  string `json:"address"`
	STX      uint64 `json:"stx"`
	STXText  string `json:"stx_formatted"`
	SBTC     uint64 `json:"sbtc"`
	SBTCText string `json:"sbtc_formatted"`
}

func (s *runtimeState) newBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show STX and sBTC balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			if err := validateAddress(address); err != nil {
				return err
			}
			e, closeEngine, err := s.openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeEngine()

			balances, err := e.Balances(cmd.Context(), address)
			if err != nil {
				return err
			}
			sbtc := e.SBTCBalance(balances)
			return s.printJSON(balanceOutput{
				Address:  address,
				STX:      balances.Native,
				STXText:  amount.Format(balances.Native),
				SBTC:     sbtc,
				SBTCText: amount.Format(sbtc),
			})
		},
	}
}

type positionOutput struct {
	Address      string `json:"address"`
	Deposited    uint64 `json:"deposited"`
	DepositedSTX string `json:"deposited_stx"`
	Borrowed     uint64 `json:"borrowed"`
	BorrowedSTX  string `json:"borrowed_stx"`
}

func (s *runtimeState) newPositionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "position <address>",
		Short: "Show the lending position of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			if err := validateAddress(address); err != nil {
				return err
			}
			e, closeEngine, err := s.openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeEngine()

			p, err := e.PositionOf(cmd.Context(), address)
			if err != nil {
				return err
			}
			return s.printJSON(positionOutput{
				Address:      p.Address,
				Deposited:    p.Deposited,
				DepositedSTX: amount.Format(p.Deposited),
				Borrowed:     p.Borrowed,
				BorrowedSTX:  amount.Format(p.Borrowed),
			})
		},
	}
}

type txStatusOutput struct {
	chain.TransactionStatus
	ExplorerURL string `json:"explorer_url"`
}

func (s *runtimeState) newTxStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tx-status <txid>",
		Short: "Show the status of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeEngine, err := s.openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeEngine()

			status, err := e.TransactionStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.printJSON(txStatusOutput{
				TransactionStatus: *status,
				ExplorerURL:       s.cfg.ExplorerTxURL(status.TxID),
			})
		},
	}
}

func (s *runtimeState) newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("invalid --limit %d", limit)
			}
			e, closeEngine, err := s.openEngine(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeEngine()

			entries, err := e.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []journal.Entry{}
			}
			return s.printJSON(entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")
	return cmd
}
