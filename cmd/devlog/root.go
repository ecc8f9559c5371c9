package main

import (
	"context"
	"fmt"

	"github.com/pbaille/devlog/internal/config"
	"github.com/pbaille/devlog/internal/journal"
	"github.com/pbaille/devlog/internal/logging"
	"github.com/pbaille/devlog/internal/store"
	"github.com/spf13/cobra"
)

// app is the per-invocation state shared by subcommands
type app struct {
	configFile string
	cfg        *config.Config
	log        logging.Logger
	adapter    *store.Adapter
	journal    *journal.Store
}

// newRootCmd builds the command tree. Storage is opened lazily by the
// persistent pre-run hook and released by run.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "devlog",
		Short:        "Capture your daily coding journey, one entry at a time",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsStorage(cmd) {
				return nil
			}
			return a.open(cmd)
		},
	}

	defaults := config.New()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default $HOME/.devlog/config.yaml)")
	flags.String(config.KeyBackend, defaults.GetString(config.KeyBackend), "storage backend: sqlite, file, redis or memory")
	flags.String(config.KeyDBPath, defaults.GetString(config.KeyDBPath), "sqlite database path")
	flags.String(config.KeyDir, defaults.GetString(config.KeyDir), "directory for the file backend")
	flags.String(config.KeyRedisAddr, defaults.GetString(config.KeyRedisAddr), "redis address for the redis backend")
	flags.String(config.KeyStoreKey, defaults.GetString(config.KeyStoreKey), "storage key the journal is saved under")
	flags.String(config.KeyLogLevel, defaults.GetString(config.KeyLogLevel), "log level: debug, info, warn or error")

	rootCmd.AddCommand(addCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(searchCmd(a))
	rootCmd.AddCommand(deleteCmd(a))
	rootCmd.AddCommand(clearCmd(a))
	rootCmd.AddCommand(shellCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	return rootCmd, a
}

// run executes the command tree and closes storage whatever the outcome.
func run(ctx context.Context, rootCmd *cobra.Command, a *app) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

// needsStorage reports whether cmd works on the journal. Help and shell
// completion never touch it.
func needsStorage(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

// open resolves config, opens the slot and loads the journal
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(config.New(), a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log.With("backend", cfg.Backend)

	adapter, err := store.Open(cmd.Context(), cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.adapter = adapter

	a.journal = journal.New(adapter, journal.WithLogger(a.log))
	a.journal.Initialize(cmd.Context())
	return nil
}

func (a *app) close() error {
	if a.adapter == nil {
		return nil
	}
	err := a.adapter.Close()
	a.adapter = nil
	return err
}
