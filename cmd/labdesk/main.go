package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/labdesk/internal/app"
	"github.com/nhle/labdesk/internal/credential"
	"github.com/nhle/labdesk/internal/logging"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "labdesk",
		Short:        "Lab front desk: notifications and live support chat",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
	rootCmd.PersistentFlags().String("config", model.DefaultConfigPath(), "Path to the config file")
	rootCmd.Flags().String("name", "", "Sign in as this name")
	rootCmd.Flags().String("role", "", "Sign in with this role (patient, admin, guest)")

	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(mailboxCmd())

	return rootCmd
}

func runTUI(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := applyIdentityFlags(cmd, cfg); err != nil {
		return err
	}

	logger, closer, err := logging.Open(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	st, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("chat archive unavailable")
		fmt.Fprintf(os.Stderr, "warning: chat archive disabled: %v\n", err)
	}
	defer closeStore()

	m := app.New(app.Options{
		Config:     cfg,
		ConfigPath: path,
		Store:      st,
		Secrets:    credential.Store{Dir: model.ConfigDir()},
		Logger:     logger,
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logger.Error().Err(err).Msg("program exited with error")
		return fmt.Errorf("running labdesk: %w", err)
	}
	return nil
}

// applyIdentityFlags lets --name and --role skip the sign-in form.
func applyIdentityFlags(cmd *cobra.Command, cfg *model.AppConfig) error {
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")

	if name = strings.TrimSpace(name); name != "" {
		cfg.Identity.Name = name
	}
	if role != "" {
		r, err := model.ParseRole(role)
		if err != nil {
			return err
		}
		cfg.Identity.Role = r
	}
	return nil
}

// openStore opens the chat archive. A nil Store means archiving is off; the
// returned close func is always safe to call.
func openStore(cfg *model.AppConfig) (store.Store, func(), error) {
	noop := func() {}
	if !cfg.Archive.Enabled {
		return nil, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Archive.DBPath), 0o755); err != nil {
		return nil, noop, fmt.Errorf("creating archive directory: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Archive.DBPath)
	if err != nil {
		return nil, noop, err
	}
	return st, func() { st.Close() }, nil
}
