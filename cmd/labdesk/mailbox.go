package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/labdesk/internal/credential"
	"github.com/nhle/labdesk/internal/logging"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/source/mailbox"
)

const validateTimeout = 30 * time.Second

func mailboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailbox",
		Short: "Manage the lab inbox connection",
	}

	setCmd := &cobra.Command{
		Use:   "set-password",
		Short: "Store the inbox password in the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mailboxConfigFromFlags(cmd)
			if err != nil {
				return err
			}

			fromStdin, _ := cmd.Flags().GetBool("stdin")
			var password string
			if fromStdin {
				password, err = readPassword(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cfg.Mailbox.Username)
			}
			if err != nil {
				return err
			}

			secrets := credential.Store{Dir: model.ConfigDir()}
			if err := secrets.Set(credential.MailboxPasswordKey(cfg.Mailbox.Username), password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved password for %s.\n", cfg.Mailbox.Username)
			return nil
		},
	}
	setCmd.Flags().Bool("stdin", false, "Read the password from standard input")
	cmd.AddCommand(setCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "forget",
		Short: "Remove the inbox password from the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mailboxConfigFromFlags(cmd)
			if err != nil {
				return err
			}
			secrets := credential.Store{Dir: model.ConfigDir()}
			if err := secrets.Delete(credential.MailboxPasswordKey(cfg.Mailbox.Username)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed password for %s.\n", cfg.Mailbox.Username)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Check that labdesk can sign in to the inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mailboxConfigFromFlags(cmd)
			if err != nil {
				return err
			}
			logger := logging.Console(cmd.ErrOrStderr(), cfg.Log.Level)

			secrets := credential.Store{Dir: model.ConfigDir()}
			password, err := secrets.Get(credential.MailboxPasswordKey(cfg.Mailbox.Username))
			if err != nil {
				return fmt.Errorf("no stored password, run `labdesk mailbox set-password`: %w", err)
			}

			mb := cfg.Mailbox
			feed := mailbox.NewFeed(mb.Host, mb.Port, mb.Username, password, mb.TLS)

			ctx, cancel := context.WithTimeout(cmd.Context(), validateTimeout)
			defer cancel()

			logger.Info().Str("host", mb.Host).Str("port", mb.Port).Msg("connecting")
			user, err := feed.ValidateConnection(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("mailbox check failed")
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s as %s.\n", mb.Host, user)
			return nil
		},
	})

	return cmd
}

func mailboxConfigFromFlags(cmd *cobra.Command) (*model.AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Mailbox.Username) == "" {
		return nil, errors.New("mailbox.username is not set in the config")
	}
	return cfg, nil
}

// readPassword takes the first line of r.
func readPassword(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return "", errors.New("no password on standard input")
	}
	pw := strings.TrimRight(sc.Text(), "\r")
	if pw == "" {
		return "", errors.New("password is empty")
	}
	return pw, nil
}

func promptPassword(username string) (string, error) {
	var pw string
	err := huh.NewInput().
		Title("Inbox password for " + username).
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if s == "" {
				return errors.New("password is required")
			}
			return nil
		}).
		Value(&pw).
		Run()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return pw, nil
}
