package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/store"
	"github.com/nhle/labdesk/internal/theme"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List archived chats, or print one transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := archiveFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				rec, err := st.GetSession(ctx, args[0])
				if err != nil {
					return err
				}
				msgs, err := st.GetSessionMessages(ctx, rec.ID)
				if err != nil {
					return err
				}
				printTranscript(out, *rec, msgs)
				return nil
			}

			filter, err := sessionFilterFromFlags(cmd)
			if err != nil {
				return err
			}
			sessions, err := st.ListSessions(ctx, filter)
			if err != nil {
				return err
			}
			printSessions(out, sessions)
			return nil
		},
	}
	cmd.Flags().String("user", "", "Only chats opened by this name")
	cmd.Flags().Int("min-rating", 0, "Only chats rated at least this (1-5)")
	cmd.Flags().Int("limit", 20, "Maximum number of chats to list")

	deleteCmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete an archived chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := archiveFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := st.DeleteSession(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no archived chat with id %s", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted chat %s.\n", args[0])
			return nil
		},
	}
	cmd.AddCommand(deleteCmd)

	return cmd
}

// archiveFromFlags loads the config named by --config and opens its archive.
func archiveFromFlags(cmd *cobra.Command) (store.Store, func(), error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Archive.Enabled {
		return nil, nil, errors.New("chat archive is disabled in the config (archive.enabled)")
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return st, closeStore, nil
}

func sessionFilterFromFlags(cmd *cobra.Command) (store.SessionFilter, error) {
	user, _ := cmd.Flags().GetString("user")
	minRating, _ := cmd.Flags().GetInt("min-rating")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := store.SessionFilter{Limit: limit}
	if user = strings.TrimSpace(user); user != "" {
		filter.UserName = &user
	}
	if minRating != 0 {
		if minRating < 1 || minRating > 5 {
			return filter, fmt.Errorf("--min-rating must be between 1 and 5, got %d", minRating)
		}
		filter.MinRating = &minRating
	}
	return filter, nil
}

func printSessions(w io.Writer, sessions []model.SessionRecord) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No archived chats.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorSubtle)).
		Headers("ID", "USER", "ROLE", "ENDED", "MSGS", "RATING")

	for _, s := range sessions {
		t.Row(
			s.ID,
			s.UserName,
			s.UserRole,
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(s.MessageCount),
			ratingText(s.Rating),
		)
	}
	fmt.Fprintln(w, t.String())
}

func printTranscript(w io.Writer, rec model.SessionRecord, msgs []model.Message) {
	fmt.Fprintf(w, "Chat %s with %s (%s)\n", rec.ID, rec.UserName, rec.UserRole)
	fmt.Fprintf(w, "Ended %s · %s\n", rec.EndedAt.Local().Format(time.RFC1123), ratingText(rec.Rating))
	if rec.Feedback != "" {
		fmt.Fprintf(w, "Feedback: %s\n", rec.Feedback)
	}
	fmt.Fprintln(w)

	for _, m := range msgs {
		name := m.SenderName
		if name == "" {
			name = string(m.Sender)
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), name, m.Text)
	}
}

func ratingText(r int) string {
	if r <= 0 {
		return "unrated"
	}
	return strings.Repeat("★", r) + strings.Repeat("☆", 5-r)
}
