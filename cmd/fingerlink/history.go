package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ayusman/fingerlink/internal/store"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List recorded sessions or the state changes of one session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of sessions to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
		fmt.Println("No history recorded yet")
		return nil
	}

	st, err := store.New(cfg.History.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		return printChanges(st, args[0])
	}
	return printSessions(st, mustGetInt(cmd, "limit"))
}

func printSessions(st *store.Store, limit int) error {
	sessions, err := st.Sessions().List(limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded")
		return nil
	}

	fmt.Printf("%-36s  %-5s  %-19s  %8s  %6s  %6s  %s\n",
		"ID", "MODE", "STARTED", "DURATION", "FRAMES", "SENT", "END")
	for _, s := range sessions {
		duration := "-"
		if s.EndedAt != nil {
			duration = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
		}
		fmt.Printf("%-36s  %-5s  %-19s  %8s  %6d  %6d  %s\n",
			s.ID, s.Mode, s.StartedAt.Local().Format(time.DateTime), duration,
			s.Frames, s.Transmissions, s.EndReason)
	}
	return nil
}

func printChanges(st *store.Store, sessionID string) error {
	sess, err := st.Sessions().Get(sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("session %s not found", sessionID)
	}
	if err != nil {
		return err
	}

	changes, err := st.Changes().ListBySession(sess.ID)
	if err != nil {
		return fmt.Errorf("list changes: %w", err)
	}

	fmt.Printf("Session %s (%s, port %q, camera %d)\n", sess.ID, sess.Mode, sess.Port, sess.CameraID)
	if len(changes) == 0 {
		fmt.Println("No state changes recorded")
		return nil
	}

	for _, c := range changes {
		fmt.Printf("%s  %-5s  %s\n", c.At.Local().Format("15:04:05.000"), c.Handedness, c.State)
	}
	return nil
}
