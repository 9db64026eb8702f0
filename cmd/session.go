package cmd

import (
	"errors"
	"fmt"

	"github.com/oalmeida/mcpgate/internal/config"
	"github.com/oalmeida/mcpgate/internal/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the tool-backend session credential",
}

var sessionConfigureCmd = &cobra.Command{
	Use:   "configure <session-id>",
	Short: "Persist a session ID for tool calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := session.NewStore(config.GetConfigPath())
		if err := store.Set(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Session configured: %s\n", args[0])
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active session and where it came from",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := session.NewStore(config.GetConfigPath())
		sess, err := store.Get()
		if err != nil {
			if errors.Is(err, session.ErrUnavailable) {
				fmt.Println("No session configured.")
				fmt.Printf("Set %s or run 'mcpgate session configure <id>'.\n", session.EnvVar)
				return nil
			}
			return err
		}
		fmt.Printf("Session: %s\n", sess.ID)
		fmt.Printf("Source:  %s\n", sess.Source)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the persisted session ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := session.NewStore(config.GetConfigPath())
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("✓ Persisted session cleared")
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionConfigureCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}
