package cmd

import (
	"context"
	"fmt"

	"github.com/oalmeida/mcpgate/internal/config"
	"github.com/oalmeida/mcpgate/internal/gateway"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check reachability of all configured backends",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	gw := buildGateway(cfg)

	reachable := 0
	backends := gw.Router().Backends()
	for _, b := range backends {
		client, ok := b.(*gateway.Client)
		if !ok {
			continue
		}
		if err := client.Health(ctx); err != nil {
			fmt.Printf("✗ %s: %v\n", client.ID(), err)
			continue
		}
		fmt.Printf("✓ %s: ok\n", client.ID())
		reachable++
	}

	fmt.Printf("\n%d of %d backends reachable\n", reachable, len(backends))
	if reachable == 0 {
		return fmt.Errorf("no backend reachable")
	}
	return nil
}
