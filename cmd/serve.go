package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oalmeida/mcpgate/internal/config"
	"github.com/oalmeida/mcpgate/internal/localserver"
	"github.com/oalmeida/mcpgate/internal/tools"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the built-in local tool backend",
	RunE:  runServe,
}

var (
	servePort int
	serveHost string
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	host := cfg.Serve.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Serve.Port
	if servePort > 0 {
		port = servePort
	}

	registry := tools.DefaultRegistry()
	srv := localserver.NewServer(localserver.Config{
		Host:     host,
		Port:     port,
		APIKey:   cfg.Serve.APIKey,
		Registry: registry,
	})

	fmt.Printf("Starting local tool backend on %s:%d (%d tools)...\n",
		host, port, len(registry.All()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	return srv.Start(ctx)
}
