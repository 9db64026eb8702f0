package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oalmeida/mcpgate/internal/config"
	"github.com/oalmeida/mcpgate/internal/gateway"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <tool>",
	Short: "Execute a tool with JSON parameters",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

var (
	runParams  string
	runBackend string
)

func init() {
	runCmd.Flags().StringVarP(&runParams, "params", "p", "{}", "Tool parameters as a JSON object")
	runCmd.Flags().StringVarP(&runBackend, "backend", "b", "", "Preferred backend (local or remote)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(runParams), &params); err != nil {
		return fmt.Errorf("invalid --params JSON: %w", err)
	}

	ctx := context.Background()
	gw := buildGateway(cfg)

	// Discovery populates the descriptors that parameter validation
	// runs against. A failed discovery just skips validation.
	gw.Tools(ctx)

	result, err := gw.Run(ctx, gateway.Invocation{
		Tool:      args[0],
		Params:    params,
		Preferred: gateway.BackendID(runBackend),
	})
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(result *gateway.Result) {
	switch raw := result.Raw.(type) {
	case string:
		fmt.Println(raw)
	default:
		out, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			fmt.Printf("%v\n", raw)
		} else {
			fmt.Println(string(out))
		}
	}
	fmt.Printf("\n(backend: %s, %s)\n", result.Backend, result.Elapsed.Round(time.Millisecond))
}
