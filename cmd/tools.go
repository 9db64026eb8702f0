package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/oalmeida/mcpgate/internal/config"
	"github.com/oalmeida/mcpgate/internal/gateway"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tools available across all backends",
	RunE:  runTools,
}

var toolsNoCache bool

func init() {
	toolsCmd.Flags().BoolVar(&toolsNoCache, "no-cache", false, "Bypass the discovery cache")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	dc := buildCache(cfg)
	defer dc.Close()

	if !toolsNoCache {
		if cached, ok := dc.GetTools(ctx, "all"); ok {
			fmt.Println("(cached)")
			printTools(cached)
			return nil
		}
	}

	gw := buildGateway(cfg)
	reports := gw.Router().ListTools(ctx)

	reachable := 0
	var union []gateway.ToolDescriptor
	for _, rep := range reports {
		if rep.Err != nil {
			fmt.Printf("✗ %s: %v\n", rep.Backend, rep.Err)
			continue
		}
		reachable++
		union = append(union, rep.Tools...)
	}
	fmt.Printf("%d of %d backends reachable\n\n", reachable, len(reports))

	if reachable == 0 {
		return fmt.Errorf("no backend reachable")
	}

	printTools(union)
	if !toolsNoCache {
		dc.PutTools(ctx, "all", union)
	}
	return nil
}

func printTools(tools []gateway.ToolDescriptor) {
	// First occurrence wins when both backends offer the same tool.
	seen := make(map[string]bool)
	var uniq []gateway.ToolDescriptor
	for _, t := range tools {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		uniq = append(uniq, t)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].Name < uniq[j].Name })

	for _, t := range uniq {
		fmt.Printf("  %-20s [%s] %s\n", t.Name, t.Backend, t.Description)
		if len(t.Parameters) > 0 {
			var names []string
			for name, spec := range t.Parameters {
				if spec.Required {
					names = append(names, name+"*")
				} else {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			fmt.Printf("      params: %s\n", strings.Join(names, ", "))
		}
	}
}
