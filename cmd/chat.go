package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/oalmeida/mcpgate/internal/cache"
	"github.com/oalmeida/mcpgate/internal/config"
	"github.com/oalmeida/mcpgate/internal/gateway"
	"github.com/oalmeida/mcpgate/internal/intent"
	"github.com/oalmeida/mcpgate/internal/providers"
	"github.com/oalmeida/mcpgate/internal/session"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with intent-based tool routing",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

const chatSystemPrompt = "Você é o assistente do mcpgate. Responda de forma " +
	"curta e direta. Quando o usuário pedir ferramentas, sugira os comandos " +
	"em português que o gateway entende (por exemplo: 'listar ferramentas mcp')."

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	gw := buildGateway(cfg)
	provider := makeChatProvider(cfg)
	store := session.NewStore(config.GetConfigPath())
	dc := buildCache(cfg)
	defer dc.Close()

	fmt.Println("mcpgate chat (digite 'sair' ou Ctrl+C para encerrar)")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nAté logo!")
		cancel()
		os.Exit(0)
	}()

	// Conversation history lives only for this process.
	history := []providers.Message{{Role: "system", Content: chatSystemPrompt}}

	scanner := bufio.NewScanner(os.Stdin)
	exitCommands := map[string]bool{
		"sair": true, "exit": true, "quit": true, "/exit": true, "/quit": true,
	}

	for {
		fmt.Print("Você: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if exitCommands[strings.ToLower(input)] {
			fmt.Println("Até logo!")
			break
		}

		if handled := handleCommandIntent(ctx, gw, store, dc, input); handled {
			continue
		}

		result, matched, err := gw.RunFromText(ctx, input)
		if matched {
			if err != nil {
				fmt.Printf("Erro: %v\n\n", err)
				continue
			}
			printResult(result)
			fmt.Println()
			continue
		}

		// Not a tool utterance. Fall through to the chat model.
		history = append(history, providers.Message{Role: "user", Content: input})
		resp, err := provider.Chat(ctx, providers.ChatRequest{
			Messages:    history,
			MaxTokens:   cfg.Chat.MaxTokens,
			Temperature: cfg.Chat.Temperature,
		})
		if err != nil {
			fmt.Printf("Erro: %v\n\n", err)
			continue
		}
		if resp.FinishReason == "error" {
			// Keep the failed turn out of the history.
			history = history[:len(history)-1]
			fmt.Printf("%s\n\n", resp.Content)
			continue
		}
		history = append(history, providers.Message{Role: "assistant", Content: resp.Content})
		fmt.Printf("\n%s\n\n", resp.Content)
	}

	return nil
}

// handleCommandIntent serves the intents that are CLI concerns rather
// than tool executions: listing, describing and searching tools,
// configuring the session, and help.
func handleCommandIntent(ctx context.Context, gw *gateway.Gateway, store *session.Store, dc *cache.Cache, input string) bool {
	m, ok := gw.Parser().Parse(input)
	if !ok {
		return false
	}

	switch m.Intent {
	case intent.KindListTools:
		tools, cached := dc.GetTools(ctx, "all")
		if !cached {
			var err error
			tools, err = gw.Tools(ctx)
			if err != nil {
				fmt.Printf("Erro: %v\n\n", err)
				return true
			}
			dc.PutTools(ctx, "all", tools)
		}
		fmt.Printf("Ferramentas disponíveis (%d):\n", len(tools))
		printTools(tools)
		fmt.Println()
		return true

	case intent.KindToolDetails:
		name := m.Params["tool"]
		if _, err := gw.Tools(ctx); err != nil {
			fmt.Printf("Erro: %v\n\n", err)
			return true
		}
		desc, found := gw.Describe(name)
		if !found {
			fmt.Printf("Ferramenta não encontrada: %s\n\n", name)
			return true
		}
		fmt.Printf("%s [%s]\n%s\n", desc.Name, desc.Backend, desc.Description)
		var params []string
		for pname, spec := range desc.Parameters {
			req := ""
			if spec.Required {
				req = " (obrigatório)"
			}
			params = append(params, fmt.Sprintf("  %s: %s%s — %s", pname, spec.Type, req, spec.Description))
		}
		sort.Strings(params)
		for _, p := range params {
			fmt.Println(p)
		}
		fmt.Println()
		return true

	case intent.KindSearchTools:
		term := strings.ToLower(strings.TrimSpace(m.Params["termo"]))
		tools, err := gw.Tools(ctx)
		if err != nil {
			fmt.Printf("Erro: %v\n\n", err)
			return true
		}
		var matches []gateway.ToolDescriptor
		for _, t := range tools {
			if strings.Contains(strings.ToLower(t.Name), term) ||
				strings.Contains(strings.ToLower(t.Description), term) {
				matches = append(matches, t)
			}
		}
		if len(matches) == 0 {
			fmt.Printf("Nenhuma ferramenta encontrada para '%s'\n\n", term)
			return true
		}
		fmt.Printf("Ferramentas para '%s' (%d):\n", term, len(matches))
		printTools(matches)
		fmt.Println()
		return true

	case intent.KindConfigureSession:
		id := m.Params["session_id"]
		if err := store.Set(id); err != nil {
			fmt.Printf("Erro: %v\n\n", err)
			return true
		}
		fmt.Printf("✓ Sessão configurada: %s\n\n", id)
		return true

	case intent.KindHelp:
		printChatHelp()
		return true
	}

	return false
}

func printChatHelp() {
	fmt.Println("Comandos que o gateway entende:")
	fmt.Println("  configurar mcp <id>                          configura a sessão")
	fmt.Println("  listar ferramentas mcp                       lista as ferramentas")
	fmt.Println("  detalhes da ferramenta <nome>                descreve uma ferramenta")
	fmt.Println("  buscar ferramentas sobre <termo>             procura ferramentas")
	fmt.Println("  executar ferramenta <nome> com parâmetros {} executa uma ferramenta")
	fmt.Println("  buscar informações sobre <tema>              executa search_info")
	fmt.Println("  processar imagem <url>                       executa process_image")
	fmt.Println("  verificar saúde do servidor                  executa health_check")
	fmt.Println()
	fmt.Println("Qualquer outra frase vai para o modelo de chat.")
	fmt.Println()
}
