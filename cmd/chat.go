package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adalundhe/scout/core/chat"
	"github.com/adalundhe/scout/core/config"
	"github.com/adalundhe/scout/core/providers"
	"github.com/adalundhe/scout/core/retrieval"
)

// =============================================================================
// Chat Command Flags
// =============================================================================

var (
	chatRoot     string
	chatFile     string
	chatProvider string
)

// =============================================================================
// Chat Command
// =============================================================================

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a retrieval-augmented chat session",
	Long: `Start an interactive chat session where each message is enriched with
context retrieved from the workspace index.

Requires an API key for the configured provider (ANTHROPIC_API_KEY or
OPENAI_API_KEY, or the config file).

Commands inside the session:
  /file <path>  Set the current file for file-scoped retrieval
  /clear        Clear the conversation and retrieval history
  /quit         Exit the session`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatRoot, "root", "r", ".", "Workspace root")
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "Current file for file-scoped retrieval")
	chatCmd.Flags().StringVarP(&chatProvider, "provider", "p", "", "Provider override (anthropic, openai)")
}

// newCompleter builds the completion provider selected by config or flag.
func newCompleter(cfg *config.Config) (providers.Completer, error) {
	selected := cfg.LLM.DefaultProvider
	if chatProvider != "" {
		selected = chatProvider
	}

	switch providers.ProviderType(selected) {
	case providers.ProviderTypeAnthropic:
		return providers.NewAnthropicProvider(cfg.LLM.Anthropic)
	case providers.ProviderTypeOpenAI:
		return providers.NewOpenAIProvider(cfg.LLM.OpenAI)
	default:
		return nil, fmt.Errorf("unknown provider: %s", selected)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, dirs, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	stack, err := openWorkspace(dirs, chatRoot)
	if err != nil {
		return err
	}
	defer stack.Close()

	bus := newEventBus(logger)
	defer bus.Close()

	engine, err := newEngine(cfg, stack, bus, logger)
	if err != nil {
		return err
	}

	completer, err := newCompleter(cfg)
	if err != nil {
		return err
	}

	session := chat.NewSession(engine, completer, logger)
	session.CurrentFile = chatFile

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s%sscout chat%s (%s) - /quit to exit\n", colorBold, colorCyan, colorReset, completer.Name())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprintf(out, "\n%s>%s ", colorGreen, colorReset)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if done := handleChatCommand(out, session, engine, input); done {
				return nil
			}
			continue
		}

		fmt.Fprintln(out)
		_, err := session.Stream(ctx, input, func(text string) {
			fmt.Fprint(out, text)
		})
		fmt.Fprintln(out)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "%serror:%s %v\n", colorRed, colorReset, err)
		}
	}
}

// handleChatCommand executes a slash command. Returns true when the session
// should end.
func handleChatCommand(out io.Writer, session *chat.Session, engine *retrieval.Engine, input string) bool {
	command, rest, _ := strings.Cut(input, " ")
	switch command {
	case "/quit", "/exit":
		return true
	case "/clear":
		session.Reset()
		engine.ClearHistory()
		fmt.Fprintf(out, "%sConversation and history cleared.%s\n", colorGray, colorReset)
	case "/file":
		session.CurrentFile = strings.TrimSpace(rest)
		if session.CurrentFile == "" {
			fmt.Fprintf(out, "%sCurrent file unset.%s\n", colorGray, colorReset)
		} else {
			fmt.Fprintf(out, "%sCurrent file:%s %s\n", colorGray, colorReset, session.CurrentFile)
		}
	default:
		fmt.Fprintf(out, "%sUnknown command: %s%s\n", colorYellow, command, colorReset)
	}
	return false
}
