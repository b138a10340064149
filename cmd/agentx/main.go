package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohamedaaris/agentx/internal/agents"
	"github.com/mohamedaaris/agentx/internal/ai"
	"github.com/mohamedaaris/agentx/internal/chunker"
	"github.com/mohamedaaris/agentx/internal/config"
	"github.com/mohamedaaris/agentx/internal/embed"
	"github.com/mohamedaaris/agentx/internal/emotion"
	"github.com/mohamedaaris/agentx/internal/extract"
	"github.com/mohamedaaris/agentx/internal/gateway"
	"github.com/mohamedaaris/agentx/internal/rag"
	"github.com/mohamedaaris/agentx/internal/registry"
	"github.com/mohamedaaris/agentx/internal/scheduler"
	"github.com/mohamedaaris/agentx/internal/sessions"
	"github.com/mohamedaaris/agentx/internal/train"
	"github.com/mohamedaaris/agentx/internal/version"
)

var (
	cfgFile string
	port    int

	trainFile  string
	trainURL   string
	trainAgent string
)

var rootCmd = &cobra.Command{
	Use:   "agentx",
	Short: "AgentX - per-tenant retrieval-augmented knowledge engine",
	Long: `AgentX answers questions over trained knowledge bases. Each agent gets
its own vector-store namespace; a shared global namespace serves untenanted
queries. Run the server, or train knowledge directly from the CLI.`,
	Version: version.Full(),
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the AgentX HTTP/WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("AgentX %s\n", version.Full())
		if version.BuildDate != "unknown" {
			fmt.Printf("Build date: %s\n", version.BuildDate)
		}
		fmt.Printf("Go version: %s\n", version.GoVersion)
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a knowledge base from a file or URL",
	Long: `Train feeds content into a knowledge base without starting the server.
Use --agent to target an agent's namespace; omit it for the shared global one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "config file path")

	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "override the configured port")

	trainCmd.Flags().StringVar(&trainFile, "file", "", "text file to train from")
	trainCmd.Flags().StringVar(&trainURL, "url", "", "web page to train from")
	trainCmd.Flags().StringVar(&trainAgent, "agent", "", "agent ID (default: global knowledge base)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(trainCmd)

	// Bare invocation runs the server.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serverCmd.RunE(cmd, args)
	}
}

// engine is the assembled component graph behind both the server and the
// train command.
type engine struct {
	cfg      *config.Config
	agents   *agents.Manager
	registry *registry.Registry
	trainer  *train.Service
	composer *rag.Composer
	sessions *sessions.Store
}

func buildEngine(cfg *config.Config) (*engine, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	reg := registry.New(cfg.VectorDir(), chunker.New(cfg.Vector.ChunkSize, cfg.Vector.ChunkOverlap), embedder)
	mgr, err := agents.NewManager(cfg.AgentsDir())
	if err != nil {
		return nil, err
	}
	sess, err := sessions.Open(cfg.SessionsPath())
	if err != nil {
		return nil, err
	}

	composer := rag.New(reg, provider, emotion.NewDetector(),
		rag.WithTopK(cfg.Vector.TopK),
		rag.WithHistoryTurns(cfg.Vector.HistoryTurns))
	trainer := train.New(reg, mgr, extract.NewURLExtractor())

	return &engine{
		cfg:      cfg,
		agents:   mgr,
		registry: reg,
		trainer:  trainer,
		composer: composer,
		sessions: sess,
	}, nil
}

func buildEmbedder(cfg *config.Config) (embed.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embed.NewOpenAI(cfg.Embedding.APIKey, cfg.Embedding.Model), nil
	case "ollama", "":
		return embed.NewOllama(cfg.Embedding.BaseURL, cfg.Embedding.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildProvider(cfg *config.Config) (ai.Provider, error) {
	switch cfg.AI.Provider {
	case "openai":
		return ai.NewOpenAI(cfg.AI.APIKey, cfg.AI.Model), nil
	case "ollama", "":
		return ai.NewOllama(cfg.AI.BaseURL, cfg.AI.Model), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AI.Provider)
	}
}

func runServer() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port != 0 {
		cfg.Port = port
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.sessions.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(eng.agents, eng.trainer)
		if err := sched.Start(cfg.Scheduler.RefreshSpec); err != nil {
			log.Printf("WARNING: Failed to start scheduler: %v", err)
		} else {
			defer sched.Stop()
		}
	}

	gw := gateway.New(cfg, eng.agents, eng.registry, eng.composer, eng.trainer, eng.sessions)
	log.Printf("Starting AgentX on port %d (ai=%s embeddings=%s)", cfg.Port, cfg.AI.Provider, cfg.Embedding.Provider)
	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("gateway failed: %w", err)
	}

	log.Println("AgentX stopped gracefully")
	return nil
}

func runTrain(ctx context.Context) error {
	if (trainFile == "") == (trainURL == "") {
		return fmt.Errorf("exactly one of --file or --url is required")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.sessions.Close()

	if trainURL != "" {
		if err := eng.trainer.FromURL(ctx, trainAgent, trainURL); err != nil {
			return err
		}
		fmt.Printf("Trained from %s\n", trainURL)
		return nil
	}

	data, err := os.ReadFile(trainFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", trainFile, err)
	}
	if err := eng.trainer.FromText(ctx, trainAgent, string(data), "upload:"+trainFile); err != nil {
		return err
	}
	fmt.Printf("Trained from %s\n", trainFile)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
