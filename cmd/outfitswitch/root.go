package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neboloop/outfitswitch/internal/config"
	"github.com/neboloop/outfitswitch/internal/logging"
	"github.com/neboloop/outfitswitch/internal/server"
	"github.com/neboloop/outfitswitch/internal/svc"
)

// Shared CLI flags
var (
	cfgFile string
	verbose bool
	port    int
)

// ServerConfig holds the loaded configuration (set by main)
var ServerConfig *config.Config

// Version is stamped at build time.
var Version = "dev"

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c

	rootCmd := &cobra.Command{
		Use:   "outfitswitch",
		Short: "Outfit Switcher - costume automation for chat hosts",
		Long: `Outfit Switcher watches a chat host's messages and streamed tokens for
trigger words and switches the focus character's costume folder.

Just type 'outfitswitch' to start the server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyFlags()
		},
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: platform data directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "server port (overrides config)")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(MatchCmd())
	rootCmd.AddCommand(TriggerCmd())
	rootCmd.AddCommand(VariantCmd())
	rootCmd.AddCommand(BaseCmd())
	rootCmd.AddCommand(EnableCmd())
	rootCmd.AddCommand(DisableCmd())
	rootCmd.AddCommand(ProfileCmd())
	rootCmd.AddCommand(HistoryCmd())

	return rootCmd
}

// applyFlags layers command-line flags over the loaded config.
func applyFlags() error {
	if cfgFile != "" {
		c, err := config.LoadFrom(cfgFile)
		if err != nil {
			return fmt.Errorf("load config %s: %w", cfgFile, err)
		}
		ServerConfig = c
	}
	if port > 0 {
		ServerConfig.Server.Port = port
	}
	if verbose {
		ServerConfig.Logging.Level = "debug"
	}
	if _, err := logging.Init(ServerConfig.Logging.Level, ServerConfig.Logging.JSON); err != nil {
		return err
	}
	return nil
}

// ServeCmd starts the HTTP server, the host bridge and the MCP endpoint.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	c := ServerConfig
	if err := c.EnsureDataDir(); err != nil {
		fmt.Printf("\033[31mError: Failed to initialize data directory: %v\033[0m\n", err)
		os.Exit(1)
	}

	lockFile, err := acquireLock(c.DataDir)
	if err != nil {
		fmt.Printf("\033[31mError: %v\033[0m\n", err)
		fmt.Println("\033[33mOutfit Switcher is already running for this data directory.\033[0m")
		os.Exit(1)
	}
	defer releaseLock(lockFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\n\033[33mReceived signal: %v - Shutting down...\033[0m\n", sig)
		cancel()
	}()

	svcCtx, err := svc.NewServiceContext(ctx, c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError: %v\033[0m\n", err)
		os.Exit(1)
	}
	defer svcCtx.Close()
	svcCtx.Version = Version

	if err := svcCtx.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError: %v\033[0m\n", err)
		os.Exit(1)
	}

	printStartupBanner(c)
	if err := server.Run(ctx, svcCtx, server.ServerOptions{Quiet: true}); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return
	}
	fmt.Println("\n\033[32mOutfit Switcher stopped.\033[0m")
}

func printStartupBanner(c *config.Config) {
	base := fmt.Sprintf("http://localhost:%d", c.Server.Port)
	fmt.Println()
	fmt.Println("\033[1;32m  Outfit Switcher is running\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1;36m->\033[0m API:        \033[4;34m%s/api/v1\033[0m\n", base)
	fmt.Printf("  \033[1;36m->\033[0m Host relay: \033[4;34mws://localhost:%d/ws\033[0m\n", c.Server.Port)
	fmt.Printf("  \033[1;36m->\033[0m MCP Server: \033[4;34m%s/mcp\033[0m\n", base)
	fmt.Println()
	fmt.Printf("  \033[2mData: %s (store: %s, issuer: %s)\033[0m\n", c.DataDir, c.Store, c.Issuer.Mode)
	fmt.Println()
	fmt.Println("  \033[2mPress Ctrl+C to stop\033[0m")
	fmt.Println()
}
