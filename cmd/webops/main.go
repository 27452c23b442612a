// Package main provides the webops server and one-shot discovery CLI.
// webops discovers what a browser-driven web service can do, compiles the
// result into replayable operation programs, and executes them on demand
// through a per-service queue.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pilotlabs/webops/pkg/browser"
	appconfig "github.com/pilotlabs/webops/pkg/config"
	"github.com/pilotlabs/webops/pkg/discovery"
	"github.com/pilotlabs/webops/pkg/executor"
	"github.com/pilotlabs/webops/pkg/llm/openai"
	"github.com/pilotlabs/webops/pkg/progress"
	"github.com/pilotlabs/webops/pkg/server"
	"github.com/pilotlabs/webops/pkg/store"
	"github.com/pilotlabs/webops/pkg/types"
)

const version = "0.1.0"

// cliConfig holds command line options.
type cliConfig struct {
	ConfigPath  string
	Addr        string
	ShowVersion bool

	// One-shot discovery mode. When DiscoverURL is set the process runs a
	// single discovery, prints the resulting config, and exits.
	DiscoverURL string
	ServiceID   string
	Email       string
	Password    string
	APIKey      string
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("webops v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Fatalf("error: %v", err)
	}
}

// parseFlags parses command line flags.
func parseFlags() *cliConfig {
	cli := &cliConfig{}

	flag.StringVar(&cli.ConfigPath, "config", appconfig.DefaultPath(), "Path to the config file")
	flag.StringVar(&cli.Addr, "addr", "", "Listen address (overrides config)")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")
	flag.StringVar(&cli.DiscoverURL, "discover", "", "Run one discovery against this URL and exit")
	flag.StringVar(&cli.ServiceID, "service", "", "Service id for -discover")
	flag.StringVar(&cli.Email, "email", "", "Login email for -discover")
	flag.StringVar(&cli.Password, "password", "", "Login password for -discover")
	flag.StringVar(&cli.APIKey, "service-api-key", "", "Service API key for -discover")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "webops - web service capability discovery and execution\n\n")
		fmt.Fprintf(os.Stderr, "Usage: webops [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY     Model provider API key\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_BASE_URL    Model provider base URL (for compatible APIs)\n")
		fmt.Fprintf(os.Stderr, "  WEBOPS_*           Config overrides (see pkg/config)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  webops                                   # Serve the HTTP API\n")
		fmt.Fprintf(os.Stderr, "  webops -addr :9000\n")
		fmt.Fprintf(os.Stderr, "  webops -discover https://chat.example.com -service example -email a@b.c -password secret\n")
	}

	flag.Parse()
	return cli
}

// run wires the application together and serves or runs one discovery.
func run(ctx context.Context, cli *cliConfig) error {
	cfg, err := appconfig.Load(cli.ConfigPath)
	if err != nil {
		return err
	}
	if cli.Addr != "" {
		cfg.Server.Addr = cli.Addr
	}

	var providerOpts []openai.ProviderOption
	if cfg.LLM.Model != "" {
		providerOpts = append(providerOpts, openai.WithModel(cfg.LLM.Model))
	}
	if cfg.LLM.BaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}
	provider, err := openai.NewProvider(cfg.LLM.APIKey, providerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create model provider: %w", err)
	}

	manager := browser.NewSessionManager(cfg.Headless())
	manager.SetMaxSessions(cfg.Browser.MaxSessions)
	if err := manager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer manager.Shutdown()

	driver := browser.NewClient(manager, provider)

	st, err := store.Open(cfg.Store.Path, cfg.Store.Secret)
	if err != nil {
		return err
	}
	defer st.Close()

	pipeline := discovery.NewPipeline(driver, nil)

	if cli.DiscoverURL != "" {
		return runDiscover(ctx, cli, pipeline, st)
	}

	hub := progress.NewHub()
	sink := progress.Multi(hub, progress.NewLogSink())

	exec := executor.NewOperationExecutor(driver)
	queue := executor.NewExecutionQueue(exec, st, sink)
	defer queue.Shutdown()

	srv := server.New(pipeline, queue, st, hub, sink)
	return srv.Run(cfg.Server.Addr)
}

// runDiscover runs a single discovery, persists the config, and prints it.
func runDiscover(ctx context.Context, cli *cliConfig, pipeline *discovery.Pipeline, st *store.Store) error {
	if cli.ServiceID == "" {
		return fmt.Errorf("-discover requires -service")
	}

	creds := types.Credentials{
		Email:    cli.Email,
		Password: cli.Password,
		APIKey:   cli.APIKey,
	}

	config, err := pipeline.Discover(ctx, cli.ServiceID, cli.DiscoverURL, creds, cli.ServiceID, progress.NewLogSink())
	if err != nil {
		return err
	}

	if err := st.SaveServiceConfig(ctx, config); err != nil {
		return err
	}
	if err := st.SaveCredentials(ctx, cli.ServiceID, creds); err != nil {
		return err
	}

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
