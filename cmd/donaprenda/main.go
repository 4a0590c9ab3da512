package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donaprenda/internal/cache"
	"donaprenda/internal/chat"
	"donaprenda/internal/config"
	"donaprenda/internal/logging"
	"donaprenda/internal/storage"
	"donaprenda/internal/telemetry"
	"donaprenda/internal/terminal"

	"github.com/joho/godotenv"
)

// defaultTerminalLog keeps terminal mode logs off the screen.
const defaultTerminalLog = "donaprenda.log"

func main() {
	var serve bool
	var addr string
	var help bool

	flag.BoolVar(&serve, "serve", false, "Run the web UI instead of the terminal chat")
	flag.StringVar(&addr, "addr", "", "Address to bind in server mode (default $ADDR or :8080)")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, serve); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, serve bool) error {
	tel, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "error", err)
		}
	}()

	extra := []slog.Handler{tel.LogHandler}
	blobCfg := logging.BlobConfig{
		AccountName: cfg.Storage.AzureAccount,
		AccountKey:  cfg.Storage.AzureAccountKey,
		Container:   cfg.Log.BlobContainer,
	}
	if blobCfg.Enabled() {
		sink, err := logging.NewBlobHandler(ctx, blobCfg)
		if err != nil {
			return fmt.Errorf("failed to create log sink: %w", err)
		}
		defer func() { _ = sink.Close() }()
		extra = append(extra, sink)
	}

	console, logFile := io.Writer(os.Stderr), cfg.Log.File
	if !serve {
		console = io.Discard
		if logFile == "" {
			logFile = defaultTerminalLog
		}
	}
	_, cleanup, err := logging.NewTo(console, cfg.Log.Level, logFile, extra...)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer cleanup()

	c, err := cache.MakeCache(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	if closer, ok := c.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	store := storage.NewStore(c)

	chef, err := newChef(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to create recipe chef: %w", err)
	}

	controller, err := chat.New(ctx, chat.Options{Chef: chef, Store: store})
	if err != nil {
		return fmt.Errorf("failed to start chat: %w", err)
	}

	if serve {
		return runServer(ctx, cfg, controller, store)
	}
	return terminal.Run(ctx, controller, terminal.Options{Timeout: cfg.AI.Timeout})
}

func showHelp() {
	fmt.Println("Dona Prenda - tua parceira na cozinha gaúcha")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  donaprenda            chat in the terminal")
	fmt.Println("  donaprenda -serve     serve the web UI")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -serve          Run the web UI")
	fmt.Println("  -addr           Address to bind in server mode")
	fmt.Println("  -help, -h       Show this help message")
	fmt.Println()
	fmt.Println("Configuration comes from the environment or a .env file, see AI_PROVIDER and AI_API_KEY.")
}
