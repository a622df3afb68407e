// Package main is the entry point for the Strand daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/strand-ai/strand/internal/api"
	"github.com/strand-ai/strand/internal/core/executor"
	"github.com/strand-ai/strand/internal/core/run"
	"github.com/strand-ai/strand/internal/crypto"
	"github.com/strand-ai/strand/internal/models"
	"github.com/strand-ai/strand/internal/provider"
	"github.com/strand-ai/strand/internal/store"
	"github.com/strand-ai/strand/internal/tokens"
	"github.com/strand-ai/strand/pkg/types"
)

var (
	configPath  = flag.String("config", "", "Path to config file")
	initMode    = flag.Bool("init", false, "Initialize a new Strand instance")
	projectPath = flag.String("path", ".", "Project path for initialization")
	showVersion = flag.Bool("version", false, "Show version")
)

const version = "0.1.0"

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("strandd version %s\n", version)
		os.Exit(0)
	}

	if *initMode {
		if err := initializeStrand(*projectPath); err != nil {
			log.Fatalf("Initialization failed: %v", err)
		}
		fmt.Println("Strand initialized successfully!")
		os.Exit(0)
	}

	// Load configuration
	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Run the server
	if err := runServer(config); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func loadConfig(path string) (*types.Config, error) {
	// Use default config if no path specified
	if path == "" {
		// Try common paths
		candidates := []string{
			"strand.yaml",
			"strand.yml",
			".strand/config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	// Return default config if no file found
	if path == "" {
		return types.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := types.DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

func runServer(config *types.Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting Strand daemon", zap.String("version", version))

	// Initialize crypto
	keyManager := crypto.NewKeyManager(config.Crypto.IdentityPath)
	if err := keyManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize crypto: %w", err)
	}
	logger.Info("Crypto initialized", zap.String("public_key", keyManager.PublicKeyHint()))

	payloadService := crypto.NewPayloadService(keyManager)

	// Initialize store
	db := store.NewStore(config.Store.Path)
	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()
	logger.Info("Store initialized", zap.String("path", config.Store.Path))

	workflowStore := store.NewWorkflowStore(db)
	providerStore := store.NewProviderStore(db)

	// Initialize core components
	catalog := models.NewCatalog(providerStore, payloadService)
	estimator := tokens.NewEstimator()
	registry := provider.NewRegistry(
		providerStore,
		estimator,
		time.Duration(config.Engine.RequestTimeoutSec)*time.Second,
		logger.Named("provider"),
	)
	exec := executor.New(executor.Policy{
		MaxRetries: config.Engine.MaxRetries,
		BaseDelay:  time.Duration(config.Engine.BaseDelayMS) * time.Millisecond,
	}, logger.Named("executor"))
	runEngine := run.NewEngine(exec, registry, catalog, logger.Named("run"))

	// Initialize API router
	router := api.NewRouter(workflowStore, providerStore, catalog, runEngine)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router.Handler(),
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Print startup info
	logger.Info("Strand workflow engine ready",
		zap.String("api", fmt.Sprintf("http://%s/api/v1", addr)),
		zap.String("websocket", fmt.Sprintf("ws://%s/ws", addr)),
	)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop any in-flight run before closing the store
	if err := runEngine.Cancel(); err == nil {
		logger.Info("Cancelled active run")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func initializeStrand(projectPath string) error {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return err
	}

	// Create .strand directory
	strandDir := filepath.Join(absPath, ".strand")
	if err := os.MkdirAll(strandDir, 0755); err != nil {
		return fmt.Errorf("failed to create .strand directory: %w", err)
	}

	// Create default config
	config := types.DefaultConfig()
	config.Store.Path = filepath.Join(absPath, "strand.db")
	config.Crypto.IdentityPath = filepath.Join(strandDir, "strand.key")

	configData, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(absPath, "strand.yaml")
	if err := os.WriteFile(configPath, configData, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("Created config: %s\n", configPath)

	// Initialize crypto
	keyManager := crypto.NewKeyManager(config.Crypto.IdentityPath)
	if err := keyManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize crypto: %w", err)
	}
	fmt.Printf("Created identity: %s\n", config.Crypto.IdentityPath)
	fmt.Printf("Public key: %s\n", keyManager.PublicKey())

	// Initialize store
	db := store.NewStore(config.Store.Path)
	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	db.Close()
	fmt.Printf("Created database: %s\n", config.Store.Path)

	fmt.Println("\nStrand initialization complete!")
	fmt.Println("Run 'strandd' to start the server.")

	return nil
}
