// ABOUTME: Entry point for the larpd management server
// ABOUTME: Serves the entity store, rule set, and aggregation views over HTTP

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/larpforge/larpd/internal/api"
	"github.com/larpforge/larpd/internal/auth"
	"github.com/larpforge/larpd/internal/config"
	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/service"
	"github.com/larpforge/larpd/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                      _
| | __ _ _ __ _ __   __| |
| |/ _' | '__| '_ \ / _' |
| | (_| | |  | |_) | (_| |
|_|\__,_|_|  | .__/ \__,_|
             |_|
`

// getConfigPath returns the path to the larpd config file.
// Priority: LARPD_CONFIG env var > XDG_CONFIG_HOME/larpd/larpd.yaml > ~/.config/larpd/larpd.yaml
func getConfigPath() string {
	if envPath := os.Getenv("LARPD_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "larpd.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "larpd", "larpd.yaml")
}

// getDataPath returns the path to the larpd data directory.
// Priority: XDG_DATA_HOME/larpd > ~/.local/share/larpd
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "larpd")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: larpd <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                    Start the management server")
		fmt.Println("  init                     Create a new config file interactively")
		fmt.Println("  bootstrap --email EMAIL  Create the first user account and token")
		fmt.Println("  health                   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "bootstrap":
		err = runBootstrap(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file if present, otherwise falls back to
// environment variables only
func loadConfig() (*config.Config, string, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		cfg, err := config.FromEnv()
		return cfg, "(env)", err
	}
	cfg, err := config.Load(configPath)
	return cfg, configPath, err
}

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	logger.Info("starting larpd",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"db_path", cfg.Database.Path,
	)

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	svc := service.New(st, rules.NewAuthorizer(st), verifier, cfg.Auth.TokenTTL)
	srv := api.NewServer(svc, st, verifier)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu    sync.Mutex
	level slog.Level
	attrs []slog.Attr
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{level: h.level, attrs: newAttrs}
}

func (h *colorHandler) WithGroup(string) slog.Handler {
	return h
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return defaultValue
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("larpd configuration setup")
	fmt.Println("=========================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	defaultDbPath := filepath.Join(getDataPath(), "larpd.db")

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	fmt.Println("\n--- Auth Configuration ---")
	secret := prompt(reader, "JWT secret (leave empty to generate)", "")
	if secret == "" {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("generating secret: %w", err)
		}
		secret = base64.RawURLEncoding.EncodeToString(raw)
	}
	tokenTTL := prompt(reader, "Token lifetime", "24h")

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# larpd configuration\n")
	cfg.WriteString("# Generated by larpd init\n\n")
	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n\n", httpAddr))
	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n\n", dbPath))
	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n", secret))
	cfg.WriteString(fmt.Sprintf("  token_ttl: %q\n\n", tokenTTL))
	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))

	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Println()
	color.Green("Config written to %s", outputFile)
	fmt.Println("Start the server with: larpd serve")
	return nil
}

// runBootstrap creates the first user account directly against the store
// and prints its credentials and a login token
func runBootstrap(ctx context.Context) error {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	email := fs.String("email", "", "email address for the account")
	name := fs.String("name", "Admin", "display name for the account")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	raw := make([]byte, 18)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	password := base64.RawURLEncoding.EncodeToString(raw)

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	svc := service.New(st, rules.NewAuthorizer(st), verifier, cfg.Auth.TokenTTL)

	u, err := svc.Register(ctx, service.RegisterInput{
		Email: *email, Password: password, Name: *name,
	})
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	token, err := verifier.Generate(u.ID, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	color.Green("Account created")
	fmt.Printf("  ID:       %s\n", u.ID)
	fmt.Printf("  Email:    %s\n", u.Email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Printf("  Token:    %s\n", token)
	fmt.Println()
	fmt.Println("Store the password now. It is not recoverable later.")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
