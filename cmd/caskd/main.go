// ABOUTME: Entry point for the caskd file server daemon
// ABOUTME: Subcommands for serving, config init, bootstrap, and health checks

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
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
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/caskhq/cask/internal/auth"
	"github.com/caskhq/cask/internal/config"
	"github.com/caskhq/cask/internal/server"
	"github.com/caskhq/cask/internal/store"
)

// version is set via -ldflags at build time.
var version = "dev"

const banner = `
                    _
   ___ __ _ ___| | __
  / __/ _' / __| |/ /
 | (_| (_| \__ \   <
  \___\__,_|___/_|\_\
`

// getConfigPath returns the path to the caskd config file.
// Priority: CASK_CONFIG env var > XDG_CONFIG_HOME/cask/caskd.yaml > ~/.config/cask/caskd.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CASK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "caskd.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "cask", "caskd.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: caskd <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                      Start the file server")
		fmt.Println("  init                       Create a new config file")
		fmt.Println("  bootstrap --username NAME  Create the initial admin user")
		fmt.Println("  health                     Check server health")
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

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n", cfg.Server.HTTPAddr)
	if cfg.WebDAV.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("WebDAV:  %s\n", cfg.WebDAV.Prefix)
	}
	if cfg.Auth.CLISecret == "" {
		yellow := color.New(color.FgYellow)
		yellow.Print("    ▶ ")
		fmt.Println("CLI:     disabled (set CLI_SECRET to enable)")
	}
	fmt.Println()

	logger.Info("starting caskd",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if cfg.Metrics.Enabled {
		auth.RegisterMetrics()
	}

	srv, err := server.New(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

const starterConfig = `server:
  http_addr: "127.0.0.1:8264"

database:
  path: "./cask.db"

storage:
  root: "./files"

auth:
  session_secret: "${CASK_SESSION_SECRET}"
  cli_secret: "${CLI_SECRET}"
  session_sweep_interval: "1h"

cors:
  allowed_origins: []

webdav:
  enabled: true
  prefix: "/dav/"

logging:
  level: "info"
  format: "text"

metrics:
  enabled: false
  path: "/metrics"
`

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Wrote starter config to %s\n", configPath)
	fmt.Println("Set CASK_SESSION_SECRET (32+ bytes) before starting, then run: caskd bootstrap --username <name>")
	return nil
}

func runBootstrap(ctx context.Context) error {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	username := fs.String("username", "", "username for the initial admin user")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("--username is required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	count, err := st.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("bootstrap refused: users already exist, use the admin API instead")
	}

	password, err := generatePassword(24)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Username:     *username,
		PasswordHash: string(hash),
		Role:         store.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}

	if err := st.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Println("Admin user created.")
	fmt.Printf("  username: %s\n", user.Username)
	fmt.Printf("  password: %s\n", password)
	fmt.Println("Store this password now; it is not shown again.")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, body)
	}

	var status map[string]string
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("parsing health response: %w", err)
	}

	fmt.Printf("Server healthy: %s\n", status["status"])
	return nil
}

// generatePassword returns a URL-safe base64 password from n random bytes.
func generatePassword(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
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

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{level: level}
	}

	return slog.New(handler)
}

// colorHandler renders colorized human-readable log lines for text format.
// Writes are serialized so concurrent goroutines do not interleave lines.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
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
		buf.WriteString(r.Level.String() + " ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, a)
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) writeAttr(buf *strings.Builder, a slog.Attr) {
	key := a.Key
	if len(h.groups) > 0 {
		key = strings.Join(h.groups, ".") + "." + key
	}
	buf.WriteString(color.HiBlackString(" " + key + "="))
	buf.WriteString(a.Value.String())
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	merged = append(merged, attrs...)
	return &colorHandler{level: h.level, attrs: merged, groups: h.groups}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, len(h.groups), len(h.groups)+1)
	copy(groups, h.groups)
	groups = append(groups, name)
	return &colorHandler{level: h.level, attrs: h.attrs, groups: groups}
}
