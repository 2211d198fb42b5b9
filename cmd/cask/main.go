// ABOUTME: Companion CLI for caskd, authenticating with the shared CLI secret
// ABOUTME: Reads a TOML config and talks to the /api/cli routes

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
)

// cliConfig is the companion CLI's own configuration, separate from the
// server's YAML. Environment variables override file values.
type cliConfig struct {
	ServerURL string `toml:"server_url"`
	CLISecret string `toml:"cli_secret"`
}

// getConfigPath returns the path to the cask CLI config file.
// Priority: CASK_CLI_CONFIG env var > XDG_CONFIG_HOME/cask/cask.toml > ~/.config/cask/cask.toml
func getConfigPath() string {
	if envPath := os.Getenv("CASK_CLI_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "cask.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "cask", "cask.toml")
}

func loadConfig() (*cliConfig, error) {
	var cfg cliConfig

	path := getConfigPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if url := os.Getenv("CASK_SERVER_URL"); url != "" {
		cfg.ServerURL = url
	}
	if secret := os.Getenv("CASK_CLI_SECRET"); secret != "" {
		cfg.CLISecret = secret
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://127.0.0.1:8264"
	}

	return &cfg, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: cask <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  ping    Check connectivity and CLI authentication")
		fmt.Println("  users   List user accounts")
		fmt.Println("  status  Summarize server health and CLI auth state")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ping":
		err = runPing(ctx, cfg)
	case "users":
		err = runUsers(ctx, cfg)
	case "status":
		err = runStatus(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// doCLIRequest performs an authenticated GET against a CLI route.
// Authentication failures surface the server's message verbatim, so the
// not-configured diagnostic reaches the operator unchanged.
func doCLIRequest(ctx context.Context, cfg *cliConfig, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ServerURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CLI-Token", cfg.CLISecret)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errBody) == nil && errBody.Message != "" {
			return nil, fmt.Errorf("%s", errBody.Message)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	return body, nil
}

func runPing(ctx context.Context, cfg *cliConfig) error {
	start := time.Now()
	body, err := doCLIRequest(ctx, cfg, "/api/cli/ping")
	if err != nil {
		return err
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("%s ", status.Status)
	fmt.Printf("(%s, %v)\n", cfg.ServerURL, time.Since(start).Round(time.Millisecond))
	return nil
}

// runStatus summarizes server reachability and CLI auth state in one view.
// Health is probed unauthenticated so a bad secret still shows a live server.
func runStatus(ctx context.Context, cfg *cliConfig) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Printf("server:   %s\n", cfg.ServerURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ServerURL+"/healthz", nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		red.Println("health:   unreachable")
		return fmt.Errorf("server unreachable: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		green.Println("health:   ok")
	} else {
		red.Printf("health:   status %d\n", resp.StatusCode)
	}

	if _, err := doCLIRequest(ctx, cfg, "/api/cli/ping"); err != nil {
		red.Printf("cli auth: %v\n", err)
		return nil
	}
	green.Println("cli auth: ok")
	return nil
}

func runUsers(ctx context.Context, cfg *cliConfig) error {
	body, err := doCLIRequest(ctx, cfg, "/api/cli/users")
	if err != nil {
		return err
	}

	var out struct {
		Users []struct {
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
			Role        string `json:"role"`
		} `json:"users"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if len(out.Users) == 0 {
		fmt.Println("No users.")
		return nil
	}

	bold := color.New(color.Bold)
	for _, u := range out.Users {
		bold.Printf("%-20s", u.Username)
		fmt.Printf(" %-8s %s\n", u.Role, u.DisplayName)
	}
	return nil
}
