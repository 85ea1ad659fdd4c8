package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"owlet-mcp/owlet"

	"github.com/rs/zerolog/log"
)

const serverName = "owlet-monitor"

// claudeConfigPath is where Claude Desktop keeps its MCP server list.
func claudeConfigPath() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA is not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "claude", "claude_desktop_config.json"), nil
	}
}

// serverEntry is the mcpServers entry that launches this binary.
func serverEntry(binary, envFile string, creds owlet.Credentials) map[string]any {
	entry := map[string]any{"command": binary}
	if envFile != "" {
		abs, err := filepath.Abs(envFile)
		if err == nil {
			envFile = abs
		}
		entry["args"] = []string{"-env", envFile}
		return entry
	}

	env := map[string]string{"OWLET_REGION": creds.Region}
	if creds.User != "" {
		env["OWLET_USER"] = creds.User
	}
	if creds.Password != "" {
		env["OWLET_PASSWORD"] = creds.Password
	}
	if creds.SecretID != "" {
		env["OWLET_SECRET_ID"] = creds.SecretID
	}
	entry["args"] = []string{}
	entry["env"] = env
	return entry
}

// mergeConfig adds or replaces the owlet-monitor entry in an existing config,
// keeping every other setting. Empty input starts a new config.
func mergeConfig(existing []byte, entry map[string]any) ([]byte, error) {
	config := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("existing config is not valid JSON: %w", err)
		}
	}

	servers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		servers = map[string]any{}
	}
	servers[serverName] = entry
	config["mcpServers"] = servers

	return json.MarshalIndent(config, "", "  ")
}

// runSetup writes the Claude Desktop entry for this server to configPath, or
// to the platform default when configPath is empty. When the file cannot be
// written the merged config is printed to out for manual installation.
func runSetup(out io.Writer, configPath, envFile string, creds owlet.Credentials) error {
	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate server binary: %w", err)
	}

	if configPath == "" {
		if configPath, err = claudeConfigPath(); err != nil {
			return fmt.Errorf("failed to locate Claude Desktop config: %w", err)
		}
	}

	existing, err := os.ReadFile(configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", configPath, err)
	}

	merged, err := mergeConfig(existing, serverEntry(binary, envFile, creds))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err == nil {
		err = os.WriteFile(configPath, merged, 0o600)
		if err == nil {
			log.Info().Str("path", configPath).Msg("Claude Desktop configuration written")
			fmt.Fprintf(out, "Configuration written to %s\nRestart Claude Desktop to load the %s server.\n", configPath, serverName)
			return nil
		}
		log.Warn().Err(err).Str("path", configPath).Msg("Failed to write Claude Desktop configuration")
	}

	fmt.Fprintf(out, "Add this to %s manually:\n%s\n", configPath, merged)
	return nil
}
