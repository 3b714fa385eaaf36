package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the quorum configuration.
type Config struct {
	Backend        string      `yaml:"backend"`
	Temperature    float64     `yaml:"temperature"`
	Agents         []string    `yaml:"agents,omitempty"`
	Parallel       bool        `yaml:"parallel"`
	TimeoutSeconds int         `yaml:"timeoutSeconds"`
	CommentRetries int         `yaml:"commentRetries"`
	Format         string      `yaml:"format"`
	RedactSecrets  bool        `yaml:"redactSecrets"`
	Local          LocalConfig `yaml:"local"`
	Azure          AzureConfig `yaml:"azure"`
}

// LocalConfig points at the locally hosted backend.
type LocalConfig struct {
	URL   string `yaml:"url,omitempty"`
	Model string `yaml:"model,omitempty"`
}

// AzureConfig holds the hosted backend credentials and endpoints. Secrets are
// normally supplied through the environment, not the config file.
type AzureConfig struct {
	TenantID       string `yaml:"tenantId,omitempty"`
	ClientID       string `yaml:"clientId,omitempty"`
	ClientSecret   string `yaml:"clientSecret,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	TokenURL       string `yaml:"tokenUrl,omitempty"`
	Scope          string `yaml:"scope,omitempty"`
	CompletionsURL string `yaml:"completionsUrl,omitempty"`
	Deployment     string `yaml:"deployment,omitempty"`
	APIVersion     string `yaml:"apiVersion,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Backend:        "local",
		Temperature:    0.1,
		Parallel:       true,
		TimeoutSeconds: 360,
		CommentRetries: 2,
		Format:         "text",
		RedactSecrets:  true,
		Azure: AzureConfig{
			Deployment: "gpt-4",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for quorum.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quorum"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "quorum"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "quorum"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "quorum"), nil
	default:
		return filepath.Join(home, ".config", "quorum"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only set values appear).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return Config{}, fmt.Errorf("temperature %.2f out of range [0.0, 1.0]", cfg.Temperature)
	}

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Backend != "" {
		dst.Backend = src.Backend
	}
	if src.Temperature > 0 {
		dst.Temperature = src.Temperature
	}
	if len(src.Agents) > 0 {
		dst.Agents = src.Agents
	}
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.CommentRetries > 0 {
		dst.CommentRetries = src.CommentRetries
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.Local.URL != "" {
		dst.Local.URL = src.Local.URL
	}
	if src.Local.Model != "" {
		dst.Local.Model = src.Local.Model
	}
	mergeAzure(&dst.Azure, src.Azure)
}

func mergeAzure(dst *AzureConfig, src AzureConfig) {
	if src.TenantID != "" {
		dst.TenantID = src.TenantID
	}
	if src.ClientID != "" {
		dst.ClientID = src.ClientID
	}
	if src.ClientSecret != "" {
		dst.ClientSecret = src.ClientSecret
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.TokenURL != "" {
		dst.TokenURL = src.TokenURL
	}
	if src.Scope != "" {
		dst.Scope = src.Scope
	}
	if src.CompletionsURL != "" {
		dst.CompletionsURL = src.CompletionsURL
	}
	if src.Deployment != "" {
		dst.Deployment = src.Deployment
	}
	if src.APIVersion != "" {
		dst.APIVersion = src.APIVersion
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("QUORUM_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("QUORUM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = f
		}
	}
	if v := os.Getenv("QUORUM_AGENTS"); v != "" {
		cfg.Agents = splitList(v)
	}
	if v := os.Getenv("QUORUM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("QUORUM_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Local.URL = v
	}
	if v := os.Getenv("QUORUM_LOCAL_MODEL"); v != "" {
		cfg.Local.Model = v
	}

	if v := os.Getenv("AZURE_TENANT_ID"); v != "" {
		cfg.Azure.TenantID = v
	}
	if v := os.Getenv("AZURE_CLIENT_ID"); v != "" {
		cfg.Azure.ClientID = v
	}
	if v := os.Getenv("AZURE_CLIENT_SECRET"); v != "" {
		cfg.Azure.ClientSecret = v
	}
	if v := os.Getenv("AZURE_ENDPOINT"); v != "" {
		cfg.Azure.Endpoint = v
	}
	if v := os.Getenv("AZURE_TOKEN_URL"); v != "" {
		cfg.Azure.TokenURL = v
	}
	if v := os.Getenv("AZURE_SCOPE"); v != "" {
		cfg.Azure.Scope = v
	}
	if v := os.Getenv("AZURE_OPENAI_URL"); v != "" {
		cfg.Azure.CompletionsURL = v
	}
	if v := os.Getenv("AZURE_DEPLOYMENT_NAME"); v != "" {
		cfg.Azure.Deployment = v
	}
	if v := os.Getenv("AZURE_API_VERSION"); v != "" {
		cfg.Azure.APIVersion = v
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["backend"]; ok && v != "" {
		cfg.Backend = v
	}
	if v, ok := overrides["temperature"]; ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = f
		}
	}
	if v, ok := overrides["agents"]; ok && v != "" {
		cfg.Agents = splitList(v)
	}
	if v, ok := overrides["parallel"]; ok && v != "" {
		cfg.Parallel = v == "true"
	}
	if v, ok := overrides["timeoutSeconds"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Format = v
	}
}

// SetField sets a single config field by key name. Returns an error if the
// key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "backend":
		cfg.Backend = value
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number: %w", err)
		}
		cfg.Temperature = f
	case "agents":
		cfg.Agents = splitList(value)
	case "parallel":
		cfg.Parallel = value == "true"
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "commentRetries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("commentRetries must be an integer: %w", err)
		}
		cfg.CommentRetries = n
	case "format":
		cfg.Format = value
	case "local.url":
		cfg.Local.URL = value
	case "local.model":
		cfg.Local.Model = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
