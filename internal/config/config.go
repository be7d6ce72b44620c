package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for RetireBot.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Router    RouterConfig              `json:"router"`
	Assistant AssistantConfig           `json:"assistant"`
	Reasoners map[string]ReasonerConfig `json:"reasoners"`
	Channels  ChannelsConfig            `json:"channels"`
	Memory    MemoryConfig              `json:"memory"`
	Knowledge KnowledgeConfig           `json:"knowledge"`
	Metrics   MetricsConfig             `json:"metrics"`
	Eval      EvalConfig                `json:"eval"`
}

type GeneralConfig struct {
	LogLevel              string   `json:"logLevel"`
	LogFile               string   `json:"logFile,omitempty"`
	DefaultReasoner       string   `json:"defaultReasoner"`
	FailoverChain         []string `json:"failoverChain,omitempty"` // reasoner fallback order
	MaxConcurrentMessages int      `json:"maxConcurrentMessages"`
	RateBurst             int      `json:"rateBurst,omitempty"`          // per-session burst allowance
	RatePerMinute         float64  `json:"ratePerMinute,omitempty"`      // per-session sustained rate
}

// RouterConfig tunes the query classifier.
type RouterConfig struct {
	// ConfidenceThreshold is the minimum confidence for a specialist
	// route; below it the general responder handles the turn.
	ConfidenceThreshold float64 `json:"confidenceThreshold"`

	// MaxHistoryTurns bounds how many recent turns the router scans for
	// weak domain signals. 0 means history is not scanned beyond the
	// last-active-domain continuity bias.
	MaxHistoryTurns int `json:"maxHistoryTurns"`

	// Profiles maps a domain name to its keyword signals. Merged over
	// the built-in defaults, so a deployment can extend or replace the
	// signal sets per domain.
	Profiles map[string]DomainProfile `json:"profiles,omitempty"`
}

// DomainProfile holds the routing signals for one specialist domain.
type DomainProfile struct {
	Keywords       []string `json:"keywords"`                 // weak signals
	StrongKeywords []string `json:"strongKeywords,omitempty"` // signals that override continuity
}

type AssistantConfig struct {
	// DisclaimerText is appended (exactly once) to any reply flagged as
	// needing official verification.
	DisclaimerText string `json:"disclaimerText"`

	// ApologyText is returned when the reasoning step fails for a turn.
	ApologyText string `json:"apologyText"`

	// HistoryWindow is how many recent turns are passed to the reasoner.
	HistoryWindow int `json:"historyWindow"`

	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ReasonerConfig struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"apiKey,omitempty"`
	APIBase string `json:"apiBase,omitempty"`
	Model   string `json:"model,omitempty"`
}

type ChannelsConfig struct {
	CLI       CLIConfig       `json:"cli"`
	Web       WebConfig       `json:"web"`
	WebSocket WebSocketConfig `json:"websocket"`
	Telegram  TelegramConfig  `json:"telegram"`
}

type CLIConfig struct {
	Enabled bool `json:"enabled"`
}

type WebConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type WebSocketConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path,omitempty"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom,omitempty"`
	ParseMode string   `json:"parseMode,omitempty"`
}

type MemoryConfig struct {
	// Backend selects the session store: "memory" or "sqlite".
	Backend string `json:"backend"`
	DBPath  string `json:"dbPath,omitempty"`
}

type KnowledgeConfig struct {
	// PackDir holds optional YAML topic packs that extend or override
	// the built-in knowledge data.
	PackDir string `json:"packDir,omitempty"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint,omitempty"`
}

type EvalConfig struct {
	// File is a JSONL case suite for `retirebot eval`. Empty means the
	// built-in suite.
	File string `json:"file,omitempty"`
}

// DefaultConfigDir returns ~/.retirebot.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".retirebot"
	}
	return filepath.Join(home, ".retirebot")
}

// DefaultConfigPath returns ~/.retirebot/config.json.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads a config file, expands environment variables, applies it
// over Defaults() and validates the result.
func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Memory.DBPath = expandPath(cfg.Memory.DBPath)
	cfg.General.LogFile = expandPath(cfg.General.LogFile)
	cfg.Knowledge.PackDir = expandPath(cfg.Knowledge.PackDir)
	cfg.Eval.File = expandPath(cfg.Eval.File)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is
// unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, def := groups[1], groups[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return def
	})
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Save writes the config as indented JSON, creating the directory if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Router.ConfidenceThreshold < 0 || cfg.Router.ConfidenceThreshold > 1 {
		errs = append(errs, "router.confidenceThreshold must be in [0,1]")
	}
	if cfg.Router.MaxHistoryTurns < 0 {
		errs = append(errs, "router.maxHistoryTurns must be >= 0")
	}
	if cfg.Assistant.HistoryWindow < 1 {
		errs = append(errs, "assistant.historyWindow must be >= 1")
	}
	if cfg.General.MaxConcurrentMessages < 1 || cfg.General.MaxConcurrentMessages > 100 {
		errs = append(errs, "general.maxConcurrentMessages must be between 1 and 100")
	}
	if cfg.Channels.Web.Port < 0 || cfg.Channels.Web.Port > 65535 {
		errs = append(errs, "channels.web.port must be between 0 and 65535")
	}
	if cfg.Channels.WebSocket.Port < 0 || cfg.Channels.WebSocket.Port > 65535 {
		errs = append(errs, "channels.websocket.port must be between 0 and 65535")
	}
	switch cfg.Memory.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, "memory.backend must be one of: memory, sqlite")
	}
	if cfg.Memory.Backend == "sqlite" && cfg.Memory.DBPath == "" {
		errs = append(errs, "memory.dbPath is required for the sqlite backend")
	}
	if _, ok := cfg.Reasoners[cfg.General.DefaultReasoner]; !ok {
		errs = append(errs, fmt.Sprintf("general.defaultReasoner %q has no reasoners entry", cfg.General.DefaultReasoner))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
