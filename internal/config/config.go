package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingKey is returned when a required secret is not configured.
var ErrMissingKey = errors.New("missing required config")

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	PlantNet PlantNetConfig
	Care     CareConfig
	News     NewsConfig
	Media    MediaConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port  int
	Token string
}

type StorageConfig struct {
	DataDir string
	Engine  string
}

type PlantNetConfig struct {
	APIKey  string
	BaseURL string
	Project string
	Lang    string
}

type CareConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

type NewsConfig struct {
	Feeds []string
}

type MediaConfig struct {
	AllowCamera    bool
	AllowGallery   bool
	CaptureCommand string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
			Engine:  "sqlite",
		},
		PlantNet: PlantNetConfig{
			BaseURL: "https://my-api.plantnet.org",
			Project: "all",
			Lang:    "en",
		},
		Care: CareConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			MaxTokens:   300,
			Temperature: 0.7,
		},
		News: NewsConfig{
			Feeds: []string{"https://www.1garden.com/feed/"},
		},
		Media: MediaConfig{
			AllowCamera:  true,
			AllowGallery: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file, environment variables
// and the secrets file.
//
// The config file lives at $XDG_CONFIG_HOME/botanic/config.json and secrets
// at $XDG_DATA_HOME/botanic/secrets.json. Environment variables (BOTANIC_*)
// override both.
//
// Missing API keys are not an error here; commands that need them call
// RequirePlantNetKey.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), fileSecrets{})
}

// secretStore abstracts the secrets file for testing.
type secretStore interface {
	Get(account string) (string, error)
	Set(account, value string) error
}

func loadWith(b ConfigBackend, ss secretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, ss)

	return cfg, nil
}

// applySecrets fills secrets still empty after env overrides from the store.
func applySecrets(cfg *Config, ss secretStore) {
	for _, s := range specs {
		if !s.secret {
			continue
		}
		if cur, _ := s.extract(*cfg).(string); cur != "" {
			continue
		}
		if v, err := ss.Get(s.key); err == nil && v != "" {
			s.apply(cfg, strings.TrimSpace(v))
		}
	}
}

// RequirePlantNetKey reports an error naming where the identification API
// key can be set.
func (c Config) RequirePlantNetKey() error {
	if c.PlantNet.APIKey != "" {
		return nil
	}
	return fmt.Errorf("%w: PlantNet API key. Set it via environment variable BOTANIC_PLANTNET_API_KEY or %s (account: plantnet.api_key)",
		ErrMissingKey, secretsFilePath())
}

// EnsureServerToken returns the API bearer token, generating and storing
// one on first use.
func EnsureServerToken(cfg *Config) (string, error) {
	return ensureTokenWith(cfg, fileSecrets{})
}

func ensureTokenWith(cfg *Config, ss secretStore) (string, error) {
	if cfg.Server.Token != "" {
		return cfg.Server.Token, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(buf)
	if err := ss.Set("server.token", token); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	cfg.Server.Token = token
	return token, nil
}

// splitList parses a comma separated list, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
