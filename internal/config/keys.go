package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "BOTANIC_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "BOTANIC_SERVER_TOKEN",
		secret: true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "storage.data_dir", typ: kString, env: "BOTANIC_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.engine", typ: kString, env: "BOTANIC_STORAGE_ENGINE",
		apply:   func(cfg *Config, v any) { cfg.Storage.Engine = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Engine },
	},
	{
		key: "plantnet.api_key", typ: kString, env: "BOTANIC_PLANTNET_API_KEY",
		secret: true,
		apply:   func(cfg *Config, v any) { cfg.PlantNet.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.PlantNet.APIKey },
	},
	{
		key: "plantnet.base_url", typ: kString, env: "BOTANIC_PLANTNET_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.PlantNet.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.PlantNet.BaseURL },
	},
	{
		key: "plantnet.project", typ: kString, env: "BOTANIC_PLANTNET_PROJECT",
		apply:   func(cfg *Config, v any) { cfg.PlantNet.Project = v.(string) },
		extract: func(cfg Config) any { return cfg.PlantNet.Project },
	},
	{
		key: "plantnet.lang", typ: kString, env: "BOTANIC_PLANTNET_LANG",
		apply:   func(cfg *Config, v any) { cfg.PlantNet.Lang = v.(string) },
		extract: func(cfg Config) any { return cfg.PlantNet.Lang },
	},
	{
		key: "care.api_key", typ: kString, env: "BOTANIC_CARE_API_KEY",
		secret: true,
		apply:   func(cfg *Config, v any) { cfg.Care.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Care.APIKey },
	},
	{
		key: "care.base_url", typ: kString, env: "BOTANIC_CARE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Care.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Care.BaseURL },
	},
	{
		key: "care.model", typ: kString, env: "BOTANIC_CARE_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Care.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Care.Model },
	},
	{
		key: "care.max_tokens", typ: kInt, env: "BOTANIC_CARE_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Care.MaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Care.MaxTokens },
	},
	{
		key: "care.temperature", typ: kFloat, env: "BOTANIC_CARE_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.Care.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.Care.Temperature },
	},
	{
		key: "news.feeds", typ: kString, env: "BOTANIC_NEWS_FEEDS",
		apply:   func(cfg *Config, v any) { cfg.News.Feeds = splitList(v.(string)) },
		extract: func(cfg Config) any { return strings.Join(cfg.News.Feeds, ",") },
	},
	{
		key: "media.allow_camera", typ: kBool, env: "BOTANIC_MEDIA_ALLOW_CAMERA",
		apply:   func(cfg *Config, v any) { cfg.Media.AllowCamera = v.(bool) },
		extract: func(cfg Config) any { return cfg.Media.AllowCamera },
	},
	{
		key: "media.allow_gallery", typ: kBool, env: "BOTANIC_MEDIA_ALLOW_GALLERY",
		apply:   func(cfg *Config, v any) { cfg.Media.AllowGallery = v.(bool) },
		extract: func(cfg Config) any { return cfg.Media.AllowGallery },
	},
	{
		key: "media.capture_command", typ: kString, env: "BOTANIC_MEDIA_CAPTURE_COMMAND",
		apply:   func(cfg *Config, v any) { cfg.Media.CaptureCommand = v.(string) },
		extract: func(cfg Config) any { return cfg.Media.CaptureCommand },
	},
	{
		key: "log.level", typ: kString, env: "BOTANIC_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					slog.Warn("could not parse bool from config key, using default", "key", s.key, "value", v, "error", err)
				}
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					slog.Warn("could not parse float from config key, using default", "key", s.key, "value", v, "error", err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				slog.Warn("could not parse integer from env var, using default", "env", s.env, "value", raw, "error", err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				slog.Warn("could not parse bool from env var, using default", "env", s.env, "value", raw, "error", err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				slog.Warn("could not parse float from env var, using default", "env", s.env, "value", raw, "error", err)
			}
		}
	}
}
