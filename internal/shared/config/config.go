package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	feedDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Source is one upstream news source, tried in configured order
type Source struct {
	Kind feedDomain.SourceKind `koanf:"kind"`
	URL  string                `koanf:"url"`
}

type Config struct {
	Destination      Destination       `koanf:"destination"`
	TelegramBotToken string            `koanf:"telegram_bot_token"`
	TelegramAPIURL   string            `koanf:"telegram_api_url"`
	DiscordBotToken  string            `koanf:"discord_bot_token"`
	DiscordAPIURL    string            `koanf:"discord_api_url"`
	ChannelID        string            `koanf:"channel_id"`
	PublisherName    string            `koanf:"publisher_name"`
	FeedSources      []Source          `koanf:"-"`
	ProductName      string            `koanf:"product_name"`
	UpdatePattern    string            `koanf:"update_path_pattern"`
	NewsPattern      string            `koanf:"news_path_pattern"`
	Keywords         []string          `koanf:"-"`
	Language         string            `koanf:"language"`
	ContentSelectors []string          `koanf:"-"`
	HostAliases      map[string]string `koanf:"-"`
	StoragePath      string            `koanf:"storage_path"`
	MarkerBackend    MarkerBackend     `koanf:"marker_backend"`
	HTTPPort         string            `koanf:"http_port"`
	UpdateInterval   int               `koanf:"update_interval"`
	FetchTimeout     int               `koanf:"fetch_timeout"`
	UserAgent        string            `koanf:"user_agent"`
	MessageLimit     int               `koanf:"message_limit"`
	PacingMS         int               `koanf:"pacing_ms"`
	HistoryDepth     int               `koanf:"history_depth"`
	MinContentLength int               `koanf:"min_content_length"`
	ForcePost        bool              `koanf:"force_post"`
	Debug            bool              `koanf:"debug"`
	AppEnv           AppEnv            `koanf:"app_env"`
}

var (
	DefaultKeywords         = []string{"update", "patch", "release notes", "client update"}
	DefaultContentSelectors = []string{".news-content", "#news-content", "article", "body"}
	DefaultHostAliases      = map[string]string{"steamstore-a.akamaihd.net": "store.steampowered.com"}
)

func Load() (*Config, error) {
	k := koanf.New(".")

	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Code(errors.CodeConfig).Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.Code(errors.CodeConfig).With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.Code(errors.CodeConfig).With("context", "loading environment variables").Wrap(err)
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(errors.CodeConfig).With("context", "unmarshaling config").Wrap(err)
	}

	sources, err := ParseSources(k.Get("feed_sources"))
	if err != nil {
		return nil, err
	}
	cfg.FeedSources = sources
	cfg.Keywords = stringList(k.Get("keywords"), DefaultKeywords)
	cfg.ContentSelectors = stringList(k.Get("content_selectors"), DefaultContentSelectors)
	cfg.HostAliases = ParseHostAliases(stringList(k.Get("host_aliases"), nil))

	if destination, err := ParseDestination(k.String("destination")); err == nil {
		cfg.Destination = destination
	}
	if backend, err := ParseMarkerBackend(k.String("marker_backend")); err == nil {
		cfg.MarkerBackend = backend
	}
	if env, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = env
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if !k.Exists("message_limit") {
		cfg.MessageLimit = cfg.DefaultMessageLimit()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default link patterns. Update paths cover store update pages and the
// announcement links returned by Steam's GetNewsForApp.
const (
	DefaultUpdatePathPattern = `(?i)/news/(?:updates?/|externalpost/steam_community_announcements/|app/\d+/view/)`
	DefaultNewsPathPattern   = `(?i)/news/post/`
)

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"destination":         "telegram",
		"telegram_api_url":    "https://api.telegram.org",
		"discord_api_url":     "",
		"publisher_name":      "patchnotes-feed",
		"product_name":        "",
		"update_path_pattern": DefaultUpdatePathPattern,
		"news_path_pattern":   DefaultNewsPathPattern,
		"language":            "english",
		"storage_path":        "./data",
		"marker_backend":      "file",
		"http_port":           "8080",
		"update_interval":     300,
		"fetch_timeout":       20,
		"user_agent":          "patchnotes-feed/1.0",
		"pacing_ms":           1000,
		"history_depth":       20,
		"min_content_length":  15,
		"app_env":             "production",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}

// Validate fails fast on settings the pipeline cannot start without
func (c *Config) Validate() error {
	if c.ChannelID == "" {
		return errors.ErrMissingChannel
	}

	switch c.Destination {
	case DestinationTelegram:
		if c.TelegramBotToken == "" {
			return errors.ErrMissingBotToken
		}
	case DestinationDiscord:
		if c.DiscordBotToken == "" {
			return errors.ErrMissingDiscordToken
		}
	default:
		return oops.Code(errors.CodeConfig).With("destination", c.Destination).Wrap(errors.ErrUnknownDestination)
	}

	if !c.MarkerBackend.IsValid() {
		return oops.Code(errors.CodeConfig).With("marker_backend", c.MarkerBackend).Wrap(errors.ErrUnknownMarkerBackend)
	}

	if len(c.FeedSources) == 0 {
		return errors.ErrNoFeedSources
	}

	for i, source := range c.FeedSources {
		if !source.Kind.IsValid() {
			return oops.Code(errors.CodeConfig).With("index", i, "kind", source.Kind).Wrap(errors.ErrInvalidFeedSource)
		}
		u, err := url.Parse(source.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return oops.Code(errors.CodeConfig).With("index", i, "url", source.URL).Wrap(errors.ErrInvalidFeedSource)
		}
	}

	for key, pattern := range map[string]string{"update_path_pattern": c.UpdatePattern, "news_path_pattern": c.NewsPattern} {
		if _, err := regexp.Compile(pattern); err != nil {
			return oops.Code(errors.CodeConfig).With("key", key, "pattern", pattern).Wrap(err)
		}
	}

	if c.UpdateInterval <= 0 {
		return oops.Code(errors.CodeConfig).With("update_interval", c.UpdateInterval).New("update interval must be positive")
	}
	if c.MessageLimit <= 0 {
		return oops.Code(errors.CodeConfig).With("message_limit", c.MessageLimit).New("message limit must be positive")
	}

	return nil
}

// DefaultMessageLimit returns the hard per-message limit of the destination
func (c *Config) DefaultMessageLimit() int {
	if c.Destination == DestinationDiscord {
		return 2000
	}
	return 4096
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateInterval) * time.Second
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Config) Pacing() time.Duration {
	return time.Duration(c.PacingMS) * time.Millisecond
}

// ParseSources accepts either a list of {kind, url} maps from a config file or
// a "kind|url,kind|url" string from the environment
func ParseSources(raw any) ([]Source, error) {
	switch v := raw.(type) {
	case nil:
		return []Source{}, nil
	case string:
		parts := lo.Compact(lo.Map(strings.Split(v, ","), func(part string, _ int) string {
			return strings.TrimSpace(part)
		}))
		sources := make([]Source, 0, len(parts))
		for _, part := range parts {
			kind, rawURL, ok := strings.Cut(part, "|")
			if !ok {
				return nil, oops.Code(errors.CodeConfig).With("source", part).Wrap(errors.ErrInvalidFeedSource)
			}
			source, err := newSource(kind, rawURL)
			if err != nil {
				return nil, err
			}
			sources = append(sources, source)
		}
		return sources, nil
	case []any:
		sources := make([]Source, 0, len(v))
		for i, item := range v {
			switch entry := item.(type) {
			case map[string]any:
				kind, _ := entry["kind"].(string)
				rawURL, _ := entry["url"].(string)
				source, err := newSource(kind, rawURL)
				if err != nil {
					return nil, err
				}
				sources = append(sources, source)
			case string:
				parsed, err := ParseSources(entry)
				if err != nil {
					return nil, err
				}
				sources = append(sources, parsed...)
			default:
				return nil, oops.Code(errors.CodeConfig).With("index", i).Wrap(errors.ErrInvalidFeedSource)
			}
		}
		return sources, nil
	default:
		return nil, oops.Code(errors.CodeConfig).With("type", fmt.Sprintf("%T", raw)).Wrap(errors.ErrInvalidFeedSource)
	}
}

func newSource(kind, rawURL string) (Source, error) {
	parsed, err := feedDomain.ParseSourceKind(strings.TrimSpace(kind))
	if err != nil {
		return Source{}, oops.Code(errors.CodeConfig).With("kind", kind).Wrap(err)
	}
	return Source{Kind: parsed, URL: strings.TrimSpace(rawURL)}, nil
}

// ParseHostAliases turns "alias=canonical" pairs into a lookup map. The
// built-in aliases are always present unless overridden.
func ParseHostAliases(pairs []string) map[string]string {
	aliases := lo.Assign(map[string]string{}, DefaultHostAliases)
	for _, pair := range pairs {
		alias, canonical, ok := strings.Cut(pair, "=")
		alias = strings.ToLower(strings.TrimSpace(alias))
		canonical = strings.ToLower(strings.TrimSpace(canonical))
		if !ok || alias == "" || canonical == "" {
			continue
		}
		aliases[alias] = canonical
	}
	return aliases
}

func stringList(raw any, fallback []string) []string {
	var values []string
	switch v := raw.(type) {
	case string:
		values = strings.Split(v, ",")
	case []any:
		values = lo.FilterMap(v, func(item any, _ int) (string, bool) {
			s, ok := item.(string)
			return s, ok
		})
	}

	values = lo.Compact(lo.Map(values, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	if len(values) == 0 {
		return fallback
	}
	return values
}
