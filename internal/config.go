package internal

import (
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/d2chub/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app" toml:"app"`
	Content ContentConfig     `yaml:"content" toml:"content"`
	Index   IndexConfig       `yaml:"index" toml:"index"`
	SQLite  SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig locates the content tree.
type ContentConfig struct {
	Root      string `yaml:"root" toml:"root"`
	Extension string `yaml:"extension" toml:"extension"`
	// Parser is the frontmatter strategy: "matter" or "simple".
	Parser string `yaml:"parser" toml:"parser"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Extension, validation.Required, validation.By(dotted)),
		validation.Field(&c.Parser, validation.In(parser.StrategyMatter, parser.StrategySimple)),
	)
}

func dotted(v any) error {
	s, _ := v.(string)
	if s != "" && !strings.HasPrefix(s, ".") {
		return fmt.Errorf("must start with a dot")
	}
	return nil
}

// IndexConfig controls how the search index is built and written.
type IndexConfig struct {
	// Output is the JSON artifact path; "-" writes to stdout.
	Output        string `yaml:"output" toml:"output"`
	Strict        bool   `yaml:"strict" toml:"strict"`
	Workers       int    `yaml:"workers" toml:"workers"`
	ExcerptLength int    `yaml:"excerpt_length" toml:"excerpt_length"`
	RelatedLimit  int    `yaml:"related_limit" toml:"related_limit"`
	// Timestamp adds generatedAt to the artifact.
	Timestamp bool `yaml:"timestamp" toml:"timestamp"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.Workers, validation.Min(0), validation.Max(256)),
		validation.Field(&c.ExcerptLength, validation.Min(0)),
		validation.Field(&c.RelatedLimit, validation.Min(0)),
	)
}

// SQLiteConfig holds the optional snapshot database location.
// An empty Path disables the database.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Enabled reports whether a snapshot database is configured.
func (c *SQLiteConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Root:      "content",
			Extension: ".mdx",
			Parser:    parser.StrategyMatter,
		},
		Index: IndexConfig{
			Output:        "public/search-index.json",
			Workers:       4,
			ExcerptLength: 200,
			RelatedLimit:  5,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
