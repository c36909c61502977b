// Package config loads Hive's runtime settings: where memory lives, the
// composer defaults, and credentials for optional integrations.
//
// Settings come from an optional YAML file, then environment variables,
// then validation. A missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-user Hive directory under $HOME.
	DirName = ".hive"
	// FileName is the config file inside DirName.
	FileName = "config.yaml"

	// DefaultHTTPAddr is where `hive http` listens.
	DefaultHTTPAddr = "127.0.0.1:8420"
	// DefaultPython runs generated agents.
	DefaultPython = "python"
)

// Config is the full runtime configuration.
type Config struct {
	// DataDir holds the memory database and workflow state.
	DataDir string `yaml:"data_dir" validate:"required"`
	// OutputRoot anchors default agent output paths. Empty means cwd.
	OutputRoot string `yaml:"output_root"`

	Composer ComposerConfig `yaml:"composer"`
	Memory   MemoryConfig   `yaml:"memory"`
	Jira     JiraConfig     `yaml:"jira"`
	HTTP     HTTPConfig     `yaml:"http"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
}

// ComposerConfig seeds every new composition.
type ComposerConfig struct {
	DefaultModel string `yaml:"default_model" validate:"required"`
	MaxTokens    int    `yaml:"max_tokens" validate:"gte=1"`
}

// MemoryConfig selects the memory backend.
type MemoryConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=local vector"`
	VectorURL  string `yaml:"vector_url" validate:"required_if=Backend vector"`
	EmbedModel string `yaml:"embed_model"`
	// GeminiAPIKey enables Gemini embeddings; without it a local hashing
	// embedder is used. Env only.
	GeminiAPIKey string `yaml:"-"`
}

// JiraConfig holds Jira credentials. The tools are registered only when
// BaseURL and a token are present.
type JiraConfig struct {
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	Email    string `yaml:"email" validate:"omitempty,email"`
	APIToken string `yaml:"-"`
	PAT      string `yaml:"-"`
}

// Token returns the API token, falling back to the personal access token.
func (j JiraConfig) Token() string {
	if j.APIToken != "" {
		return j.APIToken
	}
	return j.PAT
}

// HTTPConfig configures the HTTP editing surface.
type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// RuntimeConfig configures how generated agents are launched.
type RuntimeConfig struct {
	Python string `yaml:"python" validate:"required"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		DataDir: filepath.Join(homeDir(), DirName, "memory"),
		Composer: ComposerConfig{
			DefaultModel: "gpt-4o-mini",
			MaxTokens:    30000,
		},
		Memory: MemoryConfig{Backend: "local"},
		HTTP:   HTTPConfig{Addr: DefaultHTTPAddr},
		Runtime: RuntimeConfig{
			Python: DefaultPython,
		},
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// Path returns $HIVE_CONFIG or ~/.hive/config.yaml.
func Path() string {
	if p := os.Getenv("HIVE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(homeDir(), DirName, FileName)
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.DataDir, "HIVE_DATA_DIR")
	setString(&c.OutputRoot, "HIVE_OUTPUT_ROOT")
	setString(&c.Composer.DefaultModel, "HIVE_DEFAULT_MODEL")
	if v := os.Getenv("HIVE_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HIVE_MAX_TOKENS: %q is not an integer", v)
		}
		c.Composer.MaxTokens = n
	}

	setString(&c.Memory.Backend, "MEMORY_BACKEND")
	c.Memory.Backend = strings.ToLower(c.Memory.Backend)
	setString(&c.Memory.VectorURL, "VECTOR_DB_URL")
	setString(&c.Memory.EmbedModel, "MEMORY_EMBED_MODEL")
	setString(&c.Memory.GeminiAPIKey, "GEMINI_API_KEY")

	setString(&c.Jira.BaseURL, "JIRA_BASE_URL")
	setString(&c.Jira.Email, "JIRA_EMAIL")
	setString(&c.Jira.APIToken, "JIRA_API_TOKEN")
	setString(&c.Jira.PAT, "JIRA_PAT")

	setString(&c.HTTP.Addr, "HIVE_HTTP_ADDR")
	setString(&c.Runtime.Python, "HIVE_RUNTIME_PYTHON")
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
