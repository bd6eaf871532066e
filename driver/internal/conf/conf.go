// Package conf implements decoding and validation of client configurations
// provided as option maps or YAML files.
package conf

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Option map and YAML file keys.
const (
	KeyURL           = "url"
	KeyDatabase      = "database"
	KeyPoolSize      = "pool_size"
	KeyMaxOverflow   = "max_overflow"
	KeyTimeout       = "timeout"
	KeyBasicAuth     = "basic_auth"
	KeyTokenAuth     = "token_auth"
	KeyResultFormats = "result_formats"
)

// TimeoutInfinite lets a connection checkout wait forever.
const TimeoutInfinite Timeout = -1

// timeout value waiting forever, next to integer seconds.
const infiniteLiteral = "infinite"

// Timeout is a connection checkout timeout in seconds. Negative values
// and the literal "infinite" wait forever, zero fails immediately.
type Timeout int

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (t *Timeout) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == infiniteLiteral {
		*t = TimeoutInfinite
		return nil
	}
	var seconds int
	if err := node.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid timeout %q: expected seconds or %q", node.Value, infiniteLiteral)
	}
	*t = Timeout(seconds)
	return nil
}

// timeoutHook decodes the literal "infinite" into TimeoutInfinite when an
// option map carries the timeout as string.
func timeoutHook(_, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(Timeout(0)) {
		return data, nil
	}
	if s, ok := data.(string); ok {
		if s != infiniteLiteral {
			return nil, fmt.Errorf("invalid timeout %q: expected seconds or %q", s, infiniteLiteral)
		}
		return TimeoutInfinite, nil
	}
	return data, nil
}

// BasicAuth holds a username password credential pair.
type BasicAuth struct {
	Username string `yaml:"username" mapstructure:"username" validate:"required"`
	Password string `yaml:"password" mapstructure:"password"`
}

// Config represents a decoded client configuration.
type Config struct {
	URL           string     `yaml:"url" mapstructure:"url" validate:"required"`
	Database      string     `yaml:"database" mapstructure:"database"`
	PoolSize      int        `yaml:"pool_size" mapstructure:"pool_size" validate:"gte=0"`
	MaxOverflow   int        `yaml:"max_overflow" mapstructure:"max_overflow" validate:"gte=0"`
	Timeout       Timeout    `yaml:"timeout" mapstructure:"timeout"`
	BasicAuth     *BasicAuth `yaml:"basic_auth" mapstructure:"basic_auth"`
	TokenAuth     string     `yaml:"token_auth" mapstructure:"token_auth"`
	ResultFormats []string   `yaml:"result_formats" mapstructure:"result_formats" validate:"dive,oneof=row graph"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode decodes an option map into a validated configuration.
// Unknown keys are rejected.
func Decode(options map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      cfg,
		ErrorUnused: true,
		DecodeHook:  timeoutHook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads and validates a configuration from a YAML file.
// Values may reference environment variables as ${NAME}.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %s: %w", path, err)
	}
	interpolateEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates a configuration beyond pure decoding, covering the
// struct tag rules and the credential exclusivity.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validate configuration: %w", err)
		}
		msgs := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			msgs = append(msgs, formatFieldError(e))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	if cfg.BasicAuth != nil && cfg.TokenAuth != "" {
		return fmt.Errorf("invalid configuration: %s and %s are mutually exclusive", KeyBasicAuth, KeyTokenAuth)
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}

var envRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(s string) string {
	return envRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envRe.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

func interpolateEnv(cfg *Config) {
	cfg.URL = expandEnv(cfg.URL)
	cfg.Database = expandEnv(cfg.Database)
	cfg.TokenAuth = expandEnv(cfg.TokenAuth)
	if cfg.BasicAuth != nil {
		cfg.BasicAuth.Username = expandEnv(cfg.BasicAuth.Username)
		cfg.BasicAuth.Password = expandEnv(cfg.BasicAuth.Password)
	}
}
