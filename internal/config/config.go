// Package config turns command line arguments, flags and environment
// variables into the settings of one report run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sqreport/go/internal/report"
)

// Environment variables read by Load and TokenFromEnv
const (
	EnvToken     = "SQREPORT_TOKEN"
	EnvLoginDays = "SQREPORT_LOGIN_DAYS"
	EnvToolDays  = "SQREPORT_TOOL_DAYS"
	EnvLogLevel  = "SQREPORT_LOG_LEVEL"
)

// TokenFromPrompt is the token argument asking for the token to be looked up
const TokenFromPrompt = "-"

var (
	// ErrArgCount indicates the positional arguments are not exactly four
	ErrArgCount = errors.New("expected 4 arguments: <token> <baseURL> <outputFile> <mode>")

	// ErrInvalidValue indicates a flag or environment value that cannot be used
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Mode selects which report runs
type Mode string

const (
	ModeUsers   Mode = "users"
	ModeSecrets Mode = "secrets"
	// ModeUnknown is any other mode; it produces no output
	ModeUnknown Mode = ""
)

// ParseMode matches s case-insensitively
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeUsers:
		return ModeUsers
	case ModeSecrets:
		return ModeSecrets
	default:
		return ModeUnknown
	}
}

// Flags carries the raw option values from the command line
type Flags struct {
	LoginDays       int
	ToolDays        int
	OnHTTPError     string
	OnNetworkError  string
	OnDecodeError   string
	IncludeAssignee bool
	Timeout         time.Duration
	LogLevel        string
	LogFormat       string
	Quiet           bool

	// Changed reports whether a flag was set explicitly. Explicit flags win
	// over environment variables. Nil means none was set.
	Changed func(name string) bool
}

// Config is the resolved configuration of one run
type Config struct {
	Token      string
	BaseURL    string
	OutputFile string
	Mode       Mode
	RawMode    string

	LoginDays       int
	ToolDays        int
	Policy          report.Policy
	IncludeAssignee bool
	Timeout         time.Duration

	LogLevel  string
	LogFormat string
	Quiet     bool
}

// LoadEnvFile loads variables from a dotenv file. A missing file is not an
// error; variables already set in the environment are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load builds the run configuration from the four positional arguments and the flags
func Load(args []string, f Flags) (*Config, error) {
	if len(args) != 4 {
		return nil, ErrArgCount
	}
	changed := f.Changed
	if changed == nil {
		changed = func(string) bool { return false }
	}

	c := &Config{
		Token:           strings.TrimSpace(args[0]),
		BaseURL:         strings.TrimSuffix(strings.TrimSpace(args[1]), "/"),
		OutputFile:      args[2],
		RawMode:         args[3],
		Mode:            ParseMode(args[3]),
		LoginDays:       f.LoginDays,
		ToolDays:        f.ToolDays,
		IncludeAssignee: f.IncludeAssignee,
		Timeout:         f.Timeout,
		LogLevel:        f.LogLevel,
		LogFormat:       f.LogFormat,
		Quiet:           f.Quiet,
	}

	var err error
	if !changed("login-days") {
		if c.LoginDays, err = getEnvInt(EnvLoginDays, c.LoginDays); err != nil {
			return nil, err
		}
	}
	if !changed("tool-days") {
		if c.ToolDays, err = getEnvInt(EnvToolDays, c.ToolDays); err != nil {
			return nil, err
		}
	}
	if !changed("log-level") {
		c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	}

	if c.LoginDays < 0 || c.ToolDays < 0 {
		return nil, fmt.Errorf("%w: day thresholds must not be negative", ErrInvalidValue)
	}
	if c.Timeout < 0 {
		return nil, fmt.Errorf("%w: timeout must not be negative", ErrInvalidValue)
	}

	if c.Policy, err = parsePolicy(f); err != nil {
		return nil, err
	}
	return c, nil
}

// TokenFromEnv returns the token from the environment, if any
func TokenFromEnv() string {
	return strings.TrimSpace(os.Getenv(EnvToken))
}

func parsePolicy(f Flags) (report.Policy, error) {
	policy := report.DefaultPolicy()

	fields := []struct {
		flag  string
		value string
		dst   *report.Action
	}{
		{"on-http-error", f.OnHTTPError, &policy.Status},
		{"on-network-error", f.OnNetworkError, &policy.Transport},
		{"on-decode-error", f.OnDecodeError, &policy.Decode},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		action, err := report.ParseAction(field.value)
		if err != nil {
			return policy, fmt.Errorf("%w: --%s: %w", ErrInvalidValue, field.flag, err)
		}
		*field.dst = action
	}
	return policy, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidValue, key, v)
	}
	return n, nil
}
