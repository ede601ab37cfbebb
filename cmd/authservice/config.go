package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/petauth/internal/logger"
	"github.com/nkiryanov/petauth/internal/service/auth/tokenmanager"
)

const (
	defaultListenAddr   = "localhost:3001"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProd
	defaultAccessTTL    = 15 * time.Minute
	defaultRefreshTTL   = 7 * 24 * time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the auth service will be run
	ListenAddr string

	// Database to connect to: postgres://... or sqlite://path/to/file.db
	DatabaseDSN string

	// Secrets to sign access and refresh tokens. Must differ
	AccessSecret  string
	RefreshSecret string

	// Access and refresh tokens lifetime
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Revoke refresh token when it exchanged to new pair
	RevokeOnRefresh bool

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
		AccessTTL:   defaultAccessTTL,
		RefreshTTL:  defaultRefreshTTL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = b
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"JWT_ACCESS_SECRET":      setString(&c.AccessSecret),
		"JWT_REFRESH_SECRET":     setString(&c.RefreshSecret),
		"JWT_ACCESS_EXPIRES_IN":  setDuration(&c.AccessTTL),
		"JWT_REFRESH_EXPIRES_IN": setDuration(&c.RefreshTTL),
		"REVOKE_ON_REFRESH":      setBool(&c.RevokeOnRefresh),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("authservice", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string (postgres://... or sqlite://...)")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Secret to sign access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret to sign refresh tokens")
	fs.Var((*durationValue)(&c.AccessTTL), "access-ttl", "Access token lifetime (like 15m, 1h or 7d)")
	fs.Var((*durationValue)(&c.RefreshTTL), "refresh-ttl", "Refresh token lifetime (like 15m, 1h or 7d)")
	fs.BoolVar(&c.RevokeOnRefresh, "revoke-on-refresh", c.RevokeOnRefresh, "Revoke refresh token when it exchanged to new pair")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Check config is complete and consistent
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database connection string is required"))
	}
	if len(c.AccessSecret) < tokenmanager.MinSecretLength {
		errs = append(errs, fmt.Errorf("access secret must be at least %d bytes", tokenmanager.MinSecretLength))
	}
	if len(c.RefreshSecret) < tokenmanager.MinSecretLength {
		errs = append(errs, fmt.Errorf("refresh secret must be at least %d bytes", tokenmanager.MinSecretLength))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("access and refresh secrets must differ"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}

	return errors.Join(errs...)
}

// Parse duration like time.ParseDuration does, but also accept whole days: '7d'
func parseDuration(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	return time.ParseDuration(value)
}

// pflag.Value over time.Duration that accepts days
type durationValue time.Duration

func (d *durationValue) Set(value string) error {
	v, err := parseDuration(value)
	if err != nil {
		return err
	}
	*d = durationValue(v)
	return nil
}

func (d *durationValue) String() string {
	return time.Duration(*d).String()
}

func (d *durationValue) Type() string {
	return "duration"
}
