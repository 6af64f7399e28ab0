// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults used when neither a flag nor an environment variable is set.
const (
	DefaultPort         = 3318
	DefaultDatabaseType = "sqlite"
	DefaultSQLitePath   = "literary-wheel.db"
	DefaultLogLevel     = "info"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	ShareSlugSalt string
	IPHashSalt    string
	LogLevel      string
	PolicyFile    string

	// Policy is DefaultPolicy unless PolicyFile is set.
	Policy Policy
}

// ParseFlags reads flags, falls back to environment variables and loads the
// policy file.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("literary-wheel", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or sqlite path")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.PolicyFile, "policy", "", "Path to YAML policy file")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.ShareSlugSalt, "slug-salt", "", "Share slug salt (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", "", "IP hash salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}

	dbType, dbURL, err := ResolveDatabase(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return Config{}, err
	}
	cfg.DatabaseType, cfg.DatabaseURL = dbType, dbURL

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
		if cfg.LogLevel == "" {
			cfg.LogLevel = DefaultLogLevel
		}
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}

	// Secrets - MUST be provided
	if cfg.ShareSlugSalt == "" {
		cfg.ShareSlugSalt = os.Getenv("SHARE_SLUG_SALT")
	}
	if cfg.ShareSlugSalt == "" {
		return Config{}, errors.New("SHARE_SLUG_SALT required")
	}

	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = os.Getenv("IP_HASH_SALT")
	}
	if cfg.IPHashSalt == "" {
		return Config{}, errors.New("IP_HASH_SALT required")
	}

	if cfg.PolicyFile == "" {
		cfg.PolicyFile = os.Getenv("POLICY_FILE")
	}
	if cfg.PolicyFile != "" {
		p, err := LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = p
	} else {
		cfg.Policy = DefaultPolicy()
	}
	if err := cfg.Policy.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid policy: %w", err)
	}

	return cfg, nil
}

// ResolveDatabase fills the database type and URL from DATABASE_TYPE and
// DATABASE_URL when they are empty. SQLite falls back to DefaultSQLitePath.
func ResolveDatabase(dbType, url string) (string, string, error) {
	if dbType == "" {
		dbType = os.Getenv("DATABASE_TYPE")
		if dbType == "" {
			dbType = DefaultDatabaseType
		}
	}
	dbType = strings.ToLower(dbType)
	if dbType != "sqlite" && dbType != "postgres" {
		return "", "", fmt.Errorf("unsupported database type %q (use sqlite or postgres)", dbType)
	}

	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		if dbType != "sqlite" {
			return "", "", errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		url = DefaultSQLitePath
	}
	return dbType, url, nil
}
