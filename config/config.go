// Package config loads recipebox settings from defaults, an optional YAML
// file, RECIPEBOX_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"recipebox/mealdb"
)

const (
	SourceMealDB    = "mealdb"
	SourceFirestore = "firestore"
)

type Config struct {
	Addr           string
	AllowedOrigins []string

	Source string

	MealDBURL     string
	MealDBTimeout time.Duration

	FirestoreProject     string
	FirestoreCollection  string
	FirestoreCredentials string

	ThumbnailHeight int

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("source.kind", SourceMealDB)
	v.SetDefault("mealdb.base_url", mealdb.DefaultBaseURL)
	v.SetDefault("mealdb.timeout", 10*time.Second)
	v.SetDefault("firestore.project", "")
	v.SetDefault("firestore.collection", "recipes")
	v.SetDefault("firestore.credentials_file", "")
	v.SetDefault("thumbnail.height", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. path may be empty. Flags in fs whose names match a
// config key (e.g. "server.addr") override every other source when set.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RECIPEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if strings.Contains(f.Name, ".") && bindErr == nil {
				bindErr = v.BindPFlag(f.Name, f)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("config: bind flags: %w", bindErr)
		}
	}

	cfg := &Config{
		Addr:                 v.GetString("server.addr"),
		AllowedOrigins:       v.GetStringSlice("server.allowed_origins"),
		Source:               strings.ToLower(v.GetString("source.kind")),
		MealDBURL:            v.GetString("mealdb.base_url"),
		MealDBTimeout:        v.GetDuration("mealdb.timeout"),
		FirestoreProject:     v.GetString("firestore.project"),
		FirestoreCollection:  v.GetString("firestore.collection"),
		FirestoreCredentials: v.GetString("firestore.credentials_file"),
		ThumbnailHeight:      v.GetInt("thumbnail.height"),
		LogLevel:             strings.ToLower(v.GetString("log.level")),
		LogFormat:            strings.ToLower(v.GetString("log.format")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Source {
	case SourceMealDB:
		if c.MealDBURL == "" {
			errs = append(errs, errors.New("mealdb.base_url is required"))
		}
	case SourceFirestore:
		if c.FirestoreProject == "" {
			errs = append(errs, errors.New("firestore.project is required for the firestore source"))
		}
		if c.FirestoreCollection == "" {
			errs = append(errs, errors.New("firestore.collection is required for the firestore source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.kind %q", c.Source))
	}
	if c.MealDBTimeout <= 0 {
		errs = append(errs, errors.New("mealdb.timeout must be positive"))
	}
	if c.ThumbnailHeight <= 0 {
		errs = append(errs, errors.New("thumbnail.height must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
