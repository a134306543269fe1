// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"bitwise74/file-catalog/pkg/digest"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.String("config", "", "Path to the config file, defaults to ./config.toml")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"local", "s3", "r2", "memory"}
	validDrivers      = []string{"sqlite", "postgres"}
)

// Setup parses the command line and loads the configuration. Function will
// return an error if something is critically wrong and the application
// can't run because of that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	return Load(*configPath)
}

// Load reads the config file at path, or config.toml in the working
// directory when path is empty, on top of the defaults and environment.
// A missing default config file is not an error.
func Load(path string) error {
	setDefaults()
	bindEnvs()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return Validate()
}

func bindEnvs() {
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors", "host_cors")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.local.path", "storage_local_path")

	v.BindEnv("aws.access_key", "aws_access_key")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.endpoint", "aws_endpoint")
	v.BindEnv("aws.path_style", "aws_path_style")

	v.BindEnv("cloudflare.account_id", "cloudflare_account_id")
	v.BindEnv("cloudflare.access_key_id", "cloudflare_access_key_id")
	v.BindEnv("cloudflare.secret_access_key", "cloudflare_secret_access_key")
	v.BindEnv("cloudflare.bucket", "cloudflare_bucket")

	v.BindEnv("upload.hash_algo", "upload_hash_algo")
	v.BindEnv("upload.max_threads", "upload_max_threads")
	v.BindEnv("upload.max_queued", "upload_max_queued")
	v.BindEnv("upload.max_size", "upload_max_size")
	v.BindEnv("upload.timeout", "upload_timeout")

	v.BindEnv("index.cache_size", "index_cache_size")
	v.BindEnv("index.cache_ttl", "index_cache_ttl")

	v.BindEnv("cache.list_ttl", "cache_list_ttl")
	v.BindEnv("cache.redis_addr", "cache_redis_addr")

	v.BindEnv("security.rate_limit", "security_rate_limit")

	v.BindEnv("gc.schedule", "gc_schedule")
	v.BindEnv("gc.grace", "gc_grace")
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", []string{})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.path", "data/blobs")

	v.SetDefault("aws.path_style", false)

	v.SetDefault("upload.hash_algo", digest.Default)
	v.SetDefault("upload.max_threads", 8)
	v.SetDefault("upload.max_queued", 64)
	v.SetDefault("upload.max_size", 100)
	v.SetDefault("upload.timeout", "2m")

	v.SetDefault("index.cache_size", 1024)
	v.SetDefault("index.cache_ttl", "5m")

	v.SetDefault("cache.list_ttl", 0)
	v.SetDefault("cache.redis_addr", "")

	v.SetDefault("security.rate_limit", 0)

	v.SetDefault("gc.schedule", "@every 1h")
	v.SetDefault("gc.grace", "1h")
}

// Validate checks the loaded values.
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("upload.max_threads") <= 0 {
		return errors.New("upload.max_threads must be bigger than 0")
	}

	if v.GetInt("upload.max_queued") < 0 {
		return errors.New("upload.max_queued can't be negative")
	}

	if v.GetDuration("upload.timeout") <= 0 {
		return errors.New("upload.timeout must be a positive duration")
	}

	if !digest.Supported(v.GetString("upload.hash_algo")) {
		return fmt.Errorf("unsupported hash algorithm %q", v.GetString("upload.hash_algo"))
	}

	if v.GetInt("index.cache_size") < 0 {
		return errors.New("index.cache_size can't be negative")
	}

	if v.GetInt("cache.list_ttl") < 0 {
		return errors.New("cache.list_ttl can't be negative")
	}

	if v.GetInt("security.rate_limit") < 0 {
		return errors.New("security.rate_limit can't be negative")
	}

	if s := v.GetString("gc.schedule"); s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			return fmt.Errorf("invalid gc.schedule, %w", err)
		}
	}

	switch v.GetString("storage.type") {
	case "local":
		if v.GetString("storage.local.path") == "" {
			return errors.New("storage.local.path can't be empty")
		}
	case "s3":
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("aws.region") == "" && v.GetString("aws.endpoint") == "" {
			return errors.New("either a region or an endpoint is required")
		}
		if v.GetString("aws.access_key") == "" {
			return errors.New("access key can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
	case "r2":
		if v.GetString("cloudflare.account_id") == "" {
			return errors.New("account id can't be empty")
		}
		if v.GetString("cloudflare.access_key_id") == "" {
			return errors.New("account access id can't be empty")
		}
		if v.GetString("cloudflare.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("cloudflare.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid storage type provided, expected one of %v", validStorageTypes)
	}

	return nil
}

// MaxUploadBytes returns upload.max_size converted from MiB.
func MaxUploadBytes() int64 {
	return v.GetInt64("upload.max_size") << 20
}
