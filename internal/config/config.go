package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Server   ServerConfig   `yaml:"server"`
	Content  ContentConfig  `yaml:"content"`
	Media    MediaConfig    `yaml:"media"`
	Storage  StorageConfig  `yaml:"storage"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Embrace"`
	Description string `yaml:"description" default:"A blogging platform"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12700"`
}

type ContentConfig struct {
	// MaxTitleLength bounds post titles, in runes.
	MaxTitleLength int `yaml:"max_title_length" default:"200"`
	PostsPerPage   int `yaml:"posts_per_page" default:"50"`
}

type MediaConfig struct {
	// MaxUploadBytes caps featured image uploads.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" default:"10485760"`
	// PreviewURLTTLSeconds is the lifetime of presigned preview links.
	PreviewURLTTLSeconds int `yaml:"preview_url_ttl_seconds" default:"3600"`
}

type StorageConfig struct {
	// Endpoint is the S3-compatible base endpoint for media objects.
	Endpoint string `yaml:"endpoint" default:""`
	Bucket   string `yaml:"bucket" default:"embrace-media"`
	// DBPath is the sqlite database file for post records.
	DBPath string `yaml:"db_path" default:"./embrace.db"`
}

type TimeoutsConfig struct {
	// SubCallSeconds bounds each network-bound sub-call (upload, repository
	// write, delete). Expiry surfaces as the store/repository being
	// unavailable.
	SubCallSeconds int `yaml:"sub_call_seconds" default:"15"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	ApplyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	AppConfig = config
	return nil
}

// ApplyDefaults walks the config struct and fills zero-valued fields from
// their `default` tags.
func ApplyDefaults(config *Config) {
	applyDefaultsToValue(reflect.ValueOf(config).Elem())
}

func applyDefaultsToValue(v reflect.Value) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			applyDefaultsToValue(field)
			continue
		}

		defaultVal := fieldType.Tag.Get("default")
		if defaultVal == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if field.String() == "" {
				field.SetString(defaultVal)
			}
		case reflect.Int, reflect.Int64:
			if field.Int() == 0 {
				if n, err := strconv.ParseInt(defaultVal, 10, 64); err == nil {
					field.SetInt(n)
				}
			}
		case reflect.Bool:
			if !field.Bool() {
				field.SetBool(defaultVal == "true")
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultVal, ",")
				field.Set(reflect.ValueOf(parts))
			}
		}
	}
}
