package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/cookbook/internal/flagx"
)

// Duration accepts both string values such as "90s" and integer
// nanoseconds when read from a config file.
type Duration time.Duration

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(int64(v))
	case int:
		*d = Duration(int64(v))
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// fileConfig is the on-disk shape. Pointer fields tell "absent" from "zero"
// so a partial file only overrides what it names.
type fileConfig struct {
	HTTPAddr                     *string   `json:"http_addr" yaml:"http_addr"`
	GRPCAddr                     *string   `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN                  *string   `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    *string   `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  *Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	BcryptCost                   *int      `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	SpoonacularBaseURL           *string   `json:"spoonacular_base_url" yaml:"spoonacular_base_url"`
	SpoonacularAPIKey            *string   `json:"spoonacular_api_key" yaml:"spoonacular_api_key"`
	SpoonacularTimeout           *Duration `json:"spoonacular_timeout" yaml:"spoonacular_timeout"`
	S3RootUser                   *string   `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               *string   `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     *string   `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     *string   `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               *string   `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	OTLPEndpoint                 *string   `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	LogLevel                     *string   `json:"log_level" yaml:"log_level"`
	SecureCookies                *bool     `json:"secure_cookies" yaml:"secure_cookies"`
}

// parseFile overlays values from the file named by -c/-config. The format
// is picked by extension: .yaml and .yml are YAML, everything else JSON.
// No flag means nothing to load.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}
	return readFile(config, path)
}

func readFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *fileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCAddr, fc.GRPCAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setDuration(&c.AccessTokenValidityDuration, fc.AccessTokenValidityDuration)
	setDuration(&c.RefreshTokenValidityDuration, fc.RefreshTokenValidityDuration)
	if fc.BcryptCost != nil {
		c.BcryptCost = *fc.BcryptCost
	}
	setString(&c.SpoonacularBaseURL, fc.SpoonacularBaseURL)
	setString(&c.SpoonacularAPIKey, fc.SpoonacularAPIKey)
	setDuration(&c.SpoonacularTimeout, fc.SpoonacularTimeout)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.OTLPEndpoint, fc.OTLPEndpoint)
	setString(&c.LogLevel, fc.LogLevel)
	if fc.SecureCookies != nil {
		c.SecureCookies = *fc.SecureCookies
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = time.Duration(*v)
	}
}
