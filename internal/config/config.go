// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "markstream.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// SourceType selects where the indexer reads contract events from
type SourceType string

const (
	SourceTypeJetStream SourceType = "jetstream" // durable JetStream consumer (default)
	SourceTypeFile      SourceType = "file"      // newline-delimited JSON file
)

// Valid returns true if the SourceType is a known source
func (s SourceType) Valid() bool {
	switch s {
	case SourceTypeJetStream, SourceTypeFile, "":
		return true
	default:
		return false
	}
}

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type JetStreamConfig struct {
	Stream   string `yaml:"stream"`
	Subject  string `yaml:"subject"`
	Consumer string `yaml:"consumer"`
}

type Config struct {
	DatabasePath        string          `yaml:"databasePath"        split_words:"true"`
	BlobPlugin          string          `yaml:"blobPlugin"          envconfig:"DATABASE_BLOB_PLUGIN"`
	MetadataPlugin      string          `yaml:"metadataPlugin"      envconfig:"DATABASE_METADATA_PLUGIN"`
	BindAddr            string          `yaml:"bindAddr"            split_words:"true"`
	MetricsPort         uint            `yaml:"metricsPort"         split_words:"true"`
	ApiPort             uint            `yaml:"apiPort"             split_words:"true"`
	Source              SourceType      `yaml:"source"`
	EventFile           string          `yaml:"eventFile"           split_words:"true"`
	NatsUrl             string          `yaml:"natsUrl"             split_words:"true"`
	JetStream           JetStreamConfig `yaml:"jetStream"           envconfig:"JETSTREAM"`
	NotifySubjectPrefix string          `yaml:"notifySubjectPrefix" split_words:"true"`
	MaxAttempts         uint            `yaml:"maxAttempts"         split_words:"true"`
	Tracing             bool            `yaml:"tracing"`
	TracingStdout       bool            `yaml:"tracingStdout"       split_words:"true"`
	ShutdownTimeout     string          `yaml:"shutdownTimeout"     split_words:"true"`
}

// ShutdownTimeoutDuration parses ShutdownTimeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return time.ParseDuration(DefaultShutdownTimeout)
	}
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return ret, nil
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    ".markstream",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "0.0.0.0",
		MetricsPort:     12799,
		ApiPort:         3000,
		Source:          SourceTypeJetStream,
		NatsUrl:         "nats://127.0.0.1:4222",
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// pluginSection converts a database.blob or database.metadata section into
// per-plugin option maps, pulling out the selected plugin name
func pluginSection(
	section map[string]any,
	pluginName *string,
	sectionName string,
) map[string]map[string]any {
	// Extract plugin name if specified
	if pluginVal, exists := section["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			*pluginName = name
			delete(section, "plugin")
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if val, ok := v.(map[string]any); ok {
			ret[k] = val
		} else if val, ok := v.(map[any]any); ok {
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		} else {
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				sectionName,
				k,
				v,
			)
		}
	}
	return ret
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.markstream/markstream.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".markstream", "markstream.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/markstream/markstream.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/markstream/markstream.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// If config section exists, use it for main config
		if !tempCfg.Config.IsZero() {
			// Overlay config values onto existing defaults
			err = tempCfg.Config.Decode(globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			// Otherwise unmarshal the whole file as main config
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		// Process plugin configurations
		pluginConfig := make(map[string]map[string]map[string]any)
		if tempCfg.Blob != nil {
			pluginConfig["blob"] = tempCfg.Blob
		}
		if tempCfg.Metadata != nil {
			pluginConfig["metadata"] = tempCfg.Metadata
		}
		if tempCfg.Database != nil {
			if tempCfg.Database.Blob != nil {
				blobConfig := pluginSection(
					tempCfg.Database.Blob,
					&globalConfig.BlobPlugin,
					"blob",
				)
				// Merge with existing blob config instead of overwriting
				if pluginConfig["blob"] == nil {
					pluginConfig["blob"] = blobConfig
				} else {
					maps.Copy(pluginConfig["blob"], blobConfig)
				}
			}
			if tempCfg.Database.Metadata != nil {
				metadataConfig := pluginSection(
					tempCfg.Database.Metadata,
					&globalConfig.MetadataPlugin,
					"metadata",
				)
				if pluginConfig["metadata"] == nil {
					pluginConfig["metadata"] = metadataConfig
				} else {
					maps.Copy(pluginConfig["metadata"], metadataConfig)
				}
			}
		}
		if len(pluginConfig) > 0 {
			err = plugin.ProcessConfig(pluginConfig)
			if err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("markstream", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func (c *Config) validate() error {
	if !c.Source.Valid() {
		return fmt.Errorf(
			"invalid source: %q (must be 'jetstream' or 'file')",
			c.Source,
		)
	}
	if c.Source == "" {
		c.Source = SourceTypeJetStream
	}
	if c.Source == SourceTypeJetStream && c.NatsUrl == "" {
		return errors.New("natsUrl is required for the jetstream source")
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

func GetConfig() *Config {
	return globalConfig
}
