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

package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to all plugin option environment variables
const EnvPrefix = "MARKSTREAM"

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// PluginTypeFromName returns the plugin type for the given name, or 0
func PluginTypeFromName(name string) PluginType {
	switch name {
	case "blob":
		return PluginTypeBlob
	case "metadata":
		return PluginTypeMetadata
	default:
		return 0
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	Name         string
	Type         PluginOptionType
	Description  string
	DefaultValue any
	Dest         any
}

// Runtime carries process-wide dependencies handed to a plugin when it is
// instantiated
type Runtime struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

type PluginEntry struct {
	Type               PluginType
	Name               string
	Description        string
	NewFromOptionsFunc func(Runtime) Plugin
	Options            []PluginOption
}

var (
	pluginEntries      []PluginEntry
	pluginEntriesMutex sync.RWMutex
)

// Register adds a plugin to the registry. Plugins call this from init()
func Register(pluginEntry PluginEntry) {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns all registered plugins of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	ret := []PluginEntry{}
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin with an empty runtime,
// or nil if no such plugin is registered
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	return GetPluginWithRuntime(pluginType, pluginName, Runtime{})
}

// GetPluginWithRuntime returns a new instance of the named plugin, or nil if
// no such plugin is registered
func GetPluginWithRuntime(
	pluginType PluginType,
	pluginName string,
	rt Runtime,
) Plugin {
	pluginEntriesMutex.RLock()
	var newFunc func(Runtime) Plugin
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == pluginName {
			newFunc = p.NewFromOptionsFunc
			break
		}
	}
	pluginEntriesMutex.RUnlock()
	if newFunc == nil {
		return nil
	}
	return newFunc(rt)
}

func flagName(p PluginEntry, opt PluginOption) string {
	return fmt.Sprintf("%s-%s-%s", PluginTypeName(p.Type), p.Name, opt.Name)
}

func envVarName(p PluginEntry, opt PluginOption) string {
	ret := fmt.Sprintf(
		"%s_%s_%s_%s",
		EnvPrefix,
		PluginTypeName(p.Type),
		p.Name,
		opt.Name,
	)
	return strings.ToUpper(strings.ReplaceAll(ret, "-", "_"))
}

// PopulateCmdlineOptions adds a flag for every registered plugin option. Flag
// values are only applied by ProcessCmdlineOptions so that they take
// precedence over config file and environment values.
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			name := flagName(p, opt)
			desc := fmt.Sprintf("%s (%s)", opt.Description, name)
			switch opt.Type {
			case PluginOptionTypeString:
				def, _ := opt.DefaultValue.(string)
				fs.String(name, def, desc)
			case PluginOptionTypeBool:
				def, _ := opt.DefaultValue.(bool)
				fs.Bool(name, def, desc)
			case PluginOptionTypeInt:
				def, _ := opt.DefaultValue.(int)
				fs.Int(name, def, desc)
			case PluginOptionTypeUint:
				def, _ := opt.DefaultValue.(uint64)
				fs.Uint64(name, def, desc)
			default:
				return fmt.Errorf(
					"unknown plugin option type %d for option %s",
					opt.Type,
					name,
				)
			}
		}
	}
	return nil
}

// ProcessCmdlineOptions applies plugin flags that were explicitly set
func ProcessCmdlineOptions(fs *pflag.FlagSet) error {
	for _, p := range snapshotEntries() {
		for _, opt := range p.Options {
			name := flagName(p, opt)
			if !fs.Changed(name) {
				continue
			}
			var value any
			var err error
			switch opt.Type {
			case PluginOptionTypeString:
				value, err = fs.GetString(name)
			case PluginOptionTypeBool:
				value, err = fs.GetBool(name)
			case PluginOptionTypeInt:
				value, err = fs.GetInt(name)
			case PluginOptionTypeUint:
				value, err = fs.GetUint64(name)
			}
			if err != nil {
				return fmt.Errorf("flag %s: %w", name, err)
			}
			if err := SetPluginOption(p.Type, p.Name, opt.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from environment variables named
// MARKSTREAM_<TYPE>_<PLUGIN>_<OPTION>
func ProcessEnvVars() error {
	for _, p := range snapshotEntries() {
		for _, opt := range p.Options {
			envName := envVarName(p, opt)
			envValue, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			value, err := parseOptionValue(opt.Type, envValue)
			if err != nil {
				return fmt.Errorf("environment variable %s: %w", envName, err)
			}
			if err := SetPluginOption(p.Type, p.Name, opt.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from the config file. The map is
// keyed by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for typeName, plugins := range pluginConfig {
		pluginType := PluginTypeFromName(typeName)
		if pluginType == 0 {
			return fmt.Errorf("unknown plugin type: %s", typeName)
		}
		for pluginName, opts := range plugins {
			entry, ok := findEntry(pluginType, pluginName)
			if !ok {
				return fmt.Errorf(
					"%s plugin '%s' not found",
					typeName,
					pluginName,
				)
			}
			for optName, rawValue := range opts {
				value := rawValue
				for _, opt := range entry.Options {
					if opt.Name != optName {
						continue
					}
					converted, err := convertConfigValue(opt.Type, rawValue)
					if err != nil {
						return fmt.Errorf(
							"%s plugin '%s' option %s: %w",
							typeName,
							pluginName,
							optName,
							err,
						)
					}
					value = converted
				}
				if err := SetPluginOption(pluginType, pluginName, optName, value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func snapshotEntries() []PluginEntry {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	ret := make([]PluginEntry, len(pluginEntries))
	copy(ret, pluginEntries)
	return ret
}

func findEntry(pluginType PluginType, pluginName string) (PluginEntry, bool) {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == pluginName {
			return p, true
		}
	}
	return PluginEntry{}, false
}

func parseOptionValue(optType PluginOptionType, raw string) (any, error) {
	switch optType {
	case PluginOptionTypeString:
		return raw, nil
	case PluginOptionTypeBool:
		return strconv.ParseBool(raw)
	case PluginOptionTypeInt:
		return strconv.Atoi(raw)
	case PluginOptionTypeUint:
		return strconv.ParseUint(raw, 10, 64)
	default:
		return nil, fmt.Errorf("unknown plugin option type %d", optType)
	}
}

// convertConfigValue coerces YAML-decoded scalars to the option type
func convertConfigValue(optType PluginOptionType, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		if optType == PluginOptionTypeString {
			return v, nil
		}
		return parseOptionValue(optType, v)
	case int:
		switch optType {
		case PluginOptionTypeInt:
			return v, nil
		case PluginOptionTypeUint:
			if v < 0 {
				return nil, fmt.Errorf("negative value %d", v)
			}
			return uint64(v), nil
		}
	case uint64:
		if optType == PluginOptionTypeUint {
			return v, nil
		}
	case bool:
		if optType == PluginOptionTypeBool {
			return v, nil
		}
	}
	return raw, nil
}
