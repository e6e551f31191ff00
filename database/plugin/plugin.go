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

import "fmt"

type Plugin interface {
	Start() error
	Stop() error
}

// ErrorPlugin defers a construction error until Start
type ErrorPlugin struct {
	Err error
}

func (e *ErrorPlugin) Start() error {
	return e.Err
}

func (e *ErrorPlugin) Stop() error {
	return nil
}

func NewErrorPlugin(err error) Plugin {
	return &ErrorPlugin{Err: err}
}

// StartPlugin instantiates the named plugin with the given runtime and starts it
func StartPlugin(
	pluginType PluginType,
	pluginName string,
	rt Runtime,
) (Plugin, error) {
	p := GetPluginWithRuntime(pluginType, pluginName, rt)
	if p == nil {
		return nil, fmt.Errorf(
			"%s plugin '%s' not found",
			PluginTypeName(pluginType),
			pluginName,
		)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf(
			"start %s plugin '%s': %w",
			PluginTypeName(pluginType),
			pluginName,
			err,
		)
	}
	return p, nil
}

// StartAs starts the named plugin and narrows it to the store interface T.
// A plugin that does not implement T is stopped again.
func StartAs[T Plugin](
	pluginType PluginType,
	pluginName string,
	rt Runtime,
) (T, error) {
	var zero T
	p, err := StartPlugin(pluginType, pluginName, rt)
	if err != nil {
		return zero, err
	}
	ret, ok := p.(T)
	if !ok {
		_ = p.Stop()
		return zero, fmt.Errorf(
			"%s plugin '%s' is a %T, not a %s store",
			PluginTypeName(pluginType),
			pluginName,
			p,
			PluginTypeName(pluginType),
		)
	}
	return ret, nil
}

// SetPluginOption performs a type-checked assignment of value into the
// destination of the named plugin option. Unknown options are ignored so
// callers can set options that only some implementations support.
func SetPluginOption(
	pluginType PluginType,
	pluginName string,
	optionName string,
	value any,
) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for i := range pluginEntries {
		p := &pluginEntries[i]
		if p.Type != pluginType || p.Name != pluginName {
			continue
		}
		for _, opt := range p.Options {
			if opt.Name != optionName {
				continue
			}
			switch opt.Type {
			case PluginOptionTypeString:
				return assignOption[string](opt, value, "string")
			case PluginOptionTypeBool:
				return assignOption[bool](opt, value, "bool")
			case PluginOptionTypeInt:
				return assignOption[int](opt, value, "int")
			case PluginOptionTypeUint:
				// accept uint64 or int
				if tv, ok := value.(int); ok {
					if tv < 0 {
						return fmt.Errorf(
							"invalid value for option %s: negative int",
							optionName,
						)
					}
					value = uint64(tv)
				}
				return assignOption[uint64](opt, value, "uint64")
			default:
				return fmt.Errorf(
					"unknown plugin option type %d for option %s",
					opt.Type,
					optionName,
				)
			}
		}
		return nil
	}
	return fmt.Errorf(
		"plugin %s of type %s not found",
		pluginName,
		PluginTypeName(pluginType),
	)
}

func assignOption[T any](opt PluginOption, value any, typeName string) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf(
			"invalid type for option %s: expected %s",
			opt.Name,
			typeName,
		)
	}
	if opt.Dest == nil {
		return fmt.Errorf("nil destination for option %s", opt.Name)
	}
	dest, ok := opt.Dest.(*T)
	if !ok {
		return fmt.Errorf(
			"invalid destination type for option %s: expected *%s",
			opt.Name,
			typeName,
		)
	}
	if dest == nil {
		return fmt.Errorf("nil destination pointer for option %s", opt.Name)
	}
	*dest = v
	return nil
}
