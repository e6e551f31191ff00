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

package postgres

import (
	"sync"

	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/blinklabs-io/markstream/database/plugin/metadata/internal/gormstore"
)

var (
	cmdlineOptions struct {
		server   gormstore.ServerOptions
		sslMode  string
		timeZone string
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	options := cmdlineOptions.server.PluginOptions(
		"Postgres",
		gormstore.ServerOptions{
			Host:     DefaultHost,
			Port:     DefaultPort,
			User:     DefaultUser,
			Database: DefaultDatabase,
		},
	)
	cmdlineOptions.sslMode = DefaultSSLMode
	cmdlineOptions.timeZone = DefaultTimeZone
	options = append(
		options,
		plugin.PluginOption{
			Name:         "ssl-mode",
			Type:         plugin.PluginOptionTypeString,
			Description:  "Postgres sslmode",
			DefaultValue: DefaultSSLMode,
			Dest:         &(cmdlineOptions.sslMode),
		},
		plugin.PluginOption{
			Name:         "timezone",
			Type:         plugin.PluginOptionTypeString,
			Description:  "Postgres session TimeZone",
			DefaultValue: DefaultTimeZone,
			Dest:         &(cmdlineOptions.timeZone),
		},
	)
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "postgres",
			Description:        "Postgres relational database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options:            options,
		},
	)
}

func NewFromCmdlineOptions(rt plugin.Runtime) plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	cfg := Config{
		ServerOptions: cmdlineOptions.server,
		SSLMode:       cmdlineOptions.sslMode,
		TimeZone:      cmdlineOptions.timeZone,
		Logger:        rt.Logger,
		PromRegistry:  rt.PromRegistry,
	}
	cmdlineOptionsMutex.RUnlock()
	return New(cfg)
}
