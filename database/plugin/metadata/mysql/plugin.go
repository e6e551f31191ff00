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

package mysql

import (
	"sync"

	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/blinklabs-io/markstream/database/plugin/metadata/internal/gormstore"
)

var (
	cmdlineOptions struct {
		server   gormstore.ServerOptions
		tls      string
		timeZone string
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	options := cmdlineOptions.server.PluginOptions(
		"MySQL",
		gormstore.ServerOptions{
			Host:     DefaultHost,
			Port:     DefaultPort,
			User:     DefaultUser,
			Database: DefaultDatabase,
		},
	)
	cmdlineOptions.timeZone = DefaultTimeZone
	options = append(
		options,
		plugin.PluginOption{
			Name:         "tls",
			Type:         plugin.PluginOptionTypeString,
			Description:  "MySQL driver TLS mode (true, false, skip-verify, preferred)",
			DefaultValue: "",
			Dest:         &(cmdlineOptions.tls),
		},
		plugin.PluginOption{
			Name:         "timezone",
			Type:         plugin.PluginOptionTypeString,
			Description:  "Location used to parse MySQL timestamps",
			DefaultValue: DefaultTimeZone,
			Dest:         &(cmdlineOptions.timeZone),
		},
	)
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "mysql",
			Description:        "MySQL relational database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options:            options,
		},
	)
}

func NewFromCmdlineOptions(rt plugin.Runtime) plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	cfg := Config{
		ServerOptions: cmdlineOptions.server,
		TLS:           cmdlineOptions.tls,
		TimeZone:      cmdlineOptions.timeZone,
		Logger:        rt.Logger,
		PromRegistry:  rt.PromRegistry,
	}
	cmdlineOptionsMutex.RUnlock()
	return New(cfg)
}
