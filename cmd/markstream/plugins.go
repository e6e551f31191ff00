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

package main

import (
	"fmt"
	"io"

	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/spf13/cobra"
)

const listPluginsValue = "list"

// requestedPluginLists returns the plugin types whose selection flag was
// given the value "list"
func requestedPluginLists(blobPlugin, metadataPlugin string) []plugin.PluginType {
	var ret []plugin.PluginType
	if blobPlugin == listPluginsValue {
		ret = append(ret, plugin.PluginTypeBlob)
	}
	if metadataPlugin == listPluginsValue {
		ret = append(ret, plugin.PluginTypeMetadata)
	}
	return ret
}

// writePluginList describes each registered plugin of the given types with
// its options and their defaults
func writePluginList(w io.Writer, pluginTypes ...plugin.PluginType) {
	for i, pluginType := range pluginTypes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s plugins:\n", plugin.PluginTypeName(pluginType))
		for _, p := range plugin.GetPlugins(pluginType) {
			fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Description)
			for _, opt := range p.Options {
				fmt.Fprintf(
					w,
					"      %s: %s (default %v)\n",
					opt.Name,
					opt.Description,
					opt.DefaultValue,
				)
			}
		}
	}
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the storage plugins and their options",
		Run: func(cmd *cobra.Command, args []string) {
			writePluginList(
				cmd.OutOrStdout(),
				plugin.PluginTypeBlob,
				plugin.PluginTypeMetadata,
			)
		},
	}
}
