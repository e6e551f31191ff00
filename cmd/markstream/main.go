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
	"log/slog"
	"os"

	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/blinklabs-io/markstream/internal/config"
	"github.com/blinklabs-io/markstream/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "markstream"

var globalFlags = struct {
	debug      bool
	configFile string
}{}

// newLogger installs the JSON logger used by the long-running commands and
// sizes GOMAXPROCS to the container quota
func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if globalFlags.debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	_, err := maxprocs.Set(
		maxprocs.Logger(func(format string, v ...any) {
			logger.Info(fmt.Sprintf(format, v...), "component", programName)
		}),
	)
	if err != nil {
		logger.Error("failed to set GOMAXPROCS", "error", err)
		os.Exit(1)
	}
	logger.Info(
		"starting "+programName,
		"component", programName,
		"version", version.GetVersionString(),
	)
	return logger
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", programName, version.GetVersionString())
		},
	}
}

// configFromCommand returns the config loaded by the root pre-run hook
func configFromCommand(cmd *cobra.Command) *config.Config {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		slog.Error("no config found in context")
		os.Exit(1)
	}
	return cfg
}

// loadConfig layers the config file, the environment and then the command
// line. A plugin flag set to "list" prints the plugins and exits instead.
func loadConfig(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	blobPlugin, _ := flags.GetString("blob")
	metadataPlugin, _ := flags.GetString("metadata")
	if lists := requestedPluginLists(blobPlugin, metadataPlugin); len(lists) > 0 {
		writePluginList(cmd.OutOrStdout(), lists...)
		os.Exit(0)
	}
	cfg, err := config.LoadConfig(globalFlags.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.Changed("blob") {
		cfg.BlobPlugin = blobPlugin
	}
	if flags.Changed("metadata") {
		cfg.MetadataPlugin = metadataPlugin
	}
	if err := plugin.ProcessCmdlineOptions(flags); err != nil {
		return fmt.Errorf("process plugin flags: %w", err)
	}
	cmd.SetContext(config.WithContext(cmd.Context(), cfg))
	return nil
}

func newRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:               programName,
		Short:             "Index MarkStreamLabel contract events into a queryable read-model",
		PersistentPreRunE: loadConfig,
		Run: func(cmd *cobra.Command, args []string) {
			serveRun(cmd, args, configFromCommand(cmd))
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	flags.StringVar(&globalFlags.configFile, "config", "", "path to config file")
	flags.StringP("blob", "b", config.DefaultBlobPlugin, "journal store plugin, 'list' to show available")
	flags.StringP("metadata", "m", config.DefaultMetadataPlugin, "read-model store plugin, 'list' to show available")
	if err := plugin.PopulateCmdlineOptions(flags); err != nil {
		return nil, fmt.Errorf("add plugin flags: %w", err)
	}
	rootCmd.AddCommand(
		serveCommand(),
		loadCommand(),
		publishCommand(),
		showCommand(),
		journalCommand(),
		listCommand(),
		versionCommand(),
	)
	return rootCmd, nil
}

func main() {
	rootCmd, err := newRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// cobra prints the error itself
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
