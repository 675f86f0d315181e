// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/authcore/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

const serviceName = "authcore"

// NewRootCmd creates the root command for the authcore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "authcore - account registration, login and session tokens",
		Long: `authcore stores accounts with salted password hashes, checks
credentials, and issues signed, expiring session tokens carried in
HttpOnly cookies.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/authcore/config.yaml if present)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// configPath returns --config, or the XDG default file when it exists.
func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return xdg.DefaultConfigFile()
}
