// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Bus flags
	busTimeout time.Duration
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dynctl",
	Short: "DYNAMIXEL Protocol 2.0 bus tool",
	Long: `Dynctl - A CLI tool for commanding and inspecting DYNAMIXEL Protocol 2.0
servo buses.

Provides commands for scanning the bus, reading and writing control table
registers, rebooting and resetting motors, and monitoring raw bus traffic.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 57600]
  WebSocket: --url ws://host/path [--username user]

Defaults may be placed in $HOME/.dynctl.yaml or given as DYNCTL_* environment
variables (e.g. DYNCTL_PORT, DYNCTL_BAUD). For WebSocket authentication the
password is read from the DYNCTL_PASSWORD environment variable, or prompted
interactively if not set.`,
	Version: "1.0.0",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 57600, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().DurationVar(&busTimeout, "timeout", 100*time.Millisecond, "Reply timeout per transfer")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log raw bus frames")

	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("username", rootCmd.PersistentFlags().Lookup("username"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

// initConfig loads defaults from the config file and environment for any
// flag not given on the command line.
func initConfig() {
	viper.SetConfigName(".dynctl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("dynctl")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	if !rootCmd.PersistentFlags().Changed("port") {
		portName = viper.GetString("port")
	}
	if !rootCmd.PersistentFlags().Changed("baud") && viper.IsSet("baud") {
		baudRate = viper.GetInt("baud")
	}
	if !rootCmd.PersistentFlags().Changed("url") {
		wsURL = viper.GetString("url")
	}
	if !rootCmd.PersistentFlags().Changed("username") {
		wsUsername = viper.GetString("username")
	}
	if !rootCmd.PersistentFlags().Changed("timeout") && viper.IsSet("timeout") {
		busTimeout = viper.GetDuration("timeout")
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
