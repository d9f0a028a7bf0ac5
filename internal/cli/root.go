// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-avp.
//
// go-avp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package cli implements the avp host command-line tool.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-avp/pkg/client"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "avp",
	Short: "avp - host CLI for AVP hardware security tokens",
	Long: `avp talks the Agent Vault Protocol to a NexusClaw security token
(or the avpsimd simulator) over its serial endpoint.

Secrets are stored inside the device's tamper-resistant secure element;
this tool never sees key material beyond the single value it stores or
retrieves. Operations other than discover, authenticate and challenge
require the device PIN.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.avp.yaml)")
	rootCmd.PersistentFlags().StringP("address", "a", "127.0.0.1:7542",
		"device address (host:port or socket path)")
	rootCmd.PersistentFlags().String("network", "tcp",
		"device network (tcp, unix)")
	rootCmd.PersistentFlags().String("pin", "",
		"device PIN (or set AVP_PIN)")
	rootCmd.PersistentFlags().StringP("workspace", "w", "",
		"session workspace")
	rootCmd.PersistentFlags().Uint32("ttl", 0,
		"requested session TTL in seconds (0 uses the device default)")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second,
		"request timeout")
	rootCmd.PersistentFlags().StringP("output", "o", "text",
		"output format (text, json)")

	for _, key := range []string{"address", "network", "pin", "workspace", "ttl", "timeout", "output"} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(attestCmd)
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".avp")
		}
	}

	viper.SetEnvPrefix("AVP")
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}

// connect dials the device using the effective configuration.
func connect() (*client.Client, error) {
	return client.New(&client.Config{
		Network: viper.GetString("network"),
		Address: viper.GetString("address"),
		Timeout: viper.GetDuration("timeout"),
	})
}

// authenticated dials the device and opens a session with the configured
// PIN. The caller owns the returned client.
func authenticated() (*client.Client, error) {
	pin := viper.GetString("pin")
	if pin == "" {
		return nil, fmt.Errorf("a device PIN is required (use --pin or AVP_PIN)")
	}

	c, err := connect()
	if err != nil {
		return nil, err
	}
	if _, err := c.Authenticate(pin, viper.GetString("workspace"), viper.GetUint32("ttl")); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
