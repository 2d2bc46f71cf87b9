// Copyright © 2016 Sidharth Kshatriya
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

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultIdePort      int = 8123
	defaultCDPTargetURL     = "ws://127.0.0.1:9229"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "js-debug-breakpoints",
	Short: "Breakpoint coordination core for a JavaScript DAP/CDP debug bridge",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "print more messages to know what the bridge is doing")
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.js-debug-breakpoints.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetConfigName(".js-debug-breakpoints")
	viper.AddConfigPath("$HOME")
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")

	viper.BindPFlag("ide-port", serveCmd.Flags().Lookup("ide-port"))
	viper.BindPFlag("cdp-target", serveCmd.Flags().Lookup("cdp-target"))
	viper.BindPFlag("entry-mode", serveCmd.Flags().Lookup("entry-mode"))
	viper.BindPFlag("source-map-timeout-ms", serveCmd.Flags().Lookup("source-map-timeout-ms"))
	viper.BindPFlag("cumulative-source-map-timeout-ms", serveCmd.Flags().Lookup("cumulative-source-map-timeout-ms"))

	viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetDefault("ide-port", defaultIdePort)
	viper.SetDefault("cdp-target", defaultCDPTargetURL)
	viper.SetDefault("entry-mode", "exact")
	viper.SetDefault("source-map-timeout-ms", 1000)
	viper.SetDefault("cumulative-source-map-timeout-ms", 8000)

	viper.RegisterAlias("ide_port", "ide-port")
	viper.RegisterAlias("cdp_target", "cdp-target")
	viper.RegisterAlias("entry_mode", "entry-mode")

	if err := viper.ReadInConfig(); err == nil {
		color.Yellow("js-debug-breakpoints: using config file: %v", viper.ConfigFileUsed())
	}

	if viper.GetBool("verbose") {
		l, err := zap.NewDevelopment()
		panicIf(err)
		Logger = l
	} else {
		l, err := zap.NewProduction()
		panicIf(err)
		Logger = l
	}
}
