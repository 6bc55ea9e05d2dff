// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/pkg/spi"
	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "spi",
	Short: "Simple Payments Integration client",
	Long: `Pairs with an mx51 payment terminal and drives transactions on it.
Configuration is read from spi.yaml, or the file given with -f, and can be
overridden with SPI_ prefixed environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "config file")
}

// Execute is called by the main method of the package
func Execute() error {
	return rootCmd.Execute()
}

func rootContext() context.Context {
	return log.WithLogger(context.Background(), logrus.WithField("pid", os.Getpid()))
}

// loadConfig reads the configuration and sets up logging. A missing default config file is
// not an error, as everything can come from the environment.
func loadConfig(ctx context.Context) error {
	err := config.ReadConfig(cfgFile)
	if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
		err = nil
	}

	// Setup logging after reading config (even if failed), to output header correctly
	config.SetupLogging(ctx)
	log.L(ctx).Debugf("SPI client library %s", spi.LibraryVersion)

	if err != nil {
		return i18n.WrapError(ctx, err, i18n.MsgConfigFailed)
	}
	return nil
}

func render(ctx context.Context, out io.Writer, v interface{}, format string) (err error) {
	var bytes []byte
	switch format {
	case "json":
		bytes, err = json.MarshalIndent(v, "", "  ")
	case "yaml":
		bytes, err = yaml.Marshal(v)
	default:
		err = i18n.NewError(ctx, i18n.MsgInvalidOutputOption, format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(bytes))
	return nil
}
