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
	"fmt"
	"runtime/debug"

	"github.com/DixusSlim/spi-client-windows/pkg/spi"
	"github.com/spf13/cobra"
)

var shortened = false

var BuildDate string
var BuildCommit string
var BuildVersionOverride string

type Info struct {
	Version        string `json:"Version,omitempty" yaml:"Version,omitempty"`
	LibraryVersion string `json:"LibraryVersion,omitempty" yaml:"LibraryVersion,omitempty"`
	Commit         string `json:"Commit,omitempty" yaml:"Commit,omitempty"`
	Date           string `json:"Date,omitempty" yaml:"Date,omitempty"`
	License        string `json:"License,omitempty" yaml:"License,omitempty"`
}

func setBuildInfo(info *Info, buildInfo *debug.BuildInfo, ok bool) {
	if ok {
		info.Version = buildInfo.Main.Version
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version info",
	Long:  "Prints the version of the CLI, and of the SPI protocol library it reports to the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := &Info{
			Date:           BuildDate,
			Commit:         BuildCommit,
			Version:        BuildVersionOverride,
			LibraryVersion: spi.LibraryVersion,
			License:        "Apache-2.0",
		}

		// go install gives us the module version, release builds pass it in explicitly
		if info.Version == "" {
			buildInfo, ok := debug.ReadBuildInfo()
			setBuildInfo(info, buildInfo, ok)
		}

		if shortened {
			fmt.Fprintln(cmd.OutOrStdout(), info.Version)
			return nil
		}
		return render(rootContext(), cmd.OutOrStdout(), info, output)
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&shortened, "short", "s", false, "Prints only the version number")
	rootCmd.AddCommand(versionCmd)
}
