// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/venicegeo/bf-s2reader/util"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

var commands = cli.Commands{
	cli.Command{
		Name:      "bands",
		Aliases:   []string{"b"},
		Usage:     "Print the band table of a product",
		ArgsUsage: "<product.SAFE>",
		Flags:     bandsFlags,
		Action:    bandsAction,
	},
	cli.Command{
		Name:      "read",
		Aliases:   []string{"r"},
		Usage:     "Read bands from a product and export them",
		ArgsUsage: "<product.SAFE>",
		Flags:     readFlags,
		Action:    readAction,
	},
	cli.Command{
		Name:      "index",
		Aliases:   []string{"i"},
		Usage:     "Record a product and its band table in the catalog database",
		ArgsUsage: "<product.SAFE>",
		Action:    indexAction,
	},
	cli.Command{
		Name:      "migrate",
		Aliases:   []string{"m"},
		Usage:     "Update database schema",
		ArgsUsage: "[up|down|status]",
		Action:    migrateDatabaseAction,
	},
	cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Launch the bf-s2reader webserver",
		Action:  serveAction,
	},
	cli.Command{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version number of the CLI",
		Action:  versionAction,
	},
}

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "log-level",
		Usage:  "debug, info, warn or error",
		Value:  "info",
		EnvVar: util.S2_LOG_LEVEL,
	},
	cli.StringFlag{
		Name:   "log-format",
		Usage:  "text or json",
		Value:  "text",
		EnvVar: util.S2_LOG_FORMAT,
	},
}

func createCliApp() (app *cli.App) {
	app = cli.NewApp()
	app.Name = "bf-s2reader"
	app.Usage = "Read and export Sentinel-2 Level-2A products"
	app.Version = version
	app.Flags = globalFlags
	app.Before = setupLogging
	app.Commands = commands
	return
}

func setupLogging(c *cli.Context) error {
	return util.SetupLogger(os.Stderr, c.GlobalString("log-level"), c.GlobalString("log-format"))
}

func versionAction(c *cli.Context) error {
	_, err := fmt.Fprintf(c.App.Writer, "%s %s\n", c.App.Name, c.App.Version)
	return err
}
