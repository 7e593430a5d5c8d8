package main

import (
	"fmt"

	"github.com/pressly/goose"
	cli "gopkg.in/urfave/cli.v1"

	_ "github.com/venicegeo/bf-s2reader/migrations"
	"github.com/venicegeo/bf-s2reader/util"
)

var migrateCommands = map[string]bool{"up": true, "down": true, "status": true, "version": true}

func migrateDatabaseAction(c *cli.Context) error {
	command := "up"
	if c.NArg() > 0 {
		command = c.Args().First()
	}
	if !migrateCommands[command] {
		return fmt.Errorf("unknown migrate command %q", command)
	}

	logContext := &util.BasicLogContext{}
	database, err := getDbConnectionFunc(logContext)
	if err != nil {
		return util.LogSimpleErr(logContext, "Could not open database connection", err)
	}
	defer database.Close()

	if err = goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Run(command, database, ".")
}
