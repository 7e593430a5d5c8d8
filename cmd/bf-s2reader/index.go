package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/venicegeo/bf-s2reader/catalogdb"
	"github.com/venicegeo/bf-s2reader/util"
)

func indexAction(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()
	logContext := &util.BasicLogContext{}

	p, err := openProduct(ctx, c, logContext)
	if err != nil {
		return err
	}

	importer := catalogdb.NewImporter(getDbConnectionFunc)
	return importer.ImportCatalog(ctx, logContext, p.Root(), p.Catalog())
}
