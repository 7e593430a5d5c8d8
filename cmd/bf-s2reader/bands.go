package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/venicegeo/bf-s2reader/catalogindex"
	"github.com/venicegeo/bf-s2reader/export"
	"github.com/venicegeo/bf-s2reader/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var bandsFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "parquet",
		Usage: "also write the band table as parquet to this path",
	},
}

func bandsAction(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()
	logContext := &util.BasicLogContext{}

	p, err := openProduct(ctx, c, logContext)
	if err != nil {
		return err
	}

	bands := p.Bands()
	response := make([]catalogindex.BandResponse, len(bands))
	for i, band := range bands {
		response[i] = catalogindex.NewBandResponse(band)
	}
	body, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintln(c.App.Writer, string(body)); err != nil {
		return err
	}

	if path := c.String("parquet"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		if err = export.WriteBandsParquet(file, bands, export.CompressionZstd); err != nil {
			file.Close()
			return err
		}
		if err = file.Close(); err != nil {
			return err
		}
		util.LogInfo(logContext, fmt.Sprintf("Wrote band table to %s", path))
	}
	return nil
}
