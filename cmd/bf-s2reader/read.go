package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/venicegeo/bf-s2reader/export"
	"github.com/venicegeo/bf-s2reader/mask"
	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/product"
	"github.com/venicegeo/bf-s2reader/util"
)

// Output formats of the read command
const (
	formatParquet = "parquet"
	formatBSQ     = "bsq"
	formatGeoJSON = "geojson"
)

var readFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "bands, b",
		Usage: "comma separated band tags, e.g. B02,B03,B04,SCL",
	},
	cli.IntFlag{
		Name:   "resolution, r",
		Usage:  "target resolution in metres",
		Value:  model.DefaultTargetResolution,
		EnvVar: util.S2_TARGET_RESOLUTION,
	},
	cli.StringSliceFlag{
		Name:  "mask",
		Usage: "mask cells whose TAG value is listed, e.g. SCL=0,3,8,9 (repeatable)",
	},
	cli.BoolFlag{
		Name:  "invert-mask",
		Usage: "mask cells whose value is NOT listed",
	},
	cli.StringFlag{
		Name:  "format, f",
		Usage: "parquet, bsq or geojson",
		Value: formatParquet,
	},
	cli.StringFlag{
		Name:  "compression",
		Usage: "none, snappy, gzip or zstd",
		Value: string(export.CompressionZstd),
	},
	cli.StringFlag{
		Name:  "out, o",
		Usage: "output path; stdout when empty (bsq requires a path)",
	},
}

func splitTags(value string) []string {
	var tags []string
	for _, field := range strings.Split(value, ",") {
		if tag := strings.TrimSpace(field); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func readAction(c *cli.Context) error {
	tags := splitTags(c.String("bands"))
	if len(tags) == 0 {
		return fmt.Errorf("%w: --bands is required", model.ErrInvalidArgument)
	}
	format := strings.ToLower(c.String("format"))
	switch format {
	case formatParquet, formatBSQ, formatGeoJSON:
	default:
		return fmt.Errorf("%w: unknown format %q", model.ErrInvalidArgument, format)
	}
	compression, err := export.ParseCompression(c.String("compression"))
	if err != nil {
		return err
	}
	out := c.String("out")
	if format == formatBSQ && out == "" {
		return fmt.Errorf("%w: bsq output needs --out", model.ErrInvalidArgument)
	}

	opts := []product.Option{product.WithResolution(c.Int("resolution"))}
	for _, text := range c.StringSlice("mask") {
		req, err := mask.ParseRequest(text, c.Bool("invert-mask"))
		if err != nil {
			return err
		}
		opts = append(opts, product.WithMask(req))
	}

	ctx, cancel := commandContext()
	defer cancel()
	logContext := &util.BasicLogContext{}

	p, err := openProduct(ctx, c, logContext, opts...)
	if err != nil {
		return err
	}
	if err = p.Read(ctx, tags...); err != nil {
		return err
	}

	switch format {
	case formatGeoJSON:
		return writeOutput(c.App.Writer, out, func(w io.Writer) error {
			return export.WriteGeoJSON(w, p.Table())
		})
	case formatBSQ:
		sidecar, err := os.Create(out + ".json")
		if err != nil {
			return err
		}
		err = writeOutput(c.App.Writer, out, func(w io.Writer) error {
			return export.WriteBSQ(w, sidecar, p.Stack(), compression == export.CompressionZstd)
		})
		if cerr := sidecar.Close(); err == nil {
			err = cerr
		}
		return err
	default:
		return writeOutput(c.App.Writer, out, func(w io.Writer) error {
			return export.WriteParquet(w, p.Stack(), compression)
		})
	}
}

// writeOutput runs write against the named file, or stdout when path is empty
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
