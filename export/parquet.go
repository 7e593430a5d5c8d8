// Package export writes band stacks and table fragments to files other tools
// can open: parquet pixel tables, band-sequential rasters and GeoJSON.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
)

// Compression names a block codec for the exported files
type Compression string

// Supported codecs
const (
	CompressionNone   Compression = "none"
	CompressionSnappy Compression = "snappy"
	CompressionGzip   Compression = "gzip"
	CompressionZstd   Compression = "zstd"
)

// ParseCompression accepts a codec name; empty means none
func ParseCompression(value string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(value))); c {
	case "":
		return CompressionNone, nil
	case CompressionNone, CompressionSnappy, CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown compression %q", model.ErrInvalidArgument, value)
	}
}

func (c Compression) parquetOption() parquet.WriterOption {
	switch c {
	case CompressionSnappy:
		return parquet.Compression(&parquet.Snappy)
	case CompressionGzip:
		return parquet.Compression(&parquet.Gzip)
	case CompressionZstd:
		return parquet.Compression(&parquet.Zstd)
	default:
		return parquet.Compression(&parquet.Uncompressed)
	}
}

// Pixel table column names
const (
	ColumnRow = "row"
	ColumnCol = "col"
	ColumnX   = "x"
	ColumnY   = "y"
)

const rowBatch = 1024

// PixelSchema returns the pixel table schema for a stack: cell position,
// cell centre coordinates and one nullable double column per band.
func PixelSchema(tags []string) (*parquet.Schema, error) {
	group := parquet.Group{
		ColumnRow: parquet.Int(32),
		ColumnCol: parquet.Int(32),
		ColumnX:   parquet.Leaf(parquet.DoubleType),
		ColumnY:   parquet.Leaf(parquet.DoubleType),
	}
	for _, tag := range tags {
		if _, taken := group[tag]; taken {
			return nil, fmt.Errorf("%w: band %q collides with a pixel table column", model.ErrInvalidArgument, tag)
		}
		group[tag] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
	return parquet.NewSchema("pixel", group), nil
}

// WriteParquet writes one row per grid cell. Masked and missing samples are
// stored as nulls.
func WriteParquet(w io.Writer, stack *raster.Stack, compression Compression) error {
	if stack == nil || stack.Empty() {
		return fmt.Errorf("%w: nothing to export", model.ErrInvalidState)
	}
	grid, _ := stack.Grid()
	planes := stack.Planes()
	schema, err := PixelSchema(stack.Tags())
	if err != nil {
		return err
	}

	// The schema orders columns by name; map each one to its source.
	fields := schema.Fields()
	byTag := make(map[string]int, len(planes))
	for i, p := range planes {
		byTag[p.Tag] = i
	}

	writer := parquet.NewWriter(w, schema, compression.parquetOption())
	rows := make([]parquet.Row, 0, rowBatch)
	for r := 0; r < grid.Height; r++ {
		for c := 0; c < grid.Width; c++ {
			x, y := grid.CellCenter(r, c)
			row := make(parquet.Row, len(fields))
			for i, field := range fields {
				switch name := field.Name(); name {
				case ColumnRow:
					row[i] = parquet.Int32Value(int32(r)).Level(0, 0, i)
				case ColumnCol:
					row[i] = parquet.Int32Value(int32(c)).Level(0, 0, i)
				case ColumnX:
					row[i] = parquet.DoubleValue(x).Level(0, 0, i)
				case ColumnY:
					row[i] = parquet.DoubleValue(y).Level(0, 0, i)
				default:
					v := planes[byTag[name]].At(r, c)
					if raster.IsNoData(v) {
						row[i] = parquet.NullValue().Level(0, 0, i)
					} else {
						row[i] = parquet.DoubleValue(v).Level(0, 1, i)
					}
				}
			}
			rows = append(rows, row)
			if len(rows) == rowBatch {
				if _, err := writer.WriteRows(rows); err != nil {
					return fmt.Errorf("write pixel rows: %w", err)
				}
				rows = rows[:0]
			}
		}
	}
	if len(rows) > 0 {
		if _, err := writer.WriteRows(rows); err != nil {
			return fmt.Errorf("write pixel rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// BandRow is one record of the exported band table
type BandRow struct {
	Tag            string    `parquet:"tag"`
	ID             string    `parquet:"band_id"`
	Physical       string    `parquet:"physical"`
	Resolution     int32     `parquet:"resolution"`
	WavelengthMin  float64   `parquet:"wavelength_min"`
	WavelengthMax  float64   `parquet:"wavelength_max"`
	WavelengthMean float64   `parquet:"wavelength_central"`
	ResponseStep   float64   `parquet:"response_step"`
	Response       []float64 `parquet:"response,list"`
}

// NewBandRow flattens a band table entry
func NewBandRow(band metadata.BandSpec) BandRow {
	return BandRow{
		Tag:            band.Tag,
		ID:             band.ID,
		Physical:       band.Physical,
		Resolution:     int32(band.Resolution),
		WavelengthMin:  band.Wavelength.Min,
		WavelengthMax:  band.Wavelength.Max,
		WavelengthMean: band.Wavelength.Central,
		ResponseStep:   band.ResponseStep,
		Response:       append([]float64(nil), band.Response...),
	}
}

// WriteBandsParquet writes the band table
func WriteBandsParquet(w io.Writer, bands []metadata.BandSpec, compression Compression) error {
	rows := make([]BandRow, len(bands))
	for i, band := range bands {
		rows[i] = NewBandRow(band)
	}
	writer := parquet.NewGenericWriter[BandRow](w, compression.parquetOption())
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write band rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
