package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"

	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sidecar describes the layout of a band-sequential file
type Sidecar struct {
	Bands       []string    `json:"bands"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Resolution  float64     `json:"resolution"`
	OriginX     float64     `json:"originX"`
	OriginY     float64     `json:"originY"`
	CRS         string      `json:"crs"`
	DataType    string      `json:"dataType"`
	ByteOrder   string      `json:"byteOrder"`
	NoData      string      `json:"nodata"`
	Compression Compression `json:"compression"`
}

// Grid rebuilds the grid the sidecar describes
func (s Sidecar) Grid() raster.Grid {
	return raster.Grid{
		Width:      s.Width,
		Height:     s.Height,
		Resolution: s.Resolution,
		OriginX:    s.OriginX,
		OriginY:    s.OriginY,
		CRS:        s.CRS,
	}
}

// NewSidecar describes a stack as WriteBSQ lays it out
func NewSidecar(stack *raster.Stack, compress bool) Sidecar {
	grid, _ := stack.Grid()
	compression := CompressionNone
	if compress {
		compression = CompressionZstd
	}
	return Sidecar{
		Bands:       stack.Tags(),
		Width:       grid.Width,
		Height:      grid.Height,
		Resolution:  grid.Resolution,
		OriginX:     grid.OriginX,
		OriginY:     grid.OriginY,
		CRS:         grid.CRS,
		DataType:    "float32",
		ByteOrder:   "little",
		NoData:      "nan",
		Compression: compression,
	}
}

// WriteBSQ writes the stack band after band as little-endian float32 samples
// and its layout as a JSON sidecar. compress wraps the raster in a zstd frame.
func WriteBSQ(w io.Writer, sidecar io.Writer, stack *raster.Stack, compress bool) (err error) {
	if stack == nil || stack.Empty() {
		return fmt.Errorf("%w: nothing to export", model.ErrInvalidState)
	}

	out := w
	if compress {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		defer func() {
			if cerr := enc.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close zstd writer: %w", cerr)
			}
		}()
		out = enc
	}

	buf := bufio.NewWriter(out)
	var sample [4]byte
	for _, p := range stack.Planes() {
		for _, v := range p.Data {
			binary.LittleEndian.PutUint32(sample[:], math.Float32bits(float32(v)))
			if _, err := buf.Write(sample[:]); err != nil {
				return fmt.Errorf("write band %s: %w", p.Tag, err)
			}
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush raster: %w", err)
	}

	if sidecar == nil {
		return nil
	}
	body, err := json.MarshalIndent(NewSidecar(stack, compress), "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if _, err := sidecar.Write(body); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// ReadBSQ loads a file written by WriteBSQ back into a stack
func ReadBSQ(r io.Reader, sidecar Sidecar) (*raster.Stack, error) {
	in := r
	if sidecar.Compression == CompressionZstd {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		defer dec.Close()
		in = dec
	}

	grid := sidecar.Grid()
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}
	raw := make([]byte, 4*grid.Len())
	stack := raster.NewStack()
	for _, tag := range sidecar.Bands {
		if _, err := io.ReadFull(in, raw); err != nil {
			return nil, fmt.Errorf("%w: band %s: %v", model.ErrDecode, tag, err)
		}
		data := make([]float64, grid.Len())
		for i := range data {
			data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
		}
		plane, err := raster.NewPlane(tag, grid, data)
		if err != nil {
			return nil, err
		}
		if err := stack.Put(plane); err != nil {
			return nil, err
		}
	}
	return stack, nil
}

// ParseSidecar decodes a sidecar document
func ParseSidecar(body []byte) (Sidecar, error) {
	var s Sidecar
	if err := json.Unmarshal(body, &s); err != nil {
		return Sidecar{}, fmt.Errorf("%w: sidecar: %v", model.ErrDecode, err)
	}
	return s, nil
}
