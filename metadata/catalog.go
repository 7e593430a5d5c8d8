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

// Package metadata parses the product (MTD_MSIL2A.xml) and tile (MTD_TL.xml)
// documents of a Level-2A product into a band table and calibration lookups.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/storage"
)

// Document names inside the product container
const (
	ProductDocument = "MTD_MSIL2A.xml"
	TileDocument    = "MTD_TL.xml"
	granulePrefix   = "GRANULE"
)

// Quantity selects a quantification value
type Quantity string

// The closed set of quantities carrying a quantification value
const (
	AOT Quantity = "AOT"
	WVP Quantity = "WVP"
	BOA Quantity = "BOA"
)

// Catalog is the parsed metadata of one product. It is immutable once loaded.
type Catalog struct {
	product    *etree.Document
	tile       *etree.Document
	productRaw []byte
	tileRaw    []byte
	tileKey    string

	bands []BandSpec
	byTag map[string]int
	byID  map[string]int
}

// Load reads both metadata documents from the store
func Load(ctx context.Context, store storage.Store) (*Catalog, error) {
	productRaw, err := storage.ReadAll(ctx, store, ProductDocument)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: product metadata file %s", model.ErrNotFound, ProductDocument)
		}
		return nil, err
	}

	tiles, err := storage.Glob(ctx, store, granulePrefix, granulePrefix+"/*/"+TileDocument)
	if err != nil {
		return nil, err
	}
	switch len(tiles) {
	case 0:
		return nil, fmt.Errorf("%w: tile metadata file %s/*/%s", model.ErrNotFound, granulePrefix, TileDocument)
	case 1:
	default:
		return nil, fmt.Errorf("%w: expected a single %s, found %d", model.ErrMalformed, TileDocument, len(tiles))
	}
	tileRaw, err := storage.ReadAll(ctx, store, tiles[0])
	if err != nil {
		return nil, err
	}

	catalog, err := Parse(productRaw, tileRaw)
	if err != nil {
		return nil, err
	}
	catalog.tileKey = tiles[0]
	return catalog, nil
}

// Parse builds a catalog from the bytes of the two documents
func Parse(productRaw []byte, tileRaw []byte) (*Catalog, error) {
	product, err := readDocument(ProductDocument, productRaw)
	if err != nil {
		return nil, err
	}
	tile, err := readDocument(TileDocument, tileRaw)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		product:    product,
		tile:       tile,
		productRaw: append([]byte(nil), productRaw...),
		tileRaw:    append([]byte(nil), tileRaw...),
	}
	if err = c.buildBandTable(); err != nil {
		return nil, err
	}
	return c, nil
}

func readDocument(name string, raw []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformed, name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: %s has no root element", model.ErrMalformed, name)
	}
	return doc, nil
}

// OffsetFor returns the BOA_ADD_OFFSET of a band
func (c *Catalog) OffsetFor(tag string) (float64, error) {
	band, err := c.Band(tag)
	if err != nil {
		return 0, err
	}
	el := c.product.FindElement(fmt.Sprintf(".//BOA_ADD_OFFSET[@band_id='%s']", band.ID))
	if el == nil {
		return 0, fmt.Errorf("%w: no offset for band %s", model.ErrNotFound, tag)
	}
	return parseFloat(el, "BOA_ADD_OFFSET")
}

// QuantificationFor returns the quantification value of AOT, WVP or BOA
func (c *Catalog) QuantificationFor(q Quantity) (float64, error) {
	switch q {
	case AOT, WVP, BOA:
	default:
		return 0, fmt.Errorf("%w: no quantification value for type %q", model.ErrInvalidArgument, string(q))
	}
	el := c.product.FindElement(fmt.Sprintf(".//%s_QUANTIFICATION_VALUE", q))
	if el == nil {
		return 0, fmt.Errorf("%w: quantification value for %s", model.ErrNotFound, q)
	}
	return parseFloat(el, string(q)+"_QUANTIFICATION_VALUE")
}

// ImageFiles returns the IMAGE_FILE entries of the granule manifest, in
// document order
func (c *Catalog) ImageFiles() []string {
	var files []string
	for _, el := range c.product.FindElements(".//Granule/IMAGE_FILE") {
		if text := strings.TrimSpace(el.Text()); text != "" {
			files = append(files, text)
		}
	}
	return files
}

// ProductDocument returns a copy of the parsed product document
func (c *Catalog) ProductDocument() *etree.Document {
	return c.product.Copy()
}

// TileDocument returns a copy of the parsed tile document
func (c *Catalog) TileDocument() *etree.Document {
	return c.tile.Copy()
}

// RawProduct returns the product document bytes
func (c *Catalog) RawProduct() []byte {
	return append([]byte(nil), c.productRaw...)
}

// RawTile returns the tile document bytes
func (c *Catalog) RawTile() []byte {
	return append([]byte(nil), c.tileRaw...)
}

// TileKey is the store key the tile document was read from
func (c *Catalog) TileKey() string {
	return c.tileKey
}

func parseFloat(el *etree.Element, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(el.Text()), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", model.ErrMalformed, name, el.Text())
	}
	return v, nil
}

func childText(el *etree.Element, path string) (string, bool) {
	child := el.FindElement(path)
	if child == nil {
		return "", false
	}
	text := strings.TrimSpace(child.Text())
	return text, text != ""
}
