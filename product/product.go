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

// Package product accumulates the bands of one Level-2A product into a single
// stack on a target grid, with an optional companion table and mask.
package product

import (
	"context"
	"fmt"
	"sync"

	"github.com/venicegeo/geojson-go/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/venicegeo/bf-s2reader/locator"
	"github.com/venicegeo/bf-s2reader/mask"
	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
	"github.com/venicegeo/bf-s2reader/reader"
	"github.com/venicegeo/bf-s2reader/storage"
	"github.com/venicegeo/bf-s2reader/util"
)

// Product is a handle on one product container. All mutations serialize on
// one lock; accessors return copies.
type Product struct {
	root     string
	name     *model.ProductName
	store    storage.Store
	catalog  *metadata.Catalog
	registry *reader.Registry
	source   *reader.Source
	workers  int
	logCtx   util.LogContext

	mu        sync.Mutex
	stack     *raster.Stack
	table     *geojson.FeatureCollection
	tableTags map[string]bool
	mask      *mask.Mask
}

// New opens the product at root, loads its metadata and applies any mask
// requested through WithMask
func New(ctx context.Context, root string, opts ...Option) (*Product, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if !model.IsSafeContainer(root) {
		return nil, fmt.Errorf("%w: %s is not a %s directory", model.ErrInvalidArgument, root, model.SafeSuffix)
	}
	if o.resolution <= 0 {
		return nil, fmt.Errorf("%w: target resolution must be positive, got %d", model.ErrInvalidArgument, o.resolution)
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = storage.Open(ctx, root, o.storeOptions); err != nil {
			return nil, err
		}
	}

	catalog, err := metadata.Load(ctx, store)
	if err != nil {
		return nil, err
	}
	loc, err := locator.New(catalog)
	if err != nil {
		return nil, err
	}

	registry := o.registry
	if registry == nil {
		if registry, err = reader.Default(); err != nil {
			return nil, err
		}
	}
	candidates := catalog.Tags()
	for _, f := range loc.Files() {
		candidates = append(candidates, f.Name)
	}
	if err = registry.Check(candidates...); err != nil {
		return nil, err
	}

	grid, err := catalog.Grid(o.resolution)
	if err != nil {
		return nil, err
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = raster.NewTIFFFetcher(store)
	}

	name, err := model.ParseProductName(root)
	if err != nil {
		util.LogDebug(o.logContext, "Product name is not a standard Sentinel-2 name", "root", root, "error", err)
		name = nil
	}

	p := &Product{
		root:     root,
		name:     name,
		store:    store,
		catalog:  catalog,
		registry: registry,
		workers:  o.workers,
		logCtx:   o.logContext,
		source: &reader.Source{
			Catalog:    catalog,
			Locator:    loc,
			Fetcher:    fetcher,
			Resolution: o.resolution,
			Grid:       grid,
			Name:       name,
			LogContext: o.logContext,
		},
		stack:     raster.NewStack(),
		tableTags: map[string]bool{},
	}
	util.LogInfo(p.logCtx, "Opened product", "root", root, "resolution", o.resolution, "grid", grid.String())

	for _, req := range o.masks {
		if err = p.AddMask(ctx, req.Tag, req.Values, req.Invert); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Read fetches every requested tag that is not already held, in request
// order, then re-applies the mask to the whole stack. Either every tag is
// merged or nothing changes.
func (p *Product) Read(ctx context.Context, tags ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.read(ctx, tags); err != nil {
		return util.LogSimpleErr(p.logCtx, "Failed to read bands", err)
	}
	return nil
}

func (p *Product) read(ctx context.Context, tags []string) error {
	var pending []string
	queued := map[string]bool{}
	for _, tag := range tags {
		if queued[tag] || p.stack.Has(tag) || p.tableTags[tag] {
			continue
		}
		queued[tag] = true
		pending = append(pending, tag)
	}

	bindings := make([]reader.Binding, len(pending))
	for i, tag := range pending {
		b, err := p.registry.Dispatch(tag)
		if err != nil {
			return err
		}
		bindings[i] = b
	}

	results, err := p.fetch(ctx, pending, bindings)
	if err != nil {
		return err
	}

	// Validate everything before the first merge so a bad result leaves the
	// stack and the table untouched.
	planes := make([]raster.Plane, len(results))
	for i, result := range results {
		if result.Plane == nil {
			continue
		}
		if !result.Plane.Grid.Equal(p.source.Grid) {
			return fmt.Errorf("%w: band %s is on grid %s, not %s", model.ErrReaderContract, pending[i], result.Plane.Grid, p.source.Grid)
		}
		plane, err := raster.NewPlane(pending[i], result.Plane.Grid, result.Plane.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrReaderContract, err)
		}
		planes[i] = plane.Clone()
	}
	for i, result := range results {
		if result.Plane != nil {
			if err := p.stack.Put(planes[i]); err != nil {
				return err
			}
			continue
		}
		p.appendTable(result.Table)
		p.tableTags[pending[i]] = true
	}
	if len(pending) > 0 {
		util.LogInfo(p.logCtx, "Read bands", "tags", pending, "stack", p.stack.Tags())
	}
	return p.applyMask()
}

// fetch runs the readers for pending on a bounded pool. Results come back in
// request order.
func (p *Product) fetch(ctx context.Context, pending []string, bindings []reader.Binding) ([]reader.Result, error) {
	results := make([]reader.Result, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range pending {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := bindings[i].Reader.Read(gctx, p.source, pending[i])
			if err != nil {
				return fmt.Errorf("%s reader, band %s: %w", bindings[i].Category, pending[i], err)
			}
			if !result.Valid() {
				return fmt.Errorf("%w: %s reader returned %s for band %s", model.ErrReaderContract, bindings[i].Category, describe(result), pending[i])
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func describe(r reader.Result) string {
	if r.Plane == nil && r.Table == nil {
		return "neither a plane nor a table"
	}
	return "both a plane and a table"
}

// Update merges a caller-built plane or table fragment. Exactly one must be
// given. A plane replaces any band with the same tag and must be on the
// product grid.
func (p *Product) Update(plane *raster.Plane, table *geojson.FeatureCollection) error {
	if (plane == nil) == (table == nil) {
		return fmt.Errorf("%w: update needs exactly one of a plane or a table", model.ErrInvalidArgument)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if table != nil {
		p.appendTable(table)
		return nil
	}
	if !plane.Grid.Equal(p.source.Grid) {
		return fmt.Errorf("%w: plane %s is on grid %s, not %s", model.ErrInvalidArgument, plane.Tag, plane.Grid, p.source.Grid)
	}
	if _, err := raster.NewPlane(plane.Tag, plane.Grid, plane.Data); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}
	if err := p.stack.Put(plane.Clone()); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}
	return p.applyMask()
}

// Remove drops the named bands. Tags not in the stack are ignored. Removing
// every band leaves an empty stack.
func (p *Product) Remove(tags ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stack.Empty() {
		return fmt.Errorf("%w: no bands to remove", model.ErrInvalidState)
	}
	p.stack.Drop(tags...)
	util.LogDebug(p.logCtx, "Removed bands", "tags", tags, "stack", p.stack.Tags())
	return nil
}

// AddMask excludes the cells of tag whose value is in values (or not in
// values when invert is set) from every band. A band read only to build the
// mask is removed again afterwards.
func (p *Product) AddMask(ctx context.Context, tag string, values []float64, invert bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tableTags[tag] {
		return fmt.Errorf("%w: %s does not produce a band to mask on", model.ErrInvalidArgument, tag)
	}
	transient := !p.stack.Has(tag)
	hadTable, tableLen := p.table != nil, 0
	if hadTable {
		tableLen = len(p.table.Features)
	}
	if transient {
		if err := p.read(ctx, []string{tag}); err != nil {
			return util.LogSimpleErr(p.logCtx, "Failed to read mask band", err)
		}
	}
	evict := func() {
		if !transient {
			return
		}
		p.stack.Drop(tag)
		if p.tableTags[tag] {
			delete(p.tableTags, tag)
			if hadTable {
				p.table.Features = p.table.Features[:tableLen]
			} else {
				p.table = nil
			}
		}
	}

	plane, ok := p.stack.Plane(tag)
	if !ok {
		evict()
		return fmt.Errorf("%w: %s does not produce a band to mask on", model.ErrInvalidArgument, tag)
	}

	m := p.mask
	if m == nil {
		m = mask.New(p.source.Grid)
	} else {
		m = m.Clone()
	}
	if err := m.Add(plane, values, invert); err != nil {
		evict()
		return err
	}

	p.mask = m
	evict()
	util.LogInfo(p.logCtx, "Added mask", "tag", tag, "values", values, "invert", invert, "maskedCells", m.Count())
	return p.applyMask()
}

func (p *Product) applyMask() error {
	if p.mask == nil {
		return nil
	}
	return p.mask.Apply(p.stack)
}

func (p *Product) appendTable(fragment *geojson.FeatureCollection) {
	if p.table == nil {
		p.table = geojson.NewFeatureCollection(nil)
	}
	for _, f := range fragment.Features {
		p.table.Features = append(p.table.Features, cloneFeature(f))
	}
}

func cloneFeature(f *geojson.Feature) *geojson.Feature {
	if f == nil {
		return nil
	}
	c := *f
	if f.Properties != nil {
		c.Properties = make(map[string]interface{}, len(f.Properties))
		for k, v := range f.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}

// Root returns the path the product was opened from
func (p *Product) Root() string {
	return p.root
}

// Name returns the parsed product name, or nil for a non-standard name
func (p *Product) Name() *model.ProductName {
	return p.name
}

// Resolution returns the target resolution
func (p *Product) Resolution() int {
	return p.source.Resolution
}

// Grid returns the target grid every band is resampled onto
func (p *Product) Grid() raster.Grid {
	return p.source.Grid
}

// Catalog returns the parsed metadata. It is immutable.
func (p *Product) Catalog() *metadata.Catalog {
	return p.catalog
}

// Bands returns the band specification table
func (p *Product) Bands() []metadata.BandSpec {
	return p.catalog.Bands()
}

// Stack returns a copy of the raster stack
func (p *Product) Stack() *raster.Stack {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stack.Clone()
}

// Tags returns the band axis of the stack
func (p *Product) Tags() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stack.Tags()
}

// Table returns a copy of the companion table, or nil if nothing was merged
func (p *Product) Table() *geojson.FeatureCollection {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.table == nil {
		return nil
	}
	features := make([]*geojson.Feature, len(p.table.Features))
	for i, f := range p.table.Features {
		features[i] = cloneFeature(f)
	}
	return geojson.NewFeatureCollection(features)
}

// Mask returns a copy of the accumulated mask, or nil if none was added
func (p *Product) Mask() *mask.Mask {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mask == nil {
		return nil
	}
	return p.mask.Clone()
}
