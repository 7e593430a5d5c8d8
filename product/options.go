package product

import (
	"runtime"

	"github.com/venicegeo/bf-s2reader/mask"
	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
	"github.com/venicegeo/bf-s2reader/reader"
	"github.com/venicegeo/bf-s2reader/storage"
	"github.com/venicegeo/bf-s2reader/util"
)

// Option configures a Product
type Option func(*options)

type options struct {
	resolution   int
	masks        []mask.Request
	workers      int
	fetcher      raster.Fetcher
	store        storage.Store
	storeOptions storage.Options
	registry     *reader.Registry
	logContext   util.LogContext
}

func defaultOptions() options {
	return options{
		resolution: model.DefaultTargetResolution,
		workers:    runtime.NumCPU(),
		logContext: &util.BasicLogContext{},
	}
}

// WithResolution sets the target resolution in metres
func WithResolution(resolution int) Option {
	return func(o *options) { o.resolution = resolution }
}

// WithMask masks the product as soon as it is loaded
func WithMask(requests ...mask.Request) Option {
	return func(o *options) { o.masks = append(o.masks, requests...) }
}

// WithWorkers bounds the number of bands fetched at once
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithFetcher replaces the TIFF fetcher
func WithFetcher(f raster.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithStore reads the product from store instead of opening root
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithStoreOptions configures remote stores opened from the root
func WithStoreOptions(so storage.Options) Option {
	return func(o *options) { o.storeOptions = so }
}

// WithRegistry replaces the default reader registry
func WithRegistry(r *reader.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogContext sets the context product log lines carry
func WithLogContext(ctx util.LogContext) Option {
	return func(o *options) {
		if ctx != nil {
			o.logContext = ctx
		}
	}
}
