package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/venicegeo/bf-s2reader/product"
	"github.com/venicegeo/bf-s2reader/storage"
	"github.com/venicegeo/bf-s2reader/util"
)

var errNoProduct = errors.New("a product .SAFE root is required")

// commandContext is cancelled on SIGINT/SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func storeOptions() storage.Options {
	accessKey, secretKey := util.GetS3Credentials()
	return storage.Options{
		Region:    util.GetS3Region(),
		Endpoint:  util.GetS3Endpoint(),
		AccessKey: accessKey,
		SecretKey: secretKey,
	}
}

func openProduct(ctx context.Context, c *cli.Context, logContext util.LogContext, opts ...product.Option) (*product.Product, error) {
	if c.NArg() < 1 {
		return nil, errNoProduct
	}
	root := c.Args().First()
	opts = append([]product.Option{
		product.WithStoreOptions(storeOptions()),
		product.WithWorkers(util.GetFetchWorkers()),
		product.WithLogContext(logContext),
	}, opts...)
	return product.New(ctx, root, opts...)
}
