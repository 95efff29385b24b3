package main

import (
	"context"
	"log"

	"shop-backend/internal/api"
	"shop-backend/internal/bootstrap"
	"shop-backend/internal/remote"
	"shop-backend/internal/service"
	"shop-backend/internal/store"
	"shop-backend/internal/worker"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("product-service: %v", err)
	}
}

func run() error {
	app, err := bootstrap.New("product-service", store.SchemaProducts)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	lookups := remote.NewClient(cfg.Services, cfg.Remote.Timeout)
	products := service.NewProductService(app.Store, app.Redis, cfg.Cache.ProductTTL, lookups, app.Events, cfg.Remote.EnrichConcurrency)

	if consumer := app.Consumer(); consumer != nil {
		workerCtx, workerCancel := context.WithCancel(context.Background())
		defer workerCancel()

		cacheWorker := worker.NewProductCacheWorker(consumer, products)
		go func() {
			if err := cacheWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				app.Logger.Error("Product cache worker stopped", zap.Error(err))
			}
		}()
		defer func() {
			workerCancel()
			_ = cacheWorker.Stop()
		}()
	}

	return app.Serve(api.NewProductHandler(products))
}
