package main

import (
	"log"

	"shop-backend/internal/api"
	"shop-backend/internal/bootstrap"
	"shop-backend/internal/remote"
	"shop-backend/internal/service"
	"shop-backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("order-service: %v", err)
	}
}

func run() error {
	app, err := bootstrap.New("order-service", store.SchemaOrders)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	lookups := remote.NewClient(cfg.Services, cfg.Remote.Timeout)
	orders := service.NewOrderService(
		app.Store,
		app.Redis,
		cfg.Cache.OrderTTL,
		lookups,
		lookups,
		app.Events,
		cfg.Remote.EnrichConcurrency,
	)

	return app.Serve(api.NewOrderHandler(orders))
}
