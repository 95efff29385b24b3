package main

import (
	"log"

	"shop-backend/internal/api"
	"shop-backend/internal/bootstrap"
	"shop-backend/internal/service"
	"shop-backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("merchant-service: %v", err)
	}
}

func run() error {
	app, err := bootstrap.New("merchant-service", store.SchemaMerchants)
	if err != nil {
		return err
	}
	defer app.Close()

	merchants := service.NewMerchantService(app.Store, app.Redis, app.Config.Cache.MerchantTTL, app.Events)
	return app.Serve(api.NewMerchantHandler(merchants))
}
