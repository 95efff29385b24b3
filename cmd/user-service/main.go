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
		log.Fatalf("user-service: %v", err)
	}
}

func run() error {
	app, err := bootstrap.New("user-service", store.SchemaUsers)
	if err != nil {
		return err
	}
	defer app.Close()

	users := service.NewUserService(app.Store, app.Redis, app.Config.Cache.UserTTL, app.Events)
	return app.Serve(api.NewUserHandler(users))
}
