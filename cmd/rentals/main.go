package main

import (
	"context"

	invoicerender "carrental/internal/invoices/render"
	invoiceservice "carrental/internal/invoices/service"
	"carrental/internal/pricing"
	"carrental/internal/rentals/events"
	"carrental/internal/rentals/handler"
	"carrental/internal/rentals/repository"
	"carrental/internal/rentals/service"
	"carrental/internal/rentals/validator"
	"carrental/pkg/app"
	"carrental/pkg/config"
)

const ServiceName = "rentals"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Rentals service")

	rentalRepo := repository.NewMongoRentalRepository(cfg)
	if err := rentalRepo.EnsureIndexes(context.Background()); err != nil {
		cfg.Log.Fatal("Failed to ensure rental indexes", "error", err)
	}

	publisher := newPublisher(cfg)

	rentalService := service.NewRentalService(
		rentalRepo,
		validator.NewRentalValidator(cfg.Log),
		pricing.NewResolver(),
		pricing.Config{
			BaseDayRate: cfg.BaseDayRate,
			BaseKmRate:  cfg.BaseKmRate,
		},
		publisher,
		cfg,
	)

	renderer, err := invoicerender.NewTextRenderer()
	if err != nil {
		cfg.Log.Fatal("Failed to initialize invoice renderer", "error", err)
	}
	invoices := invoiceservice.NewInvoiceService(rentalService, renderer, cfg)

	debug := !cfg.IsProduction()
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewRentalHandler(rentalService, cfg.Log, debug),
		handler.NewInvoiceHandler(invoices, cfg.Log, debug),
	)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.Run()
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Event publishing disabled: no Kafka brokers configured")
		return events.NewNoopPublisher()
	}
	cfg.Log.Info("Event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return events.NewKafkaPublisher(cfg, ServiceName)
}
