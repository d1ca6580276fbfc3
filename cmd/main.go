package main

import (
	"context"
	"os"

	catalogpg "github.com/cdexmarket/cdex/internal/catalog/infra/repository/postgres"
	listingapp "github.com/cdexmarket/cdex/internal/listing/application"
	listinghttp "github.com/cdexmarket/cdex/internal/listing/infra/http"
	listingpg "github.com/cdexmarket/cdex/internal/listing/infra/repository/postgres"
	listingws "github.com/cdexmarket/cdex/internal/listing/infra/websocket"
	offerapp "github.com/cdexmarket/cdex/internal/offer/application"
	offerhttp "github.com/cdexmarket/cdex/internal/offer/infra/http"
	offerpg "github.com/cdexmarket/cdex/internal/offer/infra/repository/postgres"
	"github.com/cdexmarket/cdex/internal/shared/db"
	"github.com/cdexmarket/cdex/internal/shared/db/migrations"
	"github.com/cdexmarket/cdex/internal/shared/httpserver"
	"github.com/cdexmarket/cdex/internal/shared/lock"
	"github.com/cdexmarket/cdex/internal/shared/logger"
	ws "github.com/cdexmarket/cdex/internal/shared/websocket"
	userpg "github.com/cdexmarket/cdex/internal/user/infra/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting cdex marketplace server...")

	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.GetPostgresDBPool(ctx)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	listingRepo := listingpg.NewListingRepository(pool)
	bidRepo := listingpg.NewBidRepository(pool)
	cardRepo := catalogpg.NewCardRepository(pool)
	offerRepo := offerpg.NewOfferRepository(pool)
	userRepo := userpg.NewUserRepository(pool)

	// Listing use cases and service
	locks := lock.NewKeyedMutex()
	listingService := listingapp.NewListingService(
		listingapp.NewSubmitBidUseCase(listingRepo, locks),
		listingapp.NewCreateListingUseCase(listingRepo, cardRepo),
		listingapp.NewGetListingStateUseCase(listingRepo),
		listingapp.NewListBidsUseCase(listingRepo, bidRepo),
		listingRepo,
	)
	offerService := offerapp.NewOfferService(offerRepo, listingRepo)

	// WebSocket hub and listing handler
	hub := ws.NewHub()
	go hub.Run(ctx)
	wsHandler := listingws.NewListingWSHandler(listingService, userRepo, hub)
	go wsHandler.ListenForMessages(ctx)

	// HTTP server and routes
	server := httpserver.NewServer()
	listinghttp.NewListingHandler(listingService).Register(server.App())
	offerhttp.NewOfferHandler(offerService).Register(server.App())
	wsHandler.Register(ctx, server.App())

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":9000"
	}
	if err := server.Start(addr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
