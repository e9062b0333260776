package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jivorix/checkout-service/internal/config"
	"github.com/jivorix/checkout-service/internal/httpx"
	"github.com/jivorix/checkout-service/internal/inventory"
	kafkax "github.com/jivorix/checkout-service/internal/kafka"
	"github.com/jivorix/checkout-service/internal/orders"
	"github.com/jivorix/checkout-service/internal/postgres"
	"github.com/jivorix/checkout-service/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024)
	pStatus.Start(ctx)
	pReserved := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockReserved, 1024)
	pReserved.Start(ctx)
	pDepleted := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockDepleted, 1024)
	pDepleted.Start(ctx)

	router := httpx.NewRouter()

	oh := &httpx.OrdersHandler{
		Repo:     &orders.Repo{DB: db},
		Producer: pStatus,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	oh.Register(router)

	ih := &httpx.InventoryHandler{
		Store:            &inventory.Store{DB: db},
		ProducerReserved: pReserved,
		ProducerDepleted: pDepleted,
		Service:          cfg.ServiceName,
	}
	ih.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pStatus, pReserved, pDepleted} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pStatus, pReserved, pDepleted} {
		p.WaitClosed()
	}
}
