package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jivorix/checkout-service/internal/config"
	"github.com/jivorix/checkout-service/internal/inventory"
	kafkax "github.com/jivorix/checkout-service/internal/kafka"
	"github.com/jivorix/checkout-service/internal/orders"
	"github.com/jivorix/checkout-service/internal/postgres"
	"github.com/jivorix/checkout-service/internal/redisx"
	"github.com/jivorix/checkout-service/internal/restock"
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
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &restock.Service{
		Store:       &inventory.Store{DB: db},
		Redis:       rdb,
		Level:       cfg.RestockLevel,
		ServiceName: cfg.ServiceName + "-restocker",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.RestockGroup, orders.TopicStockDepleted, cfg.RestockWorkers)

	go func() {
		log.Printf("restocker consumer started: group=%s topic=%s workers=%d",
			cfg.RestockGroup, orders.TopicStockDepleted, cfg.RestockWorkers)
		if err := cons.Start(ctx, svc.HandleStockDepleted); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
