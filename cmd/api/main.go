package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MICGolf/backend/internal/catalog"
	"github.com/MICGolf/backend/internal/config"
	"github.com/MICGolf/backend/internal/httpx"
	kafkax "github.com/MICGolf/backend/internal/kafka"
	"github.com/MICGolf/backend/internal/orders"
	"github.com/MICGolf/backend/internal/postgres"
	"github.com/MICGolf/backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per order topic
	producers := httpx.Producers{
		Created:  kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024),
		Purchase: kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPurchaseConfirmed, 1024),
		Claim:    kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicClaimFiled, 1024),
		Shipping: kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicShippingUpdated, 1024),
	}
	all := []*kafkax.Producer{producers.Created, producers.Purchase, producers.Claim, producers.Shipping}
	for _, p := range all {
		p.Start(ctx)
	}

	// Service & handler
	svc := &orders.Service{Store: &orders.Repo{DB: db}}
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Orders:    svc,
		Catalog:   &catalog.Repo{DB: db},
		Redis:     rdb,
		Producers: producers,
		Service:   cfg.ServiceName,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range all {
		p.Close() // close inbox -> flush & close writer
	}
	cancel()
	for _, p := range all {
		p.WaitClosed()
	}
}
