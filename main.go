package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auctionpipe/internal/config"
	"auctionpipe/internal/database/db_client"
	"auctionpipe/internal/http/http_server"
	"auctionpipe/internal/notify"
	"auctionpipe/internal/queue/bidqueue"
	"auctionpipe/internal/redis/redis_client"
	"auctionpipe/internal/redis/redis_functions"
	"auctionpipe/internal/services/admission"
	"auctionpipe/internal/services/auction"
	"auctionpipe/internal/services/settlement"
	"auctionpipe/internal/synccache"
	"auctionpipe/internal/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// Load the Redis Functions lua
	if err := redis_functions.LoadAll(ctx, redisClient); err != nil {
		Log.Fatal("load-redis-funcs", zap.Error(err))
	}

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Services: auction reads, bid admission, settlement
	auctionService := auction.NewAuctionService(redisClient, pgDb)

	queue := bidqueue.New(redisClient, bidqueue.Options{
		Stream:       cfg.BidStream,
		Group:        cfg.BidConsumerGroup,
		BatchSize:    cfg.BidBatchSize,
		ReclaimAfter: time.Duration(cfg.BidReclaimAfterSec) * time.Second,
	})
	admissionService := admission.NewAdmissionService(
		auction.NewCachedReader(redisClient, pgDb), queue)

	dispatcher := notify.NewDispatcher(notify.NewRedisSink(redisClient))
	settlementService := settlement.NewService(pgDb, redisClient, dispatcher)

	// 6. Background: queue consumer ➜ settlement pipeline
	queue.Run(ctx, settlementService)

	// 7. Background: auction cache warmer
	synccache.Run(ctx, redisClient, pgDb,
		time.Duration(cfg.CacheSyncIntervalSec)*time.Second)

	// 8. WebSockets hub + Redis fan-out
	hub := ws.NewHub()
	go ws.SubscribeAuctionEvents(ctx, redisClient, hub)
	wsSrv := ws.NewWsServer(hub)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, auctionService, admissionService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
