package bootstrap

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/entity"
	httpHandler "github.com/krobus00/wind-gateway/internal/handler/marketdata/http"
	"github.com/krobus00/wind-gateway/internal/infrastructure"
	"github.com/krobus00/wind-gateway/internal/repository"
	"github.com/krobus00/wind-gateway/internal/service/marketdata"
	"github.com/krobus00/wind-gateway/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartMarketDataGateway(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database["market_data"])
	util.ContinueOrFatal(err)
	infrastructure.StartPostgresHealthCheck(ctx, db, config.Env.Database["market_data"].PingInterval)

	nc, js, err := infrastructure.NewJetstream()
	util.ContinueOrFatal(err)

	redisConfig := config.Env.Redis["market_data"]
	redisClient, err := infrastructure.NewRedisClient(ctx, redisConfig)
	util.ContinueOrFatal(err)

	quoteSubscriptionRepo := repository.NewQuoteSubscriptionRepository(db)
	tickCacheRepo := repository.NewTickCacheRepository(redisClient, redisConfig.TickTTL)

	tickStream := marketdata.NewTickStream(js, nil)
	util.ContinueOrFatal(tickStream.JetstreamEventInit(ctx))

	client := newWindClient()
	quoteService := marketdata.NewQuoteService(client, tickStream.Publish)

	subs, err := quoteSubscriptionRepo.GetActive(ctx)
	util.ContinueOrFatal(err)
	for _, sub := range subs {
		quoteService.Register(sub.ToRequest())
	}
	logrus.Infof("restored %d quote subscriptions", len(subs))

	connect := func(ctx context.Context) {
		failed := quoteService.Connect(ctx)
		if !client.IsConnected() {
			return
		}

		now := time.Now().UTC()
		for _, req := range restoredSubscriptions(quoteService.Subscriptions(), failed) {
			if err := quoteSubscriptionRepo.MarkSubscribed(ctx, req, now); err != nil {
				logrus.WithField("vt_symbol", req.VtSymbol()).Error(err)
			}
		}
	}
	connect(ctx)

	var reconnectWG sync.WaitGroup
	reconnectWG.Add(1)
	go func() {
		defer reconnectWG.Done()
		keepConnected(ctx, client, reconnectInterval(), connect)
	}()

	httpMux := http.NewServeMux()
	httpHandler.NewSubscriptionHTTPHandler(quoteService, quoteSubscriptionRepo).Register(httpMux)
	httpHandler.NewTickHTTPHandler(tickCacheRepo).Register(httpMux)

	httpConfig := infrastructure.DefaultHTTPServerConfig("market_data_gateway_http")
	httpConfig.ShutdownTimeout = config.Env.GracefulShutdownTimeout
	httpConfig.Ready = windReady(client)
	httpServer := infrastructure.NewHTTPServerWithConfig(httpConfig, httpMux)

	go func() {
		if err := httpServer.Start(); err != nil {
			logrus.Error(err)
		}
	}()

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, map[string]operation{
		"wind session": func(ctx context.Context) error {
			cancel()
			reconnectWG.Wait()
			return quoteService.Close()
		},
		"http": func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
		"database": func(ctx context.Context) error {
			cancel()
			return db.Close()
		},
		"nats connection": func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		},
		"redis": func(ctx context.Context) error {
			return tickCacheRepo.Close()
		},
	})

	<-wait
}

// restoredSubscriptions drops the failed requests from registered.
func restoredSubscriptions(registered, failed []entity.SubscribeRequest) []entity.SubscribeRequest {
	skip := make(map[string]struct{}, len(failed))
	for _, req := range failed {
		skip[req.VtSymbol()] = struct{}{}
	}

	restored := make([]entity.SubscribeRequest, 0, len(registered))
	for _, req := range registered {
		if _, ok := skip[req.VtSymbol()]; ok {
			continue
		}
		restored = append(restored, req)
	}
	return restored
}
