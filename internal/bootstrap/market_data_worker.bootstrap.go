package bootstrap

import (
	"context"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/infrastructure"
	"github.com/krobus00/wind-gateway/internal/repository"
	"github.com/krobus00/wind-gateway/internal/service/marketdata"
	"github.com/krobus00/wind-gateway/internal/util"
	"github.com/spf13/cobra"
)

func StartMarketDataWorker(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisConfig := config.Env.Redis["market_data"]
	redisClient, err := infrastructure.NewRedisClient(ctx, redisConfig)
	util.ContinueOrFatal(err)

	nc, js, err := infrastructure.NewJetstream()
	util.ContinueOrFatal(err)

	tickCacheRepo := repository.NewTickCacheRepository(redisClient, redisConfig.TickTTL)
	tickStream := marketdata.NewTickStream(js, tickCacheRepo)
	util.ContinueOrFatal(tickStream.JetstreamEventSubscribe(ctx))

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, map[string]operation{
		"nats connection": func(ctx context.Context) error {
			cancel()
			return infrastructure.CloseJetstream(nc)
		},
		"redis": func(ctx context.Context) error {
			return tickCacheRepo.Close()
		},
	})

	<-wait
}
