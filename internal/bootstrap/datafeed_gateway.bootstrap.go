package bootstrap

import (
	"context"
	"net/http"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/entity"
	grpcHandler "github.com/krobus00/wind-gateway/internal/handler/datafeed/grpc"
	httpHandler "github.com/krobus00/wind-gateway/internal/handler/datafeed/http"
	"github.com/krobus00/wind-gateway/internal/infrastructure"
	"github.com/krobus00/wind-gateway/internal/repository"
	"github.com/krobus00/wind-gateway/internal/service/datafeed"
	"github.com/krobus00/wind-gateway/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartDatafeedGateway(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newWindClient()
	datafeedService := datafeed.NewDatafeedService(client)

	// queries connect lazily, a failed first attempt is not fatal
	if !datafeedService.Init(ctx) {
		logrus.Warn("wind session not ready, queries will retry the connection")
	}

	grpcServer := infrastructure.NewGRPCServer(":" + config.Env.Port["datafeed_gateway_grpc"])
	grpcHandler.RegisterDatafeedServer(grpcServer.Server(), grpcHandler.NewDatafeedGRPCServer(datafeedService))
	grpcServer.SetServing(grpcHandler.ServiceName, true)

	go func() {
		if err := grpcServer.Start(); err != nil {
			logrus.Error(err)
		}
	}()

	ops := map[string]operation{}

	// source=store reads market_bars, the gateway runs without it when no database is configured
	var barStore interface {
		GetRange(ctx context.Context, req entity.HistoryRequest) ([]entity.MarketBar, error)
	}
	if dbConfig, ok := config.Env.Database["market_data"]; ok && dbConfig.DSN != "" {
		db, err := infrastructure.NewPostgresConnection(ctx, dbConfig)
		util.ContinueOrFatal(err)
		infrastructure.StartPostgresHealthCheck(ctx, db, dbConfig.PingInterval)
		barStore = repository.NewMarketBarRepository(db)
		ops["database"] = func(ctx context.Context) error {
			cancel()
			return db.Close()
		}
	}

	httpMux := http.NewServeMux()
	httpHandler.NewDatafeedHTTPHandler(datafeedService, barStore).Register(httpMux)

	httpConfig := infrastructure.DefaultHTTPServerConfig("datafeed_gateway_http")
	httpConfig.ShutdownTimeout = config.Env.GracefulShutdownTimeout
	httpConfig.Ready = windReady(client)
	httpServer := infrastructure.NewHTTPServerWithConfig(httpConfig, httpMux)

	go func() {
		if err := httpServer.Start(); err != nil {
			logrus.Error(err)
		}
	}()

	ops["grpc"] = func(ctx context.Context) error {
		return grpcServer.Shutdown(ctx)
	}
	ops["http"] = func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	}
	ops["wind session"] = func(ctx context.Context) error {
		cancel()
		return client.Stop()
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
