package bootstrap

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/krobus00/wind-gateway/internal/infrastructure"
	"github.com/krobus00/wind-gateway/internal/repository"
	"github.com/krobus00/wind-gateway/internal/service/datafeed"
	"github.com/krobus00/wind-gateway/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartDownloadHistory(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := historyRequestFromFlags(cmd)
	util.ContinueOrFatal(err)

	db, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database["market_data"])
	util.ContinueOrFatal(err)
	defer db.Close()

	client := newWindClient()
	defer func() {
		if err := client.Stop(); err != nil {
			logrus.Error(err)
		}
	}()

	marketBarRepo := repository.NewMarketBarRepository(db)

	incremental, _ := cmd.Flags().GetBool("incremental")
	if incremental {
		latest, ok, err := marketBarRepo.LatestDatetime(ctx, req.Symbol, req.Exchange, req.Interval)
		util.ContinueOrFatal(err)
		if ok && latest.After(req.Start) {
			req.Start = latest.In(constant.ChinaTZ)
		}
	}

	downloadService := datafeed.NewDownloadService(datafeed.NewDatafeedService(client), marketBarRepo)

	count, err := downloadService.Download(ctx, req)
	util.ContinueOrFatal(err)

	logrus.WithField("vt_symbol", req.VtSymbol()).Infof("downloaded %d bars", count)
}

func historyRequestFromFlags(cmd *cobra.Command) (entity.HistoryRequest, error) {
	symbol, _ := cmd.Flags().GetString("symbol")
	exchange, _ := cmd.Flags().GetString("exchange")
	interval, _ := cmd.Flags().GetString("interval")
	rawStart, _ := cmd.Flags().GetString("start")
	rawEnd, _ := cmd.Flags().GetString("end")

	req := entity.HistoryRequest{
		Symbol:   strings.TrimSpace(symbol),
		Exchange: entity.Exchange(strings.ToUpper(strings.TrimSpace(exchange))),
		Interval: entity.Interval(strings.TrimSpace(interval)),
	}
	if req.Symbol == "" || req.Exchange == "" {
		return entity.HistoryRequest{}, errors.New("symbol and exchange are required")
	}

	var err error
	req.Start, err = parseFlagTime(rawStart)
	if err != nil {
		return entity.HistoryRequest{}, err
	}

	if strings.TrimSpace(rawEnd) == "" {
		req.End = time.Now().In(constant.ChinaTZ)
	} else {
		req.End, err = parseFlagTime(rawEnd)
		if err != nil {
			return entity.HistoryRequest{}, err
		}
	}

	return req, nil
}

func parseFlagTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.In(constant.ChinaTZ), nil
	}
	return time.ParseInLocation("2006-01-02", raw, constant.ChinaTZ)
}
