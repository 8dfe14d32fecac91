package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/wind-gateway/internal/entity"
)

// rows per INSERT, postgres caps bind parameters at 65535
const marketBarBatchSize = 1000

type MarketBarRepository struct {
	db *sqlx.DB
}

func NewMarketBarRepository(db *sqlx.DB) *MarketBarRepository {
	return &MarketBarRepository{db: db}
}

func (r *MarketBarRepository) Upsert(ctx context.Context, bars []entity.MarketBar) error {
	for start := 0; start < len(bars); start += marketBarBatchSize {
		end := start + marketBarBatchSize
		if end > len(bars) {
			end = len(bars)
		}

		query, args, err := buildMarketBarUpsert(bars[start:end])
		if err != nil {
			return err
		}

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return nil
}

func (r *MarketBarRepository) GetRange(ctx context.Context, req entity.HistoryRequest) ([]entity.MarketBar, error) {
	query, args, err := buildMarketBarRange(req)
	if err != nil {
		return nil, err
	}

	var bars []entity.MarketBar
	err = r.db.SelectContext(ctx, &bars, query, args...)
	if err != nil {
		return nil, err
	}

	return bars, nil
}

// LatestDatetime returns the newest stored bar time, ok is false when nothing is stored yet.
func (r *MarketBarRepository) LatestDatetime(ctx context.Context, symbol string, exchange entity.Exchange, interval entity.Interval) (latest time.Time, ok bool, err error) {
	query, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("COALESCE(MAX(datetime), 'epoch'::timestamptz)").
		From(entity.MarketBar{}.TableName()).
		Where(sq.Eq{"symbol": symbol, "exchange": string(exchange), "interval": string(interval)}).
		ToSql()
	if err != nil {
		return time.Time{}, false, err
	}

	err = r.db.GetContext(ctx, &latest, query, args...)
	if err != nil {
		return time.Time{}, false, err
	}

	return latest, latest.Unix() > 0, nil
}

func buildMarketBarUpsert(bars []entity.MarketBar) (string, []any, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(entity.MarketBar{}.TableName()).
		Columns(
			"symbol",
			"exchange",
			"interval",
			"datetime",
			"open_price",
			"high_price",
			"low_price",
			"close_price",
			"volume",
			"turnover",
			"open_interest",
			"gateway_name",
			"created_at",
			"updated_at",
		)

	for _, data := range bars {
		queryBuilder = queryBuilder.Values(
			data.Symbol,
			data.Exchange,
			data.Interval,
			data.Datetime,
			data.OpenPrice,
			data.HighPrice,
			data.LowPrice,
			data.ClosePrice,
			data.Volume,
			data.Turnover,
			data.OpenInterest,
			data.GatewayName,
			data.CreatedAt,
			data.UpdatedAt,
		)
	}

	return queryBuilder.Suffix(`ON CONFLICT (symbol, exchange, interval, datetime)
DO UPDATE SET
	open_price = EXCLUDED.open_price,
	high_price = EXCLUDED.high_price,
	low_price = EXCLUDED.low_price,
	close_price = EXCLUDED.close_price,
	volume = EXCLUDED.volume,
	turnover = EXCLUDED.turnover,
	open_interest = EXCLUDED.open_interest,
	gateway_name = EXCLUDED.gateway_name,
	updated_at = EXCLUDED.updated_at`).ToSql()
}

func buildMarketBarRange(req entity.HistoryRequest) (string, []any, error) {
	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From(entity.MarketBar{}.TableName()).
		Where(sq.Eq{
			"symbol":   req.Symbol,
			"exchange": string(req.Exchange),
			"interval": string(req.Interval),
		}).
		Where(sq.GtOrEq{"datetime": req.Start}).
		Where(sq.LtOrEq{"datetime": req.End}).
		OrderBy("datetime asc").
		ToSql()
}
