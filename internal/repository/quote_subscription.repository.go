package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/wind-gateway/internal/entity"
)

type QuoteSubscriptionRepository struct {
	db *sqlx.DB
}

func NewQuoteSubscriptionRepository(db *sqlx.DB) *QuoteSubscriptionRepository {
	return &QuoteSubscriptionRepository{db: db}
}

func (r *QuoteSubscriptionRepository) GetActive(ctx context.Context) ([]entity.QuoteSubscription, error) {
	var subscriptions []entity.QuoteSubscription
	err := r.db.SelectContext(ctx, &subscriptions, "SELECT * FROM quote_subscriptions WHERE active = true order by created_at asc")
	return subscriptions, err
}

// Upsert registers req, re-activating it when it was switched off before.
func (r *QuoteSubscriptionRepository) Upsert(ctx context.Context, req entity.SubscribeRequest) error {
	query, args, err := buildSubscriptionUpsert(req, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *QuoteSubscriptionRepository) MarkSubscribed(ctx context.Context, req entity.SubscribeRequest, at time.Time) error {
	query, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update(entity.QuoteSubscription{}.TableName()).
		Set("last_subscribed_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"exchange": string(req.Exchange), "symbol": req.Symbol}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func buildSubscriptionUpsert(req entity.SubscribeRequest, now time.Time) (string, []any, error) {
	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(entity.QuoteSubscription{}.TableName()).
		Columns("id", "exchange", "symbol", "active", "created_at", "updated_at").
		Values(uuid.NewString(), string(req.Exchange), req.Symbol, true, now, now).
		Suffix(`ON CONFLICT (exchange, symbol)
DO UPDATE SET
	active = true,
	updated_at = EXCLUDED.updated_at`).
		ToSql()
}
