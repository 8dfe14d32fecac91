package entity

import (
	"time"

	"github.com/guregu/null/v6"
)

type QuoteSubscription struct {
	ID               string    `db:"id" json:"id"`
	Exchange         string    `db:"exchange" json:"exchange"`
	Symbol           string    `db:"symbol" json:"symbol"`
	Active           bool      `db:"active" json:"active"`
	LastSubscribedAt null.Time `db:"last_subscribed_at" json:"last_subscribed_at"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (q QuoteSubscription) TableName() string {
	return "quote_subscriptions"
}

func (q QuoteSubscription) ToRequest() SubscribeRequest {
	return SubscribeRequest{
		Symbol:   q.Symbol,
		Exchange: Exchange(q.Exchange),
	}
}
