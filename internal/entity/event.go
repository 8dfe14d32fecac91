package entity

import "context"

type Publisher interface {
	JetstreamEventInit(ctx context.Context) error
}

type Subscriber interface {
	JetstreamEventSubscribe(ctx context.Context) error
}

// TickHandler receives a snapshot the caller owns.
type TickHandler func(tick Tick)
