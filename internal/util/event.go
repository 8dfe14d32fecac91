package util

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// ProcessWithTimeout runs callback under a deadline derived from parent. The callback keeps
// running in the background when the deadline hits first, it must honour ctx.
func ProcessWithTimeout(parent context.Context, timeout time.Duration, msg *nats.Msg, callback func(ctx context.Context, msg *nats.Msg) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- callback(ctx, msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("processing %s: %w", msg.Subject, ctx.Err())
	case err := <-done:
		return err
	}
}

func PublishEvent(js nats.JetStreamContext, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}

	_, err = js.Publish(subject, payload)
	if err != nil {
		return fmt.Errorf("publish %s event: %w", subject, err)
	}

	return nil
}
