package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/krobus00/wind-gateway/internal/wind"
	"github.com/sirupsen/logrus"
)

const defaultReconnectInterval = 30 * time.Second

type operation func(ctx context.Context) error

// gracefulShutdown waits for termination syscalls and doing clean up operations after received it.
func gracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]operation) <-chan struct{} {
	wait := make(chan struct{})
	go func() {
		s := make(chan os.Signal, 1)

		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		<-s

		logrus.Info("shutting down")

		// set timeout for the ops to be done to prevent system hang
		timeoutFunc := time.AfterFunc(timeout, func() {
			logrus.Error(fmt.Sprintf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds()))
			os.Exit(0)
		})

		defer timeoutFunc.Stop()

		var wg sync.WaitGroup

		for key, op := range ops {
			wg.Add(1)
			go func(key string, op operation) {
				defer wg.Done()

				logrus.Info(fmt.Sprintf("cleaning up: %s", key))
				if err := op(ctx); err != nil {
					logrus.Error(fmt.Sprintf("%s: clean up failed: %s", key, err.Error()))
					return
				}

				logrus.Info(fmt.Sprintf("%s was shutdown gracefully", key))
			}(key, op)
		}

		wg.Wait()

		close(wait)
	}()

	return wait
}

func newWindClient() *wind.BridgeClient {
	return wind.NewBridgeClient(wind.BridgeConfig{
		URL:              config.Env.Wind.BridgeURL,
		HandshakeTimeout: config.Env.Wind.HandshakeTimeout,
		Location:         constant.ChinaTZ,
	})
}

func reconnectInterval() time.Duration {
	if config.Env.Wind.ReconnectInterval > 0 {
		return config.Env.Wind.ReconnectInterval
	}
	return defaultReconnectInterval
}

// keepConnected calls connect whenever the vendor session is down, until ctx is done.
func keepConnected(ctx context.Context, client wind.Client, interval time.Duration, connect func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if client.IsConnected() {
				continue
			}
			logrus.Warn("wind session is down, reconnecting")
			connect(ctx)
		}
	}
}

func windReady(client wind.Client) func() error {
	return func() error {
		if !client.IsConnected() {
			return fmt.Errorf("wind session: %w", entity.ErrNotConnected)
		}
		return nil
	}
}
