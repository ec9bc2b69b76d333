package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/exp/rand"

	"tradeAdmin/internal/services"
)

const tradeRefreshTimeout = 30 * time.Second

// startTradeRefresher forces a trade refresh every interval plus up to 10% jitter.
func startTradeRefresher(ctx context.Context, store *services.TradeStore, interval time.Duration, infoLog, errorLog *log.Logger) {
	if store == nil || interval <= 0 {
		return
	}

	go func() {
		next := func() time.Duration {
			return interval + time.Duration(rand.Int63n(int64(interval)/10+1))
		}
		timer := time.NewTimer(next())
		defer timer.Stop()

		run := func() {
			runCtx, cancel := context.WithTimeout(ctx, tradeRefreshTimeout)
			defer cancel()

			if err := store.FetchTrades(runCtx, true); err != nil {
				if ctx.Err() == nil && errorLog != nil {
					errorLog.Printf("trade refresher: %v", err)
				}
				return
			}
			if infoLog != nil {
				infoLog.Printf("trade refresher: loaded %d trades", len(store.Trades()))
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				run()
				timer.Reset(next())
			}
		}
	}()
}
