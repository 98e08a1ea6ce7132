package main

import (
	"time"

	"go.uber.org/zap"

	"voxtrace/internal/game"
)

// runHeadless flies a slow forward spiral for n ticks.
func runHeadless(session *game.Session, n, tickRate int, log *zap.Logger) error {
	dt := float32(1) / 60
	if tickRate > 0 {
		dt = 1 / float32(tickRate)
	}
	limiter := game.NewFPSLimiter()
	in := game.Input{Forward: true, MouseDX: 4}

	start := time.Now()
	var (
		refreshed, generated int
		last                 game.Snapshot
	)
	for range n {
		snap, err := session.Advance(in, dt)
		if err != nil {
			return err
		}
		refreshed += snap.Streaming.Refreshed
		generated += snap.Streaming.Generated
		last = snap
		if snap.Streaming.Refreshed > 0 {
			log.Debug("tick", zap.Any("snapshot", snap))
		}
		limiter.Wait(tickRate)
	}
	log.Info("headless run finished",
		zap.Int("ticks", n),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("refreshed", refreshed),
		zap.Int("generated", generated),
		zap.Any("position", last.Position),
		zap.Int("chunks", session.Controller().Store().Len()))
	return nil
}
