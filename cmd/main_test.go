package main

import (
	"context"
	"testing"
	"time"
)

func TestUpdateSystemMetrics(t *testing.T) {
	// Publishing runtime stats into the shared registry must never panic.
	updateSystemMetrics()
	updateSystemMetrics()
}

func TestStartSystemMetricsUpdater_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		startSystemMetricsUpdater(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the updater to stop after cancellation")
	}
}
