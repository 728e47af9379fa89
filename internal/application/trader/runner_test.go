package trader_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyexpiry/internal/application/scanner"
	"github.com/alejandrodnm/polyexpiry/internal/application/trader"
)

func TestRunner_OnceNotifiesAndSaves(t *testing.T) {
	f := newFixture()
	f.addMarket("A", 3*time.Minute, mids{yes: 0.95, no: 0.05})
	notifier := &mockNotifier{}
	store := &mockStore{}

	r := trader.NewRunner(trader.RunnerConfig{Once: true}, f.cycle(liveConfig()), scanner.RangeWindow(1, 6), store, notifier)
	require.NoError(t, r.Run(context.Background()))

	require.Len(t, notifier.reports, 1)
	require.Len(t, store.saved, 1)
	assert.Equal(t, notifier.reports[0].ID, store.saved[0].ID)
	assert.Equal(t, 1, store.saved[0].Executed)
}

func TestRunner_NotifierAndStoreErrorsAreNotFatal(t *testing.T) {
	f := newFixture()
	notifier := &mockNotifier{err: errors.New("stdout closed")}
	store := &mockStore{err: errors.New("disk full")}

	r := trader.NewRunner(trader.RunnerConfig{Once: true}, f.cycle(liveConfig()), scanner.AllWindow(), store, notifier)

	assert.NoError(t, r.Run(context.Background()))
	assert.Len(t, store.saved, 1)
}

func TestRunner_NilStore(t *testing.T) {
	f := newFixture()
	notifier := &mockNotifier{}

	r := trader.NewRunner(trader.RunnerConfig{Once: true}, f.cycle(liveConfig()), scanner.AllWindow(), nil, notifier)

	assert.NoError(t, r.Run(context.Background()))
	assert.Len(t, notifier.reports, 1)
}

func TestRunner_LoopStopsOnCancel(t *testing.T) {
	f := newFixture()
	notifier := &mockNotifier{}

	r := trader.NewRunner(trader.RunnerConfig{Interval: time.Hour}, f.cycle(liveConfig()), scanner.AllWindow(), nil, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return notifier.count() >= 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
	assert.Equal(t, 1, notifier.count())
}
