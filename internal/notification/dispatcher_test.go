package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aurelia-be/internal/logger"
	"aurelia-be/internal/metrics"
	"aurelia-be/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sentMail struct {
	to, subject, html string
}

type recordingSender struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	block chan struct{}
	ctxs  []context.Context
	// ctx.Err() as seen while sending; the worker cancels ctx afterwards.
	ctxErrs []error
}

func (s *recordingSender) Send(ctx context.Context, to, subject, html string) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxs = append(s.ctxs, ctx)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to, subject, html})
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcher_QueuesAndSends(t *testing.T) {
	sender := &recordingSender{}
	m := metrics.NewCheckoutMetrics()
	d := NewDispatcher(sender, DispatcherConfig{Workers: 2, QueueSize: 4, Timeout: time.Second, StoreName: "Aurelia Jewels"}, m)

	status := d.NotifyOrderPlaced(context.Background(), testOrder("2900"), "asha@example.com", "other@example.com")
	assert.Equal(t, order.NotificationQueued, status.Status)
	assert.Equal(t, "asha@example.com", status.Recipient)

	require.NoError(t, d.Close(context.Background()))

	require.Equal(t, 1, sender.count())
	assert.Equal(t, "asha@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].subject, "Aurelia Jewels invoice INV-")
	assert.Contains(t, sender.sent[0].html, "Solitaire Ring")

	_, hasDeadline := sender.ctxs[0].Deadline()
	assert.True(t, hasDeadline, "send runs under its own timeout")

	s := m.Snapshot()
	assert.Equal(t, uint64(1), s.NotificationsQueued)
	assert.Equal(t, uint64(1), s.NotificationsSent)
}

func TestDispatcher_DetachedFromRequest(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, DispatcherConfig{Workers: 1, QueueSize: 1, Timeout: time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	status := d.NotifyOrderPlaced(ctx, testOrder("2900"), "asha@example.com")
	require.Equal(t, order.NotificationQueued, status.Status)

	cancel()
	close(sender.block)
	require.NoError(t, d.Close(context.Background()))

	require.Equal(t, 1, sender.count())
	require.Len(t, sender.ctxErrs, 1)
	assert.NoError(t, sender.ctxErrs[0], "request cancellation must not reach the send")
}

func TestDispatcher_SkipsWithoutRecipient(t *testing.T) {
	sender := &recordingSender{}
	m := metrics.NewCheckoutMetrics()
	d := NewDispatcher(sender, DispatcherConfig{Workers: 1, QueueSize: 1}, m)
	defer d.Close(context.Background())

	status := d.NotifyOrderPlaced(context.Background(), testOrder("2900"), "", "nope", "x@localhost")
	assert.Equal(t, order.NotificationSkipped, status.Status)
	assert.Empty(t, status.Recipient)
	assert.Equal(t, uint64(1), m.NotificationsSkipped.Load())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	m := metrics.NewCheckoutMetrics()
	d := NewDispatcher(sender, DispatcherConfig{Workers: 1, QueueSize: 1, Timeout: time.Second}, m)

	ctx := context.Background()
	first := d.NotifyOrderPlaced(ctx, testOrder("1"), "a@example.com")
	require.Equal(t, order.NotificationQueued, first.Status)

	// Wait until the single worker has picked up the first job and is blocked.
	require.Eventually(t, func() bool { return len(d.jobs) == 0 }, time.Second, time.Millisecond)

	second := d.NotifyOrderPlaced(ctx, testOrder("2"), "b@example.com")
	require.Equal(t, order.NotificationQueued, second.Status)

	third := d.NotifyOrderPlaced(ctx, testOrder("3"), "c@example.com")
	assert.Equal(t, order.NotificationDropped, third.Status)
	assert.Equal(t, "queue full", third.Reason)
	assert.Equal(t, uint64(1), m.NotificationsDropped.Load())

	close(sender.block)
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, 2, sender.count())
}

func TestDispatcher_SendFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	t.Cleanup(logger.Replace(zap.New(core)))

	sender := &recordingSender{err: errors.New("535 authentication failed")}
	m := metrics.NewCheckoutMetrics()
	d := NewDispatcher(sender, DispatcherConfig{Workers: 1, QueueSize: 1, Timeout: time.Second}, m)

	o := testOrder("2900")
	status := d.NotifyOrderPlaced(context.Background(), o, "asha@example.com")
	require.Equal(t, order.NotificationQueued, status.Status)
	require.NoError(t, d.Close(context.Background()))

	entries := logs.FilterMessage("failed to send invoice").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, o.ID.String(), fields["order_id"])
	assert.Equal(t, "asha@example.com", fields["recipient"])
	assert.Contains(t, fields["error"], "535")
	assert.Equal(t, uint64(1), m.NotificationsFailed.Load())
}

func TestDispatcher_Close(t *testing.T) {
	t.Run("RejectsAfterClose", func(t *testing.T) {
		d := NewDispatcher(&recordingSender{}, DispatcherConfig{}, nil)
		require.NoError(t, d.Close(context.Background()))
		require.NoError(t, d.Close(context.Background()), "second close is a no-op")

		status := d.NotifyOrderPlaced(context.Background(), testOrder("1"), "a@example.com")
		assert.Equal(t, order.NotificationDropped, status.Status)
	})

	t.Run("DeadlineWhileDraining", func(t *testing.T) {
		sender := &recordingSender{block: make(chan struct{})}
		d := NewDispatcher(sender, DispatcherConfig{Workers: 1, QueueSize: 1}, nil)
		d.NotifyOrderPlaced(context.Background(), testOrder("1"), "a@example.com")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := d.Close(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		close(sender.block)
	})
}

func TestDispatcher_SnapshotsOrder(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, DispatcherConfig{Workers: 1, QueueSize: 2, Timeout: time.Second}, nil)

	o := testOrder("2900")
	d.NotifyOrderPlaced(context.Background(), o, "asha@example.com")
	o.Items[0].Product.Name = "Changed After Enqueue"
	o.Items = nil

	close(sender.block)
	require.NoError(t, d.Close(context.Background()))
	require.Equal(t, 1, sender.count())
	assert.Contains(t, sender.sent[0].html, "Solitaire Ring")
}
