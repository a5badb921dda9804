package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"aurelia-be/internal/logger"
	"aurelia-be/internal/metrics"
	"aurelia-be/internal/order"
	"aurelia-be/internal/utils"

	"go.uber.org/zap"
)

type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	StoreName string
}

type job struct {
	ctx       context.Context
	order     order.Order
	recipient string
}

// Dispatcher sends order invoices from a fixed pool of workers. Enqueueing
// never blocks: when the queue is full the notification is dropped and the
// caller is told so.
type Dispatcher struct {
	sender  Sender
	cfg     DispatcherConfig
	metrics *metrics.CheckoutMetrics
	now     func() time.Time

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, cfg DispatcherConfig, m *metrics.CheckoutMetrics) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if m == nil {
		m = metrics.NewCheckoutMetrics()
	}

	d := &Dispatcher{
		sender:  sender,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,
		jobs:    make(chan job, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}

	return d
}

func (d *Dispatcher) NotifyOrderPlaced(ctx context.Context, o *order.Order, candidates ...string) order.NotificationStatus {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "notification"),
		zap.String("order_id", o.ID.String()),
	)

	recipient := ResolveRecipient(candidates...)
	if recipient == "" {
		d.metrics.NotificationsSkipped.Inc()
		log.Warn("no usable recipient for invoice")
		return order.NotificationStatus{Status: order.NotificationSkipped, Reason: "no valid recipient"}
	}

	// Workers must not see later changes to the caller's order.
	snapshot := *o
	snapshot.Items = append([]order.OrderItem(nil), o.Items...)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.NotificationsDropped.Inc()
		log.Warn("dispatcher closed, invoice dropped", zap.String("recipient", recipient))
		return order.NotificationStatus{Status: order.NotificationDropped, Recipient: recipient, Reason: "dispatcher closed"}
	}

	select {
	case d.jobs <- job{ctx: logger.Detach(ctx), order: snapshot, recipient: recipient}:
		d.metrics.NotificationsQueued.Inc()
		return order.NotificationStatus{Status: order.NotificationQueued, Recipient: recipient}
	default:
		d.metrics.NotificationsDropped.Inc()
		log.Warn("notification queue full, invoice dropped", zap.String("recipient", recipient))
		return order.NotificationStatus{Status: order.NotificationDropped, Recipient: recipient, Reason: "queue full"}
	}
}

func (d *Dispatcher) workerLoop(id int) {
	for j := range d.jobs {
		d.deliver(id, j)
	}
}

func (d *Dispatcher) deliver(workerID int, j job) {
	log := logger.FromCtx(j.ctx).With(
		zap.String("layer", "notification"),
		zap.Int("worker", workerID),
		zap.String("order_id", j.order.ID.String()),
		zap.String("recipient", j.recipient),
	)

	ctx, cancel := context.WithTimeout(j.ctx, d.cfg.Timeout)
	defer cancel()

	issued := d.now()
	inv := BuildInvoice(&j.order, d.cfg.StoreName, utils.GenerateInvoiceNumber(j.order.ID.String(), issued), issued)

	html, err := RenderInvoice(inv)
	if err != nil {
		d.metrics.NotificationsFailed.Inc()
		log.Error("failed to render invoice", zap.Error(err))
		return
	}

	if err := d.sender.Send(ctx, j.recipient, invoiceSubject(inv), html); err != nil {
		d.metrics.NotificationsFailed.Inc()
		log.Error("failed to send invoice", zap.Error(err))
		return
	}

	d.metrics.NotificationsSent.Inc()
	log.Info("invoice sent", zap.String("invoice_number", inv.Number))
}

// Close stops intake and waits for queued invoices to go out, or for ctx to
// expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("notification queue not drained"), ctx.Err())
	}
}
