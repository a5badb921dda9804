package metrics

// CheckoutMetrics counts checkout outcomes for the /metrics endpoint.
type CheckoutMetrics struct {
	OrdersCreated        Counter
	CheckoutsRejected    Counter
	ServiceUnavailable   Counter
	StockConflicts       Counter
	SignatureFailures    Counter
	PersistenceFailures  Counter
	ReconcileFailures    Counter
	NotificationsQueued  Counter
	NotificationsSent    Counter
	NotificationsFailed  Counter
	NotificationsDropped Counter
	NotificationsSkipped Counter

	checkoutNanos Counter
	checkoutCount Counter
}

func NewCheckoutMetrics() *CheckoutMetrics {
	return &CheckoutMetrics{}
}

func (m *CheckoutMetrics) ObserveCheckout(t *Timer) {
	m.checkoutNanos.Add(uint64(t.Duration().Nanoseconds()))
	m.checkoutCount.Inc()
}

type Snapshot struct {
	OrdersCreated        uint64  `json:"orders_created"`
	CheckoutsRejected    uint64  `json:"checkouts_rejected"`
	ServiceUnavailable   uint64  `json:"service_unavailable"`
	StockConflicts       uint64  `json:"stock_conflicts"`
	SignatureFailures    uint64  `json:"signature_failures"`
	PersistenceFailures  uint64  `json:"persistence_failures"`
	ReconcileFailures    uint64  `json:"reconcile_failures"`
	NotificationsQueued  uint64  `json:"notifications_queued"`
	NotificationsSent    uint64  `json:"notifications_sent"`
	NotificationsFailed  uint64  `json:"notifications_failed"`
	NotificationsDropped uint64  `json:"notifications_dropped"`
	NotificationsSkipped uint64  `json:"notifications_skipped"`
	AvgCheckoutMillis    float64 `json:"avg_checkout_ms"`
}

func (m *CheckoutMetrics) Snapshot() Snapshot {
	s := Snapshot{
		OrdersCreated:        m.OrdersCreated.Load(),
		CheckoutsRejected:    m.CheckoutsRejected.Load(),
		ServiceUnavailable:   m.ServiceUnavailable.Load(),
		StockConflicts:       m.StockConflicts.Load(),
		SignatureFailures:    m.SignatureFailures.Load(),
		PersistenceFailures:  m.PersistenceFailures.Load(),
		ReconcileFailures:    m.ReconcileFailures.Load(),
		NotificationsQueued:  m.NotificationsQueued.Load(),
		NotificationsSent:    m.NotificationsSent.Load(),
		NotificationsFailed:  m.NotificationsFailed.Load(),
		NotificationsDropped: m.NotificationsDropped.Load(),
		NotificationsSkipped: m.NotificationsSkipped.Load(),
	}

	if n := m.checkoutCount.Load(); n > 0 {
		s.AvgCheckoutMillis = float64(m.checkoutNanos.Load()) / float64(n) / 1e6
	}
	return s
}
