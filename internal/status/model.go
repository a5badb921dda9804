package status

import "time"

const DefaultStoppedMessage = "Service is temporarily unavailable. Please try again later."

// ServiceStatus is the operator-controlled kill switch. Only one row exists.
type ServiceStatus struct {
	IsStopped bool
	Message   string
	UpdatedAt time.Time
}

type Availability struct {
	Stopped bool
	Message string
}
