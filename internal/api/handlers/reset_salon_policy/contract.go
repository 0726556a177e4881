package reset_salon_policy

import "context"

type PolicyService interface {
	Reset(ctx context.Context, salonID int64, serviceID *int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
