package obs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// RequestID returns the request id carried in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithRequestID stores a request id in ctx for downstream timing logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Time logs the duration (and outcome) of one named operation:
//
//	defer obs.Time(ctx, "ors.GetLegs")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	entry := logrus.WithFields(logrus.Fields{
		"req_id": RequestID(ctx),
		"op":     name,
	})

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			entry.WithFields(logrus.Fields{"dur_ms": dur.Milliseconds(), "err": *errp}).Warn("operation failed")
			return
		}
		entry.WithField("dur_ms", dur.Milliseconds()).Debug("operation done")
	}
}
