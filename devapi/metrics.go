package devapi

import (
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const metricsKey = "requestMetrics"

type requestMetrics struct {
	began           time.Time
	storeDuration   time.Duration
	recordsReturned int
	errorStage      string
}

func (m *requestMetrics) ObserveStore(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.storeDuration += d
}

func (m *requestMetrics) SetRecordsReturned(n int) {
	if m == nil {
		return
	}
	if n < 0 {
		n = 0
	}
	m.recordsReturned = n
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsKey).(*requestMetrics)
	return m
}

// RequestMetrics logs one structured entry per request with its route,
// status and timings.
func RequestMetrics(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m := &requestMetrics{began: time.Now()}
			c.Set(metricsKey, m)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := log.Fields{
				"method":   c.Request().Method,
				"route":    c.Path(),
				"status":   c.Response().Status,
				"total_ms": durationToMillis(time.Since(m.began)),
			}
			if m.storeDuration > 0 {
				fields["store_ms"] = durationToMillis(m.storeDuration)
			}
			if m.recordsReturned > 0 {
				fields["records_returned"] = m.recordsReturned
			}
			if user := currentUser(c); user != "" {
				fields["user"] = user
			}
			if m.errorStage != "" {
				fields["error_stage"] = m.errorStage
			}
			if err != nil {
				fields["error"] = err.Error()
			}
			logger.WithFields(fields).Info("api.request.metrics")
			return nil
		}
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
