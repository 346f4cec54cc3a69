// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"gorm.io/gorm"
)

// NewHealthCheck wires the Fiber healthcheck middleware.
//
// GET /livez reports liveness only. GET /readyz additionally pings the
// postgres database backing the counter store and the promotion log; a
// node that cannot reach it must not receive event or sweep traffic.
// Redis being down is deliberately not a readiness failure: scoring
// falls back to recomputing snapshots and the sweep simply skips a run
// when it cannot take its lock.
//
// Register this before the other routes so probes skip the request
// logging and body parsing stack.
func NewHealthCheck(db *gorm.DB) fiber.Handler {
	return healthcheck.New(healthcheck.Config{
		LivenessEndpoint: "/livez",
		LivenessProbe: func(_ *fiber.Ctx) bool {
			return true
		},

		ReadinessEndpoint: "/readyz",
		ReadinessProbe: func(_ *fiber.Ctx) bool {
			if db == nil {
				return false
			}
			sqlDB, err := db.DB()
			if err != nil {
				return false
			}

			return sqlDB.Ping() == nil
		},
	})
}
