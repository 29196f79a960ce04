package controllers

import (
	"time"

	"github.com/easycheckin/easycheckin/internal/pkg/database"
	"github.com/easycheckin/easycheckin/internal/pkg/statistics"
	"github.com/gofiber/fiber/v2"
)

var startedAt = time.Now()

// HandleWelcome answers the root route with service info and aggregate
// check-in counts.
func HandleWelcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":    "Welcome to Easy Check-In API",
		"status":     "Server is running",
		"statistics": statistics.GetStatistics(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleHealth reports process and database health.
func HandleHealth(c *fiber.Ctx) error {
	dbStatus := "disconnected"
	if db := database.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil && sqlDB.Ping() == nil {
			dbStatus = "connected"
		}
	}
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"database":  dbStatus,
		"uptime":    time.Since(startedAt).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
