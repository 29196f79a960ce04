package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/easycheckin/easycheckin/internal/pkg/cache"
	"github.com/easycheckin/easycheckin/internal/pkg/decentro"
	"github.com/easycheckin/easycheckin/internal/pkg/env"
	"github.com/easycheckin/easycheckin/internal/pkg/kyc"
	"github.com/easycheckin/easycheckin/internal/pkg/metrics/counter"
	"github.com/gofiber/fiber/v2"
)

var kycService *kyc.Service

// InitializeKYCController wires the KYC service used by the handlers below.
func InitializeKYCController(svc *kyc.Service) {
	kycService = svc
}

type initiateKYCRequest struct {
	OrganizationNameID string `json:"organizationNameId"`
}

// HandleKYCInitiate starts a verification session for a guest of the given
// organization.
func HandleKYCInitiate(c *fiber.Ctx) error {
	var req initiateKYCRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.OrganizationNameID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing required fields: organizationNameId",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 65*time.Second)
	defer cancel()

	result, err := kycService.Initiate(ctx, req.OrganizationNameID)
	if err != nil {
		log.Printf("[KYC] initiation failed for %s: %v", req.OrganizationNameID, err)
		status := fiber.StatusInternalServerError
		if errors.Is(err, kyc.ErrOrganizationNotFound) {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": "Failed to initiate KYC workflow",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "KYC workflow initiated successfully",
		"data":    result,
	})
}

// HandleKYCCallback receives webhook deliveries from the identity provider.
// Unknown event types are acknowledged with 200 so the provider does not
// enter a retry storm; genuine processing failures return 500 and rely on
// the provider's own redelivery.
func HandleKYCCallback(c *fiber.Ctx) error {
	if secret := env.GetEnv("DECENTRO_CALLBACK_SECRET", ""); secret != "" {
		if !decentro.VerifyCallbackSignature(c.BodyRaw(), c.Get("X-Callback-Signature"), secret) {
			log.Print("[KYC] callback rejected: bad signature")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid callback signature",
			})
		}
	}

	cb, err := decentro.ParseCallback(c.BodyRaw())
	if err != nil {
		log.Printf("[KYC] callback rejected: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid callback payload",
			"error":   err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	checkIn, err := kycService.HandleCallback(ctx, cb)
	if err != nil {
		log.Printf("[KYC] callback processing failed (%s): %v", cb.ResponseKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to process callback",
			"error":   err.Error(),
		})
	}
	if checkIn != nil {
		// Drop the cached polling payload so guests see the transition.
		_ = cache.Delete(cache.CheckInStatusKey(checkIn.ID))
	}
	if err := counter.AddCallbackEvent(cb.Event().String()); err != nil {
		log.Printf("[KYC] failed to count callback event: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Callback processed successfully",
	})
}

// HandleCheckInStatus serves the guest-facing polling endpoint, cached for a
// few seconds per check-in.
func HandleCheckInStatus(c *fiber.Ctx) error {
	checkInID := c.Params("checkInId")
	if checkInID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing required parameter: checkInId",
		})
	}

	cacheKey := cache.CheckInStatusKey(checkInID)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		var status kyc.CheckInStatusResponse
		if json.Unmarshal([]byte(cached), &status) == nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"success": true,
				"data":    status,
			})
		}
	}

	status, err := kycService.GetCheckInStatus(checkInID)
	if err != nil {
		if errors.Is(err, kyc.ErrCheckInNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "CheckIn not found",
			})
		}
		log.Printf("[KYC] status lookup failed for %s: %v", checkInID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to get CheckIn status",
			"error":   err.Error(),
		})
	}

	if raw, err := json.Marshal(status); err == nil {
		_ = cache.Set(cacheKey, string(raw), cache.StatusTTL)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    status,
	})
}
