package controllers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/easycheckin/easycheckin/internal/pkg/mail"
	"github.com/gofiber/fiber/v2"
)

var testMailer mail.Mailer

// InitializeTestController wires the mailer used by the test-email endpoint.
func InitializeTestController(m mail.Mailer) {
	testMailer = m
}

type testEmailRequest struct {
	Email string `json:"email"`
}

// HandleTestEmail sends a sample verification email so operators can verify
// the SMTP configuration without running a full check-in flow.
func HandleTestEmail(c *fiber.Ctx) error {
	var req testEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing required field: email",
		})
	}

	msg := mail.NewVerificationMessage(req.Email, mail.VerificationEmailData{
		RecipientName:    "Test Guest",
		OrganizationName: "Easy Check-In Test Hotel",
		VerificationDate: time.Now().Format("02/01/2006"),
		GuestName:        "Test Guest",
		GuestDOB:         "01-01-1990",
		GuestGender:      "M",
		GuestAddress:     "Test Locality, Test District, Test State",
		GuestPincode:     "560001",
		CheckInID:        "test-check-in",
	})

	if err := testMailer.Send(msg); err != nil {
		log.Printf("[TEST] email to %s failed: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to send test email",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Test email sent successfully to %s", req.Email),
	})
}
