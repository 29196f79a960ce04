package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/easycheckin/easycheckin/app/models"
	"github.com/easycheckin/easycheckin/app/repository"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var organizationRepo repository.OrganizationRepository

// InitializeOrganizationController wires the repository used by the
// organization handlers.
func InitializeOrganizationController(repo repository.OrganizationRepository) {
	organizationRepo = repo
}

type organizationRequest struct {
	Name     string   `json:"name"`
	EmailIDs []string `json:"emailIds"`
}

// HandleOrganizationRegister onboards a new hotel.
func HandleOrganizationRegister(c *fiber.Ctx) error {
	var req organizationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing required field: name",
		})
	}

	emails := models.DedupeEmailIDs(req.EmailIDs)
	if err := models.ValidateEmailIDs(emails); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid email format in emailIds",
		})
	}

	org := &models.Organization{
		Name:     strings.TrimSpace(req.Name),
		NameID:   models.NewOrganizationNameID(req.Name),
		EmailIDs: emails,
	}
	if err := organizationRepo.Create(org); err != nil {
		log.Printf("[ORG] register failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to register organization",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Organization registered successfully",
		"data":    org,
	})
}

// HandleOrganizationList returns all registered hotels.
func HandleOrganizationList(c *fiber.Ctx) error {
	orgs, err := organizationRepo.List(c.QueryInt("offset", 0), c.QueryInt("limit", 100))
	if err != nil {
		log.Printf("[ORG] list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to get organizations",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    orgs,
	})
}

// HandleOrganizationGet returns one hotel by slug.
func HandleOrganizationGet(c *fiber.Ctx) error {
	nameID := c.Params("nameId")
	org, err := organizationRepo.GetByNameID(nameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Organization not found",
			})
		}
		log.Printf("[ORG] get %s failed: %v", nameID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to get organization",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    org,
	})
}

// HandleOrganizationUpdate changes name and/or email list. A renamed hotel
// keeps the random component of its slug so existing check-ins still
// resolve.
func HandleOrganizationUpdate(c *fiber.Ctx) error {
	nameID := c.Params("nameId")
	var req organizationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	org, err := organizationRepo.GetByNameID(nameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Organization not found",
			})
		}
		log.Printf("[ORG] update lookup %s failed: %v", nameID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update organization",
		})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		org.Name = name
		org.NameID = models.RenameOrganizationNameID(org.NameID, name)
	}
	if req.EmailIDs != nil {
		emails := models.DedupeEmailIDs(req.EmailIDs)
		if err := models.ValidateEmailIDs(emails); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid email format in emailIds",
			})
		}
		org.EmailIDs = emails
	}

	if err := organizationRepo.Update(org); err != nil {
		log.Printf("[ORG] update %s failed: %v", nameID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update organization",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Organization updated successfully",
		"data":    org,
	})
}

// HandleOrganizationDelete removes a hotel. Historical check-ins are kept.
func HandleOrganizationDelete(c *fiber.Ctx) error {
	nameID := c.Params("nameId")
	if _, err := organizationRepo.GetByNameID(nameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Organization not found",
			})
		}
		log.Printf("[ORG] delete lookup %s failed: %v", nameID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete organization",
		})
	}
	if err := organizationRepo.Delete(nameID); err != nil {
		log.Printf("[ORG] delete %s failed: %v", nameID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete organization",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Organization deleted successfully",
	})
}
