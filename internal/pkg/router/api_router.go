package router

import (
	"strconv"
	"time"

	"github.com/easycheckin/easycheckin/app/controllers"
	"github.com/easycheckin/easycheckin/app/repository"
	"github.com/easycheckin/easycheckin/internal/pkg/constants"
	"github.com/easycheckin/easycheckin/internal/pkg/database"
	"github.com/easycheckin/easycheckin/internal/pkg/env"
	"github.com/easycheckin/easycheckin/internal/pkg/kyc"
	"github.com/easycheckin/easycheckin/internal/pkg/mail"
	"github.com/easycheckin/easycheckin/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	repository.InitializeFactory(database.GetDB())

	controllers.InitializeKYCController(kyc.NewServiceFromDB(database.GetDB()))
	controllers.InitializeOrganizationController(repository.GetGlobalFactory().GetOrganizationRepository())
	controllers.InitializeTestController(mail.NewSMTPMailerFromEnv())

	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))

	api.Post(constants.KYCInitiateRoute, controllers.HandleKYCInitiate)
	api.Post(constants.KYCCallbackRoute, controllers.HandleKYCCallback)
	api.Get(constants.KYCStatusRoute, controllers.HandleCheckInStatus)

	admin := middleware.AdminAPIKeyMiddleware()
	api.Post(constants.OrganizationsRoute, admin, controllers.HandleOrganizationRegister)
	api.Get(constants.OrganizationsRoute, admin, controllers.HandleOrganizationList)
	api.Get(constants.OrganizationRoute, admin, controllers.HandleOrganizationGet)
	api.Patch(constants.OrganizationRoute, admin, controllers.HandleOrganizationUpdate)
	api.Delete(constants.OrganizationRoute, admin, controllers.HandleOrganizationDelete)

	api.Post(constants.TestEmailRoute, admin, controllers.HandleTestEmail)
}

// newLimiterStorage backs the API rate limiter with the shared Redis
// instance so limits hold across replicas. Database 1 keeps limiter keys
// away from the status cache.
func newLimiterStorage() *redis.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redis.New(redis.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: 1,
		Reset:    false,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
