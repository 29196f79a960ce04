package router

import (
	"github.com/easycheckin/easycheckin/app/controllers"
	"github.com/easycheckin/easycheckin/internal/pkg/constants"
	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.PublicRoute, controllers.HandleWelcome)
	app.Get(constants.HealthRoute, controllers.HandleHealth)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
