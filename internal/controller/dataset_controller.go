package controller

import (
	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/serverutils"
	"ai-dataviz-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDatasetController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Fetch(ctx *fiber.Ctx) error
}

type datasetController struct {
	service service.IDatasetService
}

func NewDatasetController(service service.IDatasetService) IDatasetController {
	return &datasetController{service: service}
}

func (c *datasetController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/datasets")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Upload)
	h.Post("/fetch", c.Fetch)
}

func (c *datasetController) Upload(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return apperror.Validation("No file uploaded")
	}

	res, err := c.service.Upload(ctx.UserContext(), userId, file)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload dataset", res))
}

func (c *datasetController) Fetch(ctx *fiber.Ctx) error {
	var req dto.FetchDatasetRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Fetch(ctx.UserContext(), req.Url)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch dataset", res))
}
