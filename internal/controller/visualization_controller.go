package controller

import (
	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/serverutils"
	"ai-dataviz-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVisualizationController interface {
	RegisterRoutes(r fiber.Router)
	Visualize(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Modify(ctx *fiber.Ctx) error
	Replay(ctx *fiber.Ctx) error
	Previous(ctx *fiber.Ctx) error
}

type visualizationController struct {
	service service.IVisualizationService
}

func NewVisualizationController(service service.IVisualizationService) IVisualizationController {
	return &visualizationController{service: service}
}

func (c *visualizationController) RegisterRoutes(r fiber.Router) {
	r.Post("/visualize", serverutils.JwtMiddleware, c.Visualize)

	h := r.Group("/sessions/:id/visualizations")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Post("/modify", c.Modify)
	h.Post("/replay", c.Replay)
	h.Get("/previous", c.Previous)
}

func (c *visualizationController) Visualize(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.VisualizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Visualize(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success visualize", res))
}

func (c *visualizationController) GetAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get visualizations", res))
}

func (c *visualizationController) Modify(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.ModifyVisualizationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Modify(ctx.UserContext(), userId, id, req.Goal, req.Instruction, req.RequestId, nil)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success modify visualization", res))
}

func (c *visualizationController) Replay(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.ReplayVisualizationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Replay(ctx.UserContext(), userId, id, req.Goal, req.HistoryIndex, req.RequestId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success replay visualization", res))
}

func (c *visualizationController) Previous(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	question := ctx.Query("question")
	if question == "" {
		return apperror.Validation("question is required")
	}

	res, err := c.service.Previous(ctx.UserContext(), userId, id, question)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get previous visualization", res))
}
