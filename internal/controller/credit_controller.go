package controller

import (
	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/serverutils"
	"ai-dataviz-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICreditController interface {
	RegisterRoutes(r fiber.Router)
	GetBalance(ctx *fiber.Ctx) error
	Adjust(ctx *fiber.Ctx) error
	GetTransactions(ctx *fiber.Ctx) error
}

type creditController struct {
	service service.ICreditService
}

func NewCreditController(service service.ICreditService) ICreditController {
	return &creditController{service: service}
}

func (c *creditController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/credits")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetBalance)
	h.Post("", c.Adjust)
	h.Get("/transactions", c.GetTransactions)
}

func (c *creditController) GetBalance(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetBalance(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get credits", res))
}

func (c *creditController) Adjust(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.AdjustCreditsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if req.Action == "" {
		return apperror.ErrInvalidAction
	}

	res, err := c.service.Adjust(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success adjust credits", res))
}

func (c *creditController) GetTransactions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var query dto.ListTransactionsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return apperror.Validation("Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := c.service.ListTransactions(ctx.UserContext(), userId, &query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get credit transactions", res))
}
