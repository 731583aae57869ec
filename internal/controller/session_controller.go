package controller

import (
	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/serverutils"
	"kt-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	SubmitTurn(ctx *fiber.Ctx) error
	UploadDocument(ctx *fiber.Ctx) error
	GetCoverage(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	GetReport(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
	searchService  service.ISearchService
	reportService  service.IReportService
}

func NewSessionController(
	sessionService service.ISessionService,
	searchService service.ISearchService,
	reportService service.IReportService,
) ISessionController {
	return &sessionController{
		sessionService: sessionService,
		searchService:  searchService,
		reportService:  reportService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/kt/v1/sessions")
	h.Post("", c.Create)
	h.Post(":id/turns", c.SubmitTurn)
	h.Post(":id/documents", c.UploadDocument)
	h.Get(":id/coverage", c.GetCoverage)
	h.Get(":id/messages", c.GetMessages)
	h.Post(":id/search", c.Search)
	h.Get(":id/report", c.GetReport)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	res, err := c.sessionService.CreateSession(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) SubmitTurn(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.SubmitTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sessionService.SubmitTurn(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success submit turn", res))
}

func (c *sessionController) UploadDocument(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.UploadDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sessionService.UploadDocument(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success ingest document", res))
}

func (c *sessionController) GetCoverage(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.sessionService.GetCoverage(ctx.Context(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get coverage", res))
}

func (c *sessionController) GetMessages(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.sessionService.GetMessages(ctx.Context(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *sessionController) Search(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.searchService.Search(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success search knowledge", res))
}

func (c *sessionController) GetReport(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.reportService.GenerateReport(ctx.Context(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate report", res))
}

func parseSessionId(ctx *fiber.Ctx) (uuid.UUID, error) {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return sessionId, nil
}
