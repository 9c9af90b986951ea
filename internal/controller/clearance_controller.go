package controller

import (
	"errors"
	"fmt"
	"io"

	"oss-clearance-be/internal/dto"
	"oss-clearance-be/internal/pkg/serverutils"
	"oss-clearance-be/internal/service"
	"oss-clearance-be/pkg/readme"

	"github.com/gofiber/fiber/v2"
)

type IClearanceController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
	AnalyzeContract(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	Report(ctx *fiber.Ctx) error
}

type clearanceController struct {
	service service.IClearanceService
}

func NewClearanceController(service service.IClearanceService) IClearanceController {
	return &clearanceController{service: service}
}

func (c *clearanceController) RegisterRoutes(r fiber.Router) {
	r.Post("/analyze", c.Analyze)
	r.Post("/analyze-contract/:session_id", c.AnalyzeContract)
	r.Post("/chat/:session_id", c.Chat)
	r.Get("/sessions/:session_id", c.Session)
	r.Get("/download/:session_id", c.Download)
	r.Get("/report/:session_id", c.Report)
}

func (c *clearanceController) Analyze(ctx *fiber.Ctx) error {
	name, data, err := readUpload(ctx)
	if err != nil {
		return serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeAnalysisFailed, err.Error(), err)
	}

	res, err := c.service.Analyze(ctx.Context(), name, data)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *clearanceController) AnalyzeContract(ctx *fiber.Ctx) error {
	name, data, err := readUpload(ctx)
	if errors.Is(err, errMissingUpload) {
		return serverutils.BadRequest(err.Error())
	}
	if err != nil {
		return err
	}

	res, message, err := c.service.AnalyzeContract(ctx.Context(), ctx.Params("session_id"), name, data)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *clearanceController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid chat message")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.Context(), ctx.Params("session_id"), req.Message)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *clearanceController) Session(ctx *fiber.Ctx) error {
	res, err := c.service.Session(ctx.Context(), ctx.Params("session_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *clearanceController) Download(ctx *fiber.Ctx) error {
	path, err := c.service.ReadmePath(ctx.Context(), ctx.Params("session_id"))
	if err != nil {
		return err
	}

	return ctx.Download(path, readme.FileName)
}

func (c *clearanceController) Report(ctx *fiber.Ctx) error {
	report, err := c.service.Report(ctx.Context(), ctx.Params("session_id"))
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return ctx.SendString(report)
}

var errMissingUpload = errors.New("Missing upload field \"file\"")

func readUpload(ctx *fiber.Ctx) (string, []byte, error) {
	header, err := ctx.FormFile("file")
	if err != nil {
		return "", nil, errMissingUpload
	}
	f, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}
