package inventory

import (
	"errors"
	"strconv"

	"inventory-sync/core/logger"
	"inventory-sync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for inventory sync.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = reconcile.RunRecord{}
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/inventory", h.HandleSyncInventory)
	group.Get("/runs", h.HandleListRuns)
	group.Get("/runs/:id", h.HandleGetRun)
}

// HandleSyncInventory runs an inventory sync and returns its summary.
// @Summary Sync Inventory
// @Description Pulls current stock for every active branch from the POS and upserts it. Responds once the run has finished.
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]interface{} "Run summary"
// @Failure 500 {object} map[string]interface{} "Failure summary"
// @Router /sync/inventory [post]
func (h *Handler) HandleSyncInventory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Inventory sync triggered")

	summary := h.service.RunInventorySync(c.UserContext())

	status := fiber.StatusOK
	if !summary.Success {
		status = fiber.StatusInternalServerError
		l.Warn("Inventory sync failed", zap.String("error", summary.Error))
	}
	return c.Status(status).JSON(summary)
}

// HandleListRuns lists recent sync runs.
// @Summary List Sync Runs
// @Description Returns the most recent sync runs, newest first.
// @Tags sync
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} map[string]interface{} "Runs"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", DefaultRunsLimit)

	runs, err := h.service.ListRuns(c.UserContext(), limit)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to list sync runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// HandleGetRun returns one sync run.
// @Summary Get Sync Run
// @Tags sync
// @Produce json
// @Param id path int true "Run ID"
// @Success 200 {object} reconcile.RunRecord
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sync/runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid run id"})
	}

	run, err := h.service.GetRun(c.UserContext(), uint(id))
	if errors.Is(err, ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to load sync run", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(run)
}
