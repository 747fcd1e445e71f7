package backup

import (
	"player-directory/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for directory snapshots.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the snapshot routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/snapshots")
	group.Get("/", h.HandleListSnapshots)
	group.Post("/", h.HandleExportSnapshot)
	group.Delete("/", h.HandlePruneSnapshots)
}

// HandleListSnapshots lists the stored snapshots.
// @Summary List Snapshots
// @Description List stored directory snapshots, newest first.
// @Tags snapshots
// @Produce json
// @Success 200 {array} SnapshotInfo "Snapshots"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /snapshots [get]
func (h *Handler) HandleListSnapshots(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	infos, err := h.service.List(c.Context())
	if err != nil {
		l.Error("Snapshot listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if infos == nil {
		infos = []SnapshotInfo{}
	}
	return c.JSON(infos)
}

// HandleExportSnapshot exports the current directory as a new snapshot.
// @Summary Export Snapshot
// @Description Serialize the full directory and store it as a new snapshot.
// @Tags snapshots
// @Produce json
// @Success 201 {object} map[string]string "Created Snapshot"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /snapshots [post]
func (h *Handler) HandleExportSnapshot(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	object, err := h.service.Export(c.Context())
	if err != nil {
		l.Error("Snapshot export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"object": object})
}

// HandlePruneSnapshots deletes snapshots beyond the retained count.
// @Summary Prune Snapshots
// @Description Delete the oldest snapshots beyond the retained count.
// @Tags snapshots
// @Produce json
// @Param keep query int false "Snapshots to retain" default(10)
// @Success 200 {object} map[string]int "Deleted Count"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /snapshots [delete]
func (h *Handler) HandlePruneSnapshots(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	deleted, err := h.service.Prune(c.Context(), c.QueryInt("keep", 10))
	if err != nil {
		l.Error("Snapshot prune failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}
