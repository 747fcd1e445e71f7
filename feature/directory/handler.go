package directory

import (
	"errors"
	"strconv"

	"player-directory/core/logger"
	"player-directory/feature/directory/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the player directory.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the directory routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/players")
	group.Get("/", h.HandleListPlayers)
	group.Get("/key/:key", h.HandleGetPlayerByKey)
	group.Get("/:id", h.HandleGetPlayer)
	group.Post("/:id/notes", h.HandleUpdateNotes)
}

type listResponse struct {
	Players []*models.Player `json:"players"`
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// HandleListPlayers returns one page of a directory view.
// @Summary List Players
// @Description Page through one of the directory views with an optional name filter.
// @Tags players
// @Produce json
// @Param view query string false "View (all, current, recent, category, tag)" default(all)
// @Param bucket query int false "Bucket id for category/tag views"
// @Param offset query int false "Page offset" default(0)
// @Param limit query int false "Page size" default(50)
// @Param name query string false "Name filter"
// @Param match query string false "Match mode (contains, starts_with, exact)"
// @Success 200 {object} listResponse "Player Page"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /players [get]
func (h *Handler) HandleListPlayers(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	kind, err := ParseViewKind(c.Query("view", string(ViewAll)))
	if err != nil {
		return badRequest(c, err)
	}
	view := View{Kind: kind, BucketID: c.QueryInt("bucket", models.BucketNone)}
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	name := c.Query("name")
	mode := MatchMode(c.Query("match"))

	players, total, err := h.service.List(view, offset, limit, name, mode)
	if err != nil {
		if errors.Is(err, ErrInvalidView) || errors.Is(err, ErrInvalidMatchMode) {
			return badRequest(c, err)
		}
		l.Error("Player listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if players == nil {
		players = []*models.Player{}
	}

	return c.JSON(listResponse{Players: players, Total: total, Offset: offset, Limit: limit})
}

// HandleGetPlayer returns one player by storage id.
// @Summary Get Player
// @Description Get a single player by its storage id.
// @Tags players
// @Produce json
// @Param id path int true "Player ID"
// @Success 200 {object} models.Player "Player"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /players/{id} [get]
func (h *Handler) HandleGetPlayer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, err)
	}
	player, ok := h.service.GetByID(id)
	if !ok {
		return notFound(c)
	}
	return c.JSON(player)
}

// HandleGetPlayerByKey returns one player by identity key.
// @Summary Get Player By Key
// @Description Get a single player by its name/world identity key.
// @Tags players
// @Produce json
// @Param key path string true "Identity Key (e.g. 'AIDEN_GALE_73')"
// @Success 200 {object} models.Player "Player"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /players/key/{key} [get]
func (h *Handler) HandleGetPlayerByKey(c *fiber.Ctx) error {
	player, ok := h.service.GetByKey(c.Params("key"))
	if !ok {
		return notFound(c)
	}
	return c.JSON(player)
}

// HandleUpdateNotes replaces a player's notes.
// @Summary Update Player Notes
// @Description Replace the free-form notes of a player.
// @Tags players
// @Accept json
// @Produce json
// @Param id path int true "Player ID"
// @Param request body notesRequest true "Notes"
// @Success 200 {object} models.Player "Updated Player"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /players/{id}/notes [post]
func (h *Handler) HandleUpdateNotes(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, err)
	}
	var req notesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	if err := h.service.UpdateNotes(c.Context(), id, req.Notes); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(c)
		}
		l.Error("Notes update failed", zap.Int("player_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	player, _ := h.service.GetByID(id)
	return c.JSON(player)
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "player not found",
	})
}
