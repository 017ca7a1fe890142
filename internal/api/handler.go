package api

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/insightdelivered/statement-import/internal/importer"
	"github.com/insightdelivered/statement-import/internal/models"
	"github.com/insightdelivered/statement-import/internal/reconcile"
)

// Handler exposes the import pipeline and the duplicate-resolution surface
// over HTTP.
type Handler struct {
	importer *importer.Importer
	resolver *reconcile.Resolver
	sessions *reconcile.SessionStore
	log      *logrus.Logger
}

// NewHandler wires the HTTP surface.
func NewHandler(imp *importer.Importer, resolver *reconcile.Resolver, sessions *reconcile.SessionStore, log *logrus.Logger) *Handler {
	return &Handler{importer: imp, resolver: resolver, sessions: sessions, log: log}
}

// RegisterRoutes sets up the API routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.Health)
	api.Post("/imports", h.Import)
	api.Get("/imports/:session/duplicates", h.ListDuplicates)
	api.Post("/imports/:session/resolve", h.Resolve)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// importResponse is the JSON result of one import call.
type importResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	Session string               `json:"session,omitempty"`
	Result  *models.ImportResult `json:"result,omitempty"`
}

// Import accepts a multipart statement upload and runs the pipeline.
// Form fields: file, provider, account.
func (h *Handler) Import(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	// An omitted provider is detected from the file content.
	provider := models.Provider(c.FormValue("provider"))
	switch provider {
	case "", models.ProviderMontepio, models.ProviderTradeRepublic, models.ProviderRevolut:
	default:
		return errorJSON(c, fiber.StatusBadRequest, "Unknown provider. Use montepio, traderepublic or revolut, or omit to auto-detect.")
	}

	accountID, err := strconv.ParseInt(c.FormValue("account"), 10, 64)
	if err != nil || accountID <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "Form field 'account' must be a positive account ID.")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Could not read uploaded file.")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Could not read uploaded file.")
	}

	result, err := h.importer.Import(c.Context(), importer.Request{
		AccountID: accountID,
		Provider:  provider,
		Filename:  fileHeader.Filename,
		Data:      data,
	})
	if err != nil {
		if importer.IsParseFailure(err) {
			return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		h.log.WithError(err).Error("import failed")
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	resp := importResponse{Success: true, Result: result}

	var pairs []models.PossibleDuplicate
	for _, s := range result.Streams {
		pairs = append(pairs, s.Duplicates...)
	}
	if len(pairs) > 0 {
		session := h.sessions.Create(accountID, pairs)
		resp.Session = session.ID
	}

	return c.JSON(resp)
}

// ListDuplicates returns the outstanding pairs of an import session.
func (h *Handler) ListDuplicates(c *fiber.Ctx) error {
	session, ok := h.sessions.Get(c.Params("session"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Unknown or expired import session.")
	}

	pairs := session.Outstanding()
	if pairs == nil {
		pairs = []models.PossibleDuplicate{}
	}
	return c.JSON(fiber.Map{"success": true, "duplicates": pairs})
}

// resolveRequest selects a resolution action for one pair or for every
// outstanding pair of the session.
type resolveRequest struct {
	Action     string `json:"action"`
	All        bool   `json:"all"`
	IncomingID int64  `json:"incomingId"`
	ExistingID int64  `json:"existingId"`
}

// Resolve applies a resolution action within an import session.
func (h *Handler) Resolve(c *fiber.Ctx) error {
	session, ok := h.sessions.Get(c.Params("session"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Unknown or expired import session.")
	}

	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Malformed resolve request body.")
	}
	action, err := reconcile.ParseAction(req.Action)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if req.All {
		pairs := session.Outstanding()
		res := h.resolver.ResolveBulk(c.Context(), session.AccountID, action, pairs)
		for _, pair := range pairs {
			if !contains(res.Failures, pair) {
				session.Dismiss(pair, action)
			}
		}
		return c.JSON(fiber.Map{"success": res.Failed == 0, "resolved": res.Resolved, "failed": res.Failed})
	}

	pair, ok := findPair(session.Outstanding(), req.IncomingID, req.ExistingID)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Pair is not outstanding in this session.")
	}
	if err := h.resolver.ResolvePair(c.Context(), session.AccountID, action, pair); err != nil {
		h.log.WithError(err).Error("pair resolution failed")
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	session.Dismiss(pair, action)
	return c.JSON(fiber.Map{"success": true, "resolved": 1})
}

func findPair(pairs []models.PossibleDuplicate, incomingID, existingID int64) (models.PossibleDuplicate, bool) {
	for _, p := range pairs {
		if p.Incoming.ID == incomingID && p.Existing.ID == existingID {
			return p, true
		}
	}
	return models.PossibleDuplicate{}, false
}

func contains(pairs []models.PossibleDuplicate, pair models.PossibleDuplicate) bool {
	for _, p := range pairs {
		if p.Incoming.ID == pair.Incoming.ID && p.Existing.ID == pair.Existing.ID {
			return true
		}
	}
	return false
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(importResponse{Success: false, Error: msg})
}
