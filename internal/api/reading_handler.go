package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/interpretation"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/service"
)

// ReadingHandler serves daily draws and the spread lifecycle.
type ReadingHandler struct {
	readings *service.ReadingService
	logger   *slog.Logger
}

// NewReadingHandler creates a ReadingHandler.
func NewReadingHandler(readings *service.ReadingService, logger *slog.Logger) *ReadingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingHandler{
		readings: readings,
		logger:   logger.With(slog.String("component", "reading_handler")),
	}
}

// DailyDraw handles POST /api/draws/today. The first call of the local day
// draws and answers 201; later calls return the same draw with 200.
func (h *ReadingHandler) DailyDraw(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.readings.DailyDraw(r.Context(), playerID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, result)
}

// GetDailyDraw handles GET /api/draws/{date}.
func (h *ReadingHandler) GetDailyDraw(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.readings.GetDailyDraw(r.Context(), playerID, chi.URLParam(r, "date"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// CreateSpread handles POST /api/spreads.
func (h *ReadingHandler) CreateSpread(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateSpreadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.readings.CreateSpread(r.Context(), playerID, service.CreateSpreadInput{
		Topic:          req.Topic,
		Question:       req.Question,
		AdRewardEarned: req.AdRewardEarned,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("spread created",
		slog.String("spread_id", result.Spread.ID.String()),
		slog.String("topic", string(result.Spread.Topic)))
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// ListSpreads handles GET /api/spreads?date=YYYY-MM-DD. The date defaults to
// the caller's local today.
func (h *ReadingHandler) ListSpreads(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}
	spreads, err := h.readings.ListSpreads(r.Context(), playerID, r.URL.Query().Get("date"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, spreads)
}

// GetSpread handles GET /api/spreads/{id}.
func (h *ReadingHandler) GetSpread(w http.ResponseWriter, r *http.Request) {
	playerID, spreadID, ok := requirePlayerAndSpread(w, r, h.logger)
	if !ok {
		return
	}
	spread, err := h.readings.GetSpread(r.Context(), playerID, spreadID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, spread)
}

// CompleteSpread handles POST /api/spreads/{id}/complete.
func (h *ReadingHandler) CompleteSpread(w http.ResponseWriter, r *http.Request) {
	playerID, spreadID, ok := requirePlayerAndSpread(w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.readings.CompleteSpread(r.Context(), playerID, spreadID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// AddClarifier handles POST /api/spreads/{id}/clarifier.
func (h *ReadingHandler) AddClarifier(w http.ResponseWriter, r *http.Request) {
	playerID, spreadID, ok := requirePlayerAndSpread(w, r, h.logger)
	if !ok {
		return
	}
	var req ClarifierRequest
	if !decodeOptionalAndValidate(w, r, &req) {
		return
	}
	result, err := h.readings.AddClarifier(r.Context(), playerID, spreadID, req.AdRewardEarned)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// AddFollowUp handles POST /api/spreads/{id}/follow-up.
func (h *ReadingHandler) AddFollowUp(w http.ResponseWriter, r *http.Request) {
	playerID, spreadID, ok := requirePlayerAndSpread(w, r, h.logger)
	if !ok {
		return
	}
	var req FollowUpRequest
	if !decodeOptionalAndValidate(w, r, &req) {
		return
	}
	result, err := h.readings.AddFollowUp(r.Context(), playerID, spreadID, req.Question)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// Interpret handles POST /api/spreads/{id}/interpretation. A failed attempt
// is stored on the spread before the error response is written, so the
// client may retry with the same request.
func (h *ReadingHandler) Interpret(w http.ResponseWriter, r *http.Request) {
	playerID, spreadID, ok := requirePlayerAndSpread(w, r, h.logger)
	if !ok {
		return
	}
	var req InterpretRequest
	if !decodeOptionalAndValidate(w, r, &req) {
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = r.Header.Get("Accept-Language")
	}

	spread, err := h.readings.Interpret(r.Context(), playerID, spreadID, service.InterpretInput{
		Kind:   interpretation.Kind(req.Kind),
		Locale: locale,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, spread)
}

// SaveReflection handles PUT /api/spreads/{id}/reflection.
func (h *ReadingHandler) SaveReflection(w http.ResponseWriter, r *http.Request) {
	playerID, spreadID, ok := requirePlayerAndSpread(w, r, h.logger)
	if !ok {
		return
	}
	var req ReflectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.readings.SaveReflection(r.Context(), playerID, spreadID, req.Text, req.Mood)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
