package tracker

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"healthdaily/internal/profile"
)

// Handler adapts the Service to echo routes. Operation failures that the
// chat layer should relay conversationally come back as 200s with a failure
// result; only transport and persistence errors become 5xx.
type Handler struct {
	svc *Service
}

// NewHandler wraps the service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type mealRequest struct {
	Text string `json:"text"`
	Slot string `json:"slot"`
}

func (h *Handler) RecordMealHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	var req mealRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	result, err := h.svc.RecordMeal(c.Request().Context(), userID, req.Slot, req.Text)
	if err != nil {
		return h.internalError(c, err, "record meal failed")
	}
	return c.JSON(http.StatusOK, result)
}

type exerciseRequest struct {
	Text       string `json:"text"`
	Type       string `json:"type"`
	EntryIndex int    `json:"entry_index"`
}

func (h *Handler) RecordExerciseHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	var req exerciseRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	result, err := h.svc.RecordExercise(c.Request().Context(), userID, req.Text, req.Type)
	if err != nil {
		return h.internalError(c, err, "record exercise failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) EstimateExerciseCaloriesHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	var req exerciseRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	result, err := h.svc.EstimateExerciseCalories(c.Request().Context(), userID, req.Text, req.Type, req.EntryIndex)
	if err != nil {
		return h.internalError(c, err, "estimate exercise calories failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) EstimateDietCaloriesHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	var req mealRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	result, err := h.svc.EstimateDietCalories(c.Request().Context(), userID, req.Text, req.Slot)
	if err != nil {
		return h.internalError(c, err, "estimate diet calories failed")
	}
	return c.JSON(http.StatusOK, result)
}

type factorRequest struct {
	Text string `json:"text"`
}

func (h *Handler) ReportFactorHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	var req factorRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	result, err := h.svc.ReportNegativeFactor(c.Request().Context(), userID, req.Text)
	if err != nil {
		return h.internalError(c, err, "report factor failed")
	}
	return c.JSON(http.StatusOK, result)
}

type recoveryRequest struct {
	FactorID string `json:"factor_id"`
	Notes    string `json:"notes"`
}

func (h *Handler) MarkRecoveredHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	var req recoveryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	result, err := h.svc.MarkFactorRecovered(c.Request().Context(), userID, req.FactorID, req.Notes)
	if err != nil {
		return h.internalError(c, err, "mark recovered failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) EligibilityHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	verdict, err := h.svc.GetExerciseEligibility(c.Request().Context(), userID)
	if err != nil {
		return h.internalError(c, err, "eligibility check failed")
	}
	return c.JSON(http.StatusOK, verdict)
}

func (h *Handler) ImpactSummaryHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	summary, err := h.svc.GetImpactSummary(c.Request().Context(), userID)
	if err != nil {
		return h.internalError(c, err, "impact summary failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"summary": summary})
}

func (h *Handler) AddCupHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	result, err := h.svc.AddCup(c.Request().Context(), userID)
	if err != nil {
		return h.internalError(c, err, "add cup failed")
	}
	return c.JSON(http.StatusOK, result)
}

type hydrationRequest struct {
	Cups int `json:"cups"`
}

func (h *Handler) SetCupsHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	var req hydrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	result, err := h.svc.SetCups(c.Request().Context(), userID, req.Cups)
	if err != nil {
		return h.internalError(c, err, "set cups failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetPlanHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	view := c.QueryParam("view")
	switch view {
	case "", "all", "current-meal", "next-meal", "exercise", "hydration":
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown plan view"})
	}
	result, err := h.svc.GetPlanView(c.Request().Context(), userID, view)
	if err != nil {
		return h.internalError(c, err, "get plan failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RegeneratePlanHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	plan, err := h.svc.RegeneratePlan(c.Request().Context(), userID)
	if err != nil {
		return h.internalError(c, err, "regenerate plan failed")
	}
	return c.JSON(http.StatusOK, plan)
}

type summaryRequest struct {
	Text  string `json:"text"`
	Force bool   `json:"force"`
}

func (h *Handler) WriteSummaryHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	var req summaryRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	result, err := h.svc.WriteSummary(c.Request().Context(), userID, req.Text, req.Force)
	if err != nil {
		return h.internalError(c, err, "write summary failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetRecordHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errBody(err))
	}
	date := c.QueryParam("date")
	rec, err := h.svc.GetRecord(c.Request().Context(), userID, date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errBody(err))
	}
	if rec == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no record for that date"})
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) internalError(c echo.Context, err error, msg string) error {
	log.Error().Err(err).Str("path", c.Path()).Msg(msg)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "operation failed, please retry"})
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
