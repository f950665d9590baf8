package handler

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/waitlist-service/internal/dto"
	"github.com/Eursukkul/waitlist-service/internal/models"
	"github.com/Eursukkul/waitlist-service/internal/service"
	"github.com/Eursukkul/waitlist-service/internal/wizard"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type WaitlistHandler struct {
	svc service.WaitlistService
}

func NewWaitlistHandler(svc service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{svc: svc}
}

func (h *WaitlistHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/waitlist")
	g.POST("", h.Join)
	g.PUT("/:id/twitter", h.SetTwitter)
	g.PUT("/:id/discord", h.SetDiscord)
	g.GET("/:id/referral", h.GetReferral)
}

func (h *WaitlistHandler) Join(c echo.Context) error {
	var req dto.JoinWaitlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ReferrerCode == "" {
		req.ReferrerCode = c.QueryParam("ref")
	}

	res, err := h.svc.CreateOrResume(c.Request().Context(), req.Email, req.ReferrerCode)
	if err != nil {
		return registryError(err)
	}

	return c.JSON(http.StatusOK, dto.ToJoinWaitlistResponse(res))
}

func (h *WaitlistHandler) SetTwitter(c echo.Context) error {
	return h.setHandle(c, models.FieldTwitter, models.StepDiscord)
}

func (h *WaitlistHandler) SetDiscord(c echo.Context) error {
	return h.setHandle(c, models.FieldDiscord, models.StepConfirmation)
}

func (h *WaitlistHandler) setHandle(c echo.Context, field models.SocialField, next models.Step) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	var req dto.SetHandleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.SetSocialHandle(c.Request().Context(), id, field, req.Username); err != nil {
		return registryError(err)
	}

	return c.JSON(http.StatusOK, dto.StepResponse{Step: next})
}

func (h *WaitlistHandler) GetReferral(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	info, err := h.svc.GetReferralInfo(c.Request().Context(), id)
	if err != nil {
		return registryError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReferralResponse(info))
}

// registryError maps registry failures to HTTP errors carrying the same
// user-facing text the wizard shows.
func registryError(err error) error {
	msg := wizard.Message(err)
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, msg).SetInternal(err)
	case errors.Is(err, service.ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusConflict, msg).SetInternal(err)
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msg).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, msg).SetInternal(err)
	}
}
