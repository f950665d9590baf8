package handler

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/waitlist-service/internal/dto"
	"github.com/Eursukkul/waitlist-service/internal/wizard"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SessionHandler struct {
	store *wizard.Store
}

func NewSessionHandler(store *wizard.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

func (h *SessionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/sessions")
	g.POST("", h.Create)
	g.GET("/:sid", h.Get)
	g.POST("/:sid/submit", h.Submit)
	g.POST("/:sid/back", h.Back)
	g.DELETE("/:sid", h.Delete)
}

func (h *SessionHandler) Create(c echo.Context) error {
	var req dto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ReferrerCode == "" {
		req.ReferrerCode = c.QueryParam("ref")
	}

	id, st := h.store.Create(req.ReferrerCode)
	return c.JSON(http.StatusCreated, dto.ToSessionResponse(id, st))
}

func (h *SessionHandler) Get(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	st, err := h.store.Get(id)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(id, st))
}

// Submit answers the current step. Step failures still return the session
// view so the page can render the message inline.
func (h *SessionHandler) Submit(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	var req dto.SubmitStepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	st, err := h.store.Submit(c.Request().Context(), id, req.Value)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dto.ToSessionResponse(id, st))
	case errors.Is(err, wizard.ErrSessionNotFound), errors.Is(err, wizard.ErrSessionBusy):
		return sessionError(err)
	case errors.Is(err, wizard.ErrIllegalTransition):
		return c.JSON(http.StatusConflict, dto.ToSessionResponse(id, st))
	default:
		return c.JSON(http.StatusUnprocessableEntity, dto.ToSessionResponse(id, st))
	}
}

func (h *SessionHandler) Back(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	st, err := h.store.Back(id)
	if err != nil {
		if errors.Is(err, wizard.ErrIllegalTransition) {
			return c.JSON(http.StatusConflict, dto.ToSessionResponse(id, st))
		}
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(id, st))
}

func (h *SessionHandler) Delete(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	h.store.Delete(id)
	return c.NoContent(http.StatusNoContent)
}

func sessionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found or expired")
	case errors.Is(err, wizard.ErrSessionBusy):
		return echo.NewHTTPError(http.StatusConflict, wizard.MsgSessionBusy)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, wizard.MsgTryAgainLater)
	}
}
