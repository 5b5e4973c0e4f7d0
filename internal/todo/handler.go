package todo

import (
	"errors"
	"strconv"

	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/valyala/fasthttp"
)

// Handler serves the todo HTTP API
type Handler struct {
	service *Service
}

// NewHandler creates a todo handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the todo routes under /api/v1/todos.
// middleware applies to every todo route.
func (h *Handler) Register(router *web.FastRouter, middleware ...web.FastMiddleware) {
	router.GETFast("/api/v1/todos", h.List, middleware...)
	router.POSTFast("/api/v1/todos", h.Create, middleware...)
	router.GETFast("/api/v1/todos/stats", h.Stats, middleware...)
	router.GETFast("/api/v1/todos/:id", h.Get, middleware...)
	router.PUTFast("/api/v1/todos/:id", h.Update, middleware...)
	router.DELETEFast("/api/v1/todos/:id", h.Delete, middleware...)
}

// List handles GET /api/v1/todos
func (h *Handler) List(ctx *web.FastRequestContext) error {
	todos, err := h.service.List(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fasthttp.StatusOK, todos)
}

// Create handles POST /api/v1/todos
func (h *Handler) Create(ctx *web.FastRequestContext) error {
	in, err := ParseInput(ctx.Body())
	if err != nil {
		return writeError(ctx, err)
	}

	todo, err := h.service.Create(ctx.Context(), in)
	if err != nil {
		return err
	}
	return ctx.JSON(fasthttp.StatusOK, todo)
}

// Get handles GET /api/v1/todos/:id
func (h *Handler) Get(ctx *web.FastRequestContext) error {
	id, ok := parseID(ctx)
	if !ok {
		return invalidID(ctx)
	}

	todo, err := h.service.Get(ctx.Context(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(fasthttp.StatusOK, todo)
}

// Update handles PUT /api/v1/todos/:id
func (h *Handler) Update(ctx *web.FastRequestContext) error {
	id, ok := parseID(ctx)
	if !ok {
		return invalidID(ctx)
	}

	in, err := ParseInput(ctx.Body())
	if err != nil {
		return writeError(ctx, err)
	}

	todo, err := h.service.Update(ctx.Context(), id, in)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(fasthttp.StatusOK, todo)
}

// Delete handles DELETE /api/v1/todos/:id
func (h *Handler) Delete(ctx *web.FastRequestContext) error {
	id, ok := parseID(ctx)
	if !ok {
		return invalidID(ctx)
	}

	result, err := h.service.Delete(ctx.Context(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(fasthttp.StatusOK, result)
}

// Stats handles GET /api/v1/todos/stats
func (h *Handler) Stats(ctx *web.FastRequestContext) error {
	stats, err := h.service.Stats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fasthttp.StatusOK, stats)
}

func parseID(ctx *web.FastRequestContext) (int, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	return id, err == nil
}

func invalidID(ctx *web.FastRequestContext) error {
	return ctx.JSONError(fasthttp.StatusBadRequest, "invalid_id", "Invalid todo ID")
}

// writeError maps domain errors to responses. Anything else is returned
// to the router, which logs it and answers 500.
func writeError(ctx *web.FastRequestContext, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return ctx.JSONError(fasthttp.StatusNotFound, "not_found", "Todo not found")
	case errors.Is(err, ErrMalformedJSON):
		return ctx.JSONError(fasthttp.StatusBadRequest, "invalid_request", "Invalid JSON")
	case errors.Is(err, ErrInvalidTodo):
		return ctx.JSONError(fasthttp.StatusUnprocessableEntity, "validation_error", err.Error())
	default:
		return err
	}
}
