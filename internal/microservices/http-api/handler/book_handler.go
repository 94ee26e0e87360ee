package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"bookstore/internal/microservices/http-api/dto"
	"bookstore/internal/microservices/http-api/middleware"
	"bookstore/internal/microservices/http-api/repository"
	"bookstore/internal/microservices/http-api/service"
)

type BookHandler struct {
	svc service.BookService
}

func NewBookHandler(svc service.BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	// Public reads
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)

	// Writes need a token; ownership is checked by the service
	rg.POST("", middleware.RequireAuth(), h.Create)
	rg.PUT("/:id", middleware.RequireAuth(), h.Replace)
	rg.PATCH("/:id", middleware.RequireAuth(), h.Patch)
	rg.DELETE("/:id", middleware.RequireAuth(), h.Delete)
}

// parseBookQuery reads the exact-match filters, search and ordering from the
// query string.
func parseBookQuery(c *gin.Context) (repository.BookQuery, error) {
	var q repository.BookQuery
	verr := &service.ValidationError{}

	if raw, ok := c.GetQuery("id"); ok && raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			verr.Add("id", "Enter a number.")
		} else {
			q.ID = &id
		}
	}
	if raw, ok := c.GetQuery("price"); ok && raw != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			verr.Add("price", "Enter a number.")
		} else {
			q.Price = &price
		}
	}
	if raw, ok := c.GetQuery("name"); ok && raw != "" {
		q.Name = &raw
	}
	q.Search = c.Query("search")

	if raw := c.Query("ordering"); raw != "" {
		q.Ordering = lo.FilterMap(strings.Split(raw, ","), func(f string, _ int) (string, bool) {
			f = strings.TrimSpace(f)
			return f, f != ""
		})
	}

	return q, verr.OrNil()
}

func bookID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		detail(c, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

func (h *BookHandler) List(c *gin.Context) {
	q, err := parseBookQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, err := h.svc.List(ctx, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookHandler) Get(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	book, err := h.svc.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) Create(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var in dto.CreateBookDTO
	if !bindJSON(c, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	book, err := h.svc.Create(ctx, actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

// Replace is PUT: name, price and author_name must all be present.
func (h *BookHandler) Replace(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	actor, _ := middleware.ActorFrom(c)

	var in dto.CreateBookDTO
	if !bindJSON(c, &in) {
		return
	}
	if in.Price == nil {
		respondError(c, service.NewValidationError("price", "This field is required."))
		return
	}

	h.update(c, actor, id, in.ToUpdate())
}

func (h *BookHandler) Patch(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	actor, _ := middleware.ActorFrom(c)

	var in dto.UpdateBookDTO
	if !bindJSON(c, &in) {
		return
	}

	h.update(c, actor, id, in)
}

func (h *BookHandler) update(c *gin.Context, actor service.Actor, id int64, in dto.UpdateBookDTO) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	book, err := h.svc.Update(ctx, actor, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	actor, _ := middleware.ActorFrom(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.Delete(ctx, actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
