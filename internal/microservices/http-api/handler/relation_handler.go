package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore/internal/microservices/http-api/dto"
	"bookstore/internal/microservices/http-api/middleware"
	"bookstore/internal/microservices/http-api/service"
)

type RelationHandler struct {
	svc service.RelationService
}

func NewRelationHandler(svc service.RelationService) *RelationHandler {
	return &RelationHandler{svc: svc}
}

func (h *RelationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.RequireAuth())
	rg.PATCH("/:book_id", h.Upsert)
	rg.PUT("/:book_id", h.Upsert)
}

// Upsert updates the caller's relation to a book, creating it on first use.
// PUT and PATCH both apply only the fields present in the body.
func (h *RelationHandler) Upsert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		detail(c, http.StatusNotFound, "Not found.")
		return
	}
	actor, _ := middleware.ActorFrom(c)

	var in dto.RelationPatchDTO
	if !bindJSON(c, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rel, err := h.svc.Upsert(ctx, actor, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}
