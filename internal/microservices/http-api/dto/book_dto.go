package dto

import (
	"encoding/json"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"bookstore/internal/microservices/http-api/models"
)

// CreateBookDTO used for POST /api/books and PUT /api/books/:id
type CreateBookDTO struct {
	Name       string           `json:"name" binding:"required,max=255"`
	Price      *decimal.Decimal `json:"price"`
	AuthorName string           `json:"author_name" binding:"required,max=255"`
	Discount   *int             `json:"discount"`
}

// UpdateBookDTO used for PATCH /api/books/:id (partial updates allowed).
// Discount stays raw so an explicit null can clear it.
type UpdateBookDTO struct {
	Name       *string          `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	AuthorName *string          `json:"author_name,omitempty" binding:"omitempty,min=1,max=255"`
	Discount   json.RawMessage  `json:"discount,omitempty"`
}

// ToUpdate turns a full payload into an update touching every field.
func (d CreateBookDTO) ToUpdate() UpdateBookDTO {
	u := UpdateBookDTO{
		Name:       &d.Name,
		Price:      d.Price,
		AuthorName: &d.AuthorName,
	}
	if d.Discount != nil {
		u.Discount, _ = json.Marshal(*d.Discount)
	}
	return u
}

// ReaderResponse is one reader of a book.
type ReaderResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// BookResponse DTO for responses. Every field past author_name is computed
// by the query layer.
type BookResponse struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	Price             string           `json:"price"`
	Discount          *int             `json:"discount"`
	PriceWithDiscount int64            `json:"price_with_discount"`
	AuthorName        string           `json:"author_name"`
	AnnotatedLikes    int64            `json:"annotated_likes"`
	Rating            *string          `json:"rating"`
	OwnerName         string           `json:"owner_name"`
	Readers           []ReaderResponse `json:"readers"`
}

func FromListingToResponse(b models.BookListing) BookResponse {
	resp := BookResponse{
		ID:                b.ID,
		Name:              b.Name,
		Price:             b.Price.StringFixed(2),
		Discount:          b.Discount,
		PriceWithDiscount: b.PriceWithDiscount,
		AuthorName:        b.AuthorName,
		AnnotatedLikes:    b.AnnotatedLikes,
		OwnerName:         models.OwnerPlaceholder,
		Readers: lo.Map(b.Readers, func(r models.Reader, _ int) ReaderResponse {
			return ReaderResponse{FirstName: r.FirstName, LastName: r.LastName}
		}),
	}
	if b.Rating.Valid {
		resp.Rating = lo.ToPtr(b.Rating.Decimal.StringFixed(2))
	}
	if b.OwnerName != nil {
		resp.OwnerName = *b.OwnerName
	}
	return resp
}

func FromListingsToResponse(list []models.BookListing) []BookResponse {
	return lo.Map(list, func(b models.BookListing, _ int) BookResponse {
		return FromListingToResponse(b)
	})
}
