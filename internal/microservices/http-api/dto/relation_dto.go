package dto

import (
	"encoding/json"

	"bookstore/internal/microservices/http-api/models"
)

// RelationPatchDTO is the partial update applied to a user's relation to a
// book. Rate stays raw so null (clear the rating) differs from absent.
type RelationPatchDTO struct {
	Like        *bool           `json:"like"`
	InBookmarks *bool           `json:"in_bookmarks"`
	Rate        json.RawMessage `json:"rate"`
	Bought      *bool           `json:"bought"`
}

// RelationPatch is a validated RelationPatchDTO.
type RelationPatch struct {
	Like        *bool
	InBookmarks *bool
	RateSet     bool
	Rate        *int
	Bought      *bool
}

// ApplyTo copies the provided fields onto rel.
func (p RelationPatch) ApplyTo(rel *models.UserBookRelation) {
	if p.Like != nil {
		rel.Like = *p.Like
	}
	if p.InBookmarks != nil {
		rel.InBookmarks = *p.InBookmarks
	}
	if p.RateSet {
		rel.Rate = p.Rate
	}
	if p.Bought != nil {
		rel.Bought = *p.Bought
	}
}

// RelationResponse mirrors a stored relation.
type RelationResponse struct {
	Book        int64 `json:"book"`
	Like        bool  `json:"like"`
	InBookmarks bool  `json:"in_bookmarks"`
	Rate        *int  `json:"rate"`
	Bought      bool  `json:"bought"`
}

func FromModelToRelationResponse(rel *models.UserBookRelation) RelationResponse {
	return RelationResponse{
		Book:        rel.BookID,
		Like:        rel.Like,
		InBookmarks: rel.InBookmarks,
		Rate:        rel.Rate,
		Bought:      rel.Bought,
	}
}
