package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"bookstore/internal/microservices/http-api/dto"
	"bookstore/internal/microservices/http-api/models"
	"bookstore/internal/microservices/http-api/repository"
)

type RelationService interface {
	Upsert(ctx context.Context, actor Actor, bookID int64, in dto.RelationPatchDTO) (*dto.RelationResponse, error)
}

type relationService struct {
	db        *gorm.DB
	relations repository.RelationRepository
	books     repository.BookRepository
	cache     *repository.BookCache
	logger    *slog.Logger
}

func NewRelationService(db *gorm.DB, relations repository.RelationRepository, books repository.BookRepository, cache *repository.BookCache, logger *slog.Logger) RelationService {
	return &relationService{db: db, relations: relations, books: books, cache: cache, logger: logger}
}

// ValidateRelationPatch checks the rate choice and turns the payload into a
// patch ready to apply.
func ValidateRelationPatch(in dto.RelationPatchDTO) (dto.RelationPatch, error) {
	rateSet, rate, err := dto.ParseOptionalInt(in.Rate)
	if err != nil {
		return dto.RelationPatch{}, NewValidationError("rate", fmt.Sprintf("%q is not a valid choice.", dto.RawText(in.Rate)))
	}
	if rate != nil && !models.IsValidRate(*rate) {
		return dto.RelationPatch{}, NewValidationError("rate", fmt.Sprintf("%q is not a valid choice.", dto.RawText(in.Rate)))
	}
	return dto.RelationPatch{
		Like:        in.Like,
		InBookmarks: in.InBookmarks,
		RateSet:     rateSet,
		Rate:        rate,
		Bought:      in.Bought,
	}, nil
}

// Upsert applies a partial update to the actor's relation with a book,
// creating the relation first when missing. The book rating is recomputed in
// the same transaction when the relation is new or its rate changed.
func (s *relationService) Upsert(ctx context.Context, actor Actor, bookID int64, in dto.RelationPatchDTO) (*dto.RelationResponse, error) {
	patch, err := ValidateRelationPatch(in)
	if err != nil {
		return nil, err
	}

	var saved *models.UserBookRelation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		books := s.books.WithTx(tx)
		relations := s.relations.WithTx(tx)

		if _, err := books.GetByID(ctx, bookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		rel, err := relations.GetByUserAndBook(ctx, actor.UserID, bookID)
		created := false
		var before *int
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rel = &models.UserBookRelation{UserID: actor.UserID, BookID: bookID}
			created = true
		case err != nil:
			return err
		default:
			before = rel.Rate
		}

		patch.ApplyTo(rel)

		if created {
			err = relations.Create(ctx, rel)
		} else {
			err = relations.Save(ctx, rel)
		}
		if err != nil {
			return err
		}

		if needsRatingUpdate(created, before, rel.Rate) {
			if _, err := SetRating(ctx, relations, books, bookID); err != nil {
				return fmt.Errorf("set rating: %w", err)
			}
		}

		saved = rel
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, bookID); err != nil {
		s.logger.Warn("book cache invalidation failed", "book_id", bookID, "error", err)
	}

	resp := dto.FromModelToRelationResponse(saved)
	return &resp, nil
}
