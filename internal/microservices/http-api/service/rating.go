package service

import (
	"context"

	"github.com/shopspring/decimal"

	"bookstore/internal/microservices/http-api/models"
	"bookstore/internal/microservices/http-api/repository"
)

// ratingPlaces is the number of fraction digits kept on Book.Rating.
const ratingPlaces = 2

// SetRating recomputes a book's cached rating as the mean of its relations'
// rates, ignoring relations without a rate, and stores it right away. Ties
// round half to even (2.125 becomes 2.12). A book with no rated relations
// gets a NULL rating.
func SetRating(ctx context.Context, relations repository.RelationRepository, books repository.BookRepository, bookID int64) (decimal.NullDecimal, error) {
	avg, err := relations.AverageRate(ctx, bookID)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if avg.Valid {
		avg.Decimal = avg.Decimal.RoundBank(ratingPlaces)
	}
	if err := books.SetRating(ctx, bookID, avg); err != nil {
		return decimal.NullDecimal{}, err
	}
	return avg, nil
}

// needsRatingUpdate is the save guard: a new relation always triggers a
// recompute, an existing one only when its rate moved.
func needsRatingUpdate(created bool, before, after *int) bool {
	return created || models.RateChanged(before, after)
}
