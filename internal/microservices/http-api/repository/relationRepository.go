package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookstore/internal/microservices/http-api/models"
)

type RelationRepository interface {
	WithTx(tx *gorm.DB) RelationRepository
	GetByUserAndBook(ctx context.Context, userID string, bookID int64) (*models.UserBookRelation, error)
	Create(ctx context.Context, rel *models.UserBookRelation) error
	Save(ctx context.Context, rel *models.UserBookRelation) error
	AverageRate(ctx context.Context, bookID int64) (decimal.NullDecimal, error)
}

type relationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) WithTx(tx *gorm.DB) RelationRepository {
	return &relationRepository{db: tx}
}

// GetByUserAndBook retrieves a user's relation to a specific book.
func (r *relationRepository) GetByUserAndBook(ctx context.Context, userID string, bookID int64) (*models.UserBookRelation, error) {
	var rel models.UserBookRelation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&rel).Error
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *relationRepository) Create(ctx context.Context, rel *models.UserBookRelation) error {
	if err := r.db.WithContext(ctx).Create(rel).Error; err != nil {
		return fmt.Errorf("create relation: %w", err)
	}
	return nil
}

func (r *relationRepository) Save(ctx context.Context, rel *models.UserBookRelation) error {
	if err := r.db.WithContext(ctx).Save(rel).Error; err != nil {
		return fmt.Errorf("save relation: %w", err)
	}
	return nil
}

// AverageRate averages the non-null rates of a book's relations. The result
// is invalid when no relation carries a rate.
func (r *relationRepository) AverageRate(ctx context.Context, bookID int64) (decimal.NullDecimal, error) {
	var avg struct {
		Average decimal.NullDecimal
	}

	err := r.db.WithContext(ctx).
		Model(&models.UserBookRelation{}).
		Select("AVG(rate) AS average").
		Where("book_id = ?", bookID).
		Scan(&avg).Error
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("average rate: %w", err)
	}

	return avg.Average, nil
}
