package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookstore/internal/microservices/http-api/models"
)

// BookQuery holds the list filters. Nil filters are not applied.
type BookQuery struct {
	ID       *int64
	Name     *string
	Price    *decimal.Decimal
	Search   string
	Ordering []string
}

type BookRepository interface {
	WithTx(tx *gorm.DB) BookRepository
	List(ctx context.Context, q BookQuery) ([]models.BookListing, error)
	GetListing(ctx context.Context, id int64) (*models.BookListing, error)
	GetByID(ctx context.Context, id int64) (*models.Book, error)
	Create(ctx context.Context, b *models.Book) error
	Update(ctx context.Context, b *models.Book) error
	Delete(ctx context.Context, id int64) error
	SetRating(ctx context.Context, id int64, rating decimal.NullDecimal) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) WithTx(tx *gorm.DB) BookRepository {
	return &bookRepository{db: tx}
}

// orderColumns lists the fields clients may sort by.
var orderColumns = map[string]string{
	"price":    "books.price",
	"name":     "books.name",
	"discount": "books.discount",
}

// listing selects book columns plus the like count and owner name.
// The like count is a correlated subquery so filters and ordering never
// multiply rows.
func (r *bookRepository) listing(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("books").
		Select("books.id, books.name, books.price, books.author_name, books.owner_id, books.discount, books.rating, "+
			"(SELECT COUNT(*) FROM user_book_relations r WHERE r.book_id = books.id AND r.liked = ?) AS annotated_likes, "+
			"owner_user.username AS owner_name", true).
		Joins("LEFT JOIN users owner_user ON owner_user.id = books.owner_id")
}

// List returns books matching q. Each search term must appear, case-insensitively,
// in either the author name or the book name.
func (r *bookRepository) List(ctx context.Context, q BookQuery) ([]models.BookListing, error) {
	db := r.listing(ctx)

	if q.ID != nil {
		db = db.Where("books.id = ?", *q.ID)
	}
	if q.Name != nil {
		db = db.Where("books.name = ?", *q.Name)
	}
	if q.Price != nil {
		db = db.Where("books.price = ?", *q.Price)
	}
	match := r.searchClause()
	for _, term := range SearchTerms(q.Search) {
		p := "%" + escapeLike(strings.ToLower(term)) + "%"
		db = db.Where(match, p, p)
	}

	for _, field := range q.Ordering {
		desc := strings.HasPrefix(field, "-")
		column, ok := orderColumns[strings.TrimPrefix(field, "-")]
		if !ok {
			continue
		}
		if desc {
			column += " DESC"
		}
		db = db.Order(column)
	}
	db = db.Order("books.id")

	var list []models.BookListing
	if err := db.Scan(&list).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if err := r.complete(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// searchClause matches one term against author and book name. Postgres folds
// case with ILIKE; other dialects fall back to LOWER, which SQLite applies to
// ASCII letters only.
func (r *bookRepository) searchClause() string {
	if r.db.Dialector.Name() == "postgres" {
		return `(books.author_name ILIKE ? ESCAPE '\' OR books.name ILIKE ? ESCAPE '\')`
	}
	return `(LOWER(books.author_name) LIKE ? ESCAPE '\' OR LOWER(books.name) LIKE ? ESCAPE '\')`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in a search term match literally.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func (r *bookRepository) GetListing(ctx context.Context, id int64) (*models.BookListing, error) {
	var list []models.BookListing
	if err := r.listing(ctx).Where("books.id = ?", id).Limit(1).Scan(&list).Error; err != nil {
		return nil, fmt.Errorf("get book listing: %w", err)
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	if err := r.complete(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// complete fills in the fields derived after the main query: the discounted
// price and the readers of every book, fetched in one query.
func (r *bookRepository) complete(ctx context.Context, list []models.BookListing) error {
	if len(list) == 0 {
		return nil
	}

	ids := lo.Map(list, func(b models.BookListing, _ int) int64 { return b.ID })
	var readers []models.Reader
	err := r.db.WithContext(ctx).
		Table("user_book_relations AS r").
		Select("r.book_id, u.first_name, u.last_name").
		Joins("JOIN users u ON u.id = r.user_id").
		Where("r.book_id IN ?", ids).
		Order("r.id").
		Scan(&readers).Error
	if err != nil {
		return fmt.Errorf("list book readers: %w", err)
	}
	byBook := lo.GroupBy(readers, func(rd models.Reader) int64 { return rd.BookID })

	for i := range list {
		list[i].PriceWithDiscount = models.PriceWithDiscount(list[i].Price, list[i].Discount)
		list[i].Readers = byBook[list[i].ID]
		if list[i].Readers == nil {
			list[i].Readers = []models.Reader{}
		}
	}
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) Create(ctx context.Context, b *models.Book) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// Update writes the editable columns only; the cached rating and the owner
// are maintained elsewhere.
func (r *bookRepository) Update(ctx context.Context, b *models.Book) error {
	err := r.db.WithContext(ctx).
		Model(b).
		Select("name", "price", "author_name", "discount").
		Updates(b).Error
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// Delete removes the book and its relations.
func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&models.UserBookRelation{}).Error; err != nil {
			return fmt.Errorf("delete book relations: %w", err)
		}
		if err := tx.Delete(&models.Book{}, id).Error; err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		return nil
	})
}

func (r *bookRepository) SetRating(ctx context.Context, id int64, rating decimal.NullDecimal) error {
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Update("rating", rating).Error
	if err != nil {
		return fmt.Errorf("set book rating: %w", err)
	}
	return nil
}

// SearchTerms splits a search string on whitespace and commas.
func SearchTerms(search string) []string {
	return strings.FieldsFunc(search, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
