package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookstore/internal/microservices/http-api/dto"
	"bookstore/internal/microservices/http-api/models"
	"bookstore/internal/microservices/http-api/repository"
)

// Actor is the authenticated user behind a request.
type Actor struct {
	UserID   string
	Username string
	IsStaff  bool
}

// CanModify reports whether the actor may change or delete the book:
// its owner and staff users can.
func (a Actor) CanModify(b *models.Book) bool {
	return a.IsStaff || b.IsOwnedBy(a.UserID)
}

type BookService interface {
	List(ctx context.Context, q repository.BookQuery) ([]dto.BookResponse, error)
	Get(ctx context.Context, id int64) (*dto.BookResponse, error)
	Create(ctx context.Context, actor Actor, in dto.CreateBookDTO) (*dto.BookResponse, error)
	Update(ctx context.Context, actor Actor, id int64, in dto.UpdateBookDTO) (*dto.BookResponse, error)
	Delete(ctx context.Context, actor Actor, id int64) error
}

type bookService struct {
	books  repository.BookRepository
	cache  *repository.BookCache
	logger *slog.Logger
}

func NewBookService(books repository.BookRepository, cache *repository.BookCache, logger *slog.Logger) BookService {
	return &bookService{books: books, cache: cache, logger: logger}
}

func (s *bookService) List(ctx context.Context, q repository.BookQuery) ([]dto.BookResponse, error) {
	list, err := s.books.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return dto.FromListingsToResponse(list), nil
}

// Get serves a book detail, through the cache when one is configured.
func (s *bookService) Get(ctx context.Context, id int64) (*dto.BookResponse, error) {
	if payload, ok, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn("book cache read failed", "book_id", id, "error", err)
	} else if ok {
		var cached dto.BookResponse
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("book cache entry unreadable", "book_id", id)
	}

	version, verr := s.cache.Version(ctx, id)
	if verr != nil {
		s.logger.Warn("book cache version read failed", "book_id", id, "error", verr)
	}

	resp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if verr != nil {
		return resp, nil
	}
	if payload, err := json.Marshal(resp); err == nil {
		if _, err := s.cache.Set(ctx, id, version, payload); err != nil {
			s.logger.Warn("book cache write failed", "book_id", id, "error", err)
		}
	}
	return resp, nil
}

func (s *bookService) load(ctx context.Context, id int64) (*dto.BookResponse, error) {
	listing, err := s.books.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	resp := dto.FromListingToResponse(*listing)
	return &resp, nil
}

// Create stores a new book owned by the actor.
func (s *bookService) Create(ctx context.Context, actor Actor, in dto.CreateBookDTO) (*dto.BookResponse, error) {
	verr := &ValidationError{}
	if in.Price == nil {
		verr.Add("price", "This field is required.")
	} else {
		validatePrice(verr, *in.Price)
	}
	validateDiscount(verr, in.Discount)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	owner := actor.UserID
	book := &models.Book{
		Name:       in.Name,
		Price:      *in.Price,
		AuthorName: in.AuthorName,
		Discount:   in.Discount,
		OwnerID:    &owner,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Info("book created", "book_id", book.ID, "owner_id", owner)
	return s.load(ctx, book.ID)
}

// Update applies the provided fields. Only the owner or staff may update.
func (s *bookService) Update(ctx context.Context, actor Actor, id int64, in dto.UpdateBookDTO) (*dto.BookResponse, error) {
	book, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if in.Price != nil {
		validatePrice(verr, *in.Price)
	}
	discountSet, discount, err := dto.ParseOptionalInt(in.Discount)
	if err != nil {
		verr.Add("discount", "A valid integer is required.")
	} else {
		validateDiscount(verr, discount)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if in.Name != nil {
		book.Name = *in.Name
	}
	if in.Price != nil {
		book.Price = *in.Price
	}
	if in.AuthorName != nil {
		book.AuthorName = *in.AuthorName
	}
	if discountSet {
		book.Discount = discount
	}

	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	return s.load(ctx, id)
}

// Delete removes a book. Only the owner or staff may delete.
func (s *bookService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.logger.Info("book deleted", "book_id", id, "actor_id", actor.UserID)
	return nil
}

func (s *bookService) authorize(ctx context.Context, actor Actor, id int64) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	if !actor.CanModify(book) {
		return nil, ErrPermissionDenied
	}
	return book, nil
}

func (s *bookService) invalidate(ctx context.Context, ids ...int64) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("book cache invalidation failed", "book_ids", ids, "error", err)
	}
}

var maxPrice = decimal.NewFromInt(100000)

// validatePrice enforces the decimal(7,2) column: at most 5 integer and 2
// fraction digits, never negative.
func validatePrice(verr *ValidationError, price decimal.Decimal) {
	if price.IsNegative() {
		verr.Add("price", "Ensure this value is greater than or equal to 0.")
	}
	if !price.Equal(price.Round(2)) {
		verr.Add("price", "Ensure that there are no more than 2 decimal places.")
	}
	if price.Abs().GreaterThanOrEqual(maxPrice) {
		verr.Add("price", "Ensure that there are no more than 5 digits before the decimal point.")
	}
}

func validateDiscount(verr *ValidationError, discount *int) {
	if discount != nil && (*discount < 0 || *discount > 100) {
		verr.Add("discount", "Ensure this value is between 0 and 100.")
	}
}
