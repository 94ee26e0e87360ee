package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"bookstore/internal/microservices/http-api/dto"
	"bookstore/internal/microservices/http-api/models"
	"bookstore/internal/microservices/http-api/repository"
	"bookstore/internal/testutil"
)

type BookServiceTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mr    *miniredis.Miniredis
	svc   BookService
	ctx   context.Context
	owner *models.User
	other *models.User
	staff *models.User
	book  *models.Book
}

func (s *BookServiceTestSuite) SetupTest() {
	t := s.T()
	s.db = testutil.NewDB(t)
	s.mr = miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := repository.NewBookCacheWithClient(client, time.Minute)

	s.svc = NewBookService(repository.NewBookRepository(s.db), cache, testutil.DiscardLogger())
	s.ctx = context.Background()

	s.owner = testutil.CreateUser(t, s.db, "owner", "Ivan", "Petrov")
	s.other = testutil.CreateUser(t, s.db, "other", "Anna", "Smirnova")
	s.staff = testutil.CreateUser(t, s.db, "staff", "Oleg", "Ivanov")
	s.staff.IsStaff = true
	s.book = testutil.CreateBook(t, s.db, "Test book 1", "120", "author 1", s.owner)
}

func staffActor(u *models.User) Actor {
	return Actor{UserID: u.ID, Username: u.Username, IsStaff: true}
}

func (s *BookServiceTestSuite) TestCreate_SetsOwner() {
	price := decimal.RequireFromString("99.90")
	discount := 10
	resp, err := s.svc.Create(s.ctx, actorOf(s.other), dto.CreateBookDTO{
		Name:       "New book",
		Price:      &price,
		AuthorName: "author 2",
		Discount:   &discount,
	})
	s.Require().NoError(err)

	s.Equal("New book", resp.Name)
	s.Equal("99.90", resp.Price)
	s.Equal(int64(89), resp.PriceWithDiscount)
	s.Equal("other", resp.OwnerName)
	s.Nil(resp.Rating)
	s.Empty(resp.Readers)

	var stored models.Book
	s.Require().NoError(s.db.First(&stored, resp.ID).Error)
	s.Require().NotNil(stored.OwnerID)
	s.Equal(s.other.ID, *stored.OwnerID)
}

func (s *BookServiceTestSuite) TestCreate_Validation() {
	tooPrecise := decimal.RequireFromString("1.234")
	tooBig := decimal.NewFromInt(100000)
	discount := 101

	_, err := s.svc.Create(s.ctx, actorOf(s.other), dto.CreateBookDTO{Name: "n", AuthorName: "a"})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"This field is required."}, verr.Fields["price"])

	_, err = s.svc.Create(s.ctx, actorOf(s.other), dto.CreateBookDTO{Name: "n", AuthorName: "a", Price: &tooPrecise})
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"Ensure that there are no more than 2 decimal places."}, verr.Fields["price"])

	_, err = s.svc.Create(s.ctx, actorOf(s.other), dto.CreateBookDTO{Name: "n", AuthorName: "a", Price: &tooBig, Discount: &discount})
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"Ensure that there are no more than 5 digits before the decimal point."}, verr.Fields["price"])
	s.Equal([]string{"Ensure this value is between 0 and 100."}, verr.Fields["discount"])

	var count int64
	s.Require().NoError(s.db.Model(&models.Book{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *BookServiceTestSuite) TestUpdate_ByOwner() {
	name := "Renamed"
	resp, err := s.svc.Update(s.ctx, actorOf(s.owner), s.book.ID, dto.UpdateBookDTO{
		Name:     &name,
		Discount: json.RawMessage("50"),
	})
	s.Require().NoError(err)

	s.Equal("Renamed", resp.Name)
	s.Equal("120.00", resp.Price)
	s.Equal(int64(60), resp.PriceWithDiscount)
	s.Equal("author 1", resp.AuthorName)
}

func (s *BookServiceTestSuite) TestUpdate_ClearDiscount() {
	_, err := s.svc.Update(s.ctx, actorOf(s.owner), s.book.ID, dto.UpdateBookDTO{Discount: json.RawMessage("30")})
	s.Require().NoError(err)

	resp, err := s.svc.Update(s.ctx, actorOf(s.owner), s.book.ID, dto.UpdateBookDTO{Discount: json.RawMessage("null")})
	s.Require().NoError(err)
	s.Nil(resp.Discount)
	s.Equal(int64(120), resp.PriceWithDiscount)
}

func (s *BookServiceTestSuite) TestUpdate_ByStaff() {
	price := decimal.NewFromInt(1)
	resp, err := s.svc.Update(s.ctx, staffActor(s.staff), s.book.ID, dto.UpdateBookDTO{Price: &price})
	s.Require().NoError(err)
	s.Equal("1.00", resp.Price)
	s.Equal("owner", resp.OwnerName)
}

func (s *BookServiceTestSuite) TestUpdate_ForbiddenLeavesBookUntouched() {
	name := "Hijacked"
	_, err := s.svc.Update(s.ctx, actorOf(s.other), s.book.ID, dto.UpdateBookDTO{Name: &name})
	s.ErrorIs(err, ErrPermissionDenied)

	var stored models.Book
	s.Require().NoError(s.db.First(&stored, s.book.ID).Error)
	s.Equal("Test book 1", stored.Name)
}

func (s *BookServiceTestSuite) TestUpdate_ForbiddenBeforeValidation() {
	_, err := s.svc.Update(s.ctx, actorOf(s.other), s.book.ID, dto.UpdateBookDTO{Discount: json.RawMessage("500")})
	s.ErrorIs(err, ErrPermissionDenied)
}

func (s *BookServiceTestSuite) TestUpdate_InvalidDiscount() {
	_, err := s.svc.Update(s.ctx, actorOf(s.owner), s.book.ID, dto.UpdateBookDTO{Discount: json.RawMessage(`"lots"`)})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"A valid integer is required."}, verr.Fields["discount"])
}

func (s *BookServiceTestSuite) TestUpdate_NotFound() {
	name := "x"
	_, err := s.svc.Update(s.ctx, staffActor(s.staff), s.book.ID+100, dto.UpdateBookDTO{Name: &name})
	s.ErrorIs(err, ErrBookNotFound)
}

func (s *BookServiceTestSuite) TestDelete() {
	s.ErrorIs(s.svc.Delete(s.ctx, actorOf(s.other), s.book.ID), ErrPermissionDenied)

	s.Require().NoError(s.svc.Delete(s.ctx, staffActor(s.staff), s.book.ID))
	_, err := s.svc.Get(s.ctx, s.book.ID)
	s.ErrorIs(err, ErrBookNotFound)

	s.ErrorIs(s.svc.Delete(s.ctx, staffActor(s.staff), s.book.ID), ErrBookNotFound)
}

func (s *BookServiceTestSuite) TestGet_UsesCache() {
	first, err := s.svc.Get(s.ctx, s.book.ID)
	s.Require().NoError(err)
	s.True(s.mr.Exists(fmt.Sprintf("book:%d", s.book.ID)))

	// A change behind the service's back stays invisible until invalidation.
	s.Require().NoError(s.db.Model(&models.Book{}).Where("id = ?", s.book.ID).Update("name", "Changed").Error)
	cached, err := s.svc.Get(s.ctx, s.book.ID)
	s.Require().NoError(err)
	s.Equal(first.Name, cached.Name)

	name := "Renamed"
	_, err = s.svc.Update(s.ctx, actorOf(s.owner), s.book.ID, dto.UpdateBookDTO{Name: &name})
	s.Require().NoError(err)

	fresh, err := s.svc.Get(s.ctx, s.book.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", fresh.Name)
	s.True(s.mr.Exists(fmt.Sprintf("book:%d", s.book.ID)))

	version, err := s.mr.Get(fmt.Sprintf("book:%d:version", s.book.ID))
	s.Require().NoError(err)
	s.Equal("1", version)
}

func (s *BookServiceTestSuite) TestList() {
	testutil.CreateBook(s.T(), s.db, "Test book 2", "55", "author 2", nil)

	list, err := s.svc.List(s.ctx, repository.BookQuery{Ordering: []string{"price"}})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Test book 2", list[0].Name)
	s.Equal(models.OwnerPlaceholder, list[0].OwnerName)
	s.Equal("owner", list[1].OwnerName)
}

func TestBookServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BookServiceTestSuite))
}

func TestActorCanModify(t *testing.T) {
	owner := "u1"
	book := &models.Book{OwnerID: &owner}

	assert.True(t, Actor{UserID: "u1"}.CanModify(book))
	assert.False(t, Actor{UserID: "u2"}.CanModify(book))
	assert.True(t, Actor{UserID: "u2", IsStaff: true}.CanModify(book))
	assert.False(t, Actor{UserID: "u1"}.CanModify(&models.Book{}))
	assert.True(t, Actor{IsStaff: true}.CanModify(&models.Book{}))
}
