package models

import (
	"github.com/shopspring/decimal"
)

// OwnerPlaceholder is reported as owner name for books whose owner is gone.
const OwnerPlaceholder = "-"

type Book struct {
	ID         int64               `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string              `json:"name" gorm:"size:255;not null"`
	Price      decimal.Decimal     `json:"price" gorm:"type:decimal(7,2);not null"`
	AuthorName string              `json:"author_name" gorm:"size:255;not null"`
	OwnerID    *string             `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	Discount   *int                `json:"discount"`
	Rating     decimal.NullDecimal `json:"rating" gorm:"type:decimal(3,2)"`

	// association
	Owner *User `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL;"`
}

func (Book) TableName() string {
	return "books"
}

// IsOwnedBy reports whether userID owns the book.
func (b *Book) IsOwnedBy(userID string) bool {
	return b.OwnerID != nil && userID != "" && *b.OwnerID == userID
}

// Reader is a user with any relation to a book.
type Reader struct {
	BookID    int64  `json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// BookListing is a book row plus the aggregates computed at query time.
type BookListing struct {
	ID                int64
	Name              string
	Price             decimal.Decimal
	AuthorName        string
	OwnerID           *string
	Discount          *int
	Rating            decimal.NullDecimal
	AnnotatedLikes    int64
	OwnerName         *string
	PriceWithDiscount int64    `gorm:"-"`
	Readers           []Reader `gorm:"-"`
}

// PriceWithDiscount applies a percent discount and truncates to whole units.
// A nil or zero discount leaves the price as is.
func PriceWithDiscount(price decimal.Decimal, discount *int) int64 {
	if discount == nil || *discount == 0 {
		return price.Truncate(0).IntPart()
	}
	hundred := decimal.NewFromInt(100)
	discounted := price.Mul(hundred.Sub(decimal.NewFromInt(int64(*discount)))).Div(hundred)
	return discounted.Truncate(0).IntPart()
}
