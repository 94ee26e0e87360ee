package models

// Rate choices accepted for UserBookRelation.Rate.
var RateChoices = map[int]string{
	1: "Ok",
	2: "Fine",
	3: "Good",
	4: "Amazing",
	5: "Incredible",
}

// IsValidRate reports whether r is one of RateChoices.
func IsValidRate(r int) bool {
	_, ok := RateChoices[r]
	return ok
}

// UserBookRelation records one user's interaction with one book.
type UserBookRelation struct {
	ID          int64  `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID      string `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_relation_user_book"`
	BookID      int64  `json:"book" gorm:"not null;uniqueIndex:idx_relation_user_book;index"`
	Like        bool   `json:"like" gorm:"column:liked;not null"`
	InBookmarks bool   `json:"in_bookmarks" gorm:"not null"`
	Rate        *int   `json:"rate" gorm:"type:smallint;check:chk_relation_rate,rate >= 1 AND rate <= 5"`
	Bought      bool   `json:"bought" gorm:"not null"`

	// Associations
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	Book *Book `json:"-" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE;"`
}

func (UserBookRelation) TableName() string {
	return "user_book_relations"
}

// RateChanged reports whether the rate differs between two states.
func RateChanged(before, after *int) bool {
	if before == nil || after == nil {
		return before != after
	}
	return *before != *after
}
