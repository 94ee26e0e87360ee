package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/microservices/http-api/models"
)

func TestFromListingToResponse(t *testing.T) {
	owner := "owner"
	discount := 22
	listing := models.BookListing{
		ID:                1,
		Name:              "Test book 1",
		Price:             decimal.NewFromInt(120),
		AuthorName:        "Author1",
		Discount:          &discount,
		Rating:            decimal.NewNullDecimal(decimal.RequireFromString("4.666").Round(2)),
		AnnotatedLikes:    3,
		OwnerName:         &owner,
		PriceWithDiscount: 93,
		Readers:           []models.Reader{{BookID: 1, FirstName: "Ivan", LastName: "Petrov"}},
	}

	body, err := json.Marshal(FromListingToResponse(listing))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": 1,
		"name": "Test book 1",
		"price": "120.00",
		"discount": 22,
		"price_with_discount": 93,
		"author_name": "Author1",
		"annotated_likes": 3,
		"rating": "4.67",
		"owner_name": "owner",
		"readers": [{"first_name": "Ivan", "last_name": "Petrov"}]
	}`, string(body))
}

func TestFromListingToResponse_Absent(t *testing.T) {
	resp := FromListingToResponse(models.BookListing{
		ID:                2,
		Name:              "Test book 22",
		Price:             decimal.NewFromInt(111),
		AuthorName:        "Author2",
		PriceWithDiscount: 111,
	})

	assert.Equal(t, "111.00", resp.Price)
	assert.Nil(t, resp.Rating)
	assert.Nil(t, resp.Discount)
	assert.Equal(t, models.OwnerPlaceholder, resp.OwnerName)
	assert.NotNil(t, resp.Readers)
	assert.Empty(t, resp.Readers)
}

func TestParseOptionalInt(t *testing.T) {
	set, v, err := ParseOptionalInt(nil)
	assert.False(t, set)
	assert.Nil(t, v)
	assert.NoError(t, err)

	set, v, err = ParseOptionalInt(json.RawMessage("null"))
	assert.True(t, set)
	assert.Nil(t, v)
	assert.NoError(t, err)

	set, v, err = ParseOptionalInt(json.RawMessage("4"))
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, 4, *v)

	_, v, err = ParseOptionalInt(json.RawMessage(`"5"`))
	require.NoError(t, err)
	assert.Equal(t, 5, *v)

	_, _, err = ParseOptionalInt(json.RawMessage(`"five"`))
	assert.ErrorIs(t, err, ErrNotInteger)

	_, _, err = ParseOptionalInt(json.RawMessage(`4.5`))
	assert.ErrorIs(t, err, ErrNotInteger)
}

func TestRelationPatchDecode(t *testing.T) {
	var d RelationPatchDTO
	require.NoError(t, json.Unmarshal([]byte(`{"like": true, "rate": null}`), &d))
	assert.True(t, *d.Like)
	assert.Nil(t, d.InBookmarks)
	assert.Equal(t, "null", string(d.Rate))

	var empty RelationPatchDTO
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.Nil(t, empty.Rate)
}

func TestRelationPatchApplyTo(t *testing.T) {
	three := 3
	rel := &models.UserBookRelation{BookID: 9, Like: true, Rate: &three}

	yes := true
	RelationPatch{InBookmarks: &yes, RateSet: true}.ApplyTo(rel)

	assert.True(t, rel.Like)
	assert.True(t, rel.InBookmarks)
	assert.Nil(t, rel.Rate)
	assert.Equal(t, RelationResponse{Book: 9, Like: true, InBookmarks: true}, FromModelToRelationResponse(rel))
}

func TestCreateBookDTOToUpdate(t *testing.T) {
	price := decimal.NewFromInt(10)
	discount := 5
	u := CreateBookDTO{Name: "n", Price: &price, AuthorName: "a", Discount: &discount}.ToUpdate()

	assert.Equal(t, "n", *u.Name)
	assert.Equal(t, "a", *u.AuthorName)
	assert.Equal(t, "5", string(u.Discount))

	u = CreateBookDTO{Name: "n", AuthorName: "a"}.ToUpdate()
	assert.Nil(t, u.Discount)
}

func TestRawText(t *testing.T) {
	assert.Equal(t, "6", RawText(json.RawMessage("6")))
	assert.Equal(t, "abc", RawText(json.RawMessage(`"abc"`)))
}
