package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bookstore/internal/microservices/http-api/dto"
	"bookstore/internal/microservices/http-api/handler"
	"bookstore/internal/microservices/http-api/service"
)

type MockRelationService struct {
	mock.Mock
}

func (m *MockRelationService) Upsert(ctx context.Context, actor service.Actor, bookID int64, in dto.RelationPatchDTO) (*dto.RelationResponse, error) {
	args := m.Called(ctx, actor, bookID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RelationResponse), args.Error(1)
}

func setupRelationRouter(svc service.RelationService, actor *service.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/api/book_relation")
	rg.Use(mockAuthMiddleware(actor))
	handler.NewRelationHandler(svc).RegisterRoutes(rg)
	return r
}

func TestRelationHandler_Upsert(t *testing.T) {
	svc := new(MockRelationService)
	r := setupRelationRouter(svc, &testActor)

	rate := 4
	svc.On("Upsert", mock.Anything, testActor, int64(1), mock.MatchedBy(func(in dto.RelationPatchDTO) bool {
		return in.Like != nil && *in.Like && string(in.Rate) == "4" && in.Bought == nil
	})).Return(&dto.RelationResponse{Book: 1, Like: true, Rate: &rate}, nil).Twice()

	for _, method := range []string{http.MethodPatch, http.MethodPut} {
		w := doJSON(r, method, "/api/book_relation/1", `{"like": true, "rate": 4}`)

		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.JSONEq(t, `{"book": 1, "like": true, "in_bookmarks": false, "rate": 4, "bought": false}`, w.Body.String(), method)
	}
	svc.AssertExpectations(t)
}

func TestRelationHandler_InvalidRate(t *testing.T) {
	svc := new(MockRelationService)
	r := setupRelationRouter(svc, &testActor)

	svc.On("Upsert", mock.Anything, testActor, int64(1), mock.Anything).
		Return(nil, service.NewValidationError("rate", `"6" is not a valid choice.`)).Once()

	w := doJSON(r, http.MethodPatch, "/api/book_relation/1", `{"rate": 6}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"rate": ["\"6\" is not a valid choice."]}`, w.Body.String())
}

func TestRelationHandler_BadBoolean(t *testing.T) {
	svc := new(MockRelationService)
	r := setupRelationRouter(svc, &testActor)

	w := doJSON(r, http.MethodPatch, "/api/book_relation/1", `{"like": "sure"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"like": ["Must be a valid boolean."]}`, w.Body.String())
	svc.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRelationHandler_UnknownBook(t *testing.T) {
	svc := new(MockRelationService)
	r := setupRelationRouter(svc, &testActor)

	svc.On("Upsert", mock.Anything, testActor, int64(42), mock.Anything).Return(nil, service.ErrBookNotFound).Once()

	w := doJSON(r, http.MethodPatch, "/api/book_relation/42", `{"like": true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRelationHandler_RequiresAuth(t *testing.T) {
	svc := new(MockRelationService)
	r := setupRelationRouter(svc, nil)

	w := doJSON(r, http.MethodPatch, "/api/book_relation/1", `{"like": true}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
