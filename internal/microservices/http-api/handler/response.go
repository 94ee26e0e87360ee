package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"bookstore/internal/microservices/http-api/service"
)

var registerOnce sync.Once

// RegisterValidation makes validator report fields by their JSON names.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			switch name {
			case "-":
				return ""
			case "":
				return f.Name
			}
			return name
		})
	})
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, service.ErrBookNotFound):
		detail(c, http.StatusNotFound, "Not found.")
	case errors.Is(err, service.ErrPermissionDenied):
		detail(c, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, service.ErrInvalidCredentials):
		detail(c, http.StatusUnauthorized, "No active account found with the given credentials.")
	case errors.Is(err, service.ErrNameInUse):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"username": []string{"A user with that username already exists."}})
	default:
		_ = c.Error(err)
		detail(c, http.StatusInternalServerError, "A server error occurred.")
	}
}

// bindJSON decodes and validates the request body into obj. An empty body
// is validated as an empty object. It writes the 400 response itself and
// reports whether the handler may continue.
func bindJSON(c *gin.Context, obj any) bool {
	RegisterValidation()

	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return true
	}

	var (
		verrs validator.ValidationErrors
		uterr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, fields)
	case errors.As(err, &uterr) && uterr.Field != "":
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{uterr.Field: []string{typeMessage(uterr.Type.Kind())}})
	default:
		detail(c, http.StatusBadRequest, fmt.Sprintf("JSON parse error - %s", err.Error()))
	}
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		if fe.Param() == "1" {
			return "This field may not be blank."
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	}
	return "Invalid value."
}

func typeMessage(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "Not a valid string."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "A valid integer is required."
	}
	return "Invalid value."
}
