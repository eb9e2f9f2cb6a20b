package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"lead-radar/internal/ai"
	"lead-radar/internal/domain"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors report json field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}

// bindJSON decodes the request body into req and writes a 400 on failure.
func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.writeError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidation("invalid request body", nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describeFieldError(fe)
	}
	return domain.NewValidation("invalid request", fields)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		body := gin.H{"error": de.Message}
		if len(de.Fields) > 0 {
			body["fields"] = de.Fields
		}
		c.AbortWithStatusJSON(statusForKind(de.Kind), body)
	case errors.Is(err, ai.ErrProviderFailed):
		h.logger.WithError(err).Warn("generative provider failure surfaced")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "generative provider failed"})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
