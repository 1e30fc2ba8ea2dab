package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func validationError(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

// invalidPayload turns validator output into a ValidationError naming the first bad field.
func invalidPayload(err error, subject string) error {
	message := fmt.Sprintf("invalid %s payload", subject)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			message = fmt.Sprintf("%s: %s must satisfy %s=%s", message, fe.Field(), fe.Tag(), fe.Param())
		} else {
			message = fmt.Sprintf("%s: %s is %s", message, fe.Field(), fe.Tag())
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// invalidateAnalytics drops cached reports after lesson or account changes.
func invalidateAnalytics(ctx context.Context, cache cacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, analyticsCachePrefix+":*"); err != nil {
		logger.Warn("failed to invalidate analytics cache", zap.Error(err))
	}
}
