package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
)

var validate = validator.New()

// validateStruct runs the struct's `validate` tags and folds failures into
// one ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatValidationError(fe))
	}
	return apperrors.Validation("%s", strings.Join(msgs, "; "))
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Namespace() + " is required"
	case "min":
		return e.Namespace() + " must be at least " + e.Param()
	case "max":
		return e.Namespace() + " must be at most " + e.Param()
	case "oneof":
		return e.Namespace() + " must be one of: " + e.Param()
	case "nefield":
		return e.Namespace() + " must differ from " + e.Param()
	default:
		return e.Namespace() + " validation failed: " + e.Tag()
	}
}

// cleanList trims entries and drops exact duplicates, keeping order.
// Blank entries are kept so validation can reject them.
func cleanList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
		}
		out = append(out, s)
	}
	return out
}
