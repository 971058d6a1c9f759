package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// phonePattern is the accepted SMS destination: E.164 with 10 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+[1-9]\d{9,14}$`)

// IsPhone reports whether s is a deliverable SMS destination.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Register adds the custom tags and JSON field naming to v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// An empty value passes so that a present but blank phone can clear it.
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsPhone(s)
	}); err != nil {
		return fmt.Errorf("failed to register phone validation: %w", err)
	}
	return nil
}

// RegisterGin registers the custom tags on gin's binding engine.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// New returns a validator that reads the same `binding` tags gin does.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	// Register only fails on an empty tag name.
	_ = Register(v)
	return v
}

// Messages flattens validation errors into "field: rule" strings.
func Messages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed on %s", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out = append(out, msg)
	}
	return out
}
