package forms

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-roombook/internal/errors"
)

// Validate checks struct tags. Field names are reported by their json name.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

var (
	rulesLock sync.RWMutex
	rules     = map[string]func(string) error{}
)

// RegisterRule adds a string check under a validator tag. The error the check returns becomes
// the field message.
func RegisterRule(tag string, check func(string) error) {
	rulesLock.Lock()
	defer rulesLock.Unlock()
	rules[tag] = check
	if err := Validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return check(fl.Field().String()) == nil
	}); err != nil {
		panic(fmt.Sprintf("registering rule %q: %v", tag, err))
	}
}

func ruleMessage(fe validator.FieldError) (string, bool) {
	rulesLock.RLock()
	check, ok := rules[fe.Tag()]
	rulesLock.RUnlock()
	if !ok {
		return "", false
	}
	value, _ := fe.Value().(string)
	if err := check(value); err != nil {
		return err.Error(), true
	}
	return "", false
}

// FieldErrors validates v and returns one message per offending field, keyed by json name.
func FieldErrors(v any) map[string]string {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = message(fe)
		}
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "gtfield":
		return "must be after " + lowerFirst(fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		if msg, ok := ruleMessage(fe); ok {
			return msg
		}
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
