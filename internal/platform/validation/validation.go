// Package validation checks request and import payloads with struct tags and turns
// failures into field level validation errors.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"

	"schoolops/internal/domain/fault"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "{0} must not be blank"

	requiredText = "{0} is required"
)

type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var std = New()

// New builds a validator with English messages and JSON tag names for fields.
func New() *Validator {
	validate := validator.New()
	locale := en.New()
	uni := ut.New(locale, locale)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Money is validated as a number so gt=0 and friends apply to decimal amounts.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	v := &Validator{validate: validate, translator: translator}
	v.RegisterTranslation(notBlankTag, notBlankText)
	v.RegisterTranslation("required", requiredText, true)
	return v
}

// RegisterTranslation sets the message for tag; {0} is replaced by the field name.
func (v *Validator) RegisterTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s. It returns nil or a *fault.Error of kind Validation whose
// Fields map JSON paths such as "lineItems[0].amount" to messages.
func (v *Validator) Struct(s any) error {
	fields := v.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fault.Invalid(fields)
}

// Fields returns the failing fields of s, or nil when s is valid.
func (v *Validator) Fields(s any) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fieldPath(fe.Namespace())] = fe.Translate(v.translator)
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return std.Struct(s)
}

// Fields reports failing fields of s with the shared validator.
func Fields(s any) map[string]string {
	return std.Fields(s)
}
