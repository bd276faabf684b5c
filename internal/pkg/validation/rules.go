package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	// ISO-4217 style currency code, e.g. USD
	CurrencyPattern = `^[A-Z]{3}$`

	PasswordMinLength = 8

	NameMinLength = 2
	NameMaxLength = 100

	// MessageMaxLength bounds direct messages and application cover notes
	MessageMaxLength = 5000
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email    *regexp.Regexp
	Currency *regexp.Regexp
}{
	Email:    regexp.MustCompile(EmailPattern),
	Currency: regexp.MustCompile(CurrencyPattern),
}

// IsEmail reports whether s looks like an email address (case-insensitive)
func IsEmail(s string) bool {
	return CompiledPatterns.Email.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// IsCurrencyCode reports whether s is a three-letter upper-case code
func IsCurrencyCode(s string) bool {
	return CompiledPatterns.Currency.MatchString(s)
}

// IsBlank reports whether s is empty after trimming
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// CleanList trims every entry, drops blanks and removes case-insensitive
// duplicates while keeping the first spelling.
func CleanList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// fieldName reports the JSON key (or form key for query structs) in
// validation errors instead of the Go field name
func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

// Register adds the custom tags used by request DTOs to v:
// "currency" (three-letter code) and "nonblank" (not only whitespace).
// Field errors are named after the request keys.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(fieldName)
	if err := v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return IsCurrencyCode(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return !IsBlank(fl.Field().String())
	})
}

// RegisterWithGin installs the custom tags on gin's default binding validator
func RegisterWithGin() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return Register(v)
	}
	return nil
}
