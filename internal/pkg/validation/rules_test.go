package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, IsCurrencyCode("USD"))
	assert.False(t, IsCurrencyCode("usd"))
	assert.False(t, IsCurrencyCode("US"))
	assert.False(t, IsCurrencyCode(""))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("Someone@Example.org"))
	assert.False(t, IsEmail("not-an-email"))
}

func TestCleanList(t *testing.T) {
	got := CleanList([]string{" Web Development ", "", "web development", "Health", "  "})
	assert.Equal(t, []string{"Web Development", "Health"}, got)
	assert.Empty(t, CleanList(nil))
}

func TestRegisterCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type payload struct {
		Currency string `validate:"currency"`
		Title    string `validate:"nonblank"`
	}

	assert.NoError(t, v.Struct(payload{Currency: "KES", Title: "Survey"}))
	assert.Error(t, v.Struct(payload{Currency: "kes", Title: "Survey"}))
	assert.Error(t, v.Struct(payload{Currency: "KES", Title: "   "}))
}
