package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanFieldsDropsSentinels(t *testing.T) {
	got := CleanFields(map[string]string{
		"email":    "Not Found",
		"phone":    "n/a",
		"website":  "NONE",
		"location": "-",
		"contact":  "unknown",
		"address":  "  ",
	})
	assert.Empty(t, got)
}

func TestCleanFieldsEmailRequiresAt(t *testing.T) {
	got := CleanFields(map[string]string{"email": "not an email"})
	assert.Empty(t, got)

	got = CleanFields(map[string]string{"email": " info@acme.com "})
	assert.Equal(t, "info@acme.com", got["email"])
}

func TestCleanFieldsWebsiteNormalization(t *testing.T) {
	// Bare domains get a scheme prepended.
	got := CleanFields(map[string]string{"website": "example.com"})
	assert.Equal(t, "https://example.com", got["website"])

	// Existing schemes are preserved.
	got = CleanFields(map[string]string{"website": "http://example.com/about"})
	assert.Equal(t, "http://example.com/about", got["website"])

	// Values that cannot be URLs are dropped.
	got = CleanFields(map[string]string{"website": "no website listed"})
	assert.Empty(t, got)

	got = CleanFields(map[string]string{"website": "nodothere"})
	assert.Empty(t, got)
}

func TestCleanFieldsSocialURLs(t *testing.T) {
	got := CleanFields(map[string]string{
		"linkedin": "linkedin.com/company/acme",
		"twitter":  "https://twitter.com/acme",
		"facebook": "not on facebook",
	})
	assert.Equal(t, "https://linkedin.com/company/acme", got["linkedin"])
	assert.Equal(t, "https://twitter.com/acme", got["twitter"])
	assert.NotContains(t, got, "facebook")
}

func TestCleanFieldsIgnoresUnknownKeys(t *testing.T) {
	got := CleanFields(map[string]string{
		"email":    "info@acme.com",
		"industry": "robotics",
	})
	assert.Len(t, got, 1)
	assert.NotContains(t, got, "industry")
}

func TestCleanFieldsFreeTextAttributesKept(t *testing.T) {
	got := CleanFields(map[string]string{
		"contact":  "Jane Doe",
		"phone":    "+1 (555) 010-0199",
		"location": "Springfield, USA",
		"address":  "1 Main St",
	})
	assert.Len(t, got, 4)
	assert.Equal(t, "Jane Doe", got["contact"])
}

func TestCleanFieldsNeverStoresEmpty(t *testing.T) {
	got := CleanFields(map[string]string{"email": "", "phone": "   "})
	for k, v := range got {
		assert.NotEmpty(t, v, "attribute %s", k)
	}
	assert.Empty(t, got)
}
