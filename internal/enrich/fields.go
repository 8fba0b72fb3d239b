package enrich

import (
	"net/url"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// notFoundSentinels are lowercased values the extraction model emits when it
// has no data. They are filtered out, never stored.
var notFoundSentinels = map[string]struct{}{
	"not found":     {},
	"not available": {},
	"not provided":  {},
	"n/a":           {},
	"na":            {},
	"none":          {},
	"null":          {},
	"unknown":       {},
	"-":             {},
}

// fieldRule declares per-attribute cleaning: normalize runs first, then
// valid decides whether the value is kept. Attributes without a rule keep
// any non-sentinel value.
type fieldRule struct {
	normalize func(string) string
	valid     func(string) bool
}

var fieldRules = map[string]fieldRule{
	"email":    {valid: func(v string) bool { return strings.Contains(v, "@") }},
	"website":  {normalize: ensureScheme, valid: isAbsoluteURL},
	"linkedin": {normalize: ensureScheme, valid: isAbsoluteURL},
	"twitter":  {normalize: ensureScheme, valid: isAbsoluteURL},
	"facebook": {normalize: ensureScheme, valid: isAbsoluteURL},
}

// CleanFields applies the attribute rules to a raw key→value map and returns
// only the values that survive: trimmed, non-empty, non-sentinel, and valid
// per their rule. Keys outside the tracked attribute set are ignored.
func CleanFields(raw map[string]string) model.ContactFields {
	out := model.ContactFields{}
	for _, attr := range model.Attributes {
		v, ok := raw[attr]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, sentinel := notFoundSentinels[strings.ToLower(v)]; sentinel {
			continue
		}

		rule := fieldRules[attr]
		if rule.normalize != nil {
			v = rule.normalize(v)
		}
		if rule.valid != nil && !rule.valid(v) {
			continue
		}
		out[attr] = v
	}
	return out
}

// ensureScheme prepends https:// to values that look like bare domains.
// Values that cannot be a URL are left as-is for the validator to drop.
func ensureScheme(v string) string {
	if strings.Contains(v, "://") {
		return v
	}
	if strings.ContainsAny(v, " \t") || !strings.Contains(v, ".") {
		return v
	}
	return "https://" + v
}

// isAbsoluteURL reports whether v parses as a URL with both scheme and host.
func isAbsoluteURL(v string) bool {
	u, err := url.Parse(v)
	return err == nil && u.Scheme != "" && u.Host != ""
}
