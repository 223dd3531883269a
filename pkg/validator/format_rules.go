package validator

import (
	"net/url"
	"strings"
)

// ValidURL validates an absolute URL with a scheme and host.
func ValidURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.ParseRequestURI(strings.TrimSpace(value))
			return err == nil && u.Scheme != "" && u.Host != ""
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a valid URL",
			TranslationKey: "validation.url",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// ValidURLOrPath accepts an absolute URL, a custom-scheme deep link or a
// rooted path. Template placeholders are allowed anywhere in the path.
func ValidURLOrPath(field, value string) Rule {
	return Rule{
		Check: func() bool {
			v := strings.TrimSpace(value)
			if v == "" || strings.ContainsAny(v, " \t\n") {
				return false
			}
			if strings.HasPrefix(v, "/") {
				return !strings.HasPrefix(v, "//")
			}
			u, err := url.Parse(v)
			return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a URL or an absolute path",
			TranslationKey: "validation.url_or_path",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
