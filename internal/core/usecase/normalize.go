package usecase

import (
	"strings"

	"analytics-service/internal/core/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeCity trims and title-cases: "  NEW york " -> "New York".
func normalizeCity(city string) string {
	city = strings.Join(strings.Fields(city), " ")
	return cases.Title(language.English).String(city)
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func normalizePropertyType(t domain.PropertyType) domain.PropertyType {
	t = domain.PropertyType(strings.ToLower(strings.TrimSpace(string(t))))
	if t == "" || !t.IsValid() {
		return domain.PropertyTypeUnknown
	}
	return t
}
