package resolver

import "github.com/vk/reportgrid/internal/model"

func i18nOverride(e model.Entry, language string) string {
	names := e.Object(model.FieldI18n)
	if names == nil {
		return ""
	}
	s, _ := names[language].(string)
	return s
}

func informationString(e model.Entry, field string) (string, bool) {
	info := e.Object(model.FieldInformations)
	if info == nil {
		return "", false
	}
	s, ok := info[field].(string)
	return s, ok
}

// DisplayName returns the language override, else the canonical name.
func DisplayName(e model.Entry, language string) string {
	if name := i18nOverride(e, language); name != "" {
		return name
	}
	return e.String(model.FieldCommonName)
}

// ShortName returns the language override, else the nickname, else the
// family name, else the display name.
func ShortName(e model.Entry, language string) string {
	if name := i18nOverride(e, language); name != "" {
		return name
	}
	if known, _ := informationString(e, model.FieldKnown); known != "" {
		return known
	}
	if last, ok := informationString(e, model.FieldLastName); ok && last != "" {
		return last
	}
	return DisplayName(e, language)
}

// MultilineName returns the explicit multiline override, else first and
// last name when both are known, else the display name on the last line.
func MultilineName(e model.Entry, language string) any {
	if m, ok := e[model.FieldMultiline]; ok && m != nil {
		return m
	}
	first, hasFirst := informationString(e, model.FieldFirstName)
	last, hasLast := informationString(e, model.FieldLastName)
	if hasFirst && hasLast {
		return map[string]any{model.FieldFirstName: first, model.FieldLastName: last}
	}
	return map[string]any{model.FieldFirstName: "", model.FieldLastName: DisplayName(e, language)}
}

// Decorate sets the derived display fields of an entity entry.
func Decorate(e model.Entry, language string) {
	e[model.FieldDisplayName] = DisplayName(e, language)
	e[model.FieldShortName] = ShortName(e, language)
	e[model.FieldMultilineName] = MultilineName(e, language)
}
