package model

// Locale selects which localized string field is read from questions, options and messages.
type Locale string

const (
	LocaleES Locale = "es" // Spanish
	LocalePT Locale = "pt" // Portuguese
)

// Locales lists the supported locales in preference order.
var Locales = []Locale{LocaleES, LocalePT}

// Valid reports whether l is one of the supported locales.
func (l Locale) Valid() bool {
	return l == LocaleES || l == LocalePT
}

// LocalizedText holds one string per supported locale
type LocalizedText struct {
	ES string `json:"es" bson:"es" yaml:"es"`
	PT string `json:"pt" bson:"pt" yaml:"pt"`
}

// In returns the text for the given locale, falling back to Spanish when the
// Portuguese field is empty.
func (t LocalizedText) In(l Locale) string {
	if l == LocalePT && t.PT != "" {
		return t.PT
	}
	return t.ES
}

// Option is one selectable answer with its score
type Option struct {
	Text  LocalizedText `json:"text" bson:"text" yaml:"text"`
	Value float64       `json:"value" bson:"value" yaml:"value"`
}

// Question is an immutable scored question. It belongs to exactly one category.
type Question struct {
	ID         string        `json:"id" bson:"id" yaml:"id"`
	CategoryID string        `json:"categoryId" bson:"categoryId" yaml:"category"`
	Text       LocalizedText `json:"text" bson:"text" yaml:"text"`
	Options    []Option      `json:"options" bson:"options" yaml:"options"`
}

// OptionFor returns the option whose score equals value.
func (q Question) OptionFor(value float64) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// Category groups questions for scoring summaries
type Category struct {
	ID    string        `json:"id" bson:"id" yaml:"id"`
	Label LocalizedText `json:"label" bson:"label" yaml:"label"`
}
