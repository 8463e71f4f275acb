package model

import "time"

// Questionnaire is the persistent, versioned set of questions a session walks through
type Questionnaire struct {
	ID         string        `json:"id" bson:"_id,omitempty" yaml:"-"`
	Slug       string        `json:"slug" bson:"slug" yaml:"slug"`
	Version    int           `json:"version" bson:"version" yaml:"version"`
	Title      LocalizedText `json:"title" bson:"title" yaml:"title"`
	Active     bool          `json:"active" bson:"active" yaml:"active"`
	Categories []Category    `json:"categories" bson:"categories" yaml:"categories"`
	Questions  []Question    `json:"questions" bson:"questions" yaml:"questions"`
	CreatedAt  time.Time     `json:"createdAt" bson:"createdAt" yaml:"-"`
	UpdatedAt  time.Time     `json:"updatedAt" bson:"updatedAt" yaml:"-"`
}
