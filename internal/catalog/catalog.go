// Package catalog loads questionnaire definitions from YAML. A DORA
// questionnaire is embedded and used when no catalog file is configured.
package catalog

import (
	"doraform/internal/model"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed dora.yaml
var doraYAML []byte

var ErrInvalid = errors.New("invalid questionnaire")

// Default returns the embedded DORA questionnaire.
func Default() (*model.Questionnaire, error) {
	return Parse(doraYAML)
}

// Load reads a questionnaire from path, or the embedded default when path is empty.
func Load(path string) (*model.Questionnaire, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML questionnaire.
func Parse(data []byte) (*model.Questionnaire, error) {
	var q model.Questionnaire
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := Validate(&q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Validate checks the structural rules a session relies on: unique ids, every
// question in a declared category, Spanish text present and distinct option
// scores. An empty question list is valid.
func Validate(q *model.Questionnaire) error {
	if q.Slug == "" {
		return fmt.Errorf("%w: missing slug", ErrInvalid)
	}

	cats := make(map[string]bool, len(q.Categories))
	for _, c := range q.Categories {
		if c.ID == "" {
			return fmt.Errorf("%w: category without id", ErrInvalid)
		}
		if cats[c.ID] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalid, c.ID)
		}
		if c.Label.ES == "" {
			return fmt.Errorf("%w: category %q has no es label", ErrInvalid, c.ID)
		}
		cats[c.ID] = true
	}

	seen := make(map[string]bool, len(q.Questions))
	for i, question := range q.Questions {
		switch {
		case question.ID == "":
			return fmt.Errorf("%w: question %d has no id", ErrInvalid, i)
		case seen[question.ID]:
			return fmt.Errorf("%w: duplicate question %q", ErrInvalid, question.ID)
		case !cats[question.CategoryID]:
			return fmt.Errorf("%w: question %q references unknown category %q", ErrInvalid, question.ID, question.CategoryID)
		case question.Text.ES == "":
			return fmt.Errorf("%w: question %q has no es text", ErrInvalid, question.ID)
		case len(question.Options) == 0:
			return fmt.Errorf("%w: question %q has no options", ErrInvalid, question.ID)
		}
		seen[question.ID] = true

		values := make(map[float64]bool, len(question.Options))
		for _, o := range question.Options {
			if values[o.Value] {
				return fmt.Errorf("%w: question %q repeats score %v", ErrInvalid, question.ID, o.Value)
			}
			values[o.Value] = true
		}
	}
	return nil
}
