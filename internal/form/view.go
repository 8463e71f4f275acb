package form

import (
	"doraform/internal/i18n"
	"doraform/internal/model"
)

// OptionView is one answer choice as shown to the user.
type OptionView struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Selected bool    `json:"selected"`
}

// QuestionView is the current question rendered for the session's locale and identity.
type QuestionView struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	CategoryLabel string       `json:"categoryLabel,omitempty"`
	Options       []OptionView `json:"options"`
	Observation   string       `json:"observation"`
	Answered      bool         `json:"answered"`
}

// View is everything a renderer needs after a transition.
type View struct {
	SessionID    string                `json:"sessionId"`
	Locale       model.Locale          `json:"locale"`
	Title        string                `json:"title"`
	Position     int                   `json:"position"`
	Total        int                   `json:"total"`
	Empty        bool                  `json:"empty"`
	EmptyMessage string                `json:"emptyMessage,omitempty"`
	Question     *QuestionView         `json:"question,omitempty"`
	Progress     float64               `json:"progress"`
	Scores       []model.CategoryScore `json:"scores"`
	Status       Status                `json:"status"`
	Submitting   bool                  `json:"submitting"`
	LastError    string                `json:"lastError,omitempty"`
	IsLast       bool                  `json:"isLast"`
	CanGoBack    bool                  `json:"canGoBack"`
	DraftID      string                `json:"draftId"`
}

// View renders the current state. An empty questionnaire yields Empty=true
// and no question.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID:  s.id,
		Locale:     s.locale,
		Title:      i18n.T(s.locale, i18n.MsgTitle),
		Position:   s.position,
		Total:      len(s.questions),
		Progress:   s.progressLocked(),
		Scores:     Aggregate(s.answers, s.observations, s.questions, s.categories, s.locale),
		Status:     s.status,
		Submitting: s.status == StatusSubmitting,
		LastError:  s.lastError,
		DraftID:    s.draftID,
	}

	q, ok := s.currentLocked()
	if !ok {
		v.Empty = true
		v.EmptyMessage = i18n.T(s.locale, i18n.MsgNoQuestions)
		return v
	}

	v.IsLast = s.position == len(s.questions)-1
	v.CanGoBack = s.position > 0

	answer, answered := s.answers[q.ID]
	qv := &QuestionView{
		ID:          q.ID,
		Text:        s.identity.Expand(q.Text.In(s.locale)),
		Observation: s.observations[q.ID],
		Answered:    answered,
		Options:     make([]OptionView, 0, len(q.Options)),
	}
	for _, c := range s.categories {
		if c.ID == q.CategoryID {
			qv.CategoryLabel = c.Label.In(s.locale)
			break
		}
	}
	for _, o := range q.Options {
		qv.Options = append(qv.Options, OptionView{
			Label:    o.Text.In(s.locale),
			Value:    o.Value,
			Selected: answered && answer == o.Value,
		})
	}
	v.Question = qv
	return v
}
