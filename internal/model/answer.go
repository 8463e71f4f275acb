package model

import "time"

// Draft is a resumable snapshot of an unfinished questionnaire session
type Draft struct {
	ID              string `json:"id" bson:"_id,omitempty"`
	QuestionnaireID string `json:"questionnaireId" bson:"questionnaireId"`
	Identity        `bson:",inline"`
	Locale          Locale             `json:"locale" bson:"locale"`
	Answers         map[string]float64 `json:"answers" bson:"answers"`
	Observations    map[string]string  `json:"observations" bson:"observations"`
	Date            time.Time          `json:"date" bson:"date"`

	LastQuestionIndex int  `json:"lastQuestionIndex" bson:"lastQuestionIndex"`
	IsCompleted       bool `json:"isCompleted" bson:"isCompleted"`
}

// SubmissionRecord is the finalized payload handed to document delivery.
// It is built once per submission attempt and never mutated afterwards.
type SubmissionRecord struct {
	ID              string `json:"id" bson:"_id,omitempty"`
	QuestionnaireID string `json:"questionnaireId" bson:"questionnaireId"`
	DraftID         string `json:"draftId,omitempty" bson:"draftId,omitempty"` // draft the session saved to or resumed from
	Identity        `bson:",inline"`
	Locale          Locale             `json:"locale" bson:"locale"`
	Answers         map[string]float64 `json:"answers" bson:"answers"`
	Observations    map[string]string  `json:"observations" bson:"observations"`
	Scores          []CategoryScore    `json:"scores" bson:"scores"`
	Date            time.Time          `json:"date" bson:"date"`
}
