package model

// NoData is the mean reported for a category without answered questions
const NoData = -1.0

// CategoryScore is the chart-ready summary of one category
type CategoryScore struct {
	CategoryID   string  `json:"categoryId" bson:"categoryId"`
	Label        string  `json:"label" bson:"label"`
	Mean         float64 `json:"mean" bson:"mean"`         // NoData when Answered == 0
	Answered     int     `json:"answered" bson:"answered"` // questions with a score
	Total        int     `json:"total" bson:"total"`       // questions in the category
	Observations int     `json:"observations" bson:"observations"`
}

// HasData reports whether the mean is backed by at least one answer.
func (c CategoryScore) HasData() bool {
	return c.Answered > 0
}
