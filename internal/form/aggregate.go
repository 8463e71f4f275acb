package form

import "doraform/internal/model"

// Aggregate summarizes answers per category, in category order. The mean only
// covers answered questions; a category with none reports model.NoData.
// Questions that reference an unknown category are left out.
func Aggregate(
	answers map[string]float64,
	observations map[string]string,
	questions []model.Question,
	categories []model.Category,
	locale model.Locale,
) []model.CategoryScore {
	pos := make(map[string]int, len(categories))
	scores := make([]model.CategoryScore, len(categories))
	sums := make([]float64, len(categories))
	for i, c := range categories {
		pos[c.ID] = i
		scores[i] = model.CategoryScore{
			CategoryID: c.ID,
			Label:      c.Label.In(locale),
			Mean:       model.NoData,
		}
	}

	for _, q := range questions {
		i, ok := pos[q.CategoryID]
		if !ok {
			continue
		}
		scores[i].Total++
		if v, ok := answers[q.ID]; ok {
			scores[i].Answered++
			sums[i] += v
		}
		if obs, ok := observations[q.ID]; ok && obs != "" {
			scores[i].Observations++
		}
	}

	for i := range scores {
		if scores[i].Answered > 0 {
			scores[i].Mean = sums[i] / float64(scores[i].Answered)
		}
	}
	return scores
}
