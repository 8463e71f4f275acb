package form

import (
	"doraform/internal/model"
	"math"
	"testing"
)

func TestAggregateMeansExcludeUnanswered(t *testing.T) {
	qs, cats := threeQuestions()
	scores := Aggregate(map[string]float64{"q1": 1}, nil, qs, cats, model.LocaleES)

	if len(scores) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(scores))
	}
	risk := scores[0]
	if risk.CategoryID != "risk" || risk.Label != "Riesgo" {
		t.Errorf("unexpected first category: %+v", risk)
	}
	if risk.Mean != 1 || risk.Answered != 1 || risk.Total != 2 {
		t.Errorf("risk = %+v, want mean 1 over 1 of 2 answered", risk)
	}
}

func TestAggregateNoDataSentinel(t *testing.T) {
	qs, cats := threeQuestions()
	scores := Aggregate(map[string]float64{"q1": 3, "q2": 2}, nil, qs, cats, model.LocalePT)

	tests := scores[1]
	if tests.HasData() {
		t.Fatalf("tests category should have no data: %+v", tests)
	}
	if tests.Mean != model.NoData || math.IsNaN(tests.Mean) {
		t.Errorf("Mean = %v, want NoData sentinel", tests.Mean)
	}
	if tests.Label != "Testes" {
		t.Errorf("Label = %q, want pt label", tests.Label)
	}
	if scores[0].Mean != 2.5 {
		t.Errorf("risk mean = %v, want 2.5", scores[0].Mean)
	}
}

func TestAggregateCountsObservationsAndSkipsUnknownCategory(t *testing.T) {
	qs, cats := threeQuestions()
	qs = append(qs, model.Question{ID: "orphan", CategoryID: "nowhere"})

	scores := Aggregate(
		map[string]float64{"orphan": 3},
		map[string]string{"q3": "manual tests only", "q1": ""},
		qs, cats, model.LocaleES,
	)
	if scores[1].Observations != 1 {
		t.Errorf("tests observations = %d, want 1", scores[1].Observations)
	}
	if scores[0].Observations != 0 {
		t.Errorf("empty observation should not count, got %d", scores[0].Observations)
	}
	for _, s := range scores {
		if s.HasData() {
			t.Errorf("orphan answer leaked into %q", s.CategoryID)
		}
	}
}

func TestAggregateNoCategories(t *testing.T) {
	qs, _ := threeQuestions()
	if got := Aggregate(map[string]float64{"q1": 1}, nil, qs, nil, model.LocaleES); len(got) != 0 {
		t.Errorf("expected empty aggregate, got %v", got)
	}
}
