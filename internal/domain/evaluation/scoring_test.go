package evaluation

import (
	"errors"
	"math"
	"testing"
)

func TestRankBoundaries(t *testing.T) {
	cases := []struct {
		total float64
		want  string
	}{
		{100, RankA},
		{90, RankA},
		{89.999, RankB},
		{75, RankB},
		{74.99, RankC},
		{50, RankC},
		{49.999, RankD},
		{0, RankD},
		{-5, RankD},
	}
	for _, tc := range cases {
		if got := Rank(tc.total); got != tc.want {
			t.Fatalf("Rank(%v) = %s, want %s", tc.total, got, tc.want)
		}
	}
}

func TestTotalScore(t *testing.T) {
	if got := TotalScore(nil); got != 0 {
		t.Fatalf("expected 0 for no tasks, got %v", got)
	}
	tasks := []Task{
		{Weight: 60, SelfScore: 90},
		{Weight: 40, SelfScore: 80},
	}
	if got := TotalScore(tasks); got != 86 {
		t.Fatalf("expected 86, got %v", got)
	}

	tasks = []Task{
		{Weight: 33.33, SelfScore: 100},
		{Weight: 33.33, SelfScore: 100},
		{Weight: 33.34, SelfScore: 100},
	}
	if got := TotalScore(tasks); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestWeightedScoreIgnoresInvalidInput(t *testing.T) {
	if got := WeightedScore(80, -10); got != 0 {
		t.Fatalf("negative weight should score 0, got %v", got)
	}
	if got := WeightedScore(math.NaN(), 10); got != 0 {
		t.Fatalf("NaN score should yield 0, got %v", got)
	}
	if got := WeightedScore(math.Inf(1), 10); got != 0 {
		t.Fatalf("infinite score should yield 0, got %v", got)
	}
	if got := WeightedScore(50, 20); got != 1000 {
		t.Fatalf("expected 1000, got %v", got)
	}
}

func TestNormalizeTask(t *testing.T) {
	task := NormalizeTask(Task{
		Name:      "  Report  ",
		Category:  " ii ",
		Weight:    -3,
		SelfScore: math.NaN(),
		SubTasks:  []SubTask{{Name: "draft"}, {ID: "keep", Name: "final"}},
	})
	if task.Name != "Report" {
		t.Fatalf("expected trimmed name, got %q", task.Name)
	}
	if task.Category != "II" {
		t.Fatalf("expected upper-cased category, got %q", task.Category)
	}
	if task.Weight != 0 || task.SelfScore != 0 {
		t.Fatalf("expected clamped numbers, got weight=%v self=%v", task.Weight, task.SelfScore)
	}
	if task.SubTasks[0].ID == "" {
		t.Fatal("expected generated sub-task id")
	}
	if task.SubTasks[1].ID != "keep" {
		t.Fatalf("expected existing sub-task id preserved, got %q", task.SubTasks[1].ID)
	}

	task = NormalizeTask(Task{Weight: 25, SelfScore: 70})
	if task.Category != DefaultCategory {
		t.Fatalf("expected default category, got %q", task.Category)
	}
	if task.ConvertedValue != 17.5 {
		t.Fatalf("expected converted value 17.5, got %v", task.ConvertedValue)
	}
	if task.SubTasks == nil {
		t.Fatal("expected non-nil sub-task slice")
	}
}

func TestValidateWeights(t *testing.T) {
	if err := ValidateWeights(nil); err != nil {
		t.Fatalf("empty task list should be valid: %v", err)
	}
	if err := ValidateWeights([]Task{{Weight: 60}, {Weight: 40.05}}); err != nil {
		t.Fatalf("total within tolerance should be valid: %v", err)
	}

	err := ValidateWeights([]Task{{Weight: 60}, {Weight: 30}})
	if !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}
	var weightErr *WeightError
	if !errors.As(err, &weightErr) || weightErr.Total != 90 {
		t.Fatalf("expected weight error with total 90, got %v", err)
	}

	if err := ValidateWeights([]Task{{Weight: 100.2}}); err == nil {
		t.Fatal("expected error outside tolerance")
	}
}

func TestCheckWeights(t *testing.T) {
	check := CheckWeights([]Task{{Weight: 60, SelfScore: 90}, {Weight: 40, SelfScore: 80}})
	if !check.Valid || check.TotalWeight != 100 {
		t.Fatalf("expected valid 100 total, got %+v", check)
	}
	if check.TotalScore != 86 || check.Rank != RankB {
		t.Fatalf("expected 86/B, got %+v", check)
	}

	check = CheckWeights([]Task{{Weight: 50, SelfScore: 100}})
	if check.Valid {
		t.Fatalf("expected invalid check, got %+v", check)
	}
}
