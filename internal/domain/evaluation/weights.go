package evaluation

import "github.com/shopspring/decimal"

var (
	weightTarget    = decimal.NewFromInt(WeightTarget)
	weightTolerance = decimal.NewFromFloat(WeightTolerance)
)

func TotalWeight(tasks []Task) float64 {
	return sumWeights(tasks).InexactFloat64()
}

// ValidateWeights accepts an empty list; otherwise weights must total 100 within 0.1.
func ValidateWeights(tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	total := sumWeights(tasks)
	if total.Sub(weightTarget).Abs().GreaterThan(weightTolerance) {
		return &WeightError{Total: total.InexactFloat64()}
	}
	return nil
}

// CheckWeights is the dry-run used by the confirmation step.
func CheckWeights(tasks []Task) WeightCheck {
	normalized := NormalizeTasks(tasks)
	total := TotalScore(normalized)
	return WeightCheck{
		TotalWeight: TotalWeight(normalized),
		Valid:       ValidateWeights(normalized) == nil,
		TotalScore:  total,
		Rank:        Rank(total),
	}
}

func sumWeights(tasks []Task) decimal.Decimal {
	total := decimal.Zero
	for _, task := range tasks {
		weight := finiteOrZero(task.Weight)
		if weight < 0 {
			weight = 0
		}
		total = total.Add(decimal.NewFromFloat(weight))
	}
	return total
}
