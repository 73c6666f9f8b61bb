package evaluation

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeightedScore returns score*weight. Negative weights and non-finite results yield 0.
func WeightedScore(score, weight float64) float64 {
	if weight < 0 {
		return 0
	}
	value := score * weight
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// ConvertedValue is the share of the evaluation a task contributes: weight*selfScore/100.
func ConvertedValue(weight, selfScore float64) float64 {
	return WeightedScore(selfScore, weight) / 100
}

// TotalScore sums converted values and rounds half-up to 2 decimal places.
func TotalScore(tasks []Task) float64 {
	total := decimal.Zero
	for _, task := range tasks {
		value := ConvertedValue(task.Weight, task.SelfScore)
		if value == 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(value))
	}
	return total.Round(2).InexactFloat64()
}

func Rank(total float64) string {
	switch {
	case total >= 90:
		return RankA
	case total >= 75:
		return RankB
	case total >= 50:
		return RankC
	default:
		return RankD
	}
}

// NormalizeTask applies input coercions and recomputes derived fields.
func NormalizeTask(task Task) Task {
	task.ID = strings.TrimSpace(task.ID)
	task.Name = strings.TrimSpace(task.Name)
	task.Category = strings.ToUpper(strings.TrimSpace(task.Category))
	if task.Category == "" {
		task.Category = DefaultCategory
	}
	task.Weight = finiteOrZero(task.Weight)
	if task.Weight < 0 {
		task.Weight = 0
	}
	task.SelfScore = finiteOrZero(task.SelfScore)
	task.ManagerScore = finiteOrZero(task.ManagerScore)
	task.TargetQuantity = finiteOrZero(task.TargetQuantity)
	task.ActualQuantity = finiteOrZero(task.ActualQuantity)
	task.UnitPrice = finiteOrZero(task.UnitPrice)
	task.StartDate = strings.TrimSpace(task.StartDate)
	task.Deadline = strings.TrimSpace(task.Deadline)
	task.ActualFinish = strings.TrimSpace(task.ActualFinish)

	subTasks := make([]SubTask, 0, len(task.SubTasks))
	for _, sub := range task.SubTasks {
		sub.ID = strings.TrimSpace(sub.ID)
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		}
		subTasks = append(subTasks, sub)
	}
	task.SubTasks = subTasks
	task.ConvertedValue = decimal.NewFromFloat(ConvertedValue(task.Weight, task.SelfScore)).Round(2).InexactFloat64()
	return task
}

func NormalizeTasks(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, NormalizeTask(task))
	}
	return out
}

func finiteOrZero(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
