package evaluationhandler

import (
	"fmt"

	"kpi/internal/domain/evaluation"
	"kpi/internal/transport/http/shared"
)

type subTaskPayload struct {
	ID     string `json:"id" validate:"omitempty,max=64"`
	Name   string `json:"name" validate:"max=500"`
	Result string `json:"result" validate:"max=2000"`
}

type taskPayload struct {
	ID                string           `json:"id" validate:"omitempty,max=64"`
	Category          string           `json:"category" validate:"omitempty,oneof=I II III IV V"`
	Name              string           `json:"name" validate:"max=500"`
	Weight            float64          `json:"weight"`
	StartDate         string           `json:"startDate"`
	Deadline          string           `json:"deadline"`
	ActualFinish      string           `json:"actualFinish"`
	Collaboration     string           `json:"collaboration" validate:"max=1000"`
	ResultDescription string           `json:"resultDescription" validate:"max=5000"`
	SubTasks          []subTaskPayload `json:"subTasks" validate:"max=100,dive"`
	SelfScore         float64          `json:"selfScore" validate:"gte=0,lte=100"`
	TargetQuantity    float64          `json:"targetQuantity" validate:"gte=0"`
	ActualQuantity    float64          `json:"actualQuantity" validate:"gte=0"`
	UnitPrice         float64          `json:"unitPrice" validate:"gte=0"`
	Note              string           `json:"note" validate:"max=2000"`
}

type savePayload struct {
	Month   int           `json:"month" validate:"gte=1,lte=12"`
	Year    int           `json:"year" validate:"gte=2000,lte=2100"`
	Tasks   []taskPayload `json:"tasks" validate:"max=200,dive"`
	Status  string        `json:"status" validate:"omitempty,oneof=DRAFT SUBMITTED"`
	Version *int          `json:"version" validate:"omitempty,gte=0"`
}

type submitPayload struct {
	Month   int  `json:"month" validate:"gte=1,lte=12"`
	Year    int  `json:"year" validate:"gte=2000,lte=2100"`
	Version *int `json:"version" validate:"omitempty,gte=0"`
}

type validatePayload struct {
	Tasks []taskPayload `json:"tasks" validate:"max=200,dive"`
}

type reviewPayload struct {
	EvaluationID string             `json:"evaluationId" validate:"required,uuid"`
	Decision     string             `json:"decision" validate:"required,oneof=APPROVE REVISE REJECT REVIEW"`
	Scores       map[string]float64 `json:"scores" validate:"dive,gte=0,lte=100"`
	Comment      string             `json:"comment" validate:"max=5000"`
}

// validateTasks adds date issues the struct tags cannot express: each date
// must be YYYY-MM-DD, and neither deadline nor actualFinish may precede startDate.
func validateTasks(v *shared.Validator, tasks []taskPayload) {
	for i, task := range tasks {
		startField := fmt.Sprintf("tasks[%d].startDate", i)
		deadlineField := fmt.Sprintf("tasks[%d].deadline", i)
		finishField := fmt.Sprintf("tasks[%d].actualFinish", i)

		start, _ := v.OptionalDay(startField, task.StartDate)
		deadline, _ := v.OptionalDay(deadlineField, task.Deadline)
		finish, _ := v.OptionalDay(finishField, task.ActualFinish)
		v.NotBefore(startField, start, deadlineField, deadline)
		v.NotBefore(startField, start, finishField, finish)
	}
}

func toTasks(in []taskPayload) []evaluation.Task {
	out := make([]evaluation.Task, 0, len(in))
	for _, p := range in {
		subTasks := make([]evaluation.SubTask, 0, len(p.SubTasks))
		for _, st := range p.SubTasks {
			subTasks = append(subTasks, evaluation.SubTask{ID: st.ID, Name: st.Name, Result: st.Result})
		}
		out = append(out, evaluation.Task{
			ID:                p.ID,
			Category:          p.Category,
			Name:              p.Name,
			Weight:            p.Weight,
			StartDate:         p.StartDate,
			Deadline:          p.Deadline,
			ActualFinish:      p.ActualFinish,
			Collaboration:     p.Collaboration,
			ResultDescription: p.ResultDescription,
			SubTasks:          subTasks,
			SelfScore:         p.SelfScore,
			TargetQuantity:    p.TargetQuantity,
			ActualQuantity:    p.ActualQuantity,
			UnitPrice:         p.UnitPrice,
			Note:              p.Note,
		})
	}
	return out
}
