package evaluation

import "time"

type SubTask struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Result string `json:"result"`
}

type Task struct {
	ID                string    `json:"id"`
	Category          string    `json:"category"`
	Name              string    `json:"name"`
	Weight            float64   `json:"weight"`
	StartDate         string    `json:"startDate"`
	Deadline          string    `json:"deadline"`
	ActualFinish      string    `json:"actualFinish"`
	Collaboration     string    `json:"collaboration"`
	ResultDescription string    `json:"resultDescription"`
	SubTasks          []SubTask `json:"subTasks"`
	SelfScore         float64   `json:"selfScore"`
	ManagerScore      float64   `json:"managerScore"`
	ConvertedValue    float64   `json:"convertedValue"`
	TargetQuantity    float64   `json:"targetQuantity"`
	ActualQuantity    float64   `json:"actualQuantity"`
	UnitPrice         float64   `json:"unitPrice"`
	Note              string    `json:"note"`
}

type ManagerReview struct {
	ID           string    `json:"id"`
	EvaluationID string    `json:"evaluationId"`
	ManagerID    string    `json:"managerId"`
	ManagerName  string    `json:"managerName"`
	ManagerRole  string    `json:"managerRole"`
	Score        float64   `json:"score"`
	Comment      string    `json:"comment"`
	Decision     string    `json:"decision"`
	ReviewedAt   time.Time `json:"reviewedAt"`
}

type Evaluation struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	Status         string          `json:"status"`
	Tasks          []Task          `json:"tasks"`
	Reviews        []ManagerReview `json:"reviews"`
	TotalScore     float64         `json:"totalScore"`
	Rank           string          `json:"rank"`
	Version        int             `json:"version"`
	SubmittedAt    *time.Time      `json:"submittedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	UserName       string          `json:"userName,omitempty"`
	UserEmail      string          `json:"userEmail,omitempty"`
	DepartmentName string          `json:"departmentName,omitempty"`
	ManagerID      string          `json:"managerId,omitempty"`
}

// Actor is the authenticated caller of every workflow operation.
type Actor struct {
	ID   string
	Role string
}

type SaveInput struct {
	Month   int
	Year    int
	Tasks   []Task
	Status  string
	Version *int
}

type SaveResult struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	PreviousStatus string  `json:"-"`
	Version        int     `json:"version"`
	TotalScore     float64 `json:"totalScore"`
	Rank           string  `json:"rank"`
	ManagerID      string  `json:"-"`
}

// Submitted reports whether this save moved the evaluation into SUBMITTED.
func (r SaveResult) Submitted() bool {
	return r.Status == StatusSubmitted && r.PreviousStatus != StatusSubmitted
}

type ReviewInput struct {
	EvaluationID string
	Decision     string
	Scores       map[string]float64
	Comment      string
}

type ReviewResult struct {
	EvaluationID string  `json:"evaluationId"`
	ReviewID     string  `json:"reviewId"`
	Status       string  `json:"status"`
	Score        float64 `json:"score"`
	Version      int     `json:"version"`
	OwnerID      string  `json:"-"`
	Month        int     `json:"-"`
	Year         int     `json:"-"`
}

type ListFilter struct {
	Month  int
	Year   int
	Status string
	Limit  int
	Offset int
}

type WeightCheck struct {
	TotalWeight float64 `json:"totalWeight"`
	Valid       bool    `json:"valid"`
	TotalScore  float64 `json:"totalScore"`
	Rank        string  `json:"rank"`
}

type Summary struct {
	Month            int            `json:"month,omitempty"`
	Year             int            `json:"year,omitempty"`
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"byStatus"`
	RankDistribution map[string]int `json:"rankDistribution"`
	AverageScore     float64        `json:"averageScore"`
	ApprovalRate     float64        `json:"approvalRate"`
}

// EvaluationWrite is what a save decides to persist.
type EvaluationWrite struct {
	Status      string
	Tasks       []Task
	KeepTasks   bool
	TotalScore  float64
	Rank        string
	// SubmittedAt is stored as given; nil clears it.
	SubmittedAt *time.Time
}

// ReviewWrite is what a manager decision decides to persist.
type ReviewWrite struct {
	Status     string
	Review     ManagerReview
	TaskScores map[string]float64

	// ClearSubmittedAt is set when the decision sends the evaluation back to DRAFT.
	ClearSubmittedAt bool
}
