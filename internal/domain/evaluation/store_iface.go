package evaluation

import "context"

type StoreAPI interface {
	// FindByPeriod returns nil, nil when the owner has no evaluation for the period.
	FindByPeriod(ctx context.Context, userID string, month, year int) (*Evaluation, error)
	FindByID(ctx context.Context, evaluationID string) (Evaluation, error)
	// SaveEvaluation locks the (user, month, year) row, hands the current state
	// (nil when absent, tasks loaded) to decide, and persists its result.
	SaveEvaluation(ctx context.Context, userID string, month, year int, decide func(current *Evaluation) (EvaluationWrite, error)) (Evaluation, error)
	// ReviewEvaluation locks the evaluation row and appends the decided review.
	ReviewEvaluation(ctx context.Context, evaluationID string, decide func(current Evaluation) (ReviewWrite, error)) (Evaluation, error)
	ListByManager(ctx context.Context, managerID string) ([]Evaluation, error)
	ListAll(ctx context.Context, filter ListFilter) ([]Evaluation, error)
}
