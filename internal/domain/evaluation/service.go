package evaluation

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kpi/internal/domain/auth"
)

type Service struct {
	store  StoreAPI
	policy WorkflowPolicy
	now    func() time.Time
}

func NewService(store StoreAPI, policy WorkflowPolicy) *Service {
	return &Service{store: store, policy: policy, now: time.Now}
}

func (s *Service) Policy() WorkflowPolicy {
	return s.policy
}

// Get returns nil without error when no evaluation exists for the period.
func (s *Service) Get(ctx context.Context, actor Actor, month, year int) (*Evaluation, error) {
	if actor.ID == "" {
		return nil, ErrUnauthorized
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	return s.store.FindByPeriod(ctx, actor.ID, month, year)
}

func (s *Service) Save(ctx context.Context, actor Actor, in SaveInput) (SaveResult, error) {
	if err := s.checkSelfEvaluate(actor); err != nil {
		return SaveResult{}, err
	}
	if err := validatePeriod(in.Month, in.Year); err != nil {
		return SaveResult{}, err
	}
	tasks := NormalizeTasks(in.Tasks)

	var previous string
	ev, err := s.store.SaveEvaluation(ctx, actor.ID, in.Month, in.Year, func(current *Evaluation) (EvaluationWrite, error) {
		previous = ""
		if err := checkVersion(current, in.Version); err != nil {
			return EvaluationWrite{}, err
		}
		if current != nil {
			if !CanEdit(actor, *current) {
				return EvaluationWrite{}, ErrForbidden
			}
			previous = current.Status
		}
		next, err := s.policy.NextOwnerStatus(previous, in.Status)
		if err != nil {
			return EvaluationWrite{}, err
		}
		return s.buildWrite(current, previous, next, tasks)
	})
	if err != nil {
		return SaveResult{}, err
	}
	return toSaveResult(ev, previous), nil
}

// Submit moves the stored evaluation to SUBMITTED, keeping its tasks.
func (s *Service) Submit(ctx context.Context, actor Actor, month, year int, version *int) (SaveResult, error) {
	if err := s.checkSelfEvaluate(actor); err != nil {
		return SaveResult{}, err
	}
	if err := validatePeriod(month, year); err != nil {
		return SaveResult{}, err
	}

	var previous string
	ev, err := s.store.SaveEvaluation(ctx, actor.ID, month, year, func(current *Evaluation) (EvaluationWrite, error) {
		if current == nil {
			return EvaluationWrite{}, ErrNotFound
		}
		if err := checkVersion(current, version); err != nil {
			return EvaluationWrite{}, err
		}
		if !CanEdit(actor, *current) {
			return EvaluationWrite{}, ErrForbidden
		}
		previous = current.Status
		next, err := s.policy.NextOwnerStatus(previous, StatusSubmitted)
		if err != nil {
			return EvaluationWrite{}, err
		}
		write, err := s.buildWrite(current, previous, next, current.Tasks)
		if err != nil {
			return EvaluationWrite{}, err
		}
		write.KeepTasks = true
		return write, nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	return toSaveResult(ev, previous), nil
}

func (s *Service) buildWrite(current *Evaluation, previous, next string, tasks []Task) (EvaluationWrite, error) {
	if next == StatusSubmitted {
		if err := ValidateWeights(tasks); err != nil {
			return EvaluationWrite{}, err
		}
	}
	total := TotalScore(tasks)
	write := EvaluationWrite{
		Status:     next,
		Tasks:      tasks,
		TotalScore: total,
		Rank:       Rank(total),
	}
	switch {
	case next == StatusSubmitted && previous != StatusSubmitted:
		now := s.now().UTC()
		write.SubmittedAt = &now
	case next == StatusSubmitted && current != nil:
		write.SubmittedAt = current.SubmittedAt
	}
	return write, nil
}

func (s *Service) ListSubordinates(ctx context.Context, actor Actor) ([]Evaluation, error) {
	if actor.ID == "" {
		return nil, ErrUnauthorized
	}
	if !auth.CapabilitiesFor(actor.Role).ReviewSubordinates {
		return nil, ErrForbidden
	}
	items, err := s.store.ListByManager(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Evaluation{}
	}
	return items, nil
}

func (s *Service) Detail(ctx context.Context, actor Actor, evaluationID string) (Evaluation, error) {
	if actor.ID == "" {
		return Evaluation{}, ErrUnauthorized
	}
	ev, err := s.store.FindByID(ctx, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	if !CanView(actor, ev) {
		return Evaluation{}, ErrForbidden
	}
	return ev, nil
}

// Review appends a ManagerReview whose score is the sum of the per-task scores.
func (s *Service) Review(ctx context.Context, actor Actor, in ReviewInput) (ReviewResult, error) {
	if actor.ID == "" {
		return ReviewResult{}, ErrUnauthorized
	}
	decision := strings.ToUpper(strings.TrimSpace(in.Decision))
	if !validDecision(decision) {
		return ReviewResult{}, ErrInvalidDecision
	}
	if !auth.CapabilitiesFor(actor.Role).ReviewSubordinates {
		return ReviewResult{}, ErrForbidden
	}
	aggregate, err := sumScores(in.Scores)
	if err != nil {
		return ReviewResult{}, err
	}

	ev, err := s.store.ReviewEvaluation(ctx, in.EvaluationID, func(current Evaluation) (ReviewWrite, error) {
		if !CanReview(actor, current) {
			return ReviewWrite{}, ErrForbidden
		}
		next, err := ApplyDecision(current.Status, decision)
		if err != nil {
			return ReviewWrite{}, err
		}
		known := make(map[string]struct{}, len(current.Tasks))
		for _, task := range current.Tasks {
			known[task.ID] = struct{}{}
		}
		for taskID := range in.Scores {
			if _, ok := known[taskID]; !ok {
				return ReviewWrite{}, ErrUnknownTask
			}
		}
		return ReviewWrite{
			Status: next,
			Review: ManagerReview{
				EvaluationID: current.ID,
				ManagerID:    actor.ID,
				ManagerRole:  actor.Role,
				Score:        aggregate,
				Comment:      strings.TrimSpace(in.Comment),
				Decision:     decision,
				ReviewedAt:   s.now().UTC(),
			},
			TaskScores:       in.Scores,
			ClearSubmittedAt: next == StatusDraft,
		}, nil
	})
	if err != nil {
		return ReviewResult{}, err
	}

	result := ReviewResult{
		EvaluationID: ev.ID,
		Status:       ev.Status,
		Score:        aggregate,
		Version:      ev.Version,
		OwnerID:      ev.UserID,
		Month:        ev.Month,
		Year:         ev.Year,
	}
	if n := len(ev.Reviews); n > 0 {
		result.ReviewID = ev.Reviews[n-1].ID
	}
	return result, nil
}

func (s *Service) ListAll(ctx context.Context, actor Actor, filter ListFilter) ([]Evaluation, error) {
	if actor.ID == "" {
		return nil, ErrUnauthorized
	}
	if !auth.CapabilitiesFor(actor.Role).ViewAll {
		return nil, ErrForbidden
	}
	if filter.Status != "" {
		filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
		if !validStatus(filter.Status) {
			return nil, ErrInvalidState
		}
	}
	items, err := s.store.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Evaluation{}
	}
	return items, nil
}

func (s *Service) Summary(ctx context.Context, actor Actor, month, year int) (Summary, error) {
	items, err := s.ListAll(ctx, actor, ListFilter{Month: month, Year: year})
	if err != nil {
		return Summary{}, err
	}
	summary := buildSummary(items)
	summary.Month = month
	summary.Year = year
	return summary, nil
}

func (s *Service) checkSelfEvaluate(actor Actor) error {
	if actor.ID == "" {
		return ErrUnauthorized
	}
	if !auth.CapabilitiesFor(actor.Role).SelfEvaluate {
		return ErrForbidden
	}
	return nil
}

func checkVersion(current *Evaluation, expected *int) error {
	if expected == nil {
		return nil
	}
	if current == nil {
		if *expected != 0 {
			return ErrConflict
		}
		return nil
	}
	if current.Version != *expected {
		return ErrConflict
	}
	return nil
}

func toSaveResult(ev Evaluation, previous string) SaveResult {
	return SaveResult{
		ID:             ev.ID,
		Status:         ev.Status,
		PreviousStatus: previous,
		Version:        ev.Version,
		TotalScore:     ev.TotalScore,
		Rank:           ev.Rank,
		ManagerID:      ev.ManagerID,
	}
}

func sumScores(scores map[string]float64) (float64, error) {
	total := decimal.Zero
	for _, score := range scores {
		if math.IsNaN(score) || score < 0 || score > 100 {
			return 0, ErrInvalidScore
		}
		total = total.Add(decimal.NewFromFloat(score))
	}
	return total.Round(2).InexactFloat64(), nil
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return ErrInvalidPeriod
	}
	return nil
}

func validDecision(decision string) bool {
	for _, candidate := range Decisions {
		if candidate == decision {
			return true
		}
	}
	return false
}

func validStatus(status string) bool {
	for _, candidate := range Statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// IsClientError reports whether err is one the caller can fix.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrUnauthorized, ErrForbidden, ErrLocked, ErrNotFound, ErrInvalidWeights,
		ErrInvalidState, ErrInvalidDecision, ErrInvalidPeriod, ErrInvalidScore,
		ErrUnknownTask, ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
