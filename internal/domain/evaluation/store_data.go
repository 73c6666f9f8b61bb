package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"

	"kpi/internal/platform/querier"
)

const dateLayout = "2006-01-02"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const evaluationSelect = `
    SELECT e.id, e.user_id, e.month, e.year, e.status, e.total_score, e.rank, e.version,
           e.submitted_at, e.created_at, e.updated_at,
           u.name, u.email, COALESCE(d.name, ''), u.manager_id
    FROM evaluations e
    JOIN users u ON u.id = e.user_id
    LEFT JOIN departments d ON d.id = u.department_id
`

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var ev Evaluation
	var managerID *string
	if err := row.Scan(
		&ev.ID, &ev.UserID, &ev.Month, &ev.Year, &ev.Status, &ev.TotalScore, &ev.Rank, &ev.Version,
		&ev.SubmittedAt, &ev.CreatedAt, &ev.UpdatedAt,
		&ev.UserName, &ev.UserEmail, &ev.DepartmentName, &managerID,
	); err != nil {
		return Evaluation{}, err
	}
	if managerID != nil {
		ev.ManagerID = *managerID
	}
	ev.Tasks = []Task{}
	ev.Reviews = []ManagerReview{}
	return ev, nil
}

func (s *Store) FindByPeriod(ctx context.Context, userID string, month, year int) (*Evaluation, error) {
	ev, err := scanEvaluation(s.DB.QueryRow(ctx, evaluationSelect+`
    WHERE e.user_id = $1 AND e.month = $2 AND e.year = $3
  `, userID, month, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	items := []Evaluation{ev}
	if err := s.hydrate(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *Store) FindByID(ctx context.Context, evaluationID string) (Evaluation, error) {
	ev, err := scanEvaluation(s.DB.QueryRow(ctx, evaluationSelect+`
    WHERE e.id = $1
  `, evaluationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, err
	}
	items := []Evaluation{ev}
	if err := s.hydrate(ctx, items); err != nil {
		return Evaluation{}, err
	}
	return items[0], nil
}

func (s *Store) SaveEvaluation(ctx context.Context, userID string, month, year int, decide func(current *Evaluation) (EvaluationWrite, error)) (Evaluation, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Evaluation{}, err
	}
	defer tx.Rollback(ctx)

	var current *Evaluation
	locked, err := scanEvaluation(tx.QueryRow(ctx, evaluationSelect+`
    WHERE e.user_id = $1 AND e.month = $2 AND e.year = $3
    FOR UPDATE OF e
  `, userID, month, year))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return Evaluation{}, err
	default:
		tasks, err := loadTasks(ctx, tx, []string{locked.ID})
		if err != nil {
			return Evaluation{}, err
		}
		locked.Tasks = orEmptyTasks(tasks[locked.ID])
		current = &locked
	}

	write, err := decide(current)
	if err != nil {
		return Evaluation{}, err
	}

	var id string
	if current == nil {
		err = tx.QueryRow(ctx, `
      INSERT INTO evaluations (user_id, month, year, status, total_score, rank, submitted_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
      RETURNING id
    `, userID, month, year, write.Status, write.TotalScore, write.Rank, write.SubmittedAt).Scan(&id)
		if isUniqueViolation(err) {
			return Evaluation{}, ErrConflict
		}
		if err != nil {
			return Evaluation{}, err
		}
	} else {
		id = current.ID
		if _, err := tx.Exec(ctx, `
      UPDATE evaluations
      SET status = $1, total_score = $2, rank = $3, submitted_at = $4,
          version = version + 1, updated_at = now()
      WHERE id = $5
    `, write.Status, write.TotalScore, write.Rank, write.SubmittedAt, id); err != nil {
			return Evaluation{}, err
		}
	}

	if !write.KeepTasks {
		if err := replaceTasks(ctx, tx, id, write.Tasks); err != nil {
			return Evaluation{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Evaluation{}, err
	}
	return s.FindByID(ctx, id)
}

func (s *Store) ReviewEvaluation(ctx context.Context, evaluationID string, decide func(current Evaluation) (ReviewWrite, error)) (Evaluation, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Evaluation{}, err
	}
	defer tx.Rollback(ctx)

	current, err := scanEvaluation(tx.QueryRow(ctx, evaluationSelect+`
    WHERE e.id = $1
    FOR UPDATE OF e
  `, evaluationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, err
	}
	tasks, err := loadTasks(ctx, tx, []string{current.ID})
	if err != nil {
		return Evaluation{}, err
	}
	current.Tasks = orEmptyTasks(tasks[current.ID])

	write, err := decide(current)
	if err != nil {
		return Evaluation{}, err
	}

	for taskID, score := range write.TaskScores {
		if _, err := tx.Exec(ctx, `
      UPDATE tasks SET manager_score = $1
      WHERE id = $2 AND evaluation_id = $3
    `, score, taskID, current.ID); err != nil {
			return Evaluation{}, err
		}
	}

	review := write.Review
	if _, err := tx.Exec(ctx, `
    INSERT INTO manager_reviews (evaluation_id, manager_id, manager_name, manager_role, decision, score, comment, reviewed_at)
    VALUES ($1, $2, COALESCE((SELECT name FROM users WHERE id = $2), ''), $3, $4, $5, $6, $7)
  `, current.ID, review.ManagerID, review.ManagerRole, review.Decision, review.Score, review.Comment, review.ReviewedAt); err != nil {
		return Evaluation{}, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE evaluations
    SET status = $1, version = version + 1, updated_at = now(),
        submitted_at = CASE WHEN $3 THEN NULL ELSE submitted_at END
    WHERE id = $2
  `, write.Status, current.ID, write.ClearSubmittedAt); err != nil {
		return Evaluation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Evaluation{}, err
	}
	return s.FindByID(ctx, current.ID)
}

func (s *Store) ListByManager(ctx context.Context, managerID string) ([]Evaluation, error) {
	return s.list(ctx, evaluationSelect+`
    WHERE u.manager_id = $1 AND e.status <> 'DRAFT'
    ORDER BY e.updated_at DESC
  `, managerID)
}

func (s *Store) ListAll(ctx context.Context, filter ListFilter) ([]Evaluation, error) {
	query, args := buildListQuery(filter)
	return s.list(ctx, query, args...)
}

func buildListQuery(filter ListFilter) (string, []any) {
	var conditions []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.Month > 0 {
		add("e.month = $%d", filter.Month)
	}
	if filter.Year > 0 {
		add("e.year = $%d", filter.Year)
	}
	if filter.Status != "" {
		add("e.status = $%d", filter.Status)
	}

	query := evaluationSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.updated_at DESC, e.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Evaluation, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// hydrate loads tasks and reviews for every item with one query each.
func (s *Store) hydrate(ctx context.Context, items []Evaluation) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, ev := range items {
		ids = append(ids, ev.ID)
	}

	var tasks map[string][]Task
	var reviews map[string][]ManagerReview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = loadTasks(gctx, s.DB, ids)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = loadReviews(gctx, s.DB, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range items {
		items[i].Tasks = orEmptyTasks(tasks[items[i].ID])
		if r := reviews[items[i].ID]; r != nil {
			items[i].Reviews = r
		} else {
			items[i].Reviews = []ManagerReview{}
		}
	}
	return nil
}

func loadTasks(ctx context.Context, db querier.Rows, evaluationIDs []string) (map[string][]Task, error) {
	rows, err := db.Query(ctx, `
    SELECT id, evaluation_id, category, name, weight, start_date, deadline, actual_finish,
           collaboration, result_description, sub_tasks, self_score, manager_score, converted_value,
           target_quantity, actual_quantity, unit_price, note
    FROM tasks
    WHERE evaluation_id = ANY($1::uuid[])
    ORDER BY evaluation_id, position
  `, evaluationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]Task{}
	for rows.Next() {
		var t Task
		var evaluationID string
		var start, deadline, finish *time.Time
		var subTasks []byte
		if err := rows.Scan(
			&t.ID, &evaluationID, &t.Category, &t.Name, &t.Weight, &start, &deadline, &finish,
			&t.Collaboration, &t.ResultDescription, &subTasks, &t.SelfScore, &t.ManagerScore, &t.ConvertedValue,
			&t.TargetQuantity, &t.ActualQuantity, &t.UnitPrice, &t.Note,
		); err != nil {
			return nil, err
		}
		t.StartDate = formatDate(start)
		t.Deadline = formatDate(deadline)
		t.ActualFinish = formatDate(finish)
		t.SubTasks = []SubTask{}
		if len(subTasks) > 0 {
			if err := json.Unmarshal(subTasks, &t.SubTasks); err != nil {
				return nil, err
			}
		}
		out[evaluationID] = append(out[evaluationID], t)
	}
	return out, rows.Err()
}

func loadReviews(ctx context.Context, db querier.Rows, evaluationIDs []string) (map[string][]ManagerReview, error) {
	rows, err := db.Query(ctx, `
    SELECT r.id, r.evaluation_id, r.manager_id, r.manager_name, r.manager_role,
           r.score, r.comment, r.decision, r.reviewed_at
    FROM manager_reviews r
    WHERE r.evaluation_id = ANY($1::uuid[])
    ORDER BY r.evaluation_id, r.seq
  `, evaluationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]ManagerReview{}
	for rows.Next() {
		var r ManagerReview
		if err := rows.Scan(&r.ID, &r.EvaluationID, &r.ManagerID, &r.ManagerName, &r.ManagerRole,
			&r.Score, &r.Comment, &r.Decision, &r.ReviewedAt); err != nil {
			return nil, err
		}
		out[r.EvaluationID] = append(out[r.EvaluationID], r)
	}
	return out, rows.Err()
}

func replaceTasks(ctx context.Context, tx pgx.Tx, evaluationID string, tasks []Task) error {
	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE evaluation_id = $1`, evaluationID); err != nil {
		return err
	}
	for i, t := range tasks {
		subTasks := t.SubTasks
		if subTasks == nil {
			subTasks = []SubTask{}
		}
		raw, err := json.Marshal(subTasks)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO tasks (evaluation_id, position, category, name, weight, start_date, deadline, actual_finish,
                         collaboration, result_description, sub_tasks, self_score, manager_score, converted_value,
                         target_quantity, actual_quantity, unit_price, note)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
    `, evaluationID, i, t.Category, t.Name, t.Weight, parseDate(t.StartDate), parseDate(t.Deadline), parseDate(t.ActualFinish),
			t.Collaboration, t.ResultDescription, raw, t.SelfScore, t.ManagerScore, t.ConvertedValue,
			t.TargetQuantity, t.ActualQuantity, t.UnitPrice, t.Note); err != nil {
			return err
		}
	}
	return nil
}

func orEmptyTasks(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	return tasks
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// parseDate yields NULL for empty or malformed dates.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil
	}
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
