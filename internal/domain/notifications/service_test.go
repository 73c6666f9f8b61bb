package notifications

import (
	"context"
	"errors"
	"testing"
)

type memoryStore struct {
	items  map[string][]Notification
	emails map[string]string
}

func (m *memoryStore) CreateNotification(_ context.Context, userID, ntype, title, body string) error {
	m.items[userID] = append(m.items[userID], Notification{ID: ntype, Type: ntype, Title: title, Body: body})
	return nil
}

func (m *memoryStore) UserEmail(_ context.Context, userID string) (string, error) {
	email, ok := m.emails[userID]
	if !ok {
		return "", errors.New("no such user")
	}
	return email, nil
}

func (m *memoryStore) ListNotifications(_ context.Context, userID string, _, _ int) ([]Notification, error) {
	return m.items[userID], nil
}

func (m *memoryStore) CountNotifications(_ context.Context, userID string) (int, error) {
	return len(m.items[userID]), nil
}

func (m *memoryStore) MarkRead(_ context.Context, userID, notificationID string) error {
	for _, n := range m.items[userID] {
		if n.ID == notificationID {
			return nil
		}
	}
	return ErrNotFound
}

type recordingMailer struct {
	sent []string
	err  error
}

func (r *recordingMailer) Send(_ context.Context, from, to, subject, _ string) error {
	r.sent = append(r.sent, from+"|"+to+"|"+subject)
	return r.err
}

func newStore() *memoryStore {
	return &memoryStore{items: map[string][]Notification{}, emails: map[string]string{"tp": "tp@skh.vn"}}
}

func TestCreateStoresWithoutMailWhenDisabled(t *testing.T) {
	store := newStore()
	mailer := &recordingMailer{}
	svc := New(store, mailer)

	if err := svc.Create(context.Background(), "tp", TypeEvaluationSubmitted, "KPI submitted", "body"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(store.items["tp"]) != 1 {
		t.Fatalf("expected stored notification, got %d", len(store.items["tp"]))
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no mail, got %v", mailer.sent)
	}
}

func TestCreateMailsWhenEnabled(t *testing.T) {
	store := newStore()
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := New(store, mailer)
	svc.EmailEnabled = true
	svc.DefaultFrom = "kpi@skh.vn"

	if err := svc.Create(context.Background(), "tp", TypeEvaluationSubmitted, "KPI submitted", "body"); err != nil {
		t.Fatalf("mail failures must not fail create: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "kpi@skh.vn|tp@skh.vn|KPI submitted" {
		t.Fatalf("unexpected mail: %v", mailer.sent)
	}

	if err := svc.Create(context.Background(), "ghost", TypeEvaluationApproved, "t", "b"); err != nil {
		t.Fatalf("lookup failures must not fail create: %v", err)
	}
}

func TestListNeverNil(t *testing.T) {
	svc := New(newStore(), nil)
	items, err := svc.List(context.Background(), "nobody", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items == nil {
		t.Fatal("expected empty slice")
	}
	if err := svc.MarkRead(context.Background(), "nobody", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
