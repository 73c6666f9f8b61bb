package audit

import "testing"

func TestBuildBaseQuery(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", Filter{})
	if query != "SELECT COUNT(1) FROM audit_events WHERE 1=1" || len(args) != 0 {
		t.Fatalf("unexpected unfiltered query %q %v", query, args)
	}

	query, args = buildBaseQuery("SELECT id", Filter{Action: ActionEvaluationReview, ActorUser: "u1"})
	want := "SELECT id FROM audit_events WHERE 1=1 AND action = $1 AND actor_user_id::text = $2"
	if query != want {
		t.Fatalf("expected %q, got %q", want, query)
	}
	if len(args) != 2 || args[0] != ActionEvaluationReview || args[1] != "u1" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestEncode(t *testing.T) {
	raw, err := encode(nil)
	if err != nil || raw != nil {
		t.Fatalf("expected nil encoding, got %s %v", raw, err)
	}
	raw, err = encode(map[string]string{"status": "DRAFT"})
	if err != nil || string(raw) != `{"status":"DRAFT"}` {
		t.Fatalf("unexpected encoding %s %v", raw, err)
	}
}
