package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sibyl/internal/store"
)

func questionServer(f *fakeQuestions) *Server {
	return NewServer(8760, Deps{Readings: &fakeReadings{}, Questions: f, APIToken: testToken, Logger: discardLogger()})
}

func authed(userID string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + testToken}
	if userID != "" {
		h["X-User-ID"] = userID
	}
	return h
}

func TestQuestionRoutesUnmountedWithoutStore(t *testing.T) {
	srv := NewServer(8760, Deps{Readings: &fakeReadings{}, Logger: discardLogger()})
	w := do(t, srv, "GET", "/api/v1/questions", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestListQuestions(t *testing.T) {
	q := store.Question{ID: uuid.New(), Text: "I", Options: []string{"a", "b"}, Order: 1}
	f := newFakeQuestions(q)
	srv := questionServer(f)

	w := do(t, srv, "GET", "/api/v1/questions", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []store.Question
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != q.ID {
		t.Errorf("unexpected questions %+v", got)
	}
}

func TestListQuestions_ByCategoryReturnsEmptyArray(t *testing.T) {
	f := newFakeQuestions()
	srv := questionServer(f)

	w := do(t, srv, "GET", "/api/v1/questions?category=turning_of_year", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if f.category != "turning_of_year" {
		t.Errorf("expected category lookup, got %q", f.category)
	}
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestGetQuestion(t *testing.T) {
	q := store.Question{ID: uuid.New(), Text: "I", Options: []string{"a", "b"}}
	srv := questionServer(newFakeQuestions(q))

	if w := do(t, srv, "GET", "/api/v1/questions/"+q.ID.String(), "", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := do(t, srv, "GET", "/api/v1/questions/"+uuid.New().String(), "", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := do(t, srv, "GET", "/api/v1/questions/not-a-uuid", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestMutationsRequireToken(t *testing.T) {
	srv := questionServer(newFakeQuestions())
	body := `{"text":"Q","options":["a","b"],"order":0}`

	if w := do(t, srv, "POST", "/api/v1/questions", body, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/v1/questions", body, map[string]string{"Authorization": "Bearer wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/v1/questions", body, authed("")); w.Code != http.StatusCreated {
		t.Errorf("expected 201 with token, got %d", w.Code)
	}
}

func TestEmptyTokenRejectsEverything(t *testing.T) {
	srv := NewServer(8760, Deps{Readings: &fakeReadings{}, Questions: newFakeQuestions(), Logger: discardLogger()})
	w := do(t, srv, "DELETE", "/api/v1/questions/"+uuid.New().String(), "", map[string]string{"Authorization": "Bearer "})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestCreateQuestion_Validation(t *testing.T) {
	srv := questionServer(newFakeQuestions())

	w := do(t, srv, "POST", "/api/v1/questions", `{"text":"","options":["a"],"order":-1}`, authed(""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decode(t, w)
	if details, _ := body["details"].([]any); len(details) != 3 {
		t.Errorf("expected 3 details, got %v", body["details"])
	}
}

func TestUpdateAndDeleteQuestion(t *testing.T) {
	q := store.Question{ID: uuid.New(), Text: "old", Options: []string{"a", "b"}}
	f := newFakeQuestions(q)
	srv := questionServer(f)
	path := "/api/v1/questions/" + q.ID.String()

	w := do(t, srv, "PATCH", path, `{"text":"new"}`, authed(""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if f.questions[q.ID].Text != "new" {
		t.Errorf("expected text updated, got %q", f.questions[q.ID].Text)
	}

	if w := do(t, srv, "DELETE", path, "", authed("")); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := do(t, srv, "DELETE", path, "", authed("")); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestSubmitResponse(t *testing.T) {
	f := newFakeQuestions()
	srv := questionServer(f)
	body := `{"questionId":"` + uuid.New().String() + `","response":"burden_fog","responseLabel":"The Fog"}`

	if w := do(t, srv, "POST", "/api/v1/responses", body, authed("")); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without user id, got %d", w.Code)
	}

	w := do(t, srv, "POST", "/api/v1/responses", body, authed("u1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if f.lastUser != "u1" {
		t.Errorf("expected user u1, got %q", f.lastUser)
	}

	if w := do(t, srv, "POST", "/api/v1/responses", `{"questionId":"x","response":""}`, authed("u1")); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid response, got %d", w.Code)
	}
}

func TestMyResponses(t *testing.T) {
	f := newFakeQuestions()
	srv := questionServer(f)

	w := do(t, srv, "GET", "/api/v1/responses/me", "", authed("u9"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "[]\n" {
		t.Errorf("expected empty array, got %q", w.Body.String())
	}
	if f.lastUser != "u9" {
		t.Errorf("expected lookup for u9, got %q", f.lastUser)
	}

	w = do(t, srv, "GET", "/api/v1/responses/me?with=questions", "", authed("u9"))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 from failing join, got %d", w.Code)
	}
}
