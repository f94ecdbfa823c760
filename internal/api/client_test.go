package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginStoresTokenForLaterRequests(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LoginEndpoint:
			if r.Method != http.MethodPost {
				t.Fatalf("method = %s", r.Method)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if r.PostForm.Get("email") != "ann@x.io" {
				t.Fatalf("email = %q", r.PostForm.Get("email"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"token":"tok123","isAdmin":true,"message":"ok"}`))
		case CheckUserEndpoint:
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data":{"id":"u1","name":"Ann","email":"ann@x.io","isAdmin":true}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Login(context.Background(), "ann@x.io", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token != "tok123" || !result.IsAdmin {
		t.Fatalf("result = %+v", result)
	}

	user, err := client.CheckUser(context.Background())
	if err != nil {
		t.Fatalf("check user: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("user = %+v", user)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("authorization = %q", gotAuth)
	}
}

func TestNon2xxYieldsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"answer is required"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.SubmitAnswer(context.Background(), "42", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want 422 StatusError", err)
	}
	if se.Message != "answer is required" {
		t.Fatalf("message = %q", se.Message)
	}
}

func TestValidationErrorsDecodedPerField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"The given data was invalid.","errors":{"title":["The title field is required."]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateQuestionnaire(context.Background(), "", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want 422 StatusError", err)
	}
	if got := se.Errors["title"]; len(got) != 1 || got[0] != "The title field is required." {
		t.Fatalf("field errors = %v", se.Errors)
	}
}

func TestUnauthorizedTriggersCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	fired := 0
	client := NewClient(server.URL)
	client.SetToken("stale")
	client.OnUnauthorized(func() { fired++ })

	if _, err := client.CheckUser(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if fired != 1 {
		t.Fatalf("onUnauthorized fired %d times, want 1", fired)
	}
}

func TestGameStatusDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("code"); got != "42" {
			t.Fatalf("code = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"playing","score":0,"question":"Q1","answer":"A","answered":1,"time":"2024-01-01T00:00:10 UTC"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	status, err := client.Status(context.Background(), "42")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Status != "playing" || status.Question != "Q1" || status.Answered != 1 {
		t.Fatalf("status = %+v", status)
	}
}

func TestJoinGameUsesMethodOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("_method"); got != "PATCH" {
			t.Fatalf("_method = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"42","message":"joined"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	id, err := client.JoinGame(context.Background(), "42")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if id != "42" {
		t.Fatalf("id = %q", id)
	}
}

func TestCreateQuizRepeatsAnswerChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		answers := r.PostForm["answer[]"]
		if len(answers) != 4 || answers[0] != "red" || answers[3] != "yellow" {
			t.Fatalf("answer[] = %v", answers)
		}
		if r.PostForm.Get("right_answer") != "blue" || r.PostForm.Get("time") != "15" {
			t.Fatalf("form = %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"created"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.CreateQuiz(context.Background(), Quiz{
		QuestionnaireID: "qn1",
		Question:        "favorite color?",
		Answers:         []string{"red", "blue", "green", "yellow"},
		RightAnswer:     "blue",
		Time:            15,
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
}

func TestUpdateUserUsesMethodOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Query().Get("_method") != "PATCH" {
			t.Fatalf("method = %s, query = %v", r.Method, r.URL.Query())
		}
		if r.URL.Path != UsersEndpoint+"/u1" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("name") != "Ann" || r.PostForm.Get("email") != "ann@x.io" {
			t.Fatalf("form = %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"updated"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.UpdateUser(context.Background(), "u1", "Ann", "ann@x.io"); err != nil {
		t.Fatalf("update user: %v", err)
	}
}

func TestDeleteQuestionnaire(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("method = %s", r.Method)
		}
		if r.URL.Path != QuestionnairesEndpoint+"/qn1" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"deleted"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.DeleteQuestionnaire(context.Background(), "qn1"); err != nil {
		t.Fatalf("delete questionnaire: %v", err)
	}
}

func TestExportUsersFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="users-2024.csv"`)
		w.Write([]byte("id,name\nu1,Ann\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	filename, data, err := client.ExportUsers(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filename != "users-2024.csv" {
		t.Fatalf("filename = %q", filename)
	}
	if len(data) == 0 {
		t.Fatalf("empty body")
	}
}

func TestFilenameFromDisposition(t *testing.T) {
	cases := []struct {
		disposition string
		want        string
	}{
		{`attachment; filename="report.csv"`, "report.csv"},
		{`attachment; filename=report.csv`, "report.csv"},
		{`inline`, ""},
		{``, ""},
	}
	for _, tc := range cases {
		if got := filenameFromDisposition(tc.disposition); got != tc.want {
			t.Fatalf("filenameFromDisposition(%q) = %q, want %q", tc.disposition, got, tc.want)
		}
	}
}
