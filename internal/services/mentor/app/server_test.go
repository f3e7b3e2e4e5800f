package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dhleesep9/gayoon/internal/game/engine"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

type fakeProcessor struct {
	resp engine.Response
	err  error

	gotUserID  string
	gotMessage string
}

func (f *fakeProcessor) ProcessTurn(_ context.Context, userID, message string) (engine.Response, error) {
	f.gotUserID = userID
	f.gotMessage = message
	return f.resp, f.err
}

func TestChatEndpoint(t *testing.T) {
	proc := &fakeProcessor{resp: engine.Response{
		Reply: "[일상] 오늘도 힘내요.",
		State: "daily_routine",
	}}
	srv := httptest.NewServer(NewHandler(proc))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/chat", "application/json",
		strings.NewReader(`{"user_id":"user-1","message":"안녕"}`))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body engine.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reply != "[일상] 오늘도 힘내요." || body.State != "daily_routine" {
		t.Fatalf("body = %+v", body)
	}
	if proc.gotUserID != "user-1" || proc.gotMessage != "안녕" {
		t.Fatalf("processor got %q / %q", proc.gotUserID, proc.gotMessage)
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(NewHandler(&fakeProcessor{}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestChatRejectsEmptyUserID(t *testing.T) {
	proc := &fakeProcessor{err: domain.ErrEmptyUserID}
	srv := httptest.NewServer(NewHandler(proc))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/chat", "application/json",
		strings.NewReader(`{"user_id":"","message":"안녕"}`))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestChatRequiresPost(t *testing.T) {
	srv := httptest.NewServer(NewHandler(&fakeProcessor{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/chat")
	if err != nil {
		t.Fatalf("GET /chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestChatInternalError(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("db gone")}
	srv := httptest.NewServer(NewHandler(proc))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/chat", "application/json",
		strings.NewReader(`{"user_id":"user-1","message":"안녕"}`))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewHandler(&fakeProcessor{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
