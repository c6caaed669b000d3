/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/auth"
	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/registry"
	"github.com/friendsincode/hyasynth/internal/session"
)

const testSecret = "test-secret"

func newTestAPI(t *testing.T) (*API, string) {
	t.Helper()
	commands := bridge.NewRing(64)
	readback := &bridge.Readback{}
	sess := session.New("untitled", 48000, 512, 8, commands, readback, zerolog.Nop())

	a := New(sess, nil, nil, nil, []byte(testSecret), zerolog.Nop())

	token, err := auth.Issue([]byte(testSecret), auth.Claims{UserID: "u1", Roles: []string{auth.RoleOperator}}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return a, token
}

func doRequest(t *testing.T, a *API, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	a.Routes(r)

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAPI_HealthIsPublic(t *testing.T) {
	a, _ := newTestAPI(t)
	rr := doRequest(t, a, "", http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAPI_AddNodeRequiresAuth(t *testing.T) {
	a, _ := newTestAPI(t)
	rr := doRequest(t, a, "", http.MethodPost, "/sessions/current/nodes", addNodeRequest{TypeID: registry.NodeTypeSineOsc})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAPI_AddNodeCreatesNode(t *testing.T) {
	a, token := newTestAPI(t)
	rr := doRequest(t, a, token, http.MethodPost, "/sessions/current/nodes", addNodeRequest{TypeID: registry.NodeTypeSineOsc, X: 1, Y: 2})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		NodeID uint32 `json:"node_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.NodeID != 0 {
		t.Errorf("NodeID = %d, want 0 (first allocated)", resp.NodeID)
	}
}

func TestAPI_CreateTrackAndSetVolume(t *testing.T) {
	a, token := newTestAPI(t)
	rr := doRequest(t, a, token, http.MethodPost, "/sessions/current/tracks", map[string]string{"name": "lead"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create track status = %d, want 201", rr.Code)
	}

	rr = doRequest(t, a, token, http.MethodPut, "/sessions/current/tracks/0/volume", map[string]float32{"volume": 0.25})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("set volume status = %d, want 204, body=%s", rr.Code, rr.Body.String())
	}
}

func TestAPI_PlayStopTransport(t *testing.T) {
	a, token := newTestAPI(t)

	rr := doRequest(t, a, token, http.MethodPost, "/sessions/current/transport/play", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("play status = %d, want 204", rr.Code)
	}

	rr = doRequest(t, a, token, http.MethodGet, "/sessions/current", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d, want 200", rr.Code)
	}
}

func TestAPI_ViewerCannotMutate(t *testing.T) {
	a, _ := newTestAPI(t)
	token, err := auth.Issue([]byte(testSecret), auth.Claims{UserID: "u2", Roles: []string{auth.RoleViewer}}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rr := doRequest(t, a, token, http.MethodPost, "/sessions/current/transport/play", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}
