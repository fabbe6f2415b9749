package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCreate_Validation(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{})

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing name", map[string]any{"userEmail": "a@b.co"}, http.StatusBadRequest},
		{"bad email", map[string]any{"userName": "A", "userEmail": "not-an-email"}, http.StatusBadRequest},
		{"blank name", map[string]any{"userName": "   ", "userEmail": "a@b.co"}, http.StatusBadRequest},
		{"unknown backend", map[string]any{"userName": "A", "userEmail": "a@b.co", "backend": "acme"}, http.StatusBadRequest},
		{"natera", map[string]any{"userName": "A", "userEmail": "a@b.co", "backend": "natera"}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{})
	id := createSession(t, env)
	path := "/api/sessions/" + id.String()

	w := env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "goal", body["step"])
	setup := body["setup"].(map[string]any)
	assert.Equal(t, "kong", setup["backend"])
	assert.Equal(t, "Dana", setup["userName"])

	w = env.do(t, http.MethodPatch, path, map[string]any{
		"step":             "segments",
		"selectedGoal":     "nurture",
		"selectedSegments": []string{"engineers"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "segments", body["step"])
	setup = body["setup"].(map[string]any)
	assert.Equal(t, "nurture", setup["selectedGoal"])
	assert.Equal(t, []any{"engineers"}, setup["selectedSegments"])

	w = env.do(t, http.MethodPatch, path, map[string]any{"step": "checkout"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, path+"/restart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "setup", body["step"])
	assert.Equal(t, id.String(), body["id"])
	assert.Equal(t, "", body["setup"].(map[string]any)["userName"])

	w = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPost, path+"/restart", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSession_InvalidID(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{})
	w := env.do(t, http.MethodGet, "/api/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid session ID", decode(t, w)["error"])

	w = env.do(t, http.MethodPatch, "/api/sessions/"+uuid.NewString(), map[string]any{"step": "goal"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionSetCandidate(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{})
	id := createSession(t, env)
	path := "/api/sessions/" + id.String() + "/candidate"

	t.Run("catalog candidate", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, map[string]any{"candidateId": "pub_hola_5c7d24bb19976ca87e8f8bbb"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		cand := decode(t, w)["candidate"].(map[string]any)
		assert.Equal(t, "Jacob Wang", cand["name"])
		assert.Equal(t, "Jacob", cand["firstName"])
		prefs := cand["jobPreferences"].(map[string]any)
		assert.Equal(t, []any{"Senior Software Engineer"}, prefs["titles"])
		assert.Equal(t, "Kong", prefs["company"])
	})

	t.Run("candidate from another backend", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, map[string]any{"candidateId": "pub_5d984f6178b4d04f6244fa78"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("role data", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, map[string]any{
			"name":            "Ana Silva",
			"job_preferences": "Job Titles: SRE\nLocation: Lisbon",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		cand := body["candidate"].(map[string]any)
		assert.Equal(t, "Ana", cand["firstName"])
		assert.Equal(t, "Kong", cand["jobPreferences"].(map[string]any)["company"])
		assert.Equal(t, []any{}, body["messages"])
	})

	t.Run("neither", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBackends(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{})

	w := env.do(t, http.MethodGet, "/api/backends", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "kong", body["default"])
	assert.Len(t, body["backends"], 2)
	assert.Len(t, body["roles"], 3)

	w = env.do(t, http.MethodGet, "/api/backends/natera", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Natera", decode(t, w)["branding"].(map[string]any)["companyName"])

	w = env.do(t, http.MethodGet, "/api/backends/acme", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
