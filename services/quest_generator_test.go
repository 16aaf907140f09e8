package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifequest/models"
)

func TestGenerate_FallbackWithoutAPIKey(t *testing.T) {
	t.Parallel()

	g := NewQuestGenerator("", "Qwen/Qwen2.5-7B-Instruct")

	healthUser := &models.User{Level: 1}
	healthUser.SetGoals([]string{"improve health"})

	quest, err := g.Generate(context.Background(), healthUser, "", "")
	require.NoError(t, err)
	assert.Equal(t, "health", quest.Category)
	assert.NotEmpty(t, quest.Steps)

	plainUser := &models.User{Level: 1}
	quest, err = g.Generate(context.Background(), plainUser, "", "")
	require.NoError(t, err)
	assert.Equal(t, "productivity", quest.Category)
}

func TestGenerate_ParsesInferenceResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{
				"message": {
					"content": "Here is your quest:\n{\"title\":\"Morning Momentum\",\"description\":\"Start strong\",\"steps\":[{\"title\":\"Wake at 7\",\"description\":\"Set an alarm\",\"points\":10,\"estimated_time\":\"5 minutes\"}],\"estimated_time\":\"1 day\",\"difficulty\":\"easy\",\"category\":\"productivity\"}"
				}
			}]
		}`))
	}))
	defer server.Close()

	g := NewQuestGenerator("test-key", "test-model")
	g.endpoint = server.URL

	user := &models.User{Level: 2}
	quest, err := g.Generate(context.Background(), user, "mornings", "productivity")
	require.NoError(t, err)

	assert.Equal(t, "Morning Momentum", quest.Title)
	assert.Equal(t, "test-model", quest.Model)
	require.Len(t, quest.Steps, 1)
	assert.Equal(t, 10, quest.Steps[0].Points)
}

func TestGenerate_FallsBackOnAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := NewQuestGenerator("test-key", "test-model")
	g.endpoint = server.URL

	quest, err := g.Generate(context.Background(), &models.User{Level: 1}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "productivity", quest.Category, "API failure falls back to the local generator")
}

func TestGenerate_PrefersUserModel(t *testing.T) {
	t.Parallel()

	var requestedModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		requestedModel = payload.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"T\",\"description\":\"D\",\"steps\":[{\"title\":\"S\",\"description\":\"d\",\"points\":5,\"estimated_time\":\"x\"}],\"estimated_time\":\"x\",\"difficulty\":\"easy\",\"category\":\"learning\"}"}}]}`))
	}))
	defer server.Close()

	g := NewQuestGenerator("test-key", "default-model")
	g.endpoint = server.URL

	user := &models.User{Level: 1, AIModel: "custom-model"}
	_, err := g.Generate(context.Background(), user, "", "")
	require.NoError(t, err)
	assert.Equal(t, "custom-model", requestedModel)
}

func TestParseQuestJSON(t *testing.T) {
	t.Parallel()

	_, err := parseQuestJSON("no json here")
	assert.Error(t, err)

	_, err = parseQuestJSON(`{"title":"","steps":[]}`)
	assert.Error(t, err, "missing title or steps is rejected")

	quest, err := parseQuestJSON("```json\n{\"title\":\"Q\",\"description\":\"d\",\"steps\":[{\"title\":\"s\",\"description\":\"d\",\"points\":1,\"estimated_time\":\"x\"}],\"estimated_time\":\"x\",\"difficulty\":\"easy\",\"category\":\"sport\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Q", quest.Title)
}
