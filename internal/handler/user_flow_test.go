package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/eaglebank/user-crud/internal/command"
	"github.com/eaglebank/user-crud/internal/events"
	"github.com/eaglebank/user-crud/internal/query"
	"github.com/eaglebank/user-crud/internal/repository"
	"github.com/eaglebank/user-crud/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newFlowRouter wires the real services over an in-memory store.
func newFlowRouter() *gin.Engine {
	store := repository.NewMemoryUserStore()
	readRepo := repository.NewUserReadRepository(store, nil)
	cmds := command.NewUserCommandService(store, readRepo, events.NopPublisher{}, bcrypt.MinCost)
	qrys := query.NewUserQueryService(readRepo)
	return newUserTestRouter(cmds, qrys)
}

func decodeIssues(t *testing.T, body []byte) []validation.Issue {
	t.Helper()
	var issues []validation.Issue
	require.NoError(t, json.Unmarshal(body, &issues), "body: %s", body)
	return issues
}

func decodeObject(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &obj), "body: %s", body)
	return obj
}

func createAnn(t *testing.T, router *gin.Engine) map[string]interface{} {
	t.Helper()
	w := userDoRequest(router, http.MethodPost, "/users", uValidCreateBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeObject(t, w.Body.Bytes())
}

func TestFlow_CreateScenario(t *testing.T) {
	router := newFlowRouter()
	body := createAnn(t, router)

	assert.Equal(t, "ann", body["username"])
	assert.Equal(t, "ann@x.com", body["email"])
	assert.Equal(t, "f", body["gender"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "confirmPassword")
	_, err := uuid.Parse(body["id"].(string))
	assert.NoError(t, err)
}

func TestFlow_CreateIssues(t *testing.T) {
	router := newFlowRouter()
	createAnn(t, router)

	mismatch := uValidCreateBody()
	mismatch["email"] = "other@x.com"
	mismatch["confirmPassword"] = "password2"

	noTerms := uValidCreateBody()
	noTerms["email"] = "other@x.com"
	noTerms["terms"] = false

	tests := []struct {
		name string
		body map[string]interface{}
		path string
	}{
		{name: "password mismatch", body: mismatch, path: "confirmPassword"},
		{name: "terms not accepted", body: noTerms, path: "terms"},
		{name: "duplicate email", body: uValidCreateBody(), path: "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := userDoRequest(router, http.MethodPost, "/users", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			issues := decodeIssues(t, w.Body.Bytes())
			require.Len(t, issues, 1)
			assert.Equal(t, []string{tt.path}, issues[0].Path)
		})
	}
}

func TestFlow_RoundTrip(t *testing.T) {
	router := newFlowRouter()
	created := createAnn(t, router)
	id := created["id"].(string)

	w := userDoRequest(router, http.MethodGet, "/users/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeObject(t, w.Body.Bytes())
	assert.Equal(t, id, got["id"])
	assert.Equal(t, "ann", got["username"])
	assert.Equal(t, "ann@x.com", got["email"])
	assert.Equal(t, "f", got["gender"])
	assert.NotContains(t, got, "password")

	other := uValidCreateBody()
	other["email"] = "bob@x.com"
	w = userDoRequest(router, http.MethodPost, "/users", other)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEqual(t, id, decodeObject(t, w.Body.Bytes())["id"])
}

func TestFlow_GetUnknownUser(t *testing.T) {
	router := newFlowRouter()
	w := userDoRequest(router, http.MethodGet, "/users/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	issues := decodeIssues(t, w.Body.Bytes())
	require.Len(t, issues, 1)
	assert.Equal(t, "User not found.", issues[0].Message)
}

func TestFlow_PartialUpdate(t *testing.T) {
	router := newFlowRouter()
	id := createAnn(t, router)["id"].(string)

	w := userDoRequest(router, http.MethodPut, "/users/"+id, map[string]interface{}{"gender": "x"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeObject(t, w.Body.Bytes())
	assert.Equal(t, "x", updated["gender"])
	assert.Equal(t, "ann", updated["username"])
	assert.Equal(t, "ann@x.com", updated["email"])
	assert.NotContains(t, updated, "password")

	w = userDoRequest(router, http.MethodPut, "/users/"+uuid.NewString(), map[string]interface{}{"gender": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = userDoRequest(router, http.MethodPut, "/users/"+id, map[string]interface{}{"password": "short"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"password"}, decodeIssues(t, w.Body.Bytes())[0].Path)
}

func TestFlow_DeleteThenGet(t *testing.T) {
	router := newFlowRouter()
	id := createAnn(t, router)["id"].(string)

	w := userDoRequest(router, http.MethodDelete, "/users/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = userDoRequest(router, http.MethodGet, "/users/"+id, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User not found.", decodeIssues(t, w.Body.Bytes())[0].Message)

	w = userDoRequest(router, http.MethodDelete, "/users/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The email is free again once the user is gone.
	createAnn(t, router)
}

func TestFlow_List(t *testing.T) {
	router := newFlowRouter()

	w := userDoRequest(router, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty listing is reported as an issue")

	createAnn(t, router)
	w = userDoRequest(router, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.NotContains(t, users[0], "password")

	for _, url := range []string{"/users?page=0", "/users?limit=0", "/users?page=abc"} {
		w = userDoRequest(router, http.MethodGet, url, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}
