package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"codedojo/internal/app/executor"
	"codedojo/internal/app/service"
	"codedojo/internal/common/security"
	"codedojo/internal/domain/model"
	"codedojo/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testServer struct {
	t         *testing.T
	handler   http.Handler
	codec     *security.TokenCodec
	users     *testutil.UserRepo
	problems  *testutil.ProblemRepo
	solutions *testutil.SolutionRepo
	snippets  *testutil.SnippetRepo
	exec      *testutil.FakeExecutor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	codec, err := security.NewTokenCodec("HS256", []byte("router-test-secret-0123456789abc"), time.Hour)
	require.NoError(t, err)

	s := &testServer{
		t:         t,
		codec:     codec,
		users:     testutil.NewUserRepo(),
		problems:  testutil.NewProblemRepo(),
		solutions: testutil.NewSolutionRepo(),
		snippets:  testutil.NewSnippetRepo(),
		exec:      &testutil.FakeExecutor{},
	}
	gate := service.NewCredentialGate(codec, s.users, logger)
	s.handler = NewRouter(
		logger,
		gate,
		service.NewAuthService(s.users, codec, logger),
		service.NewProblemService(s.problems, s.solutions, logger),
		service.NewGradingService(s.problems, s.solutions, s.exec, nil, logger),
		service.NewSnippetService(s.snippets, s.exec, logger),
	)
	return s
}

// userToken stores a user directly and returns a bearer token for it.
func (s *testServer) userToken(username, role string) string {
	s.t.Helper()
	u := &model.User{ID: uuid.NewString(), Username: username, Role: role}
	require.NoError(s.t, s.users.Create(context.Background(), u))
	tok, err := s.codec.IssueForUser(u.ID)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"username":"alice"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/register", "", `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/auth/register", "", `{"username":`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.postForm("/auth/token", url.Values{"username": {"alice"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = s.postForm("/auth/token", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.postForm("/auth/token", url.Values{"username": {"alice"}, "password": {"pw"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok service.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)

	claims, err := s.codec.Verify(tok.AccessToken)
	require.NoError(t, err)
	userID, err := security.GetUserIDFromClaims(claims)
	require.NoError(t, err)
	stored, err := s.users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, userID)

	rec = s.do(http.MethodGet, "/auth/me", tok.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"alice"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/auth/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/auth/me", "garbage", "").Code)
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	s := newTestServer(t)
	p := s.problems.Seed("echo", [2]string{"in", "in"})

	forged, err := security.NewTokenCodec("HS256", []byte("some-other-secret-0123456789abcd"), time.Hour)
	require.NoError(t, err)
	forgedTok, err := forged.IssueForUser(uuid.NewString())
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", forgedTok} {
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/problems/", token, "").Code)
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/problems/"+p.ID, token, "").Code)
		rec := s.do(http.MethodPost, "/problems/"+p.ID+"/solve", token, `{"content":"x","language":"python"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	assert.Equal(t, 0, s.solutions.Count())
	assert.Empty(t, s.exec.Calls())
}

func TestSolveFlow(t *testing.T) {
	s := newTestServer(t)
	tok := s.userToken("alice", model.RoleUser)
	p := s.problems.Seed("echo", [2]string{"in1", "out1"}, [2]string{"in2", "out2"})
	s.exec.Func = testutil.ByStdin(map[string]executor.RunResult{
		"in1": {Stdout: "out1\n"},
		"in2": {Stdout: "out2\n"},
	}, nil)

	rec := s.do(http.MethodGet, "/problems/", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"`+p.ID+`","name":"echo","text":"echo text","complexity":1,"solved":null}]`, rec.Body.String())

	rec = s.do(http.MethodPost, "/problems/"+p.ID+"/solve", tok, `{"content":"print(input())","language":"python"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[{"is_error":false,"is_solved":true},{"is_error":false,"is_solved":true}]`, rec.Body.String())

	s.exec.Func = testutil.ByStdin(map[string]executor.RunResult{
		"in1": {Stdout: "out1\n"},
		"in2": {Stderr: "boom", ExitCode: 1},
	}, nil)
	rec = s.do(http.MethodPost, "/problems/"+p.ID+"/solve", tok, `{"content":"bad","language":"go"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"is_error":false,"is_solved":true},{"is_error":true,"is_solved":false}]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/problems/"+p.ID, tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+p.ID+`","name":"echo","text":"echo text","solutions":[
		{"content":"bad","language":"go","solved":false},
		{"content":"print(input())","language":"python","solved":true}
	]}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/problems/", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"solved":true`)

	// Another user sees only their own state.
	other := s.userToken("bob", model.RoleUser)
	rec = s.do(http.MethodGet, "/problems/"+p.ID, other, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"solutions":[]`)
}

func TestSolveErrors(t *testing.T) {
	s := newTestServer(t)
	tok := s.userToken("alice", model.RoleUser)
	p := s.problems.Seed("echo", [2]string{"in1", "out1"}, [2]string{"in2", "out2"})

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown language", "/problems/" + p.ID + "/solve", `{"content":"x","language":"ruby"}`, http.StatusUnprocessableEntity},
		{"missing language", "/problems/" + p.ID + "/solve", `{"content":"x"}`, http.StatusUnprocessableEntity},
		{"malformed body", "/problems/" + p.ID + "/solve", `{"content":`, http.StatusUnprocessableEntity},
		{"malformed id", "/problems/not-a-uuid/solve", `{"content":"x","language":"go"}`, http.StatusUnprocessableEntity},
		{"missing problem", "/problems/" + uuid.NewString() + "/solve", `{"content":"x","language":"go"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tc.path, tok, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, 0, s.solutions.Count())

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodGet, "/problems/42", tok, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/problems/"+uuid.NewString(), tok, "").Code)
}

func TestSolveSandboxUnavailable(t *testing.T) {
	s := newTestServer(t)
	tok := s.userToken("alice", model.RoleUser)
	p := s.problems.Seed("echo", [2]string{"in1", "out1"}, [2]string{"in2", "out2"})
	s.exec.Func = testutil.ByStdin(
		map[string]executor.RunResult{"in1": {Stdout: "out1"}},
		map[string]error{"in2": executor.ErrExecutionUnavailable},
	)

	rec := s.do(http.MethodPost, "/problems/"+p.ID+"/solve", tok, `{"content":"x","language":"python"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
	assert.Equal(t, 0, s.solutions.Count())
}

func TestSnippetFlow(t *testing.T) {
	s := newTestServer(t)
	s.exec.Func = testutil.ByStdin(map[string]executor.RunResult{"NONE": {Stdout: "hi\n"}}, nil)

	rec := s.do(http.MethodPost, "/snippet/run", "", `{"content":"print('hi')","language":"python"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"exit_code":0,"stdout":"hi\n","stderr":""}`, rec.Body.String())

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/snippet/run", "", `{"content":"x","language":"perl"}`).Code)

	rec = s.do(http.MethodPost, "/snippet/share", "", `{"content":"package main","language":"go"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var first struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = s.do(http.MethodPost, "/snippet/share", "", `{"content":"package main","language":"go"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+first.ID+`"}`, rec.Body.String())
	assert.Equal(t, 1, s.snippets.Count())

	rec = s.do(http.MethodGet, "/snippet/share/"+first.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+first.ID+`","content":"package main","language":"go"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/snippet/share/"+uuid.NewString(), "", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodGet, "/snippet/share/xyz", "", "").Code)

	s.exec.Func = testutil.ByStdin(nil, map[string]error{"NONE": executor.ErrExecutionUnavailable})
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/snippet/run", "", `{"content":"x","language":"go"}`).Code)
}

func TestAdminAPI(t *testing.T) {
	s := newTestServer(t)
	userTok := s.userToken("alice", model.RoleUser)
	adminTok := s.userToken("root", model.RoleAdmin)

	body := `{"name":"Sum It","text":"add","complexity":3,"tests":[{"input":"1 2","output":"3"},{"input":"2 2","output":"4"}]}`
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/admin/problems", "", body).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/admin/problems", userTok, body).Code)

	rec := s.do(http.MethodPost, "/admin/problems", adminTok, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "sum-it", created.Slug)
	require.Len(t, created.Tests, 2)

	bad := `{"name":"x","text":"y","complexity":9}`
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/admin/problems", adminTok, bad).Code)

	rec = s.do(http.MethodPost, "/admin/problems/"+created.ID+"/tests", adminTok, `{"tests":[{"input":"5 5","output":"10"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"position":2`)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/admin/problems/"+uuid.NewString()+"/tests", adminTok, `{"tests":[{"input":"a","output":"b"}]}`).Code)

	rec = s.do(http.MethodPost, "/problems/"+created.ID+"/solve", userTok, `{"content":"x","language":"python"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"is_error":false,"is_solved":false},{"is_error":false,"is_solved":false},{"is_error":false,"is_solved":false}]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/admin/problems/"+created.ID+"/solutions", adminTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sols []model.Solution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sols))
	require.Len(t, sols, 1)
	assert.Equal(t, model.LanguagePython, sols[0].Language)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/problems/"+created.ID+"/solutions", userTok, "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
