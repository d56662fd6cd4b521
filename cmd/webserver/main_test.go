package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"quizbank"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedExtractor always returns the same candidates
type cannedExtractor struct {
	candidates []quizbank.Question
}

func (c cannedExtractor) Extract(_ context.Context, _ string) quizbank.ExtractionResult {
	return quizbank.ExtractionResult{Candidates: c.candidates}
}

func newTestServer(t *testing.T, candidates ...quizbank.Question) (*Server, *quizbank.MemoryStore) {
	t.Helper()
	bankStore := quizbank.NewMemoryStore(nil)
	pipeline := quizbank.NewPipeline(cannedExtractor{candidates: candidates}, bankStore)
	return NewServer(pipeline, sessions.NewCookieStore([]byte("test-secret-key"))), bankStore
}

func postForm(t *testing.T, handler http.Handler, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func sampleQuestion() quizbank.Question {
	return quizbank.Question{
		Type:    "单选",
		Content: "What is the capital of France?",
		Options: []quizbank.Option{{Label: "A", Text: "Paris"}, {Label: "B", Text: "Rome"}},
		Answer:  "A",
	}
}

func TestQuizPage_EmptyBank(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The bank is empty")
}

func TestImportThenAnswer(t *testing.T) {
	server, bankStore := newTestServer(t, sampleQuestion())
	handler := server.Routes()

	rec := postForm(t, handler, "/import", url.Values{"text": {"Paris is the capital of France."}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Imported 1 questions, skipped 0 duplicates")
	assert.Equal(t, 1, bankStore.Size())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "What is the capital of France?")
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = postForm(t, handler, "/answer", url.Values{"choice": {"A"}}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Correct! The answer is A")

	rec = postForm(t, handler, "/answer", url.Values{"choice": {"B"}}, cookies)
	assert.Contains(t, rec.Body.String(), "Incorrect. The answer is A")
}

func TestImport_DuplicateSkipped(t *testing.T) {
	server, bankStore := newTestServer(t, sampleQuestion())
	handler := server.Routes()

	postForm(t, handler, "/import", url.Values{"text": {"first"}}, nil)
	rec := postForm(t, handler, "/import", url.Values{"text": {"second"}}, nil)
	assert.Contains(t, rec.Body.String(), "Imported 0 questions, skipped 1 duplicates")
	assert.Equal(t, 1, bankStore.Size())
}

func TestImport_RequiresText(t *testing.T) {
	server, _ := newTestServer(t)
	rec := postForm(t, server.Routes(), "/import", url.Values{"text": {"   "}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImport_EmptyExtractionShowsFailure(t *testing.T) {
	server, _ := newTestServer(t)
	rec := postForm(t, server.Routes(), "/import", url.Values{"text": {"nothing here"}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Import failed")
}

func TestAnswer_WithoutSessionRedirects(t *testing.T) {
	server, _ := newTestServer(t)
	rec := postForm(t, server.Routes(), "/answer", url.Values{"choice": {"A"}}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestClearAndBankJSON(t *testing.T) {
	server, bankStore := newTestServer(t, sampleQuestion())
	handler := server.Routes()
	postForm(t, handler, "/import", url.Values{"text": {"text"}}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bank", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var bank quizbank.Bank
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bank))
	require.Len(t, bank, 1)
	assert.Equal(t, []string{"A"}, bank[0].CorrectArr)

	rec = postForm(t, handler, "/clear", url.Values{}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, bankStore.Size())
}
