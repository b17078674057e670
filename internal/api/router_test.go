package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rrens/chatdesk/internal/api"
	"github.com/Rrens/chatdesk/internal/config"
	"github.com/Rrens/chatdesk/internal/docproc"
	"github.com/Rrens/chatdesk/internal/repository/sqlite"
	"github.com/Rrens/chatdesk/internal/responder"
	"github.com/Rrens/chatdesk/internal/security"
	"github.com/Rrens/chatdesk/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBlobStore struct {
	objects map[string][]byte
}

func (m *memBlobStore) Upload(_ context.Context, name, _ string, r io.Reader) (string, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	object := "pdfs/" + name
	m.objects[object] = data
	return object, "https://storage.test/" + object, nil
}

func newTestServer(t *testing.T) (http.Handler, *memBlobStore) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	inference := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Message == "fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, `{"reply":%q}`, "rag: "+req.Message)
	}))
	t.Cleanup(inference.Close)

	indexer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"indexed"}`)
	}))
	t.Cleanup(indexer.Close)

	cfg := &config.Config{Upload: config.UploadConfig{MaxSize: 1 << 20}}

	jwtManager := security.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	blobs := &memBlobStore{objects: map[string][]byte{}}

	deps := api.Dependencies{
		JWTManager:  jwtManager,
		AuthService: service.NewAuthService(sqlite.NewUserRepository(db), jwtManager),
		ChatService: service.NewChatService(
			sqlite.NewSessionRepository(db),
			responder.NewClient(responder.Config{
				BaseURL:      inference.URL,
				PrimaryPath:  "/rag_chat",
				FallbackPath: "/chat",
				Timeout:      2 * time.Second,
			}),
			nil,
			service.NewKeyedMutex(5*time.Second),
		),
		UploadService: service.NewUploadService(
			security.NewFileValidator(security.DefaultDocumentExtensions),
			docproc.NewClient(indexer.URL, 2*time.Second),
			blobs,
		),
		ReadyChecks: nil,
	}

	return api.NewRouter(cfg, deps), blobs
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return rec.Code, out
}

func register(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	status, body := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":            "Tester",
		"email":           email,
		"password":        "password123",
		"confirmPassword": "password123",
	})
	require.Equal(t, http.StatusCreated, status, body)

	tokens := body["data"].(map[string]any)["tokens"].(map[string]any)
	return tokens["access_token"].(string)
}

func TestAuthFlow(t *testing.T) {
	h, _ := newTestServer(t)

	token := register(t, h, "ann@example.com")

	status, body := do(t, h, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann@example.com", body["data"].(map[string]any)["email"])
	assert.NotContains(t, body["data"], "PasswordHash")

	status, _ = do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Again", "email": "ann@example.com", "password": "password123", "confirmPassword": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "password123", "confirmPassword": "password321",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "confirmPassword")

	status, _ = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	refresh := body["data"].(map[string]any)["tokens"].(map[string]any)["refresh_token"].(string)

	status, _ = do(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": token})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestChats_RequireAuth(t *testing.T) {
	h, _ := newTestServer(t)

	status, body := do(t, h, http.MethodGet, "/api/chats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
}

func TestChats_SendCreatesAndAppends(t *testing.T) {
	h, _ := newTestServer(t)
	token := register(t, h, "ann@example.com")
	chatID := uuid.NewString()

	status, body := do(t, h, http.MethodPost, "/api/chats/"+chatID+"/send", token, map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, status, body)

	data := body["data"].(map[string]any)
	assert.Equal(t, "hello", data["userMessage"].(map[string]any)["content"])
	assert.Equal(t, "user", data["userMessage"].(map[string]any)["role"])
	assert.Equal(t, "rag: hello", data["assistantMessage"].(map[string]any)["content"])

	status, body = do(t, h, http.MethodPost, "/api/chats/"+chatID+"/send", token, map[string]string{"message": "fail"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, responder.FailureNotice, body["data"].(map[string]any)["assistantMessage"].(map[string]any)["content"])

	status, body = do(t, h, http.MethodGet, "/api/chats/"+chatID, token, nil)
	require.Equal(t, http.StatusOK, status)
	session := body["data"].(map[string]any)
	assert.Equal(t, chatID, session["id"])
	assert.Equal(t, "new conversation", session["title"])
	assert.Len(t, session["messages"], 4)
}

func TestChats_SendValidation(t *testing.T) {
	h, _ := newTestServer(t)
	token := register(t, h, "ann@example.com")

	status, _ := do(t, h, http.MethodPost, "/api/chats/not-a-uuid/send", token, map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, h, http.MethodPost, "/api/chats/"+uuid.NewString()+"/send", token, map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, h, http.MethodPost, "/api/chats/"+uuid.NewString()+"/send", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChats_ForeignIDConflicts(t *testing.T) {
	h, _ := newTestServer(t)
	ann := register(t, h, "ann@example.com")
	bob := register(t, h, "bob@example.com")
	chatID := uuid.NewString()

	status, _ := do(t, h, http.MethodPost, "/api/chats/"+chatID+"/send", ann, map[string]string{"message": "mine"})
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, h, http.MethodPost, "/api/chats/"+chatID+"/send", bob, map[string]string{"message": "also mine?"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = do(t, h, http.MethodGet, "/api/chats/"+chatID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChats_CRUD(t *testing.T) {
	h, _ := newTestServer(t)
	token := register(t, h, "ann@example.com")

	status, body := do(t, h, http.MethodPost, "/api/chats", token, map[string]string{})
	require.Equal(t, http.StatusCreated, status)
	created := body["data"].(map[string]any)
	assert.Equal(t, "untitled", created["title"])
	chatID := created["id"].(string)

	status, body = do(t, h, http.MethodPost, "/api/chats/"+chatID+"/messages", token, map[string]string{
		"role": "assistant", "content": "Welcome!",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].(map[string]any)["messages"], 1)

	status, _ = do(t, h, http.MethodPost, "/api/chats/"+chatID+"/messages", token, map[string]string{
		"role": "system", "content": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, h, http.MethodPut, "/api/chats/"+chatID+"/title", token, map[string]string{"title": "Renamed"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", body["data"].(map[string]any)["title"])

	status, _ = do(t, h, http.MethodPut, "/api/chats/"+chatID, token, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, h, http.MethodPost, "/api/chats/"+chatID+"/title/suggest", token, nil)
	assert.Equal(t, http.StatusBadRequest, status, "no user message yet")

	status, body = do(t, h, http.MethodGet, "/api/chats", token, nil)
	require.Equal(t, http.StatusOK, status)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "messages")

	status, _ = do(t, h, http.MethodDelete, "/api/chats/"+chatID, token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, h, http.MethodDelete, "/api/chats/"+chatID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChats_BlankContentRejected(t *testing.T) {
	h, _ := newTestServer(t)
	token := register(t, h, "ann@example.com")

	status, body := do(t, h, http.MethodPost, "/api/chats", token, map[string]string{"title": "Original"})
	require.Equal(t, http.StatusCreated, status)
	chatID := body["data"].(map[string]any)["id"].(string)

	status, body = do(t, h, http.MethodPost, "/api/chats/"+chatID+"/messages", token, map[string]string{
		"role": "user", "content": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "content")

	for _, path := range []string{"/title", ""} {
		status, body = do(t, h, http.MethodPut, "/api/chats/"+chatID+path, token, map[string]string{"title": " \t "})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["error"], "title")
	}

	status, body = do(t, h, http.MethodGet, "/api/chats/"+chatID, token, nil)
	require.Equal(t, http.StatusOK, status)
	chat := body["data"].(map[string]any)
	assert.Equal(t, "Original", chat["title"])
	assert.Empty(t, chat["messages"])
}

func TestChats_SuggestTitleFallback(t *testing.T) {
	h, _ := newTestServer(t)
	token := register(t, h, "ann@example.com")
	chatID := uuid.NewString()

	status, _ := do(t, h, http.MethodPost, "/api/chats/"+chatID+"/send", token, map[string]string{
		"message": "What are the quarterly emissions for plant seven?",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, h, http.MethodPost, "/api/chats/"+chatID+"/title/suggest", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "What are the quarterly emissio...", body["data"].(map[string]any)["title"])
}

func upload(t *testing.T, h http.Handler, token, filename string, content []byte) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return rec.Code, out
}

func TestUpload(t *testing.T) {
	h, blobs := newTestServer(t)
	token := register(t, h, "ann@example.com")

	status, body := upload(t, h, token, "Annual Report.pdf", []byte("%PDF-1.7 test"))
	require.Equal(t, http.StatusOK, status, body)

	data := body["data"].(map[string]any)
	assert.Equal(t, "Annual-Report.pdf", data["filename"])
	assert.Equal(t, "https://storage.test/pdfs/Annual-Report.pdf", data["url"])
	assert.Equal(t, true, data["processing"].(map[string]any)["success"])
	assert.Equal(t, []byte("%PDF-1.7 test"), blobs.objects["pdfs/Annual-Report.pdf"])

	status, _ = upload(t, h, token, "payload.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = upload(t, h, token, "huge.pdf", bytes.Repeat([]byte("a"), 1<<20+1<<19))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
}
