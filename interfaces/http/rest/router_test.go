package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace-backend/application/services"
	"marketplace-backend/infrastructure/gateway"
	"marketplace-backend/infrastructure/messaging/logsink"
	"marketplace-backend/infrastructure/persistence/memory"
	"marketplace-backend/pkg/auth"
	"marketplace-backend/pkg/cipher"
	"marketplace-backend/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	mux    *chi.Mux
	tokens *auth.TokenService
	sink   *logsink.Sink
	store  *memory.RecordStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	c, err := cipher.New("router-secret-key", "router-secret-iv")
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("router-jwt-secret", "marketplace-test", time.Hour)
	require.NoError(t, err)

	logger := zap.NewNop()
	metrics := observability.NopRecorder{}
	sink := logsink.New(logger)
	store := memory.NewRecordStore()
	notifier := services.NewNotifier(sink, sink, metrics, logger)
	p := services.NewPipeline(gateway.NewLocalGateway(c, metrics), store, notifier, metrics, logger)

	collector := observability.NewCollector("marketplace_test")
	router := NewRouter(services.New(p, tokens), tokens, logger, Options{EnableCORS: true, Metrics: collector})
	return &testServer{mux: router.Setup(), tokens: tokens, sink: sink, store: store}
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := s.tokens.Issue(userID)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "no header"},
		{name: "bad token", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodGet, "/api/v1/cards/c1", tt.token, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", body["type"])
		})
	}
}

func TestRouter_RegisterLoginAndUseToken(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/users", "",
		`{"email":"ada@example.com","username":"ada","password":"difference engine"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	userID, _ := body["userId"].(string)
	require.NotEmpty(t, userID)
	assert.NotEmpty(t, body["message"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/users/login", "",
		`{"email":"ada@example.com","password":"wrong password"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/api/v1/users/login", "",
		`{"email":"ada@example.com","password":"difference engine"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, body["userId"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	rec, body = s.do(t, http.MethodGet, "/api/v1/users/"+userID, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotContains(t, body, "passwordHash")
}

func TestRouter_CardLifecycle(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, "u1")
	other := s.token(t, "u2")

	rec, body := s.do(t, http.MethodPost, "/api/v1/cards", owner,
		`{"id":"c1","title":"Foo","description":"Bar","userId":"u1","status":"PENDING"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "c1", body["id"])
	assert.Equal(t, "Card created successfully", body["message"])
	assert.Contains(t, body, "notifications")
	assert.Len(t, s.sink.Messages(), 2)

	rec, body = s.do(t, http.MethodGet, "/api/v1/cards/c1", other, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Foo", body["title"])
	assert.Equal(t, "Bar", body["description"])
	assert.Equal(t, "Card retrieved successfully", body["message"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/users/u1/cards", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "Cards retrieved successfully", body["message"])
	assert.Len(t, body["cards"], 1)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/cards/c1", owner, `{"status":"ACTIVE"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/cards/c1", other, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/cards/c1", owner, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/cards/c1", owner, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CreateForAnotherUserIsForbidden(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/cards", s.token(t, "u2"),
		`{"id":"c1","title":"Foo","userId":"u1","status":"PENDING"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, s.store.Len())
}

func TestRouter_BadRequests(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "u1")

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "malformed json", path: "/api/v1/cards", body: `{"id":`},
		{name: "empty body", path: "/api/v1/cards", body: ``},
		{name: "bad currency", path: "/api/v1/listings",
			body: `{"marketplaceId":"m1","sellerId":"u1","title":"Lamp","price":3,"currency":"JPY"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodPost, tt.path, token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "BAD_REQUEST", body["type"])
		})
	}
	assert.Empty(t, s.sink.Messages())
}

func TestRouter_DeleteInactiveMarketplace(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "u1")

	rec, body := s.do(t, http.MethodPost, "/api/v1/marketplaces", token,
		`{"name":"Stamps","category":"COLLECTIBLES","ownerId":"u1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/marketplaces/"+id, token, `{"status":"INACTIVE"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	notified := len(s.sink.Messages())

	rec, body = s.do(t, http.MethodDelete, "/api/v1/marketplaces/"+id, token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status is not ACTIVE", body["message"])
	assert.Len(t, s.sink.Messages(), notified)
	assert.Equal(t, 1, s.store.Len())
}

func TestRouter_PendingMessagesIsNotAnID(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "u1")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/messages", token,
		`{"senderId":"u1","recipientId":"u2","subject":"Hi","body":"Is the lamp available?"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := s.do(t, http.MethodGet, "/api/v1/messages/pending", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 1, body["forwarded"])
	assert.NotEmpty(t, body["message"])
}

func TestRouter_APIGatewayAuthorizerClaims(t *testing.T) {
	s := newTestServer(t)
	adapter := chiadapter.NewV2(s.mux)

	tests := []struct {
		name       string
		authorizer *events.APIGatewayV2HTTPRequestContextAuthorizerDescription
		want       int
	}{
		{
			name: "jwt authorizer",
			authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{"sub": "u1"},
				},
			},
			want: http.StatusOK,
		},
		{
			name: "lambda authorizer",
			authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				Lambda: map[string]interface{}{"userId": "u1"},
			},
			want: http.StatusOK,
		},
		{
			name:       "no claims",
			authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{},
			want:       http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := adapter.ProxyWithContextV2(context.Background(), events.APIGatewayV2HTTPRequest{
				RawPath: "/api/v1/users/u1/cards",
				Headers: map[string]string{"content-type": "application/json"},
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
						Method: http.MethodGet,
						Path:   "/api/v1/users/u1/cards",
					},
					Authorizer: tt.authorizer,
				},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode, resp.Body)
		})
	}
}
