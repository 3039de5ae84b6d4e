package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memberhub/backend/internal/accounts"
	"github.com/memberhub/backend/internal/auth"
	"github.com/memberhub/backend/internal/database"
	"github.com/memberhub/backend/internal/members"
	"github.com/memberhub/backend/internal/profiles"
	"github.com/memberhub/backend/internal/server"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionSigningSecret = "integration-secret"
	sessionCookieName    = "session"
	jsonContentType      = "application/json"
)

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(step)
}

type integrationEnv struct {
	server   *httptest.Server
	accounts *accounts.Provider
	clock    *steppingClock
}

func newIntegrationEnv(testContext *testing.T) integrationEnv {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite("file:"+testContext.Name()+"?mode=memory&cache=shared", zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}

	clock := &steppingClock{now: time.Now().UTC()}
	accountProvider, err := accounts.NewProvider(accounts.ProviderConfig{
		Database:      db,
		SigningSecret: []byte(sessionSigningSecret),
		BcryptCost:    bcrypt.MinCost,
		Clock:         clock.Now,
	})
	if err != nil {
		testContext.Fatalf("failed to build account provider: %v", err)
	}
	profileStore, err := profiles.NewGORMStore(profiles.GORMStoreConfig{Database: db})
	if err != nil {
		testContext.Fatalf("failed to build profile store: %v", err)
	}
	resolver, err := auth.NewSessionResolver(auth.SessionResolverConfig{
		Provider:   accountProvider,
		CookieName: sessionCookieName,
	})
	if err != nil {
		testContext.Fatalf("failed to build session resolver: %v", err)
	}
	memberService, err := members.NewService(members.ServiceConfig{
		Provider:   accountProvider,
		Store:      profileStore,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		testContext.Fatalf("failed to build member service: %v", err)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		SessionResolver: resolver,
		MemberService:   memberService,
		Logger:          zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build handler: %v", err)
	}

	testServer := httptest.NewServer(handler)
	testContext.Cleanup(testServer.Close)
	return integrationEnv{server: testServer, accounts: accountProvider, clock: clock}
}

func (env integrationEnv) sessionCookie(testContext *testing.T, uid string) *http.Cookie {
	testContext.Helper()
	value, _, err := env.accounts.MintSession(context.Background(), uid)
	if err != nil {
		testContext.Fatalf("failed to mint session: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: value}
}

type apiResponse struct {
	Msg   string             `json:"msg"`
	Error string             `json:"error"`
	User  members.Member     `json:"user"`
	Users []profiles.Profile `json:"users"`
}

func (env integrationEnv) call(testContext *testing.T, method, path string, cookie *http.Cookie, payload any) (int, apiResponse) {
	testContext.Helper()
	var body *bytes.Reader
	if payload == nil {
		body = bytes.NewReader(nil)
	} else {
		encoded, err := json.Marshal(payload)
		if err != nil {
			testContext.Fatalf("failed to encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request, err := http.NewRequest(method, env.server.URL+path, body)
	if err != nil {
		testContext.Fatalf("failed to build request: %v", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", jsonContentType)
	}
	if cookie != nil {
		request.AddCookie(cookie)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		testContext.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		testContext.Fatalf("failed to decode %s %s response: %v", method, path, err)
	}
	return response.StatusCode, decoded
}

func TestMembershipAdministrationFlow(testContext *testing.T) {
	env := newIntegrationEnv(testContext)

	status, registered := env.call(testContext, http.MethodPost, "/register", nil, map[string]any{
		"email":    "president@example.com",
		"password": "hunter2",
		"name":     "Pat",
	})
	if status != http.StatusCreated {
		testContext.Fatalf("unexpected register status %d: %+v", status, registered)
	}
	if !registered.User.IsAdmin || registered.User.Role != members.RegisteredRole {
		testContext.Fatalf("expected registered user to be an admin president, got %+v", registered.User)
	}

	status, duplicate := env.call(testContext, http.MethodPost, "/register", nil, map[string]any{
		"email":    "President@example.com",
		"password": "other",
		"name":     "Copy",
	})
	if status != http.StatusBadRequest || duplicate.Msg != "User already exists" {
		testContext.Fatalf("expected duplicate registration to conflict, got %d %+v", status, duplicate)
	}

	adminCookie := env.sessionCookie(testContext, registered.User.UID)

	status, created := env.call(testContext, http.MethodPost, "/add_user", adminCookie, map[string]any{
		"email":     "member@example.com",
		"password":  "secret",
		"committee": "Web",
		"role":      "Member",
		"name":      "Mo",
	})
	if status != http.StatusCreated {
		testContext.Fatalf("unexpected create status %d: %+v", status, created)
	}

	status, listed := env.call(testContext, http.MethodGet, "/get-all-users", adminCookie, nil)
	if status != http.StatusOK || len(listed.Users) != 2 {
		testContext.Fatalf("expected two users, got %d %+v", status, listed)
	}
	for _, user := range listed.Users {
		if user.UID == "" {
			testContext.Fatalf("expected every listed user to carry its id, got %+v", user)
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		status, edited := env.call(testContext, http.MethodPut, "/edit_user/"+created.User.UID, adminCookie, map[string]any{
			"committee": "Design",
		})
		if status != http.StatusOK {
			testContext.Fatalf("unexpected edit status %d: %+v", status, edited)
		}
	}

	memberCookie := env.sessionCookie(testContext, created.User.UID)
	status, memberView := env.call(testContext, http.MethodGet, "/get-all-users", memberCookie, nil)
	if status != http.StatusOK {
		testContext.Fatalf("expected non-admin member to list users, got %d", status)
	}
	for _, user := range memberView.Users {
		if user.UID == created.User.UID && user.Committee != "Design" {
			testContext.Fatalf("expected committee to be edited, got %q", user.Committee)
		}
	}

	status, denied := env.call(testContext, http.MethodDelete, "/delete-user/"+registered.User.UID, memberCookie, nil)
	if status != http.StatusUnauthorized {
		testContext.Fatalf("expected non-admin delete to be rejected, got %d %+v", status, denied)
	}

	status, _ = env.call(testContext, http.MethodDelete, "/delete-user/"+created.User.UID, adminCookie, nil)
	if status != http.StatusOK {
		testContext.Fatalf("unexpected delete status %d", status)
	}
	status, listed = env.call(testContext, http.MethodGet, "/get-all-users", adminCookie, nil)
	if status != http.StatusOK || len(listed.Users) != 1 {
		testContext.Fatalf("expected one remaining user, got %d %+v", status, listed)
	}
}

func TestRevokedSessionIsUnauthenticated(testContext *testing.T) {
	env := newIntegrationEnv(testContext)

	status, registered := env.call(testContext, http.MethodPost, "/register", nil, map[string]any{
		"email":    "admin@example.com",
		"password": "hunter2",
		"name":     "Ada",
	})
	if status != http.StatusCreated {
		testContext.Fatalf("unexpected register status %d", status)
	}
	cookie := env.sessionCookie(testContext, registered.User.UID)

	env.clock.Advance(time.Minute)
	if err := env.accounts.RevokeSessions(context.Background(), registered.User.UID); err != nil {
		testContext.Fatalf("failed to revoke sessions: %v", err)
	}

	status, response := env.call(testContext, http.MethodGet, "/get-all-users", cookie, nil)
	if status != http.StatusUnauthorized {
		testContext.Fatalf("expected revoked session to be rejected, got %d %+v", status, response)
	}

	fresh := env.sessionCookie(testContext, registered.User.UID)
	if status, _ := env.call(testContext, http.MethodGet, "/get-all-users", fresh, nil); status != http.StatusOK {
		testContext.Fatalf("expected fresh session to be accepted, got %d", status)
	}
}
