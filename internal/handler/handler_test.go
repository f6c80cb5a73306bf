package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/circles"
	"github.com/Achess01/ComparteRide-platzi/internal/invitations"
	"github.com/Achess01/ComparteRide-platzi/internal/invitecode"
	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/rides"
	"github.com/Achess01/ComparteRide-platzi/internal/store/storetest"
	"github.com/Achess01/ComparteRide-platzi/pkg/config"
	"github.com/Achess01/ComparteRide-platzi/pkg/jwtutil"
)

type testEnv struct {
	echo    *echo.Echo
	store   *storetest.Memory
	handler *Handler
}

func newTestEnv() *testEnv {
	st := storetest.NewMemory()
	log := zap.NewNop()
	policy := circles.DefaultQuotaPolicy()

	directory := circles.NewDirectory(st, policy, log)
	ledger := circles.NewLedger(st, log)
	manager := invitations.NewManager(st, invitecode.Generator{}, policy, log)
	rideSvc := rides.NewService(st, ledger, log)
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "testsigningkey", ExpirationHours: 1})

	h := New(st, jwt, directory, ledger, manager, rideSvc)
	return &testEnv{echo: echo.New(), store: st, handler: h}
}

func (env *testEnv) seedUser(t *testing.T, username string) model.User {
	t.Helper()
	user := model.User{Username: username, Email: username + "@example.com"}
	if err := env.store.Users().Create(context.Background(), &user); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

// request builds an echo context carrying the authenticated user the
// way the JWT middleware would.
func (env *testEnv) request(method, target, body string, as model.User) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	if as.ID != 0 {
		c.Set("user_id", as.ID)
		c.Set("email", as.Email)
		c.Set("username", as.Username)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv()

	c, rec := env.request(http.MethodPost, "/auth/register",
		`{"username":"pablo","email":"pablo@example.com","password":"s3cret"}`, model.User{})
	if err := env.handler.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d, want 201: %s", rec.Code, rec.Body.String())
	}

	c, rec = env.request(http.MethodPost, "/auth/login",
		`{"email":"pablo@example.com","password":"s3cret"}`, model.User{})
	if err := env.handler.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	var token string
	if err := json.Unmarshal(body["token"], &token); err != nil || token == "" {
		t.Fatalf("expected a token in the response, got %s", rec.Body.String())
	}

	c, rec = env.request(http.MethodPost, "/auth/login",
		`{"email":"pablo@example.com","password":"wrong"}`, model.User{})
	if err := env.handler.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status %d, want 401", rec.Code)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "pablo")

	c, rec := env.request(http.MethodPost, "/auth/register",
		`{"username":"pablo","email":"other@example.com","password":"s3cret"}`, model.User{})
	if err := env.handler.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status %d, want 409", rec.Code)
	}
}

func TestCreateCircle(t *testing.T) {
	env := newTestEnv()
	pablo := env.seedUser(t, "pablo")

	c, rec := env.request(http.MethodPost, "/circles",
		`{"name":"Facultad de Ciencias","slug":"fciencias"}`, pablo)
	if err := env.handler.CreateCircle(c); err != nil {
		t.Fatalf("create circle: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("create circle status %d, want 201: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	var membership model.Membership
	if err := json.Unmarshal(body["membership"], &membership); err != nil {
		t.Fatalf("decode membership: %v", err)
	}
	if !membership.IsAdmin || membership.RemainingInvitations != 10 {
		t.Errorf("founder membership admin=%v quota=%d, want admin with quota 10",
			membership.IsAdmin, membership.RemainingInvitations)
	}

	c, rec = env.request(http.MethodPost, "/circles",
		`{"name":"Otra","slug":"fciencias"}`, pablo)
	if err := env.handler.CreateCircle(c); err != nil {
		t.Fatalf("create duplicate circle: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate slug status %d, want 409: %s", rec.Code, rec.Body.String())
	}
	body = decodeBody(t, rec)
	var code string
	if err := json.Unmarshal(body["code"], &code); err != nil || code != "CIRCLE_DUPLICATE_SLUG" {
		t.Fatalf("expected code CIRCLE_DUPLICATE_SLUG, got %s", rec.Body.String())
	}
}

// founderFixture creates a user and their circle through the handler.
func founderFixture(t *testing.T, env *testEnv, username, slug string) model.User {
	t.Helper()
	user := env.seedUser(t, username)
	c, rec := env.request(http.MethodPost, "/circles",
		`{"name":"`+slug+`","slug":"`+slug+`"}`, user)
	if err := env.handler.CreateCircle(c); err != nil {
		t.Fatalf("create circle: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("create circle status %d: %s", rec.Code, rec.Body.String())
	}
	return user
}

func memberInvitations(t *testing.T, env *testEnv, as model.User, slug, username string) ([]string, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := env.request(http.MethodGet, "/circles/"+slug+"/members/"+username+"/invitations", "", as)
	c.SetParamNames("slug", "username")
	c.SetParamValues(slug, username)
	if err := env.handler.MemberInvitations(c); err != nil {
		t.Fatalf("member invitations: %v", err)
	}
	if rec.Code != http.StatusOK {
		return nil, rec
	}
	body := decodeBody(t, rec)
	var codes []string
	if err := json.Unmarshal(body["invitations"], &codes); err != nil {
		t.Fatalf("decode invitations: %v", err)
	}
	return codes, rec
}

func TestMemberInvitations(t *testing.T) {
	env := newTestEnv()
	pablo := founderFixture(t, env, "pablo", "fciencias")

	codes, rec := memberInvitations(t, env, pablo, "fciencias", "pablo")
	if rec.Code != http.StatusOK {
		t.Fatalf("invitations status %d: %s", rec.Code, rec.Body.String())
	}
	if len(codes) != 10 {
		t.Fatalf("expected 10 invitation codes, got %d", len(codes))
	}

	// The listing is stable across calls.
	again, _ := memberInvitations(t, env, pablo, "fciencias", "pablo")
	if len(again) != 10 {
		t.Fatalf("expected 10 codes on repeat, got %d", len(again))
	}
}

func TestMemberInvitationsForbiddenForOthers(t *testing.T) {
	env := newTestEnv()
	founderFixture(t, env, "pablo", "fciencias")
	maria := env.seedUser(t, "maria")

	_, rec := memberInvitations(t, env, maria, "fciencias", "pablo")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403: %s", rec.Code, rec.Body.String())
	}
}

func TestJoinCircle(t *testing.T) {
	env := newTestEnv()
	pablo := founderFixture(t, env, "pablo", "fciencias")
	maria := env.seedUser(t, "maria")

	codes, _ := memberInvitations(t, env, pablo, "fciencias", "pablo")
	if len(codes) == 0 {
		t.Fatal("expected invitation codes")
	}

	c, rec := env.request(http.MethodPost, "/circles/join", `{"code":"`+codes[0]+`"}`, maria)
	if err := env.handler.JoinCircle(c); err != nil {
		t.Fatalf("join circle: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("join status %d, want 201: %s", rec.Code, rec.Body.String())
	}

	// A used code cannot admit a second user.
	diana := env.seedUser(t, "diana")
	c, rec = env.request(http.MethodPost, "/circles/join", `{"code":"`+codes[0]+`"}`, diana)
	if err := env.handler.JoinCircle(c); err != nil {
		t.Fatalf("join circle: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("reused code status %d, want 409: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	var code string
	if err := json.Unmarshal(body["code"], &code); err != nil || code != "INVITATION_ALREADY_USED" {
		t.Fatalf("expected code INVITATION_ALREADY_USED, got %s", rec.Body.String())
	}
}

func TestJoinCircleUnknownCode(t *testing.T) {
	env := newTestEnv()
	founderFixture(t, env, "pablo", "fciencias")
	maria := env.seedUser(t, "maria")

	c, rec := env.request(http.MethodPost, "/circles/join", `{"code":"NOSUCHCODE"}`, maria)
	if err := env.handler.JoinCircle(c); err != nil {
		t.Fatalf("join circle: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown code status %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestGetCirclePrivateRequiresMembership(t *testing.T) {
	env := newTestEnv()
	pablo := env.seedUser(t, "pablo")

	c, rec := env.request(http.MethodPost, "/circles",
		`{"name":"Oficina","slug":"oficina","is_public":false}`, pablo)
	if err := env.handler.CreateCircle(c); err != nil {
		t.Fatalf("create circle: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("create circle status %d: %s", rec.Code, rec.Body.String())
	}

	get := func(as model.User) *httptest.ResponseRecorder {
		c, rec := env.request(http.MethodGet, "/circles/oficina", "", as)
		c.SetParamNames("slug")
		c.SetParamValues("oficina")
		if err := env.handler.GetCircle(c); err != nil {
			t.Fatalf("get circle: %v", err)
		}
		return rec
	}

	if rec := get(pablo); rec.Code != http.StatusOK {
		t.Fatalf("member access status %d, want 200", rec.Code)
	}
	maria := env.seedUser(t, "maria")
	if rec := get(maria); rec.Code != http.StatusForbidden {
		t.Fatalf("outsider access status %d, want 403", rec.Code)
	}
}

func TestUpdateCircleRequiresAdmin(t *testing.T) {
	env := newTestEnv()
	pablo := founderFixture(t, env, "pablo", "fciencias")
	maria := env.seedUser(t, "maria")

	update := func(as model.User) *httptest.ResponseRecorder {
		c, rec := env.request(http.MethodPatch, "/circles/fciencias", `{"about":"updated"}`, as)
		c.SetParamNames("slug")
		c.SetParamValues("fciencias")
		if err := env.handler.UpdateCircle(c); err != nil {
			t.Fatalf("update circle: %v", err)
		}
		return rec
	}

	if rec := update(maria); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin update status %d, want 403", rec.Code)
	}
	if rec := update(pablo); rec.Code != http.StatusOK {
		t.Fatalf("admin update status %d, want 200", rec.Code)
	}
}
