package router

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Chirper/app/controllers"
	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/auth"
	"github.com/ManuelReschke/Chirper/internal/pkg/events"
	"github.com/ManuelReschke/Chirper/internal/pkg/mail"
	"github.com/ManuelReschke/Chirper/internal/pkg/security"
	"github.com/ManuelReschke/Chirper/internal/pkg/session"
	"github.com/ManuelReschke/Chirper/internal/pkg/testutil"
)

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

var linkPattern = regexp.MustCompile(`href="([^"]+)"`)

// lastLink returns path and query of the newest verification link.
func (o *outbox) lastLink(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	m := linkPattern.FindStringSubmatch(o.sent[len(o.sent)-1].Body)
	require.Len(t, m, 2)
	u, err := url.Parse(html.UnescapeString(m[1]))
	require.NoError(t, err)
	return u.RequestURI()
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	app   *fiber.App
	repos *repository.Repositories
	box   *outbox
	rec   *recorder
	clk   *clock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	signer, err := security.NewSigner("test-app-key")
	require.NoError(t, err)

	e := &env{
		repos: repository.NewRepositories(testutil.NewDB(t)),
		box:   &outbox{},
		rec:   &recorder{},
		clk:   &clock{t: time.Now().UTC().Truncate(time.Second)},
	}
	e.app = New(Deps{
		Repos:     e.repos,
		Sessions:  session.NewSessionStore(nil),
		Signer:    signer,
		Mailer:    e.box,
		Publisher: e.rec,
		BaseURL:   "http://chirper.test",
		Now:       e.clk.Now,
	})
	return e
}

// browser keeps cookies between requests like a real client.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (e *env) browser(t *testing.T) *browser {
	return &browser{t: t, app: e.app, cookies: map[string]string{}}
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		expired := !c.Expires.IsZero() && c.Expires.Before(time.Now())
		if c.Value == "" || c.MaxAge < 0 || expired {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits a form with the current CSRF token.
func (b *browser) post(path string, form url.Values) *http.Response {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if _, ok := form[session.CSRFFormField]; !ok {
		if _, ok := b.cookies[session.CSRFCookie]; !ok {
			b.get("/")
		}
		form.Set(session.CSRFFormField, b.cookies[session.CSRFCookie])
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (e *env) api(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"name":                  "Alice",
		"email":                 email,
		"password":              "password123",
		"password_confirmation": "password123",
	}
}

// registerAPI registers a user and returns its bearer token.
func (e *env) registerAPI(t *testing.T, email string, verified bool) (string, *models.User) {
	t.Helper()
	resp, body := e.api(t, http.MethodPost, "/api/auth/register", "", registerBody(email))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	user, err := e.repos.User.GetByEmail(email)
	require.NoError(t, err)
	if verified {
		_, err := e.repos.User.MarkEmailVerified(user.ID, e.clk.Now())
		require.NoError(t, err)
	}
	return body["access_token"].(string), user
}

func TestAPIRegisterReturnsTokenEnvelope(t *testing.T) {
	e := newEnv(t)

	resp, body := e.api(t, http.MethodPost, "/api/auth/register", "", registerBody("alice@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	assert.Equal(t, "User registered successfully. Please verify your email.", body["message"])
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, float64(3600), body["expires_in"])
	assert.Contains(t, body["access_token"], "|chp_")
	assert.Equal(t, e.clk.Now().Add(time.Hour).Format(controllers.ExpiresAtLayout), body["expires_at"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.Nil(t, user["email_verified_at"])

	// a verification link went out
	assert.Len(t, e.box.sent, 1)
}

func TestAPIRegisterValidation(t *testing.T) {
	e := newEnv(t)
	e.registerAPI(t, "alice@example.com", false)

	resp, body := e.api(t, http.MethodPost, "/api/auth/register", "", registerBody("ALICE@example.com"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["errors"], "email")

	bad := registerBody("bob@example.com")
	bad["password_confirmation"] = "something-else"
	resp, body = e.api(t, http.MethodPost, "/api/auth/register", "", bad)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["errors"], "password")

	resp, _ = e.api(t, http.MethodPost, "/api/auth/register", "", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAPILogin(t *testing.T) {
	e := newEnv(t)
	e.registerAPI(t, "alice@example.com", false)

	resp, body := e.api(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, float64(3600), body["expires_in"])
	assert.NotNil(t, body["user"])

	resp, body = e.api(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, map[string]any{"message": "Invalid credentials"}, body)

	resp, body = e.api(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "password123"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, map[string]any{"message": "Invalid credentials"}, body)
}

func TestAPIMeAndLogout(t *testing.T) {
	e := newEnv(t)
	token, user := e.registerAPI(t, "alice@example.com", false)

	resp, body := e.api(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(user.ID), body["user"].(map[string]any)["id"])

	resp, body = e.api(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", body["message"])

	resp, body = e.api(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthenticated.", body["message"])

	resp, _ = e.api(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPIRefresh(t *testing.T) {
	e := newEnv(t)
	token, _ := e.registerAPI(t, "alice@example.com", false)

	e.clk.Advance(10 * time.Minute)
	resp, body := e.api(t, http.MethodPost, "/api/auth/refresh", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Token refreshed successfully", body["message"])
	assert.NotContains(t, body, "user")
	assert.Equal(t, e.clk.Now().Add(time.Hour).Format(controllers.ExpiresAtLayout), body["expires_at"])
	fresh := body["access_token"].(string)
	assert.NotEqual(t, token, fresh)

	resp, _ = e.api(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp, _ = e.api(t, http.MethodGet, "/api/auth/me", fresh, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPITokenExpiresAfterSixtyMinutes(t *testing.T) {
	e := newEnv(t)
	token, _ := e.registerAPI(t, "alice@example.com", false)

	e.clk.Advance(59 * time.Minute)
	resp, _ := e.api(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	e.clk.Advance(time.Minute)
	resp, _ = e.api(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPIUnverifiedUserCannotChirp(t *testing.T) {
	e := newEnv(t)
	token, _ := e.registerAPI(t, "alice@example.com", false)

	resp, body := e.api(t, http.MethodPost, "/api/chirps", token, map[string]string{"message": "hello"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, map[string]any{"message": "Your email address is not verified."}, body)

	resp, _ = e.api(t, http.MethodGet, "/api/chirps", token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	list, err := e.repos.Chirp.Latest(50)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAPIChirpLifecycle(t *testing.T) {
	e := newEnv(t)
	alice, aliceUser := e.registerAPI(t, "alice@example.com", true)
	bob, _ := e.registerAPI(t, "bob@example.com", true)

	resp, body := e.api(t, http.MethodPost, "/api/chirps", alice, map[string]string{"message": strings.Repeat("a", 255)})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := body["id"].(float64)
	assert.Equal(t, float64(aliceUser.ID), body["user_id"])
	path := fmt.Sprintf("/api/chirps/%d", uint(id))

	resp, body = e.api(t, http.MethodPost, "/api/chirps", alice, map[string]string{"message": strings.Repeat("a", 256)})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["errors"], "message")

	resp, _ = e.api(t, http.MethodGet, path, bob, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = e.api(t, http.MethodPut, path, bob, map[string]string{"message": "hijacked"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = e.api(t, http.MethodDelete, path, bob, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = e.api(t, http.MethodPut, path, alice, map[string]string{"message": "edited"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "edited", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/chirps", nil)
	req.Header.Set("Authorization", "Bearer "+bob)
	listResp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice@example.com", list[0]["user"].(map[string]any)["email"])

	resp, _ = e.api(t, http.MethodDelete, path, alice, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = e.api(t, http.MethodDelete, path, alice, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = e.api(t, http.MethodPut, "/api/chirps/abc", alice, map[string]string{"message": "x"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func (b *browser) registerWeb(email string) *http.Response {
	b.t.Helper()
	b.get("/register")
	return b.post("/register", url.Values{
		"name":                  {"Alice"},
		"email":                 {email},
		"password":              {"password123"},
		"password_confirmation": {"password123"},
	})
}

func TestWebRegisterVerifyAndChirp(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)

	resp := b.registerWeb("alice@example.com")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/email/verify", resp.Header.Get("Location"))
	require.Contains(t, b.cookies, session.CookieName)

	resp = b.get("/email/verify")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// gated until verified
	resp = b.post("/chirps", url.Values{"message": {"too early"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/email/verify", resp.Header.Get("Location"))

	link := e.box.lastLink(t)
	resp = b.get(link)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	require.Len(t, e.rec.events, 1)

	// a second click is fine and does not announce again
	resp = b.get(link)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Len(t, e.rec.events, 1)

	resp = b.get("/email/verify")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	resp = b.post("/chirps", url.Values{"message": {"first chirp"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = b.get("/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "first chirp")
	assert.Contains(t, string(page), "Alice")
}

func TestWebVerifyRejectsTamperedAndForeignLinks(t *testing.T) {
	e := newEnv(t)
	alice := e.browser(t)
	alice.registerWeb("alice@example.com")
	link := e.box.lastLink(t)

	resp := alice.get(strings.Replace(link, "signature=", "signature=00", 1))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/email/verify", resp.Header.Get("Location"))

	bob := e.browser(t)
	bob.registerWeb("bob@example.com")
	resp = bob.get(link)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	e.clk.Advance(2 * time.Hour)
	resp = alice.get(link)
	assert.Equal(t, "/email/verify", resp.Header.Get("Location"))

	user, err := e.repos.User.GetByEmail("alice@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsVerified())
	assert.Empty(t, e.rec.events)
}

func TestWebResend(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)
	b.registerWeb("alice@example.com")
	require.Len(t, e.box.sent, 1)

	resp := b.post("/email/resend", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/email/verify", resp.Header.Get("Location"))
	assert.Len(t, e.box.sent, 2)
}

func TestWebLoginLogout(t *testing.T) {
	e := newEnv(t)
	e.registerAPI(t, "alice@example.com", true)
	b := e.browser(t)

	b.get("/login")
	resp := b.post("/login", url.Values{"email": {"alice@example.com"}, "password": {"wrong-password"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.NotContains(t, b.cookies, auth.RememberCookie)

	resp = b.post("/login", url.Values{"email": {"alice@example.com"}, "password": {"password123"}, "remember": {"true"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	require.Contains(t, b.cookies, auth.RememberCookie)

	// guests only
	resp = b.get("/login")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	resp = b.post("/logout", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.NotContains(t, b.cookies, auth.RememberCookie)
	assert.NotContains(t, b.cookies, session.CSRFCookie)

	resp = b.post("/chirps", url.Values{"message": {"after logout"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestWebPostWithoutCSRFTokenIsRejected(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)
	b.get("/login")

	resp := b.post("/login", url.Values{
		session.CSRFFormField: {"forged"},
		"email":               {"alice@example.com"},
		"password":            {"password123"},
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWebNonOwnerCannotEdit(t *testing.T) {
	e := newEnv(t)
	_, aliceUser := e.registerAPI(t, "alice@example.com", true)
	e.registerAPI(t, "bob@example.com", true)
	chirp := &models.Chirp{UserID: aliceUser.ID, Message: "mine"}
	require.NoError(t, e.repos.Chirp.Create(chirp))

	bob := e.browser(t)
	bob.get("/login")
	bob.post("/login", url.Values{"email": {"bob@example.com"}, "password": {"password123"}})

	resp := bob.get(fmt.Sprintf("/chirps/%d/edit", chirp.ID))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = bob.post(fmt.Sprintf("/chirps/%d/delete", chirp.ID), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	got, err := e.repos.Chirp.GetByID(chirp.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Message)
}
