package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stb-lab/websettings/session"
	"github.com/stb-lab/websettings/settings"
)

const testSchema = `[
	{"name": "a", "title": "TestA", "type": "string", "value": "qwerty"},
	{"name": "b", "title": "TestB", "type": "integer", "value": 33, "min": 0, "max": 100},
	{"name": "c", "title": "TestC", "type": "selection", "value": "foo", "options": [
		{"value": "foo", "title": "Foo!"},
		{"value": "bar", "title": "Bar!"}
	]},
	{"name": "d", "title": "TestD", "type": "bool", "value": false}
]`

type testEnv struct {
	engine *session.Engine
	srv    *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	engine := session.New()
	r := chi.NewRouter()
	r.Mount("/", New(engine).Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		engine: engine,
		srv:    srv,
		client: &http.Client{Jar: jar},
	}
}

func (env *testEnv) register(t *testing.T) (string, session.Secret) {
	t.Helper()
	var items []settings.Item
	require.NoError(t, json.Unmarshal([]byte(testSchema), &items))
	key, secret, err := env.engine.Register(items)
	require.NoError(t, err)
	return key, secret
}

// login posts the one-time code and follows the redirect to the settings page.
func (env *testEnv) login(t *testing.T, code string) string {
	t.Helper()
	resp, err := env.client.PostForm(env.srv.URL+"/", url.Values{"code": {code}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return readBody(t, resp)
}

func (env *testEnv) csrfToken(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(env.srv.URL)
	require.NoError(t, err)
	for _, c := range env.client.Jar.Cookies(u) {
		if c.Name == csrfCookieName {
			return c.Value
		}
	}
	t.Fatal("no CSRF cookie in jar")
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.Get(env.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Access code")
	assert.Contains(t, body, `name="code"`)
}

func TestLoginPageLocalized(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := readBody(t, resp)
	assert.Contains(t, body, "Zugangscode")
}

func TestRedeemAndRenderSettings(t *testing.T) {
	env := newTestEnv(t)
	key, _ := env.register(t)

	body := env.login(t, key)
	assert.Contains(t, body, "TestA")
	assert.Contains(t, body, "qwerty")
	assert.Contains(t, body, "TestB")
	assert.Contains(t, body, "Foo!")
	assert.Contains(t, body, csrfFieldName)
}

func TestRedeemRejectsBadCode(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.PostForm(env.srv.URL+"/", url.Values{"code": {"wrong"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "This code is not valid")
}

func TestRedeemRequiresCode(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.PostForm(env.srv.URL+"/", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRedeemRateLimited(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < redeemMaxFailures; i++ {
		resp, err := env.client.PostForm(env.srv.URL+"/", url.Values{"code": {"wrong"}})
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := env.client.PostForm(env.srv.URL+"/", url.Values{"code": {"wrong"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSettingsPageRequiresCookie(t *testing.T) {
	env := newTestEnv(t)

	// Without a session cookie the browser lands back on the login page.
	resp, err := env.client.Get(env.srv.URL + "/settings")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Access code")
}

func TestSubmitSettings(t *testing.T) {
	env := newTestEnv(t)
	key, secret := env.register(t)
	env.login(t, key)

	// A device poll parked at revision 0 must resolve with the submitted
	// values at revision 1.
	type pollOut struct {
		values session.Values
		err    error
	}
	polled := make(chan pollOut, 1)
	go func() {
		v, err := env.engine.Values(context.Background(), secret, 0)
		polled <- pollOut{v, err}
	}()
	time.Sleep(50 * time.Millisecond)

	form := url.Values{
		csrfFieldName: {env.csrfToken(t)},
		"a":           {"sometext"},
		"b":           {"42"},
		"c":           {"bar"},
		"d":           {"", "on"}, // hidden twin plus the checked box
	}
	resp, err := env.client.PostForm(env.srv.URL+"/settings", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Saved")

	select {
	case out := <-polled:
		require.NoError(t, out.err)
		assert.Equal(t, uint64(1), out.values.Revision)
		assert.Equal(t, "sometext", out.values.Values[0].Value.(*settings.StringValue).Value)
		assert.Equal(t, uint32(42), out.values.Values[1].Value.(*settings.IntegerValue).Value)
		assert.Equal(t, "bar", out.values.Values[2].Value.(*settings.SelectionValue).Value)
		assert.True(t, out.values.Values[3].Value.(*settings.BoolValue).Value)
	case <-time.After(3 * time.Second):
		t.Fatal("device poll did not resolve after submit")
	}
}

func TestSubmitSettingsUncheckedBox(t *testing.T) {
	env := newTestEnv(t)
	key, secret := env.register(t)
	env.login(t, key)

	require.NoError(t, env.engine.Update(secret, map[string]string{"d": "on"}))

	// Only the hidden twin arrives when the box is unchecked.
	form := url.Values{
		csrfFieldName: {env.csrfToken(t)},
		"d":           {""},
	}
	resp, err := env.client.PostForm(env.srv.URL+"/settings", form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items, err := env.engine.Settings(secret)
	require.NoError(t, err)
	assert.False(t, items[3].Value.(*settings.BoolValue).Value)
}

func TestSubmitSettingsBadValue(t *testing.T) {
	env := newTestEnv(t)
	key, secret := env.register(t)
	env.login(t, key)

	form := url.Values{
		csrfFieldName: {env.csrfToken(t)},
		"b":           {"150"},
	}
	resp, err := env.client.PostForm(env.srv.URL+"/settings", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The form is re-rendered with the stored values, not the rejected input.
	body := readBody(t, resp)
	assert.Contains(t, body, "TestB")
	assert.Contains(t, body, "not allowed")

	items, err := env.engine.Settings(secret)
	require.NoError(t, err)
	assert.Equal(t, uint32(33), items[1].Value.(*settings.IntegerValue).Value)
}

func TestSubmitSettingsRejectsBadCSRF(t *testing.T) {
	env := newTestEnv(t)
	key, _ := env.register(t)
	env.login(t, key)

	form := url.Values{
		csrfFieldName: {"forged-token"},
		"a":           {"sometext"},
	}
	resp, err := env.client.PostForm(env.srv.URL+"/settings", form)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSubmitAfterSessionRemoved(t *testing.T) {
	env := newTestEnv(t)
	key, secret := env.register(t)
	env.login(t, key)

	require.NoError(t, env.engine.Remove(secret))

	form := url.Values{
		csrfFieldName: {env.csrfToken(t)},
		"a":           {"sometext"},
	}
	resp, err := env.client.PostForm(env.srv.URL+"/settings", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Redirected back to login.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Access code")
}
