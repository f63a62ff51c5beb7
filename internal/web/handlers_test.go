package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/prefixsql/internal/flash"
	"github.com/leapstack-labs/prefixsql/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, cfg flash.Config) *client {
	t.Helper()
	srv := NewServer(Config{
		SessionSecret: "test-secret-key-32-bytes-long!!",
		Flash:         cfg,
		Logger:        testutil.NewTestLogger(t),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, form url.Values) *http.Response {
	c.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (c *client) messages(key string) []flash.Message {
	c.t.Helper()
	resp := c.do(http.MethodGet, "/flash?key="+key, nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var msgs []flash.Message
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&msgs))
	return msgs
}

func TestSetAndConsume(t *testing.T) {
	c := newClient(t, flash.Config{})

	resp := c.do(http.MethodPost, "/flash/success", url.Values{"message": {"saved"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var set SetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&set))
	assert.Equal(t, SetResponse{Key: "flash", Index: flash.NoIndex}, set)

	msgs := c.messages("")
	require.Len(t, msgs, 1)
	assert.Equal(t, "saved", msgs[0].Message)
	assert.Equal(t, "Flash/success", msgs[0].Element)

	assert.Empty(t, c.messages(""))
}

func TestSetStackedWithPluginAndKey(t *testing.T) {
	c := newClient(t, flash.Config{Stacking: flash.Stacking{Enabled: true}})

	c.do(http.MethodPost, "/flash/warning", url.Values{"message": {"one"}, "key": {"admin"}, "plugin": {"Backoffice"}})
	resp := c.do(http.MethodPost, "/flash/notice", url.Values{"message": {"two"}, "key": {"admin"}})
	var set SetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&set))
	assert.Equal(t, SetResponse{Key: "admin", Index: 1}, set)

	keysResp := c.do(http.MethodGet, "/flash/keys", nil)
	var keys []string
	require.NoError(t, json.NewDecoder(keysResp.Body).Decode(&keys))
	assert.Equal(t, []string{"admin"}, keys)

	msgs := c.messages("admin")
	require.Len(t, msgs, 2)
	assert.Equal(t, "Backoffice.Flash/warning", msgs[0].Element)
	assert.Equal(t, "Flash/notice", msgs[1].Element)
}

func TestSetRequiresMessage(t *testing.T) {
	c := newClient(t, flash.Config{})
	resp := c.do(http.MethodPost, "/flash/info", url.Values{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClear(t *testing.T) {
	c := newClient(t, flash.Config{Stacking: flash.Stacking{Enabled: true}})
	c.do(http.MethodPost, "/flash/error", url.Values{"message": {"bad"}})
	c.do(http.MethodPost, "/flash/info", url.Values{"message": {"fyi"}})

	resp := c.do(http.MethodDelete, "/flash?type=error", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	c.do(http.MethodPost, "/flash/info", url.Values{"message": {"other"}, "key": {"side"}})
	c.do(http.MethodDelete, "/flash?key=side", nil)

	msgs := c.messages("")
	require.Len(t, msgs, 1)
	assert.Equal(t, "fyi", msgs[0].Message)
	assert.Empty(t, c.messages("side"))
}

func TestStreamPatchesSignals(t *testing.T) {
	c := newClient(t, flash.Config{})
	c.do(http.MethodPost, "/flash/success", url.Values{"message": {"published"}})

	resp := c.do(http.MethodGet, "/flash/sse", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "datastar-patch-signals")
	assert.Contains(t, string(body), `"published"`)

	assert.Empty(t, c.messages(""))
}

func TestInvalidCookieStartsFreshSession(t *testing.T) {
	h := NewServer(Config{SessionSecret: "test-secret-key-32-bytes-long!!"}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/flash", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "garbage"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	srv := NewServer(Config{Addr: addr, Logger: testutil.NewTestLogger(t)})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/flash/keys")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
