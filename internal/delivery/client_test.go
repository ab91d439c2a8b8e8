package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Path        string
	ContentType string
	Body        map[string]any
}

// newTestServer answers every request with the handler's status and body
// and records what was sent.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, func() []recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		mu.Lock()
		reqs = append(reqs, recorded{Path: r.URL.Path, ContentType: r.Header.Get("Content-Type"), Body: m})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func TestRegisterDevice(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{"device":{"user_id":"g1"}}`)
	c := NewClient(srv.URL)

	resp, err := c.RegisterDevice(context.Background(), RegisterDeviceRequest{
		Platform: "android", Token: "tok", DeviceID: "dev", ChannelID: "chan1",
	}).Await()
	require.NoError(t, err)
	assert.Equal(t, "g1", resp.Device.UserID)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/pushapp/api/register", reqs[0].Path)
	assert.Contains(t, reqs[0].ContentType, "application/json")
	assert.Equal(t, map[string]any{
		"platform": "android", "token": "tok", "device_id": "dev", "channel_id": "chan1",
	}, reqs[0].Body)
}

func TestRegisterUser(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusCreated, "")
	c := NewClient(srv.URL + "/")

	_, err := c.RegisterUser(context.Background(), RegisterUserRequest{
		UserID: "u1", DeviceID: "dev", ChannelID: "chan1",
	}).Await()
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/pushapp/api/register/user", reqs[0].Path)
	assert.Equal(t, "u1", reqs[0].Body["user_id"])
}

func TestPostEventNilDataSendsObject(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, "")
	c := NewClient(srv.URL)

	_, err := c.PostEvent(context.Background(), EventRequest{
		UserID: "g1", ChannelID: "chan1", EventName: "x",
	}).Await()
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/pushapp/api/events", reqs[0].Path)
	assert.Equal(t, map[string]any{}, reqs[0].Body["event_data"])
	assert.Equal(t, "x", reqs[0].Body["event_name"])
}

func TestPollInApp(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK,
		`{"success":true,"data":{"type":"popup","template":{"data":{"content":["<p>hi</p>"]}}}}`)
	c := NewClient(srv.URL)

	resp, err := c.PollInApp(context.Background(), PollRequest{RuleID: "r1"}).Await()
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "popup", resp.Data["type"])

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/pushapp/api/poll/in-app", reqs[0].Path)
	assert.Equal(t, map[string]any{"rule_id": "r1"}, reqs[0].Body)
}

func TestNon2xxIsStatusError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, "oops\n")
	c := NewClient(srv.URL)

	_, err := c.PostEvent(context.Background(), EventRequest{EventName: "x"}).Await()
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, PathEvents, se.Path)
	assert.Equal(t, "oops", se.Body)
}

func TestMalformedBodyIsDecodeError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "{nope")
	c := NewClient(srv.URL)

	_, err := c.PollInApp(context.Background(), PollRequest{RuleID: "r1"}).Await()
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEmptyBodyIsZeroResponse(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "")
	c := NewClient(srv.URL)

	resp, err := c.PollInApp(context.Background(), PollRequest{RuleID: "r1"}).Await()
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithTimeout(time.Second))
	_, err := c.RegisterDevice(context.Background(), RegisterDeviceRequest{}).Await()
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestWithAPIPath(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, "")
	c := NewClient(srv.URL, WithAPIPath("/v2"))

	_, err := c.RegisterUser(context.Background(), RegisterUserRequest{UserID: "u1"}).Await()
	require.NoError(t, err)
	assert.Equal(t, "/v2/register/user", requests()[0].Path)
	assert.Equal(t, srv.URL+"/v2/events", c.URL(PathEvents))
}
