package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshub16/dancevote/display"
	"github.com/himanshub16/dancevote/feed"
	"github.com/himanshub16/dancevote/vote"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []vote.Intent
}

func (r *recordingSender) Send(_ context.Context, i vote.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, i)
	return nil
}

func (r *recordingSender) intents() []vote.Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]vote.Intent(nil), r.sent...)
}

func newTestViewer(t *testing.T) (*echo.Echo, *display.List, *recordingSender) {
	t.Helper()
	quiet := log.New("test")
	quiet.SetOutput(io.Discard)

	sender := &recordingSender{}
	submitter := vote.NewSubmitter(sender, vote.WithCooldown(time.Hour), vote.WithLogger(quiet))
	t.Cleanup(submitter.Close)

	list := display.NewList()
	list.Prepend(feed.Entry{Index: 0, Hash: "abc123", Author: "Ravel", Title: "Bolero", MPM: 72})

	e := newViewerRouter(&viewer{list: list, submitter: submitter, refresh: 2}, log.ERROR)
	e.Logger.SetOutput(io.Discard)
	return e, list, sender
}

func press(e *echo.Echo, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/press", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func pressForm(i vote.Intent) url.Values {
	form := i.Form()
	form.Set("control", display.ControlID(i))
	return form
}

func TestPressSendsVoteOnce(t *testing.T) {
	e, _, sender := newTestViewer(t)
	i := vote.Intent{SongHash: "abc123", Category: vote.Popularity, Value: 4}

	rec := press(e, pressForm(i))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	// second press lands during the cool-down
	rec = press(e, pressForm(i))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Eventually(t, func() bool { return len(sender.intents()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []vote.Intent{i}, sender.intents())
}

func TestPressRejectsBadRequests(t *testing.T) {
	e, _, sender := newTestViewer(t)

	mismatched := pressForm(vote.Intent{SongHash: "abc123", Category: vote.Popularity, Value: 4})
	mismatched.Set("control", "abc123/popularity/5")

	tests := []struct {
		name string
		form url.Values
		code int
	}{
		{"invalid value", url.Values{"control": {"abc123/popularity/9"}, "songHash": {"abc123"}, "voteType": {"popularity"}, "voteValue": {"9"}}, http.StatusBadRequest},
		{"control mismatch", mismatched, http.StatusBadRequest},
		{"song not shown", pressForm(vote.Intent{SongHash: "zzz", Category: vote.Popularity, Value: 4}), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, press(e, tt.form).Code)
		})
	}
	assert.Empty(t, sender.intents())
}

func TestPageShowsDisabledControl(t *testing.T) {
	e, _, _ := newTestViewer(t)
	press(e, pressForm(vote.Intent{SongHash: "abc123", Category: vote.RhythmClarity, Value: 5}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Ravel – Bolero")
	assert.Contains(t, body, "72.0 MPM")
	assert.Equal(t, 15, strings.Count(body, "<button"))
	assert.Equal(t, 1, strings.Count(body, "disabled"))
}

func TestBlocksSnapshot(t *testing.T) {
	e, list, _ := newTestViewer(t)
	list.Prepend(feed.Entry{Index: 1, Hash: "def456", Title: "Libertango"})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blocks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var blocks []display.Block
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocks))
	require.Len(t, blocks, 2)
	assert.Equal(t, "def456", blocks[0].Hash)
	assert.Equal(t, "abc123", blocks[1].Hash)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("FEED_URL", "http://radio:3000")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("WATERMARK_POLICY", "last-write")

	cfg, err := loadConfig([]string{"--cooldown", "2s"})
	require.NoError(t, err)
	assert.Equal(t, "http://radio:3000", cfg.FeedURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Cooldown)
	assert.Equal(t, feed.WatermarkLastWrite, cfg.Policy)

	_, err = loadConfig([]string{"--watermark", "newest"})
	assert.Error(t, err)
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("feed", log.DEBUG)
	l.SetOutput(&buf)
	l.Debugf("merged %d entries", 3)
	assert.Contains(t, buf.String(), "merged 3 entries")

	buf.Reset()
	l = newLogger("vote", log.WARN)
	l.SetOutput(&buf)
	l.Infof("vote recorded")
	assert.Empty(t, buf.String())
}
