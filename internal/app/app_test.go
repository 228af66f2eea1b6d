package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/ontrack/internal/cue"
	"github.com/relabs-tech/ontrack/internal/geo"
	"github.com/relabs-tech/ontrack/internal/gps"
	"github.com/relabs-tech/ontrack/internal/overlay"
	"github.com/relabs-tech/ontrack/internal/prefs"
	"github.com/relabs-tech/ontrack/internal/proximity"
	"github.com/relabs-tech/ontrack/internal/route"
)

const testGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="ontrack-test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="53.0000" lon="-2.0000"></trkpt>
    <trkpt lat="53.0010" lon="-2.0000"></trkpt>
  </trkseg></trk>
</gpx>
`

type fakeRunner struct {
	mu         sync.Mutex
	tracks     []route.Track
	thresholds []float64
	checks     int
}

func (f *fakeRunner) SetTrack(t route.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks = append(f.tracks, t)
}

func (f *fakeRunner) SetThreshold(m float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thresholds = append(f.thresholds, m)
}

func (f *fakeRunner) Check() (proximity.Report, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return proximity.Report{Checked: true, Distance: 42}, true
}

type fakePub struct {
	mu     sync.Mutex
	topics []string
	values []any
}

func (f *fakePub) PublishJSON(topic string, v any, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.values = append(f.values, v)
	return nil
}

func newTestSession(t *testing.T) (*Session, *fakeRunner) {
	t.Helper()
	dir := t.TempDir()
	store, err := prefs.Open(filepath.Join(dir, "prefs.yaml"))
	if err != nil {
		t.Fatalf("prefs: %v", err)
	}
	lib, err := route.NewLibrary(filepath.Join(dir, "routes"))
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	if err := lib.Import("walk.gpx", strings.NewReader(testGPX)); err != nil {
		t.Fatalf("import: %v", err)
	}
	s := NewSession(store, lib, 100)
	fr := &fakeRunner{}
	s.Attach(fr)
	return s, fr
}

func sampleSnapshot() (proximity.Report, overlay.Overlay) {
	var ov overlay.Overlay
	ov.SetTrack(route.Track{Segments: []route.Segment{{{Lat: 53, Lon: -2}, {Lat: 53.001, Lon: -2}}}})
	pos := geo.Point{Lat: 53.0005, Lon: -1.999}
	closest := geo.Point{Lat: 53.0005, Lon: -2}
	ov.SetConnector(pos, closest)
	return proximity.Report{
		Route:     "walk.gpx",
		Position:  &pos,
		Closest:   &closest,
		Checked:   true,
		Distance:  66.9,
		Status:    proximity.OnTrack,
		Threshold: 100,
	}, ov
}

func TestSessionSelectRoute(t *testing.T) {
	s, fr := newTestSession(t)

	if err := s.SelectRoute("walk.gpx"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(fr.tracks) != 1 || fr.tracks[0].PointCount() != 2 {
		t.Fatalf("runner not given the track: %+v", fr.tracks)
	}
	if s.prefs.Get().File != "walk.gpx" {
		t.Fatalf("selection not remembered")
	}

	if err := s.SelectRoute("missing.gpx"); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected unknown route, got %v", err)
	}
	if err := s.SelectRoute("../etc/passwd"); err == nil {
		t.Fatalf("expected invalid name error")
	}
}

func TestSessionLoadSelectedMissingIsEmpty(t *testing.T) {
	s, fr := newTestSession(t)
	s.LoadSelected() // default PennineBridleway.gpx is not in the library
	if len(fr.tracks) != 1 || !fr.tracks[0].Empty() {
		t.Fatalf("expected one empty track, got %+v", fr.tracks)
	}
}

func TestSessionThresholdAndAudio(t *testing.T) {
	s, fr := newTestSession(t)
	if s.Threshold() != 100 || !s.AudioOn() {
		t.Fatalf("unexpected defaults")
	}
	if err := s.SetOffTrackDistance(10); err != nil {
		t.Fatalf("set distance: %v", err)
	}
	if s.Threshold() != 10 || len(fr.thresholds) != 1 || fr.thresholds[0] != 10 {
		t.Fatalf("threshold not applied: %v %v", s.Threshold(), fr.thresholds)
	}
	if err := s.SetAudio(false); err != nil || s.AudioOn() {
		t.Fatalf("audio toggle failed: %v", err)
	}
}

func TestSessionHandleAction(t *testing.T) {
	s, fr := newTestSession(t)
	for _, msg := range []WSMessage{
		{Action: "check"},
		{Action: "select", File: "walk.gpx"},
		{Action: "maptype"},
		{Action: "zoom"},
	} {
		if err := s.HandleAction(msg); err != nil {
			t.Fatalf("%s: %v", msg.Action, err)
		}
	}
	if fr.checks != 1 || len(fr.tracks) != 1 {
		t.Fatalf("unexpected runner calls: %+v", fr)
	}
	p := s.prefs.Get()
	if p.MapType != prefs.MapSatellite || p.Zoom != overlay.ZoomYou {
		t.Fatalf("unexpected prefs %+v", p)
	}
	if err := s.HandleAction(WSMessage{Action: "fly"}); err == nil {
		t.Fatalf("expected unknown action error")
	}
}

func TestWebStatusBeforeData(t *testing.T) {
	s, _ := newTestSession(t)
	h := NewWebHandler(s, NewHub(), t.TempDir())

	for _, path := range []string{"/api/status", "/api/overlay", "/api/viewport"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}

func TestWebSnapshotEndpoints(t *testing.T) {
	s, _ := newTestSession(t)
	rep, ov := sampleSnapshot()
	s.Publish(rep, ov)
	h := NewWebHandler(s, NewHub(), t.TempDir())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("status json: %v", err)
	}
	if got["status"] != "on_track" || got["distance_m"] != 66.9 {
		t.Fatalf("unexpected status %v", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/overlay", nil))
	var fc struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("overlay json: %v", err)
	}
	if len(fc.Features) != 2 || fc.Features[1].Properties["kind"] != overlay.KindConnector {
		t.Fatalf("unexpected overlay %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/viewport", nil))
	var vp struct {
		Zoom string    `json:"zoom"`
		Min  []float64 `json:"min"`
		Max  []float64 `json:"max"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &vp); err != nil {
		t.Fatalf("viewport json: %v", err)
	}
	if vp.Zoom != "All" || len(vp.Min) != 2 || vp.Min[0] >= -2 || vp.Max[0] <= -1.999 {
		t.Fatalf("unexpected viewport %+v", vp)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/label.png", nil))
	if _, err := png.Decode(rec.Body); err != nil {
		t.Fatalf("label png: %v", err)
	}
}

func TestWebRoutesAndPrefs(t *testing.T) {
	s, fr := newTestSession(t)
	h := NewWebHandler(s, NewHub(), t.TempDir())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/routes/new.gpx", strings.NewReader(testGPX)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", rec.Code, rec.Body.String())
	}
	if s.prefs.Get().File != "new.gpx" || len(fr.tracks) != 1 {
		t.Fatalf("import must select the route")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/routes", nil))
	var listing struct {
		Routes   []string `json:"routes"`
		Selected string   `json:"selected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("routes json: %v", err)
	}
	if len(listing.Routes) != 2 || listing.Selected != "new.gpx" {
		t.Fatalf("unexpected listing %+v", listing)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/select/missing.gpx", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("select missing: expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/select/walk.gpx", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("select: expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/maptype", nil))
	if !strings.Contains(rec.Body.String(), `"Sat"`) {
		t.Fatalf("maptype: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/zoom", nil))
	if !strings.Contains(rec.Body.String(), `"You"`) {
		t.Fatalf("zoom: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/threshold?meters=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("threshold: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/threshold?meters=25", nil))
	if rec.Code != http.StatusNoContent || s.Threshold() != 25 {
		t.Fatalf("threshold: %d %v", rec.Code, s.Threshold())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/audio?on=false", nil))
	if rec.Code != http.StatusNoContent || s.AudioOn() {
		t.Fatalf("audio: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check", nil))
	if rec.Code != http.StatusOK || fr.checks != 1 {
		t.Fatalf("check: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prefs", nil))
	if !strings.Contains(rec.Body.String(), `"off_track_distance":25`) {
		t.Fatalf("prefs: %s", rec.Body.String())
	}
}

func TestWebServesStatic(t *testing.T) {
	s, _ := newTestSession(t)
	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>map</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := NewWebHandler(s, NewHub(), static)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "map") {
		t.Fatalf("static: %s", rec.Body.String())
	}
}

func TestHubPushesStatusAndCues(t *testing.T) {
	hub := NewHub()
	actions := make(chan WSMessage, 1)
	hub.OnAction = func(m WSMessage) error {
		actions <- m
		if m.Action == "bad" {
			return errors.New("nope")
		}
		return nil
	}
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rep, ov := sampleSnapshot()
	hub.Publish(rep, ov)
	hub.Play(cue.NewEvent(cue.BackOnTrack, 12))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var status, played WSResponse
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if err := conn.ReadJSON(&played); err != nil {
		t.Fatalf("read cue: %v", err)
	}
	if status.Type != "status" || status.Report == nil || status.Report.Status != proximity.OnTrack || status.Overlay == nil {
		t.Fatalf("unexpected status message %+v", status)
	}
	if played.Type != "cue" || played.Cue == nil || played.Cue.Kind != cue.BackOnTrack {
		t.Fatalf("unexpected cue message %+v", played)
	}

	if err := conn.WriteJSON(WSMessage{Action: "bad"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if m := <-actions; m.Action != "bad" {
		t.Fatalf("unexpected action %+v", m)
	}
	var errMsg WSResponse
	if err := conn.ReadJSON(&errMsg); err != nil || errMsg.Type != "error" || errMsg.Message != "nope" {
		t.Fatalf("expected error reply, got %+v %v", errMsg, err)
	}
}

func TestStatusPublisherAndSinks(t *testing.T) {
	pub := &fakePub{}
	var seen int
	all := sinks{
		statusPublisher{pub: pub, topic: "ontrack/status"},
		proximity.SinkFunc(func(proximity.Report, overlay.Overlay) { seen++ }),
	}
	rep, ov := sampleSnapshot()
	all.Publish(rep, ov)

	if len(pub.topics) != 1 || pub.topics[0] != "ontrack/status" || seen != 1 {
		t.Fatalf("unexpected fan-out: %v %d", pub.topics, seen)
	}
	if _, ok := pub.values[0].(proximity.Report); !ok {
		t.Fatalf("unexpected payload %#v", pub.values[0])
	}
}

func TestWalkPublishesUntilDone(t *testing.T) {
	start := geo.Point{Lat: 53, Lon: -2}
	tr := route.Track{Segments: []route.Segment{{start, geo.Destination(start, 0, 20)}}}
	src := gps.NewMockSource(tr, 10, 0)

	pub := &fakePub{}
	ticks := make(chan time.Time)
	done := make(chan error, 1)
	go func() { done <- walk(context.Background(), src, time.Second, ticks, publishFix(pub, "ontrack/gps")) }()

	for i := 0; i < 2; i++ {
		ticks <- time.Now()
	}
	if err := <-done; err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(pub.values) != 2 {
		t.Fatalf("expected 2 fixes, got %d", len(pub.values))
	}
	if f := pub.values[1].(gps.Fix); !f.Valid() {
		t.Fatalf("unexpected fix %+v", f)
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, proximity.Report{Route: "walk.gpx", TrackPoints: 2, PathPoints: 22})
	rep, _ := sampleSnapshot()
	printReport(&buf, rep)
	printFix(&buf, gps.Fix{Latitude: 53, Longitude: -2, Validity: "A"})

	out := buf.String()
	for _, want := range []string{"interpolated=22", "on_track", "distance=66.90m", "lat=53.000000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}
