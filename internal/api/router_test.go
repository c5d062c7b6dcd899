package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neon-snake/internal/config"
	"neon-snake/internal/game"
	"neon-snake/internal/render"
)

type fakeStreamer struct {
	streaming bool
	startErr  error
}

func (f *fakeStreamer) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.streaming = true
	return nil
}
func (f *fakeStreamer) Stop()             { f.streaming = false }
func (f *fakeStreamer) IsStreaming() bool { return f.streaming }
func (f *fakeStreamer) GetStats() map[string]interface{} {
	return map[string]interface{}{"isStreaming": f.streaming}
}

type fakeFeed bool

func (f fakeFeed) IsConnected() bool { return bool(f) }

func testRouter(cfg RouterConfig) *httptest.Server {
	cfg.DisableLogging = true
	if cfg.RateLimitConfig == nil {
		cfg.RateLimitConfig = &RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000}
	}
	return httptest.NewServer(NewRouter(cfg))
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := testRouter(RouterConfig{Feed: fakeFeed(true), Streamer: &fakeStreamer{}})
	defer ts.Close()

	var body map[string]interface{}
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["status"] != "ok" || body["connected"] != true || body["streaming"] != false {
		t.Errorf("Unexpected health body: %v", body)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	store := game.NewStore()
	ts := testRouter(RouterConfig{Snapshots: store})
	defer ts.Close()

	if code := getJSON(t, ts.URL+"/api/snapshot", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 before any snapshot, got %d", code)
	}

	food := game.Cell{X: 3, Y: 4}
	store.Publish(&game.Snapshot{Score: 1, Snake: []game.Cell{{X: 1, Y: 1}}, Grid: game.GridSize{W: 10, H: 10}})
	store.Publish(&game.Snapshot{Score: 2, Snake: []game.Cell{{X: 2, Y: 1}}, Food: &food, Grid: game.GridSize{W: 10, H: 10}})

	var cur struct {
		Score int      `json:"score"`
		Food  [2]int   `json:"food"`
		Snake [][2]int `json:"snake"`
	}
	if code := getJSON(t, ts.URL+"/api/snapshot", &cur); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if cur.Score != 2 || cur.Food != [2]int{3, 4} || len(cur.Snake) != 1 {
		t.Errorf("Unexpected snapshot: %+v", cur)
	}

	var pair struct {
		Previous struct{ Score int } `json:"previous"`
		Current  struct{ Score int } `json:"current"`
	}
	getJSON(t, ts.URL+"/api/snapshot?prev=1", &pair)
	if pair.Previous.Score != 1 || pair.Current.Score != 2 {
		t.Errorf("Unexpected pair: %+v", pair)
	}
}

func TestMissingSourcesAnswer503(t *testing.T) {
	ts := testRouter(RouterConfig{})
	defer ts.Close()

	for _, path := range []string{"/api/snapshot", "/api/hud", "/frame.png"} {
		if code := getJSON(t, ts.URL+path, nil); code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, code)
		}
	}

	resp, err := http.Post(ts.URL+"/api/stream/start", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("stream start: expected 503, got %d", resp.StatusCode)
	}
}

func TestHUDEndpoint(t *testing.T) {
	board := &HUDBoard{}
	board.SetLabels(render.LabelsFor(&game.Snapshot{Score: 7, AIStatus: "HUNTING", Hype: 42}, true))

	ts := testRouter(RouterConfig{HUD: board})
	defer ts.Close()

	var labels render.Labels
	if code := getJSON(t, ts.URL+"/api/hud", &labels); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if labels.Score != "SCORE: 7" || labels.Connection != render.LabelOnline {
		t.Errorf("Unexpected labels: %+v", labels)
	}
}

func TestFrameEndpoint(t *testing.T) {
	frames := NewLatestFrame(time.Hour)
	ts := testRouter(RouterConfig{Frames: frames})
	defer ts.Close()

	if code := getJSON(t, ts.URL+"/frame.png", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 before any frame, got %d", code)
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{255, 0, 85, 255})
	frames.SubmitFrame(img)

	// Throttled: this frame must not replace the first copy.
	img.Set(1, 1, color.RGBA{0, 0, 0, 255})
	frames.SubmitFrame(img)

	resp, err := http.Get(ts.URL + "/frame.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}

	decoded, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 4 || decoded.Bounds().Dy() != 3 {
		t.Errorf("Unexpected bounds %v", decoded.Bounds())
	}
	r, _, _, _ := decoded.At(1, 1).RGBA()
	if r>>8 != 255 {
		t.Errorf("Expected the first captured frame, got red=%d", r>>8)
	}
}

func TestStreamControl(t *testing.T) {
	streamer := &fakeStreamer{}
	ts := testRouter(RouterConfig{Streamer: streamer})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/stream/start", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !streamer.streaming {
		t.Errorf("Start: status %d, streaming %v", resp.StatusCode, streamer.streaming)
	}

	var stats map[string]interface{}
	getJSON(t, ts.URL+"/api/stream/status", &stats)
	if stats["isStreaming"] != true {
		t.Errorf("Unexpected status: %v", stats)
	}

	resp, _ = http.Post(ts.URL+"/api/stream/stop", "application/json", nil)
	resp.Body.Close()
	if streamer.streaming {
		t.Error("Expected streamer stopped")
	}

	streamer.startErr = errors.New("ffmpeg not found")
	resp, _ = http.Post(ts.URL+"/api/stream/start", "application/json", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500 on start failure, got %d", resp.StatusCode)
	}
}

func TestBasicAuth(t *testing.T) {
	ts := testRouter(RouterConfig{BasicAuthUser: "admin", BasicAuthPass: "secret"})
	defer ts.Close()

	tests := []struct {
		name       string
		path       string
		user, pass string
		want       int
	}{
		{"health is open", "/health", "", "", http.StatusOK},
		{"metrics without credentials", "/metrics", "", "", http.StatusUnauthorized},
		{"metrics wrong password", "/metrics", "admin", "nope", http.StatusUnauthorized},
		{"metrics with credentials", "/metrics", "admin", "secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+tt.path, nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestMetricsExposeSnakeSeries(t *testing.T) {
	ts := testRouter(RouterConfig{})
	defer ts.Close()

	RecordTrigger("burst")
	RecordSnapshotDiscarded("malformed")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	for _, name := range []string{"snake_effect_triggers_total", "snake_snapshots_discarded_total"} {
		if !bytes.Contains(buf.Bytes(), []byte(name)) {
			t.Errorf("Expected %s in /metrics output", name)
		}
	}
}

func TestRateLimitRejects(t *testing.T) {
	ts := httptest.NewServer(NewRouter(RouterConfig{
		DisableLogging:  true,
		RateLimitConfig: &RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2},
	}))
	defer ts.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, getJSON(t, ts.URL+"/health", nil))
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected 200, 200, 429; got %v", codes)
	}
}

func TestDebugAddr(t *testing.T) {
	tests := []struct {
		name string
		obs  config.ObservabilityConfig
		want string
	}{
		{"empty", config.ObservabilityConfig{}, "127.0.0.1:6060"},
		{"loopback port", config.ObservabilityConfig{ListenAddr: "127.0.0.1:7070"}, "127.0.0.1:7070"},
		{"localhost", config.ObservabilityConfig{ListenAddr: "localhost:7070"}, "localhost:7070"},
		{"external forced local", config.ObservabilityConfig{ListenAddr: "0.0.0.0:6060"}, "127.0.0.1:6060"},
		{"external allowed", config.ObservabilityConfig{ListenAddr: "0.0.0.0:6060", AllowExternal: true}, "0.0.0.0:6060"},
		{"garbage", config.ObservabilityConfig{ListenAddr: "nope"}, "127.0.0.1:6060"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := debugAddr(tt.obs); got != tt.want {
				t.Errorf("debugAddr() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStartDebugServerDisabled(t *testing.T) {
	if s := StartDebugServer(config.ObservabilityConfig{Enabled: false}, RouterConfig{}); s != nil {
		t.Error("Expected nil server when disabled")
	}
}
