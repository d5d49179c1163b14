package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anillosguillen/catalog_api/internal/importer"
	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/service"
	"github.com/anillosguillen/catalog_api/internal/sse"
)

// scriptedRunner replays fixed log lines, then returns err.
type scriptedRunner struct {
	lines []string
	err   error
}

func (s scriptedRunner) Run(_ context.Context, rep importer.Reporter) (*models.ImportSummary, error) {
	for _, line := range s.lines {
		rep.Report(importer.Event{Level: importer.LevelInfo, Message: line, Time: time.Now()})
	}
	if s.err != nil {
		rep.Report(importer.Event{Level: importer.LevelFatal, Message: "Fatal error: " + s.err.Error(), Time: time.Now()})
		return &models.ImportSummary{}, s.err
	}
	return &models.ImportSummary{Found: 2, Imported: 2}, nil
}

func newImportRouter(runner service.ImportRunner) *gin.Engine {
	hub := sse.NewHub()
	h := NewImportHandler(service.NewImportService(runner, hub, nil), hub)
	r := gin.New()
	r.POST("/v1/admin/import/wordpress", h.Run)
	r.GET("/v1/admin/import/events", h.Events)
	return r
}

func sseData(t *testing.T, body string) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &m); err != nil {
			t.Fatalf("bad data line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestImportRunJSON(t *testing.T) {
	r := newImportRouter(scriptedRunner{lines: []string{"Starting WordPress catalog import", "Found 2 rings in catalog"}})

	w := do(r, http.MethodPost, "/v1/admin/import/wordpress", "")
	if w.Code != http.StatusOK {
		t.Fatalf("run: %d %s", w.Code, w.Body.String())
	}
	var data struct {
		Summary models.ImportSummary `json:"summary"`
		Log     []string             `json:"log"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Summary.Imported != 2 || len(data.Log) != 2 {
		t.Errorf("unexpected result %+v", data)
	}
}

func TestImportRunJSONFatal(t *testing.T) {
	r := newImportRouter(scriptedRunner{err: importer.ErrNoEntries})

	w := do(r, http.MethodPost, "/v1/admin/import/wordpress", "")
	if w.Code != http.StatusBadGateway || decode(t, w).Error.Code != "IMPORT_FAILED" {
		t.Errorf("expected 502 IMPORT_FAILED, got %d %s", w.Code, w.Body.String())
	}
}

func TestImportRunStream(t *testing.T) {
	r := newImportRouter(scriptedRunner{lines: []string{"Found 2 rings in catalog", "[1/2] Processing Anillo 0100"}})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/import/wordpress", nil)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	events := sseData(t, w.Body.String())
	if len(events) != 3 {
		t.Fatalf("expected 2 logs + completed, got %d: %s", len(events), w.Body.String())
	}
	if events[0]["log"] != "Found 2 rings in catalog" {
		t.Errorf("unexpected first event %v", events[0])
	}
	last := events[2]
	if last["completed"] != true {
		t.Fatalf("expected completed event, got %v", last)
	}
	if summary, _ := last["summary"].(map[string]any); summary["imported"] != float64(2) {
		t.Errorf("unexpected summary %v", last["summary"])
	}
}

func TestImportRunStreamFatal(t *testing.T) {
	r := newImportRouter(scriptedRunner{err: fmt.Errorf("fetch listing: %w", importer.ErrNoEntries)})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/import/wordpress", nil)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	events := sseData(t, w.Body.String())
	if len(events) != 1 {
		t.Fatalf("expected a single fatal line, got %v", events)
	}
	if msg, _ := events[0]["log"].(string); !strings.HasPrefix(msg, "Fatal error:") {
		t.Errorf("unexpected fatal line %q", msg)
	}
	if _, ok := events[0]["completed"]; ok {
		t.Error("fatal stream must not complete")
	}
}

func TestImportRunStreamUnconfigured(t *testing.T) {
	r := newImportRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/import/wordpress", nil)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable || decode(t, w).Error.Code != "STORAGE_UNCONFIGURED" {
		t.Errorf("expected 503 STORAGE_UNCONFIGURED, got %d %s", w.Code, w.Body.String())
	}
}

// streamRecorder adds the CloseNotifier that gin's Stream expects.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestImportEventsObserver(t *testing.T) {
	hub := sse.NewHub()
	h := NewImportHandler(service.NewImportService(scriptedRunner{}, hub, nil), hub)
	h.pingInterval = time.Hour
	r := gin.New()
	r.GET("/v1/admin/import/events", h.Events)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/import/events", nil).WithContext(ctx)
	w := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool)}

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("observer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Broadcast(&sse.ImportMessage{Log: "Imported Anillo 0100"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event:connected") {
		t.Errorf("missing connected event: %s", body)
	}
	if !strings.Contains(body, `"log":"Imported Anillo 0100"`) {
		t.Errorf("missing broadcast: %s", body)
	}
	if hub.ClientCount() != 0 {
		t.Error("observer not unregistered")
	}
}
