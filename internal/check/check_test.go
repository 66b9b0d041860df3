package check

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/galleryscan/internal/config"
)

// mockLogger records every line with its level.
type mockLogger struct {
	lines []string
}

func (m *mockLogger) add(level, format string, args ...interface{}) {
	m.lines = append(m.lines, level+" "+fmt.Sprintf(format, args...))
}

func (m *mockLogger) Info(f string, a ...interface{})    { m.add("INFO", f, a...) }
func (m *mockLogger) Success(f string, a ...interface{}) { m.add("SUCCESS", f, a...) }
func (m *mockLogger) Warn(f string, a ...interface{})    { m.add("WARN", f, a...) }
func (m *mockLogger) Error(f string, a ...interface{})   { m.add("ERROR", f, a...) }
func (m *mockLogger) Debug(v bool, f string, a ...interface{}) {
	if v {
		m.add("DEBUG", f, a...)
	}
}

func (m *mockLogger) has(prefix string) bool {
	for _, l := range m.lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckBackend_FS(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "1.jpg")

	cfg := config.DefaultConfig()
	cfg.Base = dir
	if err := CheckBackend(context.Background(), &cfg); err != nil {
		t.Fatalf("existing dir: %v", err)
	}

	cfg.Base = filepath.Join(dir, "missing")
	if err := CheckBackend(context.Background(), &cfg); !errors.Is(err, ErrBaseUnreachable) {
		t.Errorf("missing dir: got %v, want ErrBaseUnreachable", err)
	}

	cfg.Base = filepath.Join(dir, "1.jpg")
	if err := CheckBackend(context.Background(), &cfg); !errors.Is(err, ErrBaseNotDir) {
		t.Errorf("file base: got %v, want ErrBaseNotDir", err)
	}

	cfg.Base = ""
	if err := CheckBackend(context.Background(), &cfg); !errors.Is(err, ErrNoBase) {
		t.Errorf("empty base: got %v, want ErrNoBase", err)
	}
}

func TestCheckBackend_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	cfg := config.DefaultConfig()
	cfg.Base = srv.URL + "/gallery"
	if err := CheckBackend(context.Background(), &cfg); err != nil {
		t.Errorf("403 still means reachable, got %v", err)
	}

	srv.Close()
	if err := CheckBackend(context.Background(), &cfg); !errors.Is(err, ErrBaseUnreachable) {
		t.Errorf("closed server: got %v, want ErrBaseUnreachable", err)
	}
}

func TestCheckBackend_S3(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/photos/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.S3 = config.S3Config{Endpoint: srv.URL, Region: "us-east-1", AccessKey: "minio", SecretKey: "minio123"}

	cfg.Base = "s3://photos/trip"
	if err := CheckBackend(context.Background(), &cfg); err != nil {
		t.Errorf("existing bucket: %v", err)
	}

	cfg.Base = "s3://videos/trip"
	if err := CheckBackend(context.Background(), &cfg); !errors.Is(err, ErrBucketMissing) {
		t.Errorf("missing bucket: got %v, want ErrBucketMissing", err)
	}
}

func TestCountCandidates(t *testing.T) {
	tests := []struct {
		name      string
		names     []string
		exts      []string
		wantCount int
		wantGap   int
	}{
		{"contiguous", []string{"1.jpg", "2.png", "3.jpg"}, []string{"jpg", "png"}, 3, 4},
		{"gap", []string{"1.jpg", "2.jpg", "4.jpg"}, []string{"jpg"}, 3, 3},
		{"duplicate index", []string{"1.jpg", "1.png"}, []string{"jpg", "png"}, 1, 2},
		{"other ext ignored", []string{"1.gif", "2.jpg"}, []string{"jpg"}, 1, 1},
		{"non candidates", []string{"cover.jpg", "01.jpg", "notes.txt"}, []string{"jpg"}, 0, 1},
		{"upper case", []string{"1.JPG"}, []string{".jpg"}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, gap := countCandidates(tt.names, tt.exts)
			if count != tt.wantCount || gap != tt.wantGap {
				t.Errorf("countCandidates(%v) = (%d, %d), want (%d, %d)", tt.names, count, gap, tt.wantCount, tt.wantGap)
			}
		})
	}
}

func TestRunCheck_FS(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "1.jpg")
	touch(t, dir, "2.png")
	touch(t, dir, "4.jpg")
	if err := os.Mkdir(filepath.Join(dir, "3.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Base = dir
	log := &mockLogger{}
	RunCheck(context.Background(), &cfg, log)

	if !log.has("INFO Backend: fs") {
		t.Errorf("backend line missing: %v", log.lines)
	}
	if !log.has("SUCCESS 3 numbered candidates") {
		t.Errorf("candidate count missing: %v", log.lines)
	}
	if !log.has("INFO First missing index: 3") {
		t.Errorf("first gap missing: %v", log.lines)
	}
	if !log.has("SUCCESS Probe " + filepath.ToSlash(dir) + "/1.jpg: present") {
		t.Errorf("index 1 probe missing: %v", log.lines)
	}
}

func TestRunCheck_MissingBase(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Base = filepath.Join(t.TempDir(), "nope")
	log := &mockLogger{}
	RunCheck(context.Background(), &cfg, log)

	if !log.has("ERROR base is unreachable") {
		t.Errorf("expected unreachable error, got %v", log.lines)
	}
	if log.has("SUCCESS") {
		t.Errorf("no success lines expected: %v", log.lines)
	}
}

func TestRunCheck_NoBase(t *testing.T) {
	cfg := config.DefaultConfig()
	log := &mockLogger{}
	RunCheck(context.Background(), &cfg, log)
	if !log.has("WARN No base given") {
		t.Errorf("expected warning, got %v", log.lines)
	}
}
