package manifest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/errdefs"
)

func registryDoc(t *testing.T, plugins []PluginReference) []byte {
	t.Helper()
	data, err := json.Marshal(RegistryManifest{Name: "main", Version: "1.0.0", Plugins: plugins})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestFetchRegistryManifestCaches(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(registryDoc(t, []PluginReference{{
			Name:        "demo",
			Version:     "1.0.0",
			ManifestURL: "https://r.example.com/demo.json",
			Checksum:    validChecksum,
		}}))
	}))
	defer srv.Close()

	f := NewFetcher(NewCache(), nil)
	reg := config.RegistryConfig{Name: "main", URL: srv.URL, CacheTTLSeconds: 60}

	for i := 0; i < 3; i++ {
		m, err := f.FetchRegistryManifest(reg)
		if err != nil {
			t.Fatalf("FetchRegistryManifest: %v", err)
		}
		if m.Name != "main" || len(m.Plugins) != 1 {
			t.Fatalf("unexpected manifest %+v", m)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (cache should serve repeats)", hits.Load())
	}
}

func TestFetchRegistryManifestInvalidSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "main"}`)) // missing version and plugins
	}))
	defer srv.Close()

	f := NewFetcher(NewCache(), nil)
	_, err := f.FetchRegistryManifest(config.RegistryConfig{Name: "main", URL: srv.URL, CacheTTLSeconds: 60})
	if !errors.Is(err, errdefs.ErrInvalidManifest) {
		t.Errorf("error = %v, want ErrInvalidManifest", err)
	}
}

func TestFetchRegistryManifestSendsAuthToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write(registryDoc(t, nil))
	}))
	defer srv.Close()

	f := NewFetcher(NewCache(), nil)
	_, err := f.FetchRegistryManifest(config.RegistryConfig{
		Name: "main", URL: srv.URL, CacheTTLSeconds: 60, AuthToken: "secret-token",
	})
	if err != nil {
		t.Fatalf("FetchRegistryManifest: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestFetchPluginManifestChecksumMismatch(t *testing.T) {
	body := []byte(`{"name": "demo", "version": "1.0.0"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(NewCache(), nil)
	wrong := ComputeChecksum([]byte("something else"))

	_, err := f.FetchPluginManifest("demo", srv.URL, wrong, "", time.Minute)
	if !errors.Is(err, errdefs.ErrChecksumMismatch) {
		t.Fatalf("error = %v, want ErrChecksumMismatch", err)
	}

	var ce *errdefs.ChecksumError
	if !errors.As(err, &ce) {
		t.Fatal("expected *errdefs.ChecksumError")
	}
	if ce.Expected != wrong || ce.Actual != ComputeChecksum(body) {
		t.Errorf("checksum error fields = %+v", ce)
	}
}

func TestFetchPluginManifestChecksumMatch(t *testing.T) {
	body := []byte(`{"name": "demo", "version": "1.0.0"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(NewCache(), nil)
	m, err := f.FetchPluginManifest("demo", srv.URL, ComputeChecksum(body), "", time.Minute)
	if err != nil {
		t.Fatalf("FetchPluginManifest: %v", err)
	}
	if m.Name != "demo" || m.Version != "1.0.0" {
		t.Errorf("manifest = %+v", m)
	}
}

func TestFetchFileFromFileURL(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "tool.yaml")
	if err := os.WriteFile(path, []byte("name: linter\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(NewCache(), nil)
	data, err := f.FetchFile("file://"+filepath.ToSlash(path), "")
	if err != nil {
		t.Fatalf("FetchFile: %v", err)
	}
	if string(data) != "name: linter\n" {
		t.Errorf("data = %q", data)
	}
}

func TestFetchFileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(NewCache(), nil)
	if _, err := f.FetchFile(srv.URL+"/missing", ""); err == nil {
		t.Error("expected error for 404")
	}
}

func TestChecksumHelpers(t *testing.T) {
	data := []byte("hello")
	sum := ComputeChecksum(data)
	if _, err := ParseChecksum(sum); err != nil {
		t.Fatalf("ParseChecksum(%q): %v", sum, err)
	}

	if _, err := ParseChecksum("sha256:short"); err == nil {
		t.Error("expected error for short digest")
	}

	actual, ok, err := ChecksumMatches(data, sum)
	if err != nil || !ok || actual != sum {
		t.Errorf("ChecksumMatches = (%q, %v, %v)", actual, ok, err)
	}
}
