//go:build integration

package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/installer"
	"github.com/fractary/forge/internal/lockfile"
	"github.com/fractary/forge/internal/manifest"
	"github.com/fractary/forge/internal/registry"
	"github.com/fractary/forge/internal/update"
	"github.com/fractary/forge/internal/workspace"
)

// testEnv is the fully wired component stack over an isolated project
// and global tree.
type testEnv struct {
	WS        *workspace.Workspace
	Resolver  *registry.Resolver
	Installer *installer.Installer
	Locks     *lockfile.Manager
	Updates   *update.Manager
}

// registryFixture describes one fake registry to serve.
type registryFixture struct {
	Name    string
	Plugins []*manifest.PluginManifest
	// Items maps "category/name" to the payload bytes each PluginItem
	// source should serve. Checksums are filled in automatically.
	Items map[string][]byte
}

// serveRegistry publishes the fixture over httptest and returns its
// manifest URL. Item Source fields and all checksums are rewritten to
// point at the server.
func serveRegistry(t *testing.T, fx *registryFixture) string {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	refs := []manifest.PluginReference{} // empty array, not null, in the served JSON
	for _, pm := range fx.Plugins {
		for _, category := range manifest.Categories {
			items := pm.Category(category)
			for i := range items {
				key := category + "/" + items[i].Name
				payload, ok := fx.Items[key]
				if !ok {
					t.Fatalf("fixture %s: no payload for %s", fx.Name, key)
				}
				itemPath := "/" + key + ".yaml"
				body := payload
				mux.HandleFunc(itemPath, func(w http.ResponseWriter, r *http.Request) {
					w.Write(body)
				})
				items[i].Source = srv.URL + itemPath
				items[i].Checksum = manifest.ComputeChecksum(payload)
			}
		}

		pmData, err := json.Marshal(pm)
		if err != nil {
			t.Fatal(err)
		}
		pmPath := "/plugins/" + pm.Name + ".json"
		served := pmData
		mux.HandleFunc(pmPath, func(w http.ResponseWriter, r *http.Request) {
			w.Write(served)
		})

		refs = append(refs, manifest.PluginReference{
			Name:        pm.Name,
			Version:     pm.Version,
			ManifestURL: srv.URL + pmPath,
			Checksum:    manifest.ComputeChecksum(pmData),
		})
	}

	regDoc, err := json.Marshal(manifest.RegistryManifest{
		Name: fx.Name, Version: "1.0.0", Plugins: refs,
	})
	if err != nil {
		t.Fatal(err)
	}
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(regDoc)
	})
	return srv.URL + "/manifest.json"
}

// setupEnv wires the stack against the given registry configs.
func setupEnv(t *testing.T, regs []config.RegistryConfig) *testEnv {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv(workspace.EnvGlobalRoot, filepath.Join(tmp, "global"))

	ws, err := workspace.New(filepath.Join(tmp, "project"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Registries: regs}
	fetcher := manifest.NewFetcher(manifest.NewCache(), nil)
	resolver := registry.New(ws, cfg, fetcher, nil)
	locks := lockfile.NewManager(ws, cfg, resolver, fetcher, nil)

	return &testEnv{
		WS:        ws,
		Resolver:  resolver,
		Installer: installer.New(ws, cfg, resolver, fetcher, nil),
		Locks:     locks,
		Updates:   update.NewManager(ws, cfg, resolver, fetcher, locks, nil),
	}
}

// manifestRegistry builds an enabled registry config entry.
func manifestRegistry(name, url string, priority int) config.RegistryConfig {
	return config.RegistryConfig{
		Name: name, Kind: config.RegistryKindManifest, URL: url,
		Enabled: true, Priority: priority, CacheTTLSeconds: 60,
	}
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file %s: %v", path, err)
	}
}
