package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fractary/forge/internal/config"
	"github.com/fractary/forge/internal/errdefs"
)

const fetchTimeout = 30 * time.Second

// Fetcher retrieves registry and plugin manifest documents over HTTPS or
// file:// URLs, validating them at the fetch boundary and consulting the
// manifest cache.
type Fetcher struct {
	cache  *Cache
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher backed by the given cache. A nil logger
// falls back to slog.Default().
func NewFetcher(cache *Cache, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		cache:  cache,
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

// FetchRegistryManifest returns the registry's root manifest, from cache
// when fresh. Schema validation failure is terminal for the registry and
// is not cached.
func (f *Fetcher) FetchRegistryManifest(reg config.RegistryConfig) (*RegistryManifest, error) {
	key := RegistryKey(reg.Name)
	if doc, ok := f.cache.Get(key); ok {
		if m, ok := doc.(*RegistryManifest); ok {
			return m, nil
		}
	}

	data, err := f.fetchBytes(reg.URL, reg.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("fetching registry manifest from %s: %w", reg.URL, err)
	}

	if err := ValidateRegistryManifest(data, reg.URL); err != nil {
		return nil, err
	}

	var m RegistryManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing registry manifest from %s: %w", reg.URL, err)
	}

	ttl := time.Duration(reg.CacheTTLSeconds) * time.Second
	f.cache.Put(key, &m, int64(len(data)), ttl)
	f.logger.Debug("fetched registry manifest", "registry", reg.Name, "plugins", len(m.Plugins))

	return &m, nil
}

// FetchPluginManifest returns a plugin's manifest, from cache when fresh.
// When expectedChecksum is non-empty the raw bytes must hash to it
// exactly before parsing; a mismatch fails the fetch with a checksum
// error.
func (f *Fetcher) FetchPluginManifest(pluginName, url, expectedChecksum, authToken string, ttl time.Duration) (*PluginManifest, error) {
	key := PluginKey(pluginName, url)
	if doc, ok := f.cache.Get(key); ok {
		if m, ok := doc.(*PluginManifest); ok {
			return m, nil
		}
	}

	data, err := f.fetchBytes(url, authToken)
	if err != nil {
		return nil, fmt.Errorf("fetching plugin manifest from %s: %w", url, err)
	}

	if expectedChecksum != "" {
		actual, ok, err := ChecksumMatches(data, expectedChecksum)
		if err != nil {
			return nil, fmt.Errorf("verifying plugin manifest %s: %w", pluginName, err)
		}
		if !ok {
			return nil, &errdefs.ChecksumError{
				Name:     pluginName,
				URL:      url,
				Expected: expectedChecksum,
				Actual:   actual,
			}
		}
	}

	if err := ValidatePluginManifest(data, url); err != nil {
		return nil, err
	}

	var m PluginManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing plugin manifest from %s: %w", url, err)
	}

	f.cache.Put(key, &m, int64(len(data)), ttl)
	return &m, nil
}

// FetchFile retrieves raw artifact bytes. Payloads are never cached:
// they are fetched once per install and checksum-verified by the
// installer.
func (f *Fetcher) FetchFile(url, authToken string) ([]byte, error) {
	return f.fetchBytes(url, authToken)
}

// fetchBytes retrieves url, which may be http(s):// or file://.
func (f *Fetcher) fetchBytes(url, authToken string) ([]byte, error) {
	if path, ok := strings.CutPrefix(url, "file://"); ok {
		data, err := os.ReadFile(filepath.FromSlash(path))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return data, nil
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "forge-registry")
	req.Header.Set("Accept", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s returned 404", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
