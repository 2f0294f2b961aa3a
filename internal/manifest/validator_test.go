package manifest

import (
	"errors"
	"testing"

	"github.com/fractary/forge/internal/errdefs"
)

const validChecksum = "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestValidateRegistryManifestValid(t *testing.T) {
	doc := `{
		"name": "main",
		"version": "1.0.0",
		"plugins": [
			{
				"name": "demo",
				"version": "1.2.3",
				"manifest_url": "https://r.example.com/plugins/demo.json",
				"checksum": "` + validChecksum + `"
			}
		]
	}`

	if err := ValidateRegistryManifest([]byte(doc), "test"); err != nil {
		t.Fatalf("ValidateRegistryManifest: %v", err)
	}
}

func TestValidateRegistryManifestMissingPlugins(t *testing.T) {
	doc := `{"name": "main", "version": "1.0.0"}`

	err := ValidateRegistryManifest([]byte(doc), "test")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, errdefs.ErrInvalidManifest) {
		t.Errorf("error kind = %v, want ErrInvalidManifest", err)
	}
}

func TestValidateRegistryManifestBadChecksumFormat(t *testing.T) {
	doc := `{
		"name": "main",
		"version": "1.0.0",
		"plugins": [
			{
				"name": "demo",
				"version": "1.2.3",
				"manifest_url": "https://r.example.com/plugins/demo.json",
				"checksum": "md5:abc123"
			}
		]
	}`

	err := ValidateRegistryManifest([]byte(doc), "test")
	if !errors.Is(err, errdefs.ErrInvalidManifest) {
		t.Fatalf("error = %v, want ErrInvalidManifest", err)
	}

	var me *errdefs.ManifestError
	if !errors.As(err, &me) {
		t.Fatal("expected *errdefs.ManifestError")
	}
	if len(me.Issues) == 0 {
		t.Error("expected at least one issue")
	}
}

func TestValidateRegistryManifestNotJSON(t *testing.T) {
	err := ValidateRegistryManifest([]byte("name: main\n"), "test")
	if !errors.Is(err, errdefs.ErrInvalidManifest) {
		t.Errorf("error = %v, want ErrInvalidManifest", err)
	}
}

func TestValidatePluginManifestValid(t *testing.T) {
	doc := `{
		"name": "demo",
		"version": "1.2.3",
		"tools": [
			{
				"name": "linter",
				"version": "1.2.3",
				"source": "https://r.example.com/plugins/demo/tools/linter.yaml",
				"checksum": "` + validChecksum + `",
				"size": 512,
				"dependencies": ["formatter"]
			}
		]
	}`

	if err := ValidatePluginManifest([]byte(doc), "test"); err != nil {
		t.Fatalf("ValidatePluginManifest: %v", err)
	}
}

func TestValidatePluginManifestItemMissingSource(t *testing.T) {
	doc := `{
		"name": "demo",
		"version": "1.2.3",
		"tools": [
			{"name": "linter", "version": "1.2.3", "checksum": "` + validChecksum + `"}
		]
	}`

	err := ValidatePluginManifest([]byte(doc), "test")
	if !errors.Is(err, errdefs.ErrInvalidManifest) {
		t.Errorf("error = %v, want ErrInvalidManifest", err)
	}
}
