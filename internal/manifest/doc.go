// Package manifest defines the registry and plugin manifest documents,
// validates them against embedded JSON Schemas at the fetch boundary,
// and provides the TTL-scoped manifest cache and the HTTP/file fetcher.
package manifest
