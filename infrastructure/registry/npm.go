// Package registry implements the registry capability against npm-style
// registries. Other registries plug in by implementing domain.Registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"
	xsemver "golang.org/x/mod/semver"

	"github.com/monorel/monorel/domain"
)

const defaultRequestTimeout = 30 * time.Second

// NpmClient fetches packuments from an npm-compatible registry.
type NpmClient struct {
	baseURL string
	token   string
	client  *retryablehttp.Client
}

// Option configures an NpmClient.
type Option func(*NpmClient)

// WithToken sets a bearer token for authenticated registries.
func WithToken(token string) Option {
	return func(c *NpmClient) { c.token = token }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *NpmClient) { c.client.HTTPClient.Timeout = timeout }
}

// NewNpmClient creates a client for the given registry base URL.
func NewNpmClient(baseURL string, opts ...Option) *NpmClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	rc.HTTPClient.Timeout = defaultRequestTimeout
	// Surface the final response instead of a generic "giving up" error so
	// exhausted retries still map to a specific registry failure.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &NpmClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// packument is the subset of the registry document the core consumes.
type packument struct {
	Name     string            `json:"name"`
	DistTags map[string]string `json:"dist-tags"`
	Versions map[string]struct {
		Version    string `json:"version"`
		Deprecated string `json:"deprecated"`
	} `json:"versions"`
	Time map[string]string `json:"time"`
}

// FetchVersions implements domain.Registry.
func (c *NpmClient) FetchVersions(ctx context.Context, name string) (*domain.VersionList, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(name)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request for %q: %v", domain.ErrRegistryNetwork, name, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	// The abbreviated document is an order of magnitude smaller.
	req.Header.Set("Accept", "application/vnd.npm.install-v1+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrRegistryNetwork, name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if mapped := mapStatus(resp.StatusCode, name); mapped != nil {
		return nil, mapped
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response for %q: %v", domain.ErrRegistryNetwork, name, err)
	}

	var doc packument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid packument for %q: %v", domain.ErrRegistryNetwork, name, err)
	}
	return buildVersionList(&doc), nil
}

func mapStatus(status int, name string) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %q", domain.ErrRegistryNotFound, name)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %q (status %d)", domain.ErrRegistryAuth, name, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %q", domain.ErrRegistryRateLimited, name)
	default:
		return fmt.Errorf("%w: %q returned status %d", domain.ErrRegistryNetwork, name, status)
	}
}

// buildVersionList sorts versions newest first and derives the latest
// stable and prerelease pointers. dist-tags.latest wins when present.
func buildVersionList(doc *packument) *domain.VersionList {
	list := &domain.VersionList{
		Deprecated:  map[string]string{},
		PublishedAt: map[string]time.Time{},
	}

	for raw, meta := range doc.Versions {
		if !xsemver.IsValid(normalize(raw)) {
			logger.Debugf("Skipping non-semver version %q of %q", raw, doc.Name)
			continue
		}
		list.Available = append(list.Available, raw)
		if meta.Deprecated != "" {
			list.Deprecated[raw] = meta.Deprecated
		}
		if published, ok := doc.Time[raw]; ok {
			if t, err := time.Parse(time.RFC3339, published); err == nil {
				list.PublishedAt[raw] = t
			}
		}
	}

	sort.Slice(list.Available, func(i, j int) bool {
		return xsemver.Compare(normalize(list.Available[i]), normalize(list.Available[j])) > 0
	})

	for _, v := range list.Available {
		if xsemver.Prerelease(normalize(v)) == "" {
			list.LatestStable = v
			break
		}
	}
	for _, v := range list.Available {
		if xsemver.Prerelease(normalize(v)) != "" {
			list.LatestPrerelease = v
			break
		}
	}

	if tagged, ok := doc.DistTags["latest"]; ok && tagged != "" {
		list.LatestStable = tagged
	}
	return list
}

// normalize ensures the v prefix golang.org/x/mod/semver requires.
func normalize(version string) string {
	version = strings.TrimSpace(version)
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
