package enrich

import (
	"net/url"
	"strings"
)

const faviconService = "https://www.google.com/s2/favicons?domain=%s&sz=32"

// FaviconCache maps hostnames to favicon URLs for the lifetime of one worker.
// It performs no network calls and is not safe for concurrent use.
type FaviconCache struct {
	entries map[string]string
}

// NewFaviconCache returns an empty cache.
func NewFaviconCache() *FaviconCache {
	return &FaviconCache{entries: make(map[string]string)}
}

// URL returns the favicon reference for the host of rawURL, or "" when it has no host.
func (c *FaviconCache) URL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if icon, ok := c.entries[host]; ok {
		return icon
	}
	icon := strings.Replace(faviconService, "%s", url.QueryEscape(host), 1)
	c.entries[host] = icon
	return icon
}

// Len reports the number of cached hosts.
func (c *FaviconCache) Len() int {
	return len(c.entries)
}
