// Package cookies sources browser cookies for age-restricted channels and
// materializes them as a Netscape-format file for the extraction tool.
package cookies

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mirrarr/internal/utils/logging"

	"github.com/browserutils/kooky"
	// Register all browser cookie stores for kooky.
	_ "github.com/browserutils/kooky/browser/all"
	"golang.org/x/net/publicsuffix"
)

// Manager caches one cookie file per base domain.
type Manager struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewManager initializes a new cookie manager instance.
func NewManager() *Manager {
	return &Manager{files: make(map[string]string)}
}

// FileFor returns the path of a Netscape cookie file covering channelURL's
// base domain, writing it under destDir on first use. Returns "" when no
// browser cookies exist; the caller then omits the cookies flag entirely.
func (m *Manager) FileFor(ctx context.Context, channelURL, destDir string) (string, error) {
	domain, err := baseDomain(channelURL)
	if err != nil {
		return "", fmt.Errorf("error extracting base domain for cookies: %w", err)
	}

	m.mu.RLock()
	if path, ok := m.files[domain]; ok {
		m.mu.RUnlock()
		return path, nil
	}
	m.mu.RUnlock()

	cookies := loadCookiesForDomain(ctx, domain)

	path := ""
	if len(cookies) > 0 {
		path = filepath.Join(destDir, "cookies-"+domain+".txt")
		if err := saveCookiesToFile(cookies, domain, path); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	m.files[domain] = path
	m.mu.Unlock()
	return path, nil
}

// loadCookiesForDomain loads the browser cookies associated with a domain.
func loadCookiesForDomain(ctx context.Context, domain string) []*http.Cookie {
	kookyCookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.Domain(domain))
	if err != nil {
		logging.D(2, "Failed reading cookies: %v", err)
		return nil
	}

	if len(kookyCookies) == 0 {
		logging.I("No browser cookies found for %s", domain)
		return nil
	}

	logging.I("Found %d cookies for %s", len(kookyCookies), domain)
	httpCookies := make([]*http.Cookie, len(kookyCookies))
	for i, c := range kookyCookies {
		httpCookies[i] = &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Domain:  c.Domain,
			Expires: c.Expires,
			Secure:  c.Secure,
		}
	}
	return httpCookies
}

// saveCookiesToFile saves the cookies to a file in Netscape format.
func saveCookiesToFile(cookies []*http.Cookie, domain, cookieFilePath string) error {
	if err := os.MkdirAll(filepath.Dir(cookieFilePath), 0o755); err != nil {
		return err
	}

	file, err := os.Create(cookieFilePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.E("failed to close file %q due to error: %v", cookieFilePath, err)
		}
	}()

	_, err = file.WriteString("# Netscape HTTP Cookie File\n# https://curl.haxx.se/rfc/cookie_spec.html\n# This is a generated file! Do not edit.\n\n")
	if err != nil {
		return err
	}

	logging.D(1, "Saving %d cookies to file %s...", len(cookies), cookieFilePath)

	for _, cookie := range cookies {
		cookieDomain := cookie.Domain
		if cookieDomain == "" {
			cookieDomain = domain
		}
		if !strings.HasPrefix(cookieDomain, ".") && strings.Count(cookieDomain, ".") > 1 {
			cookieDomain = "." + cookieDomain
		}

		secure := "FALSE"
		if cookie.Secure {
			secure = "TRUE"
		}

		expires := int64(0)
		if !cookie.Expires.IsZero() {
			expires = cookie.Expires.Unix()
		}

		_, err := fmt.Fprintf(file, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			cookieDomain, "FALSE", cookie.Path, secure, expires, cookie.Name, cookie.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

// baseDomain returns the base domain for an inputted URL.
func baseDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return publicsuffix.EffectiveTLDPlusOne(u.Hostname())
}
