// Package normalize turns user-pasted TikTok share links into canonical
// browser and embed URLs. Share links are usually short links that bounce
// through a redirect chain, so resolution follows each hop by hand.
package normalize

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Short-link endpoints answer differently to non-browser agents, so we
// present a desktop browser.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/video/(\d+)`),
	regexp.MustCompile(`/v/(\d+)\.html`),
	regexp.MustCompile(`/embed/v2/(\d+)`),
	regexp.MustCompile(`/embed/(\d+)`),
}

// Result mirrors the normalize-video-link response body.
type Result struct {
	OK          bool   `json:"ok"`
	Platform    string `json:"platform,omitempty"`
	ResolvedURL string `json:"resolvedUrl,omitempty"`
	BrowserURL  string `json:"browserUrl,omitempty"`
	EmbedURL    string `json:"embedUrl,omitempty"`
	VideoID     string `json:"videoId,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
}

type Normalizer struct {
	client       *http.Client
	maxRedirects int
	log          *zap.Logger
}

func New(timeout time.Duration, maxRedirects int, log *zap.Logger) *Normalizer {
	return &Normalizer{
		client: &http.Client{
			Timeout: timeout,
			// Redirects are followed manually so each hop's Location
			// can be recorded as the best resolution so far.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxRedirects: maxRedirects,
		log:          log,
	}
}

// Normalize validates and resolves one pasted link. Failures come back
// as a Result with OK=false and a machine-readable Reason; the room core
// never sees any of this, submission happens after normalization.
func (n *Normalizer) Normalize(ctx context.Context, rawURL string) Result {
	if rawURL == "" {
		return Result{Reason: "missing_url"}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		res := Result{Reason: "invalid_url"}
		if err != nil {
			res.Error = err.Error()
		}
		return res
	}

	if !strings.Contains(strings.ToLower(parsed.Hostname()), "tiktok.com") {
		return Result{Reason: "unsupported_platform"}
	}

	resolved, err := n.resolveRedirects(ctx, rawURL)
	if err != nil {
		n.log.Warn("link resolution failed", zap.String("url", rawURL), zap.Error(err))
		return Result{Reason: "fetch_failed", Error: err.Error()}
	}

	res := Result{
		OK:          true,
		Platform:    "tiktok",
		ResolvedURL: resolved,
		BrowserURL:  resolved,
	}
	if id := ExtractVideoID(resolved); id != "" {
		res.VideoID = id
		res.EmbedURL = fmt.Sprintf("https://www.tiktok.com/embed/v2/%s", id)
	}
	return res
}

// resolveRedirects chases Location headers up to maxRedirects hops and
// returns the last URL reached. A non-3xx response ends the chase.
func (n *Normalizer) resolveRedirects(ctx context.Context, rawURL string) (string, error) {
	current := rawURL
	for i := 0; i < n.maxRedirects; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", browserUA)

		resp, err := n.client.Do(req)
		if err != nil {
			return "", err
		}
		resp.Body.Close()

		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			return current, nil
		}

		location := resp.Header.Get("Location")
		if location == "" {
			return current, nil
		}
		base, err := url.Parse(current)
		if err != nil {
			return "", err
		}
		next, err := base.Parse(location)
		if err != nil {
			return "", err
		}
		current = next.String()
	}
	return current, nil
}

// ExtractVideoID pulls the numeric video id out of a resolved TikTok
// URL, or "" when the path matches none of the known shapes.
func ExtractVideoID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(parsed.Path); m != nil {
			return m[1]
		}
	}
	return ""
}
