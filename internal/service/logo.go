package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/model"
)

// ── Brandfetch response types ─────────────────────────

type brandfetchBrand struct {
	Logos []struct {
		Type    string `json:"type"`
		Formats []struct {
			Src    string `json:"src"`
			Format string `json:"format"`
		} `json:"formats"`
	} `json:"logos"`
	Colors []struct {
		Hex string `json:"hex"`
	} `json:"colors"`
}

// ── Logo service ──────────────────────────────────────

type LogoConfig struct {
	BrandfetchBaseURL string
	BrandfetchAPIKey  string
	ClearbitBaseURL   string
	// SiteURLFormat builds the site root for path probes; %s is the domain.
	SiteURLFormat string
	Timeout       time.Duration
	ProbeTimeout  time.Duration
	CacheTTL      time.Duration
}

// LogoService finds a company logo and brand colors for a domain.
type LogoService struct {
	cfg         LogoConfig
	client      *http.Client
	probeClient *http.Client
	cache       map[string]*cachedLogo
	mu          sync.RWMutex
}

type cachedLogo struct {
	data      model.LogoResult
	expiresAt time.Time
}

var logoProbePaths = []string{
	"/logo.png",
	"/logo.svg",
	"/assets/logo.png",
	"/images/logo.png",
	"/static/logo.png",
}

func NewLogoService(cfg LogoConfig) *LogoService {
	if cfg.BrandfetchBaseURL == "" {
		cfg.BrandfetchBaseURL = "https://api.brandfetch.io"
	}
	if cfg.ClearbitBaseURL == "" {
		cfg.ClearbitBaseURL = "https://logo.clearbit.com"
	}
	if cfg.SiteURLFormat == "" {
		cfg.SiteURLFormat = "https://%s"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}

	return &LogoService{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.Timeout},
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout},
		cache:       make(map[string]*cachedLogo),
	}
}

var schemeRe = regexp.MustCompile(`^https?://`)

// CleanDomain strips scheme, a leading "www." and any path.
func CleanDomain(domain string) string {
	d := schemeRe.ReplaceAllString(strings.TrimSpace(domain), "")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}

// Lookup never fails: with no logo found it returns empty fields.
//
// Order:
//  1. Brandfetch brand API (logo > wordmark > symbol, png/svg preferred)
//  2. HEAD probes of common logo paths on the site itself
//  3. Clearbit logo API
func (s *LogoService) Lookup(ctx context.Context, domain string) model.LogoResult {
	clean := CleanDomain(domain)
	empty := model.LogoResult{BrandColors: []model.ColorSwatch{}}
	if clean == "" {
		return empty
	}

	if cached, ok := s.cached(clean); ok {
		log.Debug().Str("domain", clean).Msg("Logo cache hit")
		return cached
	}

	result, err := s.fromBrandfetch(ctx, clean)
	if err != nil {
		log.Debug().Str("domain", clean).Err(err).Msg("Brandfetch failed, trying fallback methods")
	} else if result != nil {
		log.Info().Str("domain", clean).Str("logo", result.LogoURL).Msg("Found logo via Brandfetch")
		s.store(clean, *result)
		return *result
	}

	for _, candidate := range s.fallbackURLs(clean) {
		if s.probe(ctx, candidate) {
			log.Info().Str("domain", clean).Str("logo", candidate).Msg("Found logo via fallback")
			found := model.LogoResult{LogoURL: candidate, BrandColors: []model.ColorSwatch{}}
			s.store(clean, found)
			return found
		}
	}

	log.Info().Str("domain", clean).Msg("No logo found for domain")
	return empty
}

func (s *LogoService) fallbackURLs(domain string) []string {
	site := strings.TrimSuffix(fmt.Sprintf(s.cfg.SiteURLFormat, domain), "/")
	urls := make([]string, 0, len(logoProbePaths)+1)
	for _, p := range logoProbePaths {
		urls = append(urls, site+p)
	}
	return append(urls, strings.TrimSuffix(s.cfg.ClearbitBaseURL, "/")+"/"+domain)
}

// fromBrandfetch returns (nil, nil) when the brand exists but has no usable logo.
func (s *LogoService) fromBrandfetch(ctx context.Context, domain string) (*model.LogoResult, error) {
	endpoint := strings.TrimSuffix(s.cfg.BrandfetchBaseURL, "/") + "/v2/brands/" + domain
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.cfg.BrandfetchAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.BrandfetchAPIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Brandfetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Brandfetch returned %d", resp.StatusCode)
	}

	var brand brandfetchBrand
	if err := json.NewDecoder(resp.Body).Decode(&brand); err != nil {
		return nil, fmt.Errorf("decoding Brandfetch response: %w", err)
	}
	if len(brand.Logos) == 0 {
		return nil, nil
	}

	best := -1
	for _, want := range []string{"logo", "wordmark", "symbol"} {
		for i, l := range brand.Logos {
			if l.Type == want {
				best = i
				break
			}
		}
		if best >= 0 {
			break
		}
	}
	if best < 0 {
		best = 0
	}

	logo := brand.Logos[best]
	if len(logo.Formats) == 0 {
		return nil, nil
	}
	src := logo.Formats[0].Src
	for _, f := range logo.Formats {
		if f.Format == "png" || f.Format == "svg" {
			src = f.Src
			break
		}
	}

	colors := make([]model.ColorSwatch, 0, 4)
	for _, c := range brand.Colors {
		if len(colors) == 4 {
			break
		}
		colors = append(colors, model.ColorSwatch{Color: c.Hex, Hex: c.Hex})
	}

	return &model.LogoResult{LogoURL: src, BrandColors: colors}, nil
}

func (s *LogoService) probe(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", BrowserUserAgent)

	resp, err := s.probeClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (s *LogoService) cached(domain string) (model.LogoResult, bool) {
	if s.cfg.CacheTTL <= 0 {
		return model.LogoResult{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cache[domain]; ok && time.Now().Before(c.expiresAt) {
		return c.data, true
	}
	return model.LogoResult{}, false
}

func (s *LogoService) store(domain string, r model.LogoResult) {
	if s.cfg.CacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	s.cache[domain] = &cachedLogo{data: r, expiresAt: time.Now().Add(s.cfg.CacheTTL)}
	s.mu.Unlock()
}

// ClearCache removes expired entries
func (s *LogoService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.cache {
		if now.After(v.expiresAt) {
			delete(s.cache, k)
		}
	}
}
