package service

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/cleo-api/internal/model"
	"github.com/yourusername/cleo-api/internal/prompt"
)

const (
	maxPostsPerPage  = 10
	wantedBlogPosts  = 4
	maxSummaryRunes  = 200
	maxAboutRunes    = 500
	maxAnalysisRunes = 5000
)

var (
	blogPaths = []string{"/blog", "/news", "/articles", "/insights", "/posts"}

	postSelectors = []string{
		"article",
		".post",
		".blog-post",
		".entry",
		`[class*="post"]`,
		`[class*="article"]`,
	}

	inPageLogoSelectors = []string{
		".logo img",
		"#logo img",
		`[class*="logo"] img`,
		"header img",
		".navbar img",
		".header img",
	}

	postDateLayouts = []string{
		time.RFC3339,
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"02 Jan 2006",
		"01/02/2006",
	}

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SiteCrawler gathers branding, blog posts, about text and an AI summary for
// a company website.
type SiteCrawler struct {
	fetcher  *PageFetcher
	logos    *LogoService
	analyzer *ContentAnalyzer
}

func NewSiteCrawler(fetcher *PageFetcher, logos *LogoService, analyzer *ContentAnalyzer) *SiteCrawler {
	return &SiteCrawler{fetcher: fetcher, logos: logos, analyzer: analyzer}
}

// SiteURL prefixes https:// when domain carries no scheme.
func SiteURL(domain string) string {
	domain = strings.TrimSpace(domain)
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// Crawl fails only when the main page cannot be fetched; every other step
// degrades to empty values or the analysis fallback.
func (c *SiteCrawler) Crawl(ctx context.Context, domain string) (*model.CrawlerResult, error) {
	baseURL := SiteURL(domain)

	main, err := c.fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to crawl website: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(main.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing main page: %w", err)
	}

	var (
		logo  model.LogoResult
		posts []model.BlogPost
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logo = c.logos.Lookup(gctx, baseURL)
		return nil
	})
	g.Go(func() error {
		posts = c.findBlogPosts(gctx, baseURL)
		return nil
	})
	_ = g.Wait()

	if logo.LogoURL == "" {
		logo.LogoURL = ExtractLogo(doc, baseURL)
	}
	if logo.BrandColors == nil {
		logo.BrandColors = []model.ColorSwatch{}
	}

	about := ExtractAboutText(doc)
	analysis := c.analyze(ctx, doc, about, posts)

	log.Info().
		Str("domain", CleanDomain(domain)).
		Int("blog_posts", len(posts)).
		Bool("logo", logo.LogoURL != "").
		Msg("Crawled company website")

	return &model.CrawlerResult{
		Domain:             CleanDomain(domain),
		LogoURL:            logo.LogoURL,
		BrandColors:        logo.BrandColors,
		BlogPosts:          posts,
		AboutText:          about,
		CompanySummary:     analysis.CompanySummary,
		ToneOfVoiceExample: analysis.ToneOfVoiceExample,
	}, nil
}

func (c *SiteCrawler) analyze(ctx context.Context, doc *goquery.Document, about string, posts []model.BlogPost) model.CompanyAnalysis {
	if c.analyzer == nil {
		return AnalysisFallback(about)
	}

	result, _, err := c.analyzer.Analyze(ctx, prompt.AnalyzeInput{
		MainContent: truncateRunes(MainText(doc), maxAnalysisRunes),
		AboutText:   about,
		BlogPosts:   posts,
	})
	if err != nil {
		log.Warn().Err(err).Msg("AI analysis failed, using fallback")
		return AnalysisFallback(about)
	}
	return result
}

// findBlogPosts walks the usual blog paths until enough posts are found.
// Missing paths are skipped silently.
func (c *SiteCrawler) findBlogPosts(ctx context.Context, baseURL string) []model.BlogPost {
	base, err := url.Parse(baseURL)
	if err != nil {
		return []model.BlogPost{}
	}

	var posts []model.BlogPost
	for _, p := range blogPaths {
		if ctx.Err() != nil {
			break
		}
		page, err := c.fetcher.Fetch(ctx, base.ResolveReference(&url.URL{Path: p}).String())
		if err != nil {
			log.Debug().Str("path", p).Err(err).Msg("Blog path unavailable")
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
		if err != nil {
			continue
		}
		// Selectors overlap, so one page can yield the same post twice.
		posts = dedupePosts(append(posts, ExtractBlogPosts(doc, base)...))
		if len(posts) >= wantedBlogPosts {
			break
		}
	}

	SortPostsByDate(posts)
	if len(posts) > wantedBlogPosts {
		posts = posts[:wantedBlogPosts]
	}
	if posts == nil {
		posts = []model.BlogPost{}
	}
	return posts
}

// ExtractBlogPosts applies the post selectors in order, keeping at most ten
// posts and stopping once a selector has produced enough of them.
func ExtractBlogPosts(doc *goquery.Document, base *url.URL) []model.BlogPost {
	var posts []model.BlogPost
	today := time.Now().UTC().Format("2006-01-02")

	for _, selector := range postSelectors {
		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			if len(posts) >= maxPostsPerPage {
				return
			}

			titleEl := el.Find(`h1, h2, h3, .title, [class*="title"]`).First()
			if titleEl.Length() == 0 {
				return
			}
			linkEl := el.Find("a[href]").First()
			if linkEl.Length() == 0 {
				linkEl = titleEl.Closest("a")
			}
			href, ok := linkEl.Attr("href")
			if !ok {
				return
			}

			title := cleanText(titleEl.Text())
			link := resolveURL(base, href)
			if title == "" || link == "" {
				return
			}

			date := today
			if dateEl := el.Find(`time, .date, [class*="date"]`).First(); dateEl.Length() > 0 {
				if t := cleanText(dateEl.Text()); t != "" {
					date = t
				} else if dt, ok := dateEl.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
					date = strings.TrimSpace(dt)
				}
			}

			summary := cleanText(el.Find(`p, .excerpt, .summary, [class*="excerpt"]`).First().Text())

			posts = append(posts, model.BlogPost{
				Title:       title,
				URL:         link,
				PublishDate: date,
				Summary:     truncateRunes(summary, maxSummaryRunes),
			})
		})

		if len(posts) >= wantedBlogPosts {
			break
		}
	}

	return posts
}

// SortPostsByDate orders newest first. Posts whose date cannot be parsed
// keep their relative order after the dated ones.
func SortPostsByDate(posts []model.BlogPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		ti, okI := parsePostDate(posts[i].PublishDate)
		tj, okJ := parsePostDate(posts[j].PublishDate)
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
}

func parsePostDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range postDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dedupePosts(posts []model.BlogPost) []model.BlogPost {
	seen := make(map[string]bool, len(posts))
	out := posts[:0]
	for _, p := range posts {
		if seen[p.URL] {
			continue
		}
		seen[p.URL] = true
		out = append(out, p)
	}
	return out
}

// ExtractAboutText looks for an about/company section, then hero or intro
// copy, then falls back to the first long paragraph that isn't a cookie
// notice.
func ExtractAboutText(doc *goquery.Document) string {
	candidates := []*goquery.Selection{
		attrContains(doc.Selection, "id", "about"),
		attrContains(doc.Selection, "class", "about"),
		attrContains(doc.Selection, "id", "company"),
		attrContains(doc.Selection, "class", "company"),
		doc.Find(".hero p").First(),
		doc.Find(".intro p").First(),
		doc.Find("main p").First(),
	}

	for _, sel := range candidates {
		if sel.Length() == 0 {
			continue
		}
		if text := cleanText(sel.Text()); len([]rune(text)) > 50 {
			return truncateRunes(text, maxAboutRunes)
		}
	}

	var about string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := cleanText(p.Text())
		if len([]rune(text)) > 100 && !strings.Contains(strings.ToLower(text), "cookie") {
			about = truncateRunes(text, maxAboutRunes)
			return false
		}
		return true
	})
	return about
}

// ExtractLogo returns the first in-page logo image, resolved against baseURL.
func ExtractLogo(doc *goquery.Document, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	imgs := doc.Find("img").FilterFunction(func(_ int, s *goquery.Selection) bool {
		alt, _ := s.Attr("alt")
		return strings.Contains(strings.ToLower(alt), "logo")
	})
	if src := firstSrc(imgs, base); src != "" {
		return src
	}

	for _, selector := range inPageLogoSelectors {
		if src := firstSrc(doc.Find(selector), base); src != "" {
			return src
		}
	}
	return ""
}

// MainText is the visible text of the page with scripts and chrome removed.
func MainText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	if body.Length() == 0 {
		body = doc.Selection.Clone()
	}
	body.Find("script, style, noscript, svg, iframe, nav, footer").Remove()
	return cleanText(body.Text())
}

func firstSrc(sel *goquery.Selection, base *url.URL) string {
	src, ok := sel.First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return ""
	}
	return resolveURL(base, src)
}

// attrContains is the first element whose attr contains substr, case-insensitively.
func attrContains(root *goquery.Selection, attr, substr string) *goquery.Selection {
	return root.Find("[" + attr + "]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr(attr)
		return strings.Contains(strings.ToLower(v), substr)
	}).First()
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
