package source

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/sells-group/bigaward-cli/internal/fetcher"
	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/normalize"
)

// section is a website block identified by a heading keyword.
type section int

const (
	sectionTeam section = iota
	sectionAdvisors
	sectionProducts
	sectionPublications
)

var sectionKeywords = map[section][]string{
	sectionTeam:         {"team", "founder"},
	sectionAdvisors:     {"advisor", "mentor"},
	sectionProducts:     {"product", "service"},
	sectionPublications: {"publication", "research"},
}

// patentToken matches candidate patent numbers like IN202141012345.
var patentToken = regexp.MustCompile(`[A-Z0-9]{6,20}`)

// WebsiteScraper pulls team, product, patent, and publication lists from a
// company home page.
type WebsiteScraper struct {
	fetcher fetcher.Fetcher
}

// NewWebsiteScraper creates a scraper on top of f.
func NewWebsiteScraper(f fetcher.Fetcher) *WebsiteScraper {
	return &WebsiteScraper{fetcher: f}
}

// Scrape fetches rawURL and parses it. An empty URL yields an empty
// observation.
func (w *WebsiteScraper) Scrape(ctx context.Context, rawURL string) (model.WebsiteObservation, error) {
	target := normalize.URL(rawURL)
	if target == "" {
		return model.WebsiteObservation{}, nil
	}

	resp, err := w.fetcher.Fetch(ctx, target)
	if err != nil {
		return model.WebsiteObservation{}, eris.Wrapf(err, "source: scrape %s", target)
	}
	if blocked, kind := DetectBlock(resp.Body); blocked {
		return model.WebsiteObservation{}, eris.Errorf("source: scrape %s: blocked (%s)", target, kind)
	}

	obs, err := ParseWebsite(resp.Body)
	if err != nil {
		return model.WebsiteObservation{}, eris.Wrapf(err, "source: scrape %s", target)
	}
	obs.WebsiteURL = target
	obs.SourceURL = resp.URL
	if obs.SourceURL == "" {
		obs.SourceURL = target
	}

	zap.L().Debug("source: website scraped",
		zap.String("url", target),
		zap.Int("team", len(obs.Team)),
		zap.Int("products", len(obs.Products)),
		zap.Int("patents", len(obs.Patents)),
	)
	return obs, nil
}

// ParseWebsite extracts lists from an HTML document. Each h2, h3, or h4
// whose text names a section owns the li and p items of the first ul or div
// sibling after it. A heading may feed more than one section.
func ParseWebsite(body []byte) (model.WebsiteObservation, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return model.WebsiteObservation{}, eris.Wrap(err, "source: parse html")
	}

	lists := map[section]*orderedSet{
		sectionTeam:         newOrderedSet(),
		sectionAdvisors:     newOrderedSet(),
		sectionProducts:     newOrderedSet(),
		sectionPublications: newOrderedSet(),
	}
	patents := newOrderedSet()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "h2", "h3", "h4":
				if block := nextBlock(n); block != nil {
					for _, s := range classify(textOf(n)) {
						collectItems(block, lists[s])
					}
				}
			}
		}
		if n.Type == html.TextNode {
			for _, tok := range patentToken.FindAllString(n.Data, -1) {
				if strings.ContainsAny(tok, "0123456789") {
					patents.add(tok)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return model.WebsiteObservation{
		Team:         lists[sectionTeam].items,
		Advisors:     lists[sectionAdvisors].items,
		Products:     lists[sectionProducts].items,
		Publications: lists[sectionPublications].items,
		Patents:      patents.items,
	}, nil
}

var sectionOrder = []section{sectionTeam, sectionAdvisors, sectionProducts, sectionPublications}

func classify(heading string) []section {
	lower := strings.ToLower(heading)
	var out []section
	for _, s := range sectionOrder {
		for _, k := range sectionKeywords[s] {
			if strings.Contains(lower, k) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// nextBlock returns the first ul or div sibling after n.
func nextBlock(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && (s.Data == "ul" || s.Data == "div") {
			return s
		}
	}
	return nil
}

func collectItems(n *html.Node, into *orderedSet) {
	if n.Type == html.ElementNode && (n.Data == "li" || n.Data == "p") {
		into.add(textOf(n))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectItems(c, into)
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

// BlockType describes the kind of anti-bot page detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
)

// DetectBlock checks a page body for challenge or captcha markers.
func DetectBlock(body []byte) (bool, BlockType) {
	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockCloudflare
	}
	if strings.Contains(lower, "g-recaptcha") ||
		strings.Contains(lower, "h-captcha") ||
		strings.Contains(lower, "captcha-container") {
		return true, BlockCaptcha
	}
	return false, BlockNone
}
