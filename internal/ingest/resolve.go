package ingest

import (
	"context"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/sponsorcheck/sponsorcheck-server/internal/errors"
)

// csvLinkRegex is the fallback when HTML parsing finds no anchor.
var csvLinkRegex = regexp.MustCompile(`https://[^"']+\.csv`)

// ResolveCSVURL fetches the register publication page and returns the
// URL of the first linked CSV. The government page links a freshly
// named CSV each time the register is republished, so the link must be
// discovered on every sync.
func (f *Fetcher) ResolveCSVURL(ctx context.Context, pageURL string) (string, error) {
	resp, err := f.Get(ctx, pageURL)
	if err != nil {
		return "", errors.SourceNotFound("failed to fetch register page").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.SourceNotFoundf("register page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.SourceNotFound("failed to read register page").WithCause(err)
	}

	if link := findCSVAnchor(pageURL, body); link != "" {
		return link, nil
	}

	// Regex fallback over the raw HTML
	if link := csvLinkRegex.FindString(string(body)); link != "" {
		return link, nil
	}

	return "", errors.SourceNotFound("no CSV link found on register page")
}

// findCSVAnchor walks the parsed document for the first anchor whose
// href ends in .csv, resolving relative links against the page URL.
func findCSVAnchor(pageURL string, body []byte) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if !strings.HasSuffix(strings.ToLower(href), ".csv") {
					continue
				}
				ref, err := url.Parse(href)
				if err != nil {
					continue
				}
				return base.ResolveReference(ref).String()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if link := walk(c); link != "" {
				return link
			}
		}
		return ""
	}

	return walk(doc)
}
