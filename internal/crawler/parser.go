package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// linkSelector matches the subresources that take part in the fingerprint.
// Order of the matched elements is document order, which the fingerprint
// depends on.
const linkSelector = `link[rel="stylesheet"], script[src]`

// Link is a stylesheet or script reference found in an HTML document.
type Link struct {
	// Ref is the raw href or src attribute value.
	Ref string

	// Path is the path component of Ref including any query string.
	// It is the label written into the parent's combination string.
	Path string

	// Absolute reports whether Ref carries its own host,
	// either with a scheme or protocol-relative ("//cdn.example/x.js").
	Absolute bool

	// parsed is the parsed form of Ref, nil when Ref could not be parsed.
	parsed *url.URL
}

// Parser extracts stylesheet and script references from HTML content.
//
// Design decision: We use goquery on top of golang.org/x/net/html rather than
// walking the node tree by hand because:
//  1. The selection rule is a plain CSS selector
//  2. The HTML5 parser tolerates the malformed markup common on the web
//  3. Matched elements come back in document order
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ExtractLinks returns every <link rel="stylesheet"> and <script src> in the
// document, in document order. Elements whose reference is empty are skipped.
func (p *Parser) ExtractLinks(content string) ([]Link, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	var links []Link
	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		ref, ok := s.Attr("href")
		if !ok || strings.TrimSpace(ref) == "" {
			ref, _ = s.Attr("src")
		}
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		links = append(links, newLink(ref))
	})
	return links, nil
}

// newLink splits a reference into its path label and host-ness.
// A reference that does not parse as a URL is kept verbatim as a relative path.
func newLink(ref string) Link {
	u, err := url.Parse(ref)
	if err != nil {
		return Link{Ref: ref, Path: ref}
	}

	path := u.EscapedPath()
	if u.Opaque != "" {
		path = u.Opaque
	}
	if u.RawQuery != "" || u.ForceQuery {
		path += "?" + u.RawQuery
	}
	return Link{
		Ref:      ref,
		Path:     path,
		Absolute: u.Host != "",
		parsed:   u,
	}
}

// Resolve returns the URL to fetch for link when it is found in the resource
// fetched from base.
//
// A reference with a host is used as is; a protocol-relative reference takes
// the scheme of base. A reference without a host is joined textually:
// a "/" is inserted when neither base ends with "/" nor the path starts with
// "/", and the path is appended to base. The rule reads base only, so the
// result for one sibling never depends on another.
func Resolve(base string, link Link) string {
	if link.Absolute && link.parsed != nil {
		target := *link.parsed
		if target.Scheme == "" {
			if b, err := url.Parse(base); err == nil {
				target.Scheme = b.Scheme
			}
		}
		target.Fragment = ""
		target.RawFragment = ""
		return target.String()
	}

	if !strings.HasPrefix(link.Path, "/") && !strings.HasSuffix(base, "/") {
		return base + "/" + link.Path
	}
	return base + link.Path
}

// resourceKey is the visited-set key of a resolved resource URL.
// The fragment is dropped, the host lowercased and an empty path becomes "/".
// The query is kept, so "app.js?v=1" and "app.js?v=2" are distinct resources.
func resourceKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}
