package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	untitled  = "Untitled Recipe"
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxPageBytes = 5 << 20
)

// ErrFetch wraps failures to retrieve the page being imported.
var ErrFetch = errors.New("fetch recipe page")

// Extracted is the recipe content recovered from a web page.
type Extracted struct {
	Title        string `json:"title"`
	Ingredients  string `json:"ingredients"`
	Steps        string `json:"steps"`
	SpecialNotes string `json:"special_notes"`
	Category     string `json:"category"`
	SourceURL    string `json:"source_url"`
	ImageURL     string `json:"image_url"`
}

// Extractor downloads recipe pages.
type Extractor struct {
	client *http.Client
}

func NewExtractor(timeout time.Duration) *Extractor {
	return &Extractor{client: &http.Client{Timeout: timeout}}
}

func (e *Extractor) get(ctx context.Context, rawURL string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an http(s) URL", ErrFetch, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, rawURL, resp.Status)
	}
	return resp, nil
}

// Fetch downloads rawURL and extracts a recipe from it.
func (e *Extractor) Fetch(ctx context.Context, rawURL string) (*Extracted, error) {
	resp, err := e.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return Parse(io.LimitReader(resp.Body, maxPageBytes), rawURL)
}

// FetchImage downloads an image referenced by an imported page.
func (e *Extractor) FetchImage(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := e.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Parse extracts a recipe from an HTML document. A schema.org Recipe in
// JSON-LD is preferred; otherwise common recipe-site markup is scraped.
func Parse(r io.Reader, sourceURL string) (*Extracted, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var ex *Extracted
	if obj := findRecipeSchema(doc); obj != nil {
		ex = fromSchema(obj)
	} else {
		ex = fromMarkup(doc)
	}
	ex.SourceURL = sourceURL
	if ex.Category == "" {
		ex.Category = NormalizeCategory(ex.Title)
	}
	if ex.ImageURL != "" {
		ex.ImageURL = resolveURL(sourceURL, ex.ImageURL)
	}
	return ex, nil
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

// --- JSON-LD ---

func findRecipeSchema(doc *html.Node) map[string]any {
	var found map[string]any
	walk(doc, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.DataAtom != atom.Script || !strings.EqualFold(attr(n, "type"), "application/ld+json") {
			return true
		}
		var data any
		if err := json.Unmarshal([]byte(rawText(n)), &data); err != nil {
			return false
		}
		found = recipeIn(data)
		return false
	})
	return found
}

func recipeIn(data any) map[string]any {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			if r := recipeIn(item); r != nil {
				return r
			}
		}
	case map[string]any:
		if isRecipeType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return recipeIn(graph)
		}
	}
	return nil
}

func isRecipeType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []any:
		for _, s := range v {
			if s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func fromSchema(obj map[string]any) *Extracted {
	ex := &Extracted{
		Title:       firstText(obj["name"], obj["headline"]),
		Ingredients: joinLines(obj["recipeIngredient"]),
		Steps:       instructions(firstNonNil(obj["recipeInstructions"], obj["instructions"])),
		ImageURL:    imageURL(obj["image"]),
	}
	if ex.Title == "" {
		ex.Title = untitled
	}

	var notes []string
	for _, f := range []struct{ key, label string }{
		{"cookTime", "Cook time"},
		{"prepTime", "Prep time"},
		{"totalTime", "Total time"},
		{"recipeYield", "Yield"},
	} {
		if s := scalarText(obj[f.key]); s != "" {
			notes = append(notes, f.label+": "+s)
		}
	}
	ex.SpecialNotes = strings.Join(notes, "\n")

	if cat, ok := obj["recipeCategory"].([]any); ok && len(cat) > 0 {
		ex.Category = NormalizeCategory(scalarText(cat[0]))
	} else {
		ex.Category = NormalizeCategory(scalarText(obj["recipeCategory"]))
	}
	return ex
}

func firstNonNil(vs ...any) any {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstText(vs ...any) string {
	for _, v := range vs {
		if list, ok := v.([]any); ok {
			if len(list) == 0 {
				continue
			}
			v = list[0]
		}
		if s := scalarText(v); s != "" {
			return s
		}
	}
	return ""
}

// scalarText renders a JSON scalar, or a list of them joined by commas.
func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalarText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func joinLines(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var lines []string
		for _, item := range t {
			if s := scalarText(item); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

// instructions flattens recipeInstructions: plain strings, HowToStep objects,
// and HowToSection objects holding further steps.
func instructions(v any) string {
	var steps []string
	var collect func(any)
	collect = func(v any) {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				steps = append(steps, s)
			}
		case float64:
			steps = append(steps, scalarText(t))
		case []any:
			for _, item := range t {
				collect(item)
			}
		case map[string]any:
			if items, ok := t["itemListElement"]; ok {
				collect(items)
				return
			}
			if s := firstText(t["text"], t["name"], t["@value"]); s != "" {
				steps = append(steps, s)
			}
		}
	}
	collect(v)
	return strings.Join(steps, "\n")
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return imageURL(t[0])
		}
	case map[string]any:
		return firstText(t["url"], t["@id"])
	}
	return ""
}

// --- Markup fallback ---

var (
	titleClass       = regexp.MustCompile(`(?i)recipe-title|recipe-name|entry-title`)
	ingredientClass  = regexp.MustCompile(`(?i)ingredient`)
	instructionClass = regexp.MustCompile(`(?i)instruction|recipe-step|direction`)
	stepClass        = regexp.MustCompile(`(?i)step`)
)

func fromMarkup(doc *html.Node) *Extracted {
	ex := &Extracted{}

	if h1 := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.H1 }); h1 != nil {
		ex.Title = textContent(h1)
	}
	if ex.Title == "" {
		if el := findFirst(doc, func(n *html.Node) bool { return hasClass(n, titleClass) }); el != nil {
			ex.Title = textContent(el)
		}
	}
	if ex.Title == "" {
		ex.Title = untitled
	}

	ex.Ingredients = strings.Join(texts(doc, func(n *html.Node) bool { return hasClass(n, ingredientClass) }), "\n")

	steps := texts(doc, func(n *html.Node) bool { return hasClass(n, instructionClass) })
	if len(steps) == 0 {
		steps = texts(doc, func(n *html.Node) bool { return n.DataAtom == atom.Li && hasClass(n, stepClass) })
	}
	ex.Steps = strings.Join(steps, "\n")
	return ex
}

// walk visits elements depth first. Returning false from fn skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(doc *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// texts returns the text of each innermost matching element, so a wrapper
// such as <ul class="ingredients"> yields its <li class="ingredient"> rows.
func texts(doc *html.Node, match func(*html.Node) bool) []string {
	var out []string
	var visit func(*html.Node) bool
	visit = func(n *html.Node) bool {
		inner := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if visit(c) {
				inner = true
			}
		}
		if n.Type != html.ElementNode || !match(n) {
			return inner
		}
		if !inner {
			if s := textContent(n); s != "" {
				out = append(out, s)
			}
		}
		return true
	}
	visit(doc)
	return out
}

func hasClass(n *html.Node, re *regexp.Regexp) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if re.MatchString(c) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates the text below n with whitespace collapsed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func rawText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
