package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; ai-interviewer/1.0)"
	DefaultMaxBytes  = 10 << 20 // 10 MB
	defaultTimeout   = 20 * time.Second
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("no text could be extracted from document")
	ErrTooLarge          = errors.New("document exceeds size limit")
	ErrInvalidURL        = errors.New("invalid document url")
)

// Extractor turns uploaded files and remote pages into plain text.
type Extractor struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

func NewExtractor(client *http.Client, userAgent string, maxBytes int64) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Extractor{client: client, userAgent: userAgent, maxBytes: maxBytes}
}

// FromBytes extracts text from an uploaded file, choosing the parser from the
// file extension, then the declared content type, then content sniffing.
func (e *Extractor) FromBytes(filename, contentType string, data []byte) (string, error) {
	if int64(len(data)) > e.maxBytes {
		return "", ErrTooLarge
	}
	kind := kindFromExt(filename)
	if kind == "" {
		kind = kindFromContentType(contentType)
	}
	if kind == "" {
		kind = kindFromContentType(http.DetectContentType(data))
	}
	return extract(kind, data)
}

// FetchURL downloads rawURL and extracts its text.
func (e *Extractor) FetchURL(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", u.Host, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return "", ErrTooLarge
	}

	kind := kindFromContentType(resp.Header.Get("Content-Type"))
	if kind == "" {
		kind = kindFromExt(u.Path)
	}
	if kind == "" {
		kind = kindFromContentType(http.DetectContentType(data))
	}
	return extract(kind, data)
}

// Resolve fills in the three documents of an analysis request. Inline text
// wins over a URL for the same document.
func (e *Extractor) Resolve(ctx context.Context, req model.AnalyzeDocumentsReq) (*model.Documents, error) {
	docs := &model.Documents{Resume: strings.TrimSpace(req.ResumeText)}

	var err error
	if docs.Role, err = e.textOrURL(ctx, req.RoleText, req.RoleURL); err != nil {
		return nil, fmt.Errorf("role description: %w", err)
	}
	if docs.JobOffering, err = e.textOrURL(ctx, req.JobOfferingText, req.JobOfferingURL); err != nil {
		return nil, fmt.Errorf("job offering: %w", err)
	}
	return docs, nil
}

func (e *Extractor) textOrURL(ctx context.Context, text, rawURL string) (string, error) {
	if t := strings.TrimSpace(text); t != "" {
		return t, nil
	}
	if strings.TrimSpace(rawURL) == "" {
		return "", nil
	}
	return e.FetchURL(ctx, rawURL)
}

const (
	kindText = "text"
	kindHTML = "html"
	kindPDF  = "pdf"
)

func kindFromExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".text":
		return kindText
	case ".html", ".htm":
		return kindHTML
	case ".pdf":
		return kindPDF
	}
	return ""
}

func kindFromContentType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	switch mt {
	case "text/plain", "text/markdown":
		return kindText
	case "text/html", "application/xhtml+xml":
		return kindHTML
	case "application/pdf":
		return kindPDF
	}
	return ""
}

func extract(kind string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch kind {
	case kindText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedFormat)
		}
		text = cleanFinalContent(cleanText(string(data)))
	case kindHTML:
		text, err = ExtractHTML(bytes.NewReader(data))
	case kindPDF:
		text, err = ExtractPDF(data)
	default:
		return "", ErrUnsupportedFormat
	}
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// ExtractPDF returns the plain text of every page, in page order. Files the
// parser cannot read are reported as ErrUnsupportedFormat.
func ExtractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: malformed pdf: %v", ErrUnsupportedFormat, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: read pdf: %v", ErrUnsupportedFormat, err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %v", ErrUnsupportedFormat, i, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return cleanFinalContent(cleanText(b.String())), nil
}

// ExtractHTML returns the readable text of an HTML page: the page title
// followed by headings, paragraphs, lists and preformatted blocks.
func ExtractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, nav, header, footer, form, .ad, .advertisement").Remove()

	root := doc.Find("main, article, [role=main]").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var parts []string
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		parts = append(parts, title)
	} else if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}

	root.Find("p, h2, h3, h4, li, pre").Each(func(i int, s *goquery.Selection) {
		// list items nested in other list items are covered by their parent
		if goquery.NodeName(s) == "li" && s.ParentsFiltered("li").Length() > 0 {
			return
		}
		if text := cleanText(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	if len(parts) <= 1 {
		if text := cleanText(root.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return cleanFinalContent(strings.Join(parts, "\n\n")), nil
}

var (
	inlineSpace = regexp.MustCompile(`[ \t]+`)
	newlines    = regexp.MustCompile(`\n+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
)

// cleanText removes excessive whitespace and newlines
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = inlineSpace.ReplaceAllString(text, " ")
	text = newlines.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n")
}

func cleanFinalContent(content string) string {
	content = blankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
