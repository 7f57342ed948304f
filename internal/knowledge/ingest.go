package knowledge

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// textEncodings is the ordered decode fallback chain for plain-text files.
// UTF-8 is validated first; the single-byte charmaps never fail to decode, so
// ISO-8859-1 acts as the terminal fallback.
var textEncodings = []encoding.Encoding{
	unicode.UTF8,
	charmap.ISO8859_1,
	charmap.Windows1252,
}

// readTextFile reads a plain-text file, trying each encoding in order until
// one decodes cleanly.
func readTextFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	for _, enc := range textEncodings {
		if enc == unicode.UTF8 {
			if utf8.Valid(raw) {
				return string(raw), nil
			}
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		return string(decoded), nil
	}

	return "", fmt.Errorf("could not decode %s with any supported encoding", path)
}

// readMarkdownFile reads a markdown file and flattens it to plain text by
// rendering to HTML and stripping the markup.
func readMarkdownFile(path string) (string, error) {
	src, err := readTextFile(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		// Fall back to the raw markdown; it chunks fine as text.
		return src, nil
	}
	return extractText(buf.Bytes(), nil), nil
}

// readPDFFile extracts per-page text from a PDF. Unreadable pages are skipped;
// the file fails only if no text at all could be extracted.
func readPDFFile(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("no text extracted from %s", path)
	}
	return sb.String(), nil
}

// skippedElements are stripped wholesale from fetched pages before chunking.
var skippedElements = map[string]bool{
	"script": true, "style": true, "nav": true, "footer": true, "header": true,
}

// extractText walks an HTML document and collects its visible text, skipping
// the elements in skip (in addition to script/style/nav/footer/header).
// Whitespace is collapsed to single spaces.
func extractText(doc []byte, skip map[string]bool) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(doc))
	var parts []string
	depth := 0 // nesting depth inside skipped elements

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedElements[string(name)] || skip[string(name)] {
				depth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if (skippedElements[string(name)] || skip[string(name)]) && depth > 0 {
				depth--
			}
		case html.TextToken:
			if depth > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(tokenizer.Text())), " ")
			if text != "" {
				parts = append(parts, text)
			}
		}
	}
}

// fetchWebsite downloads a URL and returns its visible text.
func fetchWebsite(client *http.Client, url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}

	return extractText(body, nil), nil
}
