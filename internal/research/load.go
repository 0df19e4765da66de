// Package research loads user research data from local files into the text
// corpus the pipeline grounds persona generation in.
package research

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// Load reads a research file and returns its contents as a plain-text
// corpus. The format is dispatched on the file extension: JSON and YAML are
// parsed and re-rendered normalized, HTML is reduced to its main text, and
// Markdown/plain text pass through unchanged.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read research file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return normalizeJSON(data, path)
	case ".yaml", ".yml":
		return normalizeYAML(data, path)
	case ".html", ".htm":
		return extractHTMLText(string(data))
	default:
		return string(data), nil
	}
}

// normalizeJSON validates the document and re-renders it indented so the
// prompt sees a consistent shape regardless of the source formatting.
func normalizeJSON(data []byte, path string) (string, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse research JSON %s: %w", path, err)
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// normalizeYAML validates the document and re-renders it canonically.
func normalizeYAML(data []byte, path string) (string, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse research YAML %s: %w", path, err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// extractHTMLText parses HTML and returns the main body text with noise
// elements removed, falling back to the whole body when no main content
// container is found.
func extractHTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .sidebar, .cookie-banner").Remove()

	content := doc.Find("main, article, .content, #content").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	return cleanWhitespace(content.Text()), nil
}

var (
	multiSpace   = regexp.MustCompile(`[ \t]+`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// cleanWhitespace collapses runs of spaces and blank lines left behind by
// HTML extraction.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpace.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
