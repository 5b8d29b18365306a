// Package snapshot renders an analyzed page's main content to Markdown so a
// reviewer can read what the page showed at analysis time without replaying
// the browser session.
package snapshot

import (
	"log/slog"
	nurl "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and fall back to raw HTML.
const minContentLength = 50

// mdConverter is shared across renders; the converter is goroutine-safe.
var mdConverter = newMarkdownConverter()

// newMarkdownConverter creates a reusable Converter:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta, link,
//     input, textarea, and HTML comments.
//   - commonmark plugin: standard Markdown rendering (headings, lists, links,
//     code blocks, emphasis, blockquotes, etc.).
//   - table plugin: preserves table structure with minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Render extracts the main content of rawHTML with the Mozilla Readability
// algorithm and converts it to Markdown. The source URL resolves relative
// links so the snapshot is self-contained.
//
// Fallback behaviour (a snapshot should degrade, not fail, when readability
// chokes on a page):
//   - If URL parsing fails           -> convert the raw HTML
//   - If readability.FromReader errs -> convert the raw HTML
//   - If extracted TextContent < 50  -> convert the raw HTML
func Render(rawHTML, sourceURL string) (string, error) {
	article := extractContent(rawHTML, sourceURL)

	md, err := mdConverter.ConvertString(article.Content, converter.WithDomain(sourceURL))
	if err != nil {
		return "", err
	}

	if article.Title != "" {
		md = "# " + article.Title + "\n\n" + md
	}
	return md, nil
}

// Write stores a rendered snapshot under dir, creating the directory when
// absent.
func Write(dir, name, markdown string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(markdown), 0o644)
}

// extractContent runs readability over rawHTML, falling back to the raw
// document whenever extraction fails or yields too little text.
func extractContent(rawHTML, sourceURL string) readability.Article {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("snapshot: invalid source URL, rendering raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("snapshot: readability extraction failed, rendering raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML)
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Warn("snapshot: extracted content too short, rendering raw HTML",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return fallbackArticle(rawHTML)
	}

	return article
}

// fallbackArticle wraps raw HTML into an Article so rendering can proceed
// uniformly regardless of whether readability succeeded.
func fallbackArticle(rawHTML string) readability.Article {
	return readability.Article{Content: rawHTML}
}
