package probe

import (
	"strings"

	"github.com/trackscan/trackscan/detect"
	"github.com/trackscan/trackscan/models"
	"golang.org/x/net/html"
)

// extractTitle finds the first <title> element in the served HTML.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}

// extractScripts walks the served HTML once and retains the script elements
// matching the same keyword filter the browser analyzer applies, so static
// and rendered observations are directly comparable.
func extractScripts(htmlStr string) []models.TrackingScript {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	scripts := []models.TrackingScript{}

	inScript := false
	var src string
	var content strings.Builder

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return scripts
		case html.StartTagToken:
			tn, hasAttr := tokenizer.TagName()
			if string(tn) != "script" {
				continue
			}
			inScript = true
			src = ""
			content.Reset()
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = tokenizer.TagAttr()
				if string(k) == "src" {
					src = string(v)
				}
			}
		case html.TextToken:
			if inScript {
				content.Write(tokenizer.Text())
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) != "script" || !inScript {
				continue
			}
			inScript = false
			if detect.MatchScript(src, content.String()) {
				scripts = append(scripts, models.TrackingScript{
					Src:     src,
					Content: content.String(),
				})
			}
		}
	}
}
