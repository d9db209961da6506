package inbox

import (
	"regexp"
	"strings"
)

var (
	htmlTag       = regexp.MustCompile(`<[^>]*>`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

var blockTags = strings.NewReplacer(
	"<br>", "\n",
	"<br/>", "\n",
	"<br />", "\n",
	"<p>", "\n",
	"</p>", "\n",
	"<div>", "\n",
	"</div>", "\n",
)

var htmlEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", "\"",
)

// htmlToPlainText strips markup from an HTML-only message body
func htmlToPlainText(html string) string {
	text := blockTags.Replace(html)
	text = htmlTag.ReplaceAllString(text, "")
	text = htmlEntities.Replace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
