package ui

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"datalens/models"
)

// InsightView is the insight API response: the three raw text sections
// plus HTML renderings for the panel, since the model may use bullet
// characters inside the strings.
type InsightView struct {
	Overview        string `json:"overview"`
	KeyFindings     string `json:"keyFindings"`
	Recommendations string `json:"recommendations"`
	HTML            struct {
		Overview        string `json:"overview"`
		KeyFindings     string `json:"keyFindings"`
		Recommendations string `json:"recommendations"`
	} `json:"html"`
}

func newInsightView(result *models.InsightResult) InsightView {
	view := InsightView{
		Overview:        result.Overview,
		KeyFindings:     result.KeyFindings,
		Recommendations: result.Recommendations,
	}
	view.HTML.Overview = renderMarkdown(result.Overview)
	view.HTML.KeyFindings = renderMarkdown(result.KeyFindings)
	view.HTML.Recommendations = renderMarkdown(result.Recommendations)
	return view
}

func renderMarkdown(text string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.ToHTML([]byte(text), p, renderer))
}
