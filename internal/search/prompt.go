package search

import (
	"fmt"
	"strings"

	"github.com/renderinc/tweet-explorer/internal/storage"
)

// SystemPrompt frames the analyst role for every query
const SystemPrompt = "You are a crypto discourse analyst."

// RenderPost formats one post as a numbered context block
func RenderPost(n int, p *storage.Post) string {
	lines := []string{
		fmt.Sprintf("Tweet %d (@%s, %s):", n, orUnknown(p.Handle), orUnknown(p.Date)),
		"Text: " + p.Text,
	}

	if len(p.Tags) > 0 {
		lines = append(lines, "Tags: "+strings.Join(p.Tags, ", "))
	}
	if len(p.VisionCaptions) > 0 {
		lines = append(lines, "Image: "+strings.Join(p.VisionCaptions, "; "))
	}
	if labels := p.PrimaryImageTags(); len(labels) > 0 {
		lines = append(lines, "Image tags: "+strings.Join(labels, ", "))
	}
	if p.Summary != "" {
		lines = append(lines, "Summary: "+p.Summary)
	}
	if len(p.Insights) > 0 {
		lines = append(lines, "Insights: "+strings.Join(p.Insights, ", "))
	}

	return strings.Join(lines, "\n")
}

// RenderContext joins the blocks of every post in order
func RenderContext(posts []*storage.Post) string {
	blocks := make([]string, len(posts))
	for i, p := range posts {
		blocks[i] = RenderPost(i+1, p)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt wraps the rendered context and the question into the user prompt.
// With no posts the question is asked without context.
func BuildPrompt(text string, posts []*storage.Post) string {
	if len(posts) == 0 {
		return "No tweets from the corpus matched the requested filters.\n\nAnswer: " + text
	}
	return "Here are tweets from a crypto discourse corpus:\n\n" +
		RenderContext(posts) +
		"\n\nBased on these tweets, answer: " + text
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
