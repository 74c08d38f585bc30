package ui

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// wrapLines word-wraps value to width and keeps at most maxLines lines, the
// last one truncated when text was cut.
func wrapLines(value string, width, maxLines int) []string {
	words := strings.Fields(value)
	if len(words) == 0 || width <= 0 {
		return nil
	}
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		switch {
		case cur.Len() == 0:
			cur.WriteString(w)
		case len([]rune(cur.String()))+1+len([]rune(w)) <= width:
			cur.WriteByte(' ')
			cur.WriteString(w)
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(w)
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	for i := range lines {
		lines[i] = truncate(lines[i], width)
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		last := []rune(lines[maxLines-1])
		if len(last) > width-4 {
			last = last[:max(0, width-4)]
		}
		lines[maxLines-1] = strings.TrimSpace(string(last)) + " ..."
	}
	return lines
}

// plainText turns an HTML fragment into readable text. Paragraph and line
// breaks become newlines; other whitespace collapses.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpaces(s)
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type: html.ElementNode,
		Data: "body",
	})
	if err != nil {
		return collapseSpaces(htmlTagRegex.ReplaceAllString(html.UnescapeString(s), " "))
	}
	var buf strings.Builder
	for _, n := range nodes {
		extractText(n, &buf)
	}
	return collapseSpaces(buf.String())
}

func extractText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
	case html.ElementNode:
		switch n.Data {
		case "br":
			buf.WriteString("\n")
		case "li":
			buf.WriteString("\n- ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString("\n\n")
		}
	}
}

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	spaceRunRegex   = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLinesRegex = regexp.MustCompile(`\n[ \n]*\n`)
)

func collapseSpaces(s string) string {
	s = spaceRunRegex.ReplaceAllString(s, " ")
	s = blankLinesRegex.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
