package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/shelf/internal/books"
)

// PrintList writes books as a table, or as a JSON array when asJSON is set.
func PrintList(w io.Writer, list []books.Book, asJSON bool) error {
	if asJSON {
		if list == nil {
			list = []books.Book{}
		}
		return writeJSON(w, list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No books found")
		return err
	}

	rows := make([][]string, 0, len(list))
	for _, b := range list {
		rows = append(rows, []string{
			b.ID,
			truncate(b.Title, 48),
			truncate(authorsLine(b.Authors), 32),
			metaLine(b),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "AUTHORS", "RATING / YEAR").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// PrintBook writes one record in full, or as a JSON object.
func PrintBook(w io.Writer, b books.Book, asJSON bool) error {
	if asJSON {
		return writeJSON(w, b)
	}

	var sb strings.Builder
	sb.WriteString(b.Title + "\n")
	if len(b.Authors) > 0 {
		sb.WriteString("By: " + strings.Join(b.Authors, ", ") + "\n")
	}
	if meta := detailMeta(b); meta != "" {
		sb.WriteString(meta + "\n")
	}
	if len(b.Categories) > 0 {
		sb.WriteString("Categories: " + strings.Join(b.Categories, ", ") + "\n")
	}
	if b.ThumbnailURL != "" {
		sb.WriteString("Cover: " + b.ThumbnailURL + "\n")
	}
	sb.WriteString("\n" + plainText(b.Description) + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
