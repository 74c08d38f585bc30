package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/books"
	"github.com/five82/shelf/internal/state"
)

const (
	cardTextWidth = 24
	cardLines     = 4
	cardOuterW    = cardTextWidth + 4 // padding + border
	cardOuterH    = cardLines + 2     // border
	cardGap       = 1

	// header, search bar, recent chips, spacer, footer
	listChromeHeight = 5
)

// columns returns how many cards fit side by side.
func (m Model) columns() int {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return max(1, (width+cardGap)/(cardOuterW+cardGap))
}

// visibleRows returns how many card rows fit on screen.
func (m Model) visibleRows() int {
	height := m.height
	if height <= 0 {
		height = 24
	}
	return max(1, (height-listChromeHeight)/cardOuterH)
}

func (m *Model) scrollToCursor() {
	row := m.cursor / m.columns()
	rows := m.visibleRows()
	if row < m.offset {
		m.offset = row
	}
	if row >= m.offset+rows {
		m.offset = row - rows + 1
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.snap.Kind == state.KindDetail {
		b.WriteString(m.detail.View())
	} else {
		b.WriteString(m.renderSearchBar())
		b.WriteString("\n")
		b.WriteString(m.renderRecent())
		b.WriteString("\n\n")
		b.WriteString(m.renderBody())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	logo := styles.Logo.Render("shelf")

	var status string
	switch m.snap.Kind {
	case state.KindLoading:
		status = styles.InfoText.Render("searching " + strconv.Quote(m.snap.Query))
	case state.KindList:
		status = styles.MutedText.Render(fmt.Sprintf("%d results for %s", len(m.snap.Books), strconv.Quote(m.snap.Query)))
	case state.KindDetail:
		status = styles.AccentText.Render(truncate(m.snap.Book.Title, max(10, m.width-20)))
	case state.KindError:
		status = styles.DangerText.Render("load failed")
	case state.KindEmpty:
		status = styles.WarningText.Render("no results")
	}

	return styles.Header.Width(max(0, m.width)).Render(logo + "  " + status)
}

func (m Model) renderSearchBar() string {
	if m.focus == focusSearch || m.input.Value() != "" {
		return m.input.View()
	}
	styles := m.theme.Styles()
	return styles.FaintText.Render("/ Search books")
}

func (m Model) renderRecent() string {
	styles := m.theme.Styles()
	if len(m.snap.Recent) == 0 {
		return styles.FaintText.Render("No recent searches")
	}
	parts := []string{styles.MutedText.Render("Recent:")}
	for i, q := range m.snap.Recent {
		parts = append(parts, styles.Chip.Render(fmt.Sprintf("%d %s", i+1, truncate(q, 20))))
	}
	return strings.Join(parts, " ")
}

func (m Model) bodyHeight() int {
	return max(1, m.height-listChromeHeight)
}

func (m Model) renderBody() string {
	switch m.snap.Kind {
	case state.KindLoading:
		return m.renderLoading()
	case state.KindError:
		return m.renderError()
	case state.KindEmpty:
		return m.renderEmpty()
	default:
		return m.renderGrid()
	}
}

func (m Model) centered(content string) string {
	return lipgloss.Place(max(1, m.width), m.bodyHeight(), lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderLoading() string {
	styles := m.theme.Styles()
	return m.centered(m.spinner.View() + " " + styles.Text.Render("Loading books..."))
}

func (m Model) renderError() string {
	styles := m.theme.Styles()
	lines := []string{
		styles.DangerText.Render("Failed to load books"),
		"",
		styles.MutedText.Render("Press r to retry"),
	}
	return m.centered(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m Model) renderEmpty() string {
	styles := m.theme.Styles()
	lines := []string{styles.WarningText.Render("No books found")}
	if m.snap.Query != "" {
		lines = append(lines, styles.Text.Render("No results for "+strconv.Quote(m.snap.Query)))
	}
	lines = append(lines, "", styles.MutedText.Render("Try searching for a book"))
	return m.centered(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m Model) renderGrid() string {
	list := m.snap.Books
	if len(list) == 0 {
		styles := m.theme.Styles()
		return m.centered(styles.MutedText.Render("No books to show"))
	}

	cols := m.columns()
	first := m.offset * cols
	last := min(len(list), (m.offset+m.visibleRows())*cols)

	var rows []string
	for start := first; start < last; start += cols {
		end := min(start+cols, last)
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			if i > start {
				cards = append(cards, strings.Repeat(" ", cardGap))
			}
			cards = append(cards, m.renderCard(list[i], i == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCard(book books.Book, selected bool) string {
	styles := m.theme.Styles()
	style := styles.Card
	if selected {
		style = styles.CardSelected
	}

	title := wrapLines(book.Title, cardTextWidth, 2)
	for len(title) < 2 {
		title = append(title, "")
	}
	lines := []string{
		styles.Text.Bold(true).Render(title[0]),
		styles.Text.Bold(true).Render(title[1]),
		styles.MutedText.Render(truncate(authorsLine(book.Authors), cardTextWidth)),
		styles.Rating.Render(truncate(metaLine(book), cardTextWidth)),
	}
	return style.Width(cardTextWidth + 2).Height(cardLines).Render(strings.Join(lines, "\n"))
}

// renderDetailBody renders the scrollable detail content for book.
func (m Model) renderDetailBody(book books.Book, width int) string {
	styles := m.theme.Styles()
	width = max(20, width-2)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	b.WriteString(wrap.Inherit(styles.AccentText.Bold(true)).Render(book.Title))
	b.WriteString("\n")
	if len(book.Authors) > 0 {
		b.WriteString(wrap.Inherit(styles.Text).Render("By: " + strings.Join(book.Authors, ", ")))
	} else {
		b.WriteString(styles.MutedText.Render("Author unknown"))
	}
	b.WriteString("\n")

	if meta := detailMeta(book); meta != "" {
		b.WriteString(styles.Rating.Render(meta))
		b.WriteString("\n")
	}
	if len(book.Categories) > 0 {
		b.WriteString(wrap.Inherit(styles.InfoText).Render(strings.Join(book.Categories, " · ")))
		b.WriteString("\n")
	}
	if book.ThumbnailURL != "" {
		b.WriteString(styles.FaintText.Render("Cover: " + book.ThumbnailURL))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(wrap.Inherit(styles.Text).Render(plainText(book.Description)))
	return b.String()
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	return styles.Footer.Width(max(0, m.width)).Render(m.help.ShortHelpView(m.footerBindings()))
}

func (m Model) footerBindings() []key.Binding {
	k := m.keys
	if m.focus == focusSearch {
		return []key.Binding{k.Submit, k.Cancel}
	}
	switch m.snap.Kind {
	case state.KindDetail:
		return []key.Binding{k.Back, k.Down, k.Up, k.CycleTheme, k.Help, k.Quit}
	case state.KindError, state.KindEmpty:
		return []key.Binding{k.Retry, k.Focus, k.Clear, k.Help, k.Quit}
	case state.KindList:
		return []key.Binding{k.Focus, k.Open, k.Recent, k.Clear, k.Help, k.Quit}
	default:
		return []key.Binding{k.Focus, k.Help, k.Quit}
	}
}

func authorsLine(authors []string) string {
	if len(authors) == 0 {
		return "Unknown author"
	}
	return strings.Join(authors, ", ")
}

// metaLine is the compact rating/year line shown on cards.
func metaLine(book books.Book) string {
	var parts []string
	if book.Rating != nil {
		parts = append(parts, fmt.Sprintf("★ %.1f", *book.Rating))
	}
	if year := publishedYear(book.PublishedDate); year != "" {
		parts = append(parts, year)
	}
	return strings.Join(parts, " · ")
}

func detailMeta(book books.Book) string {
	var parts []string
	if book.Rating != nil {
		rating := fmt.Sprintf("★ %.1f", *book.Rating)
		if book.RatingsCount != nil {
			rating += fmt.Sprintf(" (%d ratings)", *book.RatingsCount)
		}
		parts = append(parts, rating)
	}
	if book.PublishedDate != "" {
		parts = append(parts, "Published "+book.PublishedDate)
	}
	if book.PageCount != nil {
		parts = append(parts, fmt.Sprintf("%d pages", *book.PageCount))
	}
	return strings.Join(parts, " · ")
}

func publishedYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}
