// Package tui provides an interactive receipt browser built on bubbletea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/model"
)

// Mode is the browser's current screen.
type Mode int

// Browser modes.
const (
	ModeList Mode = iota
	ModeSearch
	ModeDetail
)

const (
	defaultWidth  = 100
	defaultHeight = 24
	// Rows used by title, search line, footer and help.
	chromeHeight = 7
)

// Browser is a bubbletea model listing receipts with search and a detail view.
type Browser struct {
	keys     KeyMap
	help     help.Model
	search   textinput.Model
	table    table.Model
	all      []model.Receipt
	filtered []model.Receipt
	selected *model.Receipt
	mode     Mode
	width    int
	height   int
}

// NewBrowser creates a browser over receipts, kept in the order given.
func NewBrowser(receipts []model.Receipt) *Browser {
	search := textinput.New()
	search.Placeholder = "merchant, category or item"
	search.Prompt = "/ "
	search.CharLimit = 64

	t := table.New(
		table.WithColumns(columns(defaultWidth)),
		table.WithFocused(true),
		table.WithHeight(defaultHeight-chromeHeight),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(cli.SubtleColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#1a1a1a")).
		Background(cli.PrimaryColor).
		Bold(false)
	t.SetStyles(styles)

	b := &Browser{
		keys:   DefaultKeyMap(),
		help:   help.New(),
		search: search,
		table:  t,
		all:    receipts,
		width:  defaultWidth,
		height: defaultHeight,
	}
	b.applyFilter()
	return b
}

func columns(width int) []table.Column {
	merchant := width - 8 - 10 - 12 - 6 - 10 - 12
	if merchant < 12 {
		merchant = 12
	}
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Date", Width: 10},
		{Title: "Merchant", Width: merchant},
		{Title: "Category", Width: 12},
		{Title: "Items", Width: 6},
		{Title: "Total", Width: 10},
	}
}

// Mode reports the current screen.
func (b *Browser) Mode() Mode {
	return b.mode
}

// Visible returns the receipts matching the current search.
func (b *Browser) Visible() []model.Receipt {
	return b.filtered
}

// Selected returns the receipt shown in the detail view, if any.
func (b *Browser) Selected() *model.Receipt {
	return b.selected
}

// Init implements tea.Model.
func (b *Browser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case tea.KeyMsg:
		if key.Matches(msg, b.keys.ForceQuit) {
			return b, tea.Quit
		}
		switch b.mode {
		case ModeSearch:
			return b.updateSearch(msg)
		case ModeDetail:
			return b.updateDetail(msg)
		default:
			return b.updateList(msg)
		}
	}
	return b, nil
}

func (b *Browser) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, b.keys.Quit):
		return b, tea.Quit
	case key.Matches(msg, b.keys.Help):
		b.help.ShowAll = !b.help.ShowAll
		return b, nil
	case key.Matches(msg, b.keys.Search):
		b.mode = ModeSearch
		return b, b.search.Focus()
	case key.Matches(msg, b.keys.Clear):
		b.search.SetValue("")
		b.applyFilter()
		return b, nil
	case key.Matches(msg, b.keys.Select):
		if cursor := b.table.Cursor(); cursor >= 0 && cursor < len(b.filtered) {
			r := b.filtered[cursor]
			b.selected = &r
			b.mode = ModeDetail
		}
		return b, nil
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

func (b *Browser) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		b.search.Blur()
		b.mode = ModeList
		return b, nil
	case tea.KeyEsc:
		b.search.Blur()
		b.search.SetValue("")
		b.applyFilter()
		b.mode = ModeList
		return b, nil
	}

	var cmd tea.Cmd
	b.search, cmd = b.search.Update(msg)
	b.applyFilter()
	return b, cmd
}

func (b *Browser) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, b.keys.Quit):
		return b, tea.Quit
	case key.Matches(msg, b.keys.Back), key.Matches(msg, b.keys.Select):
		b.selected = nil
		b.mode = ModeList
	}
	return b, nil
}

func (b *Browser) resize(width, height int) {
	b.width, b.height = width, height
	b.help.Width = width
	b.table.SetColumns(columns(width))
	b.table.SetWidth(width)
	if h := height - chromeHeight; h > 3 {
		b.table.SetHeight(h)
	}
}

func (b *Browser) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(b.search.Value()))
	var filtered []model.Receipt
	for _, r := range b.all {
		if query == "" || matches(r, query) {
			filtered = append(filtered, r)
		}
	}
	b.filtered = filtered

	rows := make([]table.Row, 0, len(b.filtered))
	for _, r := range b.filtered {
		rows = append(rows, table.Row{
			cli.ShortID(r.ID),
			r.Date.Format("2006-01-02"),
			r.MerchantName,
			r.CategoryOrDefault(),
			fmt.Sprintf("%d", len(r.Items)),
			fmt.Sprintf("$%.2f", r.TotalAmount),
		})
	}
	b.table.SetRows(rows)
	if b.table.Cursor() >= len(rows) {
		b.table.SetCursor(max(len(rows)-1, 0))
	}
}

func matches(r model.Receipt, query string) bool {
	if strings.Contains(strings.ToLower(r.MerchantName), query) ||
		strings.Contains(strings.ToLower(r.CategoryOrDefault()), query) {
		return true
	}
	for _, item := range r.Items {
		if strings.Contains(strings.ToLower(item.Name), query) {
			return true
		}
	}
	return false
}

// View implements tea.Model.
func (b *Browser) View() string {
	if b.mode == ModeDetail && b.selected != nil {
		return cli.ReceiptDetail(*b.selected) + "\n" + b.help.ShortHelpView([]key.Binding{b.keys.Back, b.keys.Quit})
	}

	var s strings.Builder
	s.WriteString(cli.TitleStyle.Render(cli.ReceiptIcon + " Receipts"))
	s.WriteString("\n")

	switch {
	case b.mode == ModeSearch:
		s.WriteString(b.search.View())
	case b.search.Value() != "":
		s.WriteString(cli.SubtleStyle.Render("Filter: " + b.search.Value()))
	}
	s.WriteString("\n")

	if len(b.filtered) == 0 {
		s.WriteString(cli.SubtleStyle.Render("No receipts found."))
	} else {
		s.WriteString(b.table.View())
	}
	s.WriteString("\n")

	var total float64
	for _, r := range b.filtered {
		total += r.TotalAmount
	}
	s.WriteString(cli.BoldStyle.Render(fmt.Sprintf("%d of %d receipts, $%.2f", len(b.filtered), len(b.all), total)))
	s.WriteString("\n")
	s.WriteString(b.help.View(b.keys))
	return s.String()
}
