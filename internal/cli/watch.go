package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/docyard/docyard/pkg/queue"
	"github.com/docyard/docyard/pkg/store"
)

// watchInterval is how often the watch view refreshes its state.
const watchInterval = 2 * time.Second

// watchFeedSize caps the number of recent releases fetched per refresh.
const watchFeedSize = 15

// watchModel is the bubbletea model behind "queue watch": the current queue
// length plus a feed of recently ingested releases.
type watchModel struct {
	queue queue.Queue
	store *store.Store // nil when no database is configured

	length int64
	recent []store.RecentRelease
	err    error
	rows   int
}

type watchTickMsg struct{}

type watchStateMsg struct {
	length int64
	recent []store.RecentRelease
	err    error
}

// newWatchModel creates a watch model over the given queue and optional
// store.
func newWatchModel(q queue.Queue, st *store.Store) watchModel {
	return watchModel{queue: q, store: st, rows: 10}
}

func (m watchModel) Init() tea.Cmd {
	return m.poll()
}

// poll reads the queue length and the release feed once. Failures land in
// the model and are displayed instead of the feed until the next refresh.
func (m watchModel) poll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), watchInterval)
		defer cancel()

		var msg watchStateMsg
		msg.length, msg.err = m.queue.Len(ctx)
		if msg.err == nil && m.store != nil {
			msg.recent, msg.err = m.store.RecentReleases(ctx, watchFeedSize)
		}
		return msg
	}
}

func watchTick() tea.Cmd {
	return tea.Tick(watchInterval, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.rows = msg.Height - 9
		if m.rows < 3 {
			m.rows = 3
		}
		if m.rows > watchFeedSize {
			m.rows = watchFeedSize
		}
	case watchStateMsg:
		m.length = msg.length
		m.recent = msg.recent
		m.err = msg.err
		return m, watchTick()
	case watchTickMsg:
		return m, m.poll()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Build Queue"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(StyleError.Render(iconError + " " + m.err.Error()))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(StyleNumber.Render(fmt.Sprintf("%d", m.length)))
	b.WriteString(StyleDim.Render(" job(s) waiting"))
	b.WriteString("\n\n")

	if m.store == nil {
		b.WriteString(StyleDim.Render("no database configured; release feed unavailable"))
		b.WriteString("\n")
		return b.String()
	}

	visible := m.recent
	if len(visible) > m.rows {
		visible = visible[:m.rows]
	}

	rows := [][]string{}
	for _, r := range visible {
		rows = append(rows, []string{r.Crate, r.Version, statusCell(r.BuildStatus), formatRelativeTime(r.ReleaseTime)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Crate", "Version", "Status", "Released").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 2 && row < len(visible) {
				switch {
				case visible[row].BuildStatus > 0:
					return StyleSuccess
				case visible[row].BuildStatus < 0:
					return StyleError
				}
				return StyleDim
			}
			if col == 3 {
				return StyleDim
			}
			return StyleValue
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  refreshed every %s", watchInterval)))

	return b.String()
}

// statusCell renders a build status for the release table.
func statusCell(status int) string {
	switch {
	case status > 0:
		return iconSuccess + " built"
	case status < 0:
		return iconError + " failed"
	default:
		return "not built"
	}
}

// formatRelativeTime renders a release time relative to now. Releases
// without a recorded time show a placeholder.
func formatRelativeTime(t *time.Time) string {
	if t == nil {
		return "—"
	}
	diff := time.Since(*t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
