package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nexus-mods-notifier/config"
	"nexus-mods-notifier/logger"
	"nexus-mods-notifier/state"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted tracker state",
	Long: `Launch an interactive view of the local snapshots: how many mods the
addition tracker has seen and the last-known version of every tracked mod.
Reads only the state files; no API calls are made.`,
	Run: func(_ *cobra.Command, _ []string) {
		runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// trackedRow is one cached tracked mod in the status view.
type trackedRow struct {
	ModID      int
	Version    string
	IsAdult    bool
	FileUpdate string
}

// statusModel is the bubbletea model for the status view.
type statusModel struct {
	spinner       spinner.Model
	cfg           config.Config
	loading       bool
	err           string
	seenCount     int
	rows          []trackedRow
	selectedIndex int
	height        int
}

type stateLoadedMsg struct {
	seenCount int
	rows      []trackedRow
}

type stateErrorMsg string

func newStatusModel(cfg config.Config) statusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return statusModel{
		spinner: s,
		cfg:     cfg,
		loading: true,
		height:  24,
	}
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadState(),
	)
}

func (m statusModel) loadState() tea.Cmd {
	return func() tea.Msg {
		seen := state.NewSeenSet()
		if err := state.NewStore(m.cfg.SeenModsPath()).Load(&seen); err != nil {
			return stateErrorMsg(fmt.Sprintf("Failed to load seen set: %v", err))
		}

		cache := state.NewTrackedModCache()
		if err := state.NewStore(m.cfg.UpdateCachePath()).Load(&cache); err != nil {
			return stateErrorMsg(fmt.Sprintf("Failed to load update cache: %v", err))
		}

		rows := make([]trackedRow, 0, len(cache))
		for _, id := range cache.IDs() {
			entry := cache[id]
			fileUpdate := "never"
			if entry.LatestFileUpdate != nil {
				fileUpdate = time.Unix(*entry.LatestFileUpdate, 0).Format("2006-01-02 15:04")
			}
			rows = append(rows, trackedRow{
				ModID:      id,
				Version:    entry.Version,
				IsAdult:    entry.IsAdult,
				FileUpdate: fileUpdate,
			})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].ModID < rows[j].ModID })

		return stateLoadedMsg{seenCount: seen.Len(), rows: rows}
	}
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
		case "down", "j":
			if m.selectedIndex < len(m.rows)-1 {
				m.selectedIndex++
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stateLoadedMsg:
		m.loading = false
		m.seenCount = msg.seenCount
		m.rows = msg.rows
	case stateErrorMsg:
		m.loading = false
		m.err = string(msg)
	}
	return m, nil
}

func (m statusModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n %s Loading state...\n", m.spinner.View())
	}
	if m.err != "" {
		return fmt.Sprintf("Error: %s\n", m.err)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	output := titleStyle.Render(fmt.Sprintf("Seen mods: %d   Tracked mods cached: %d", m.seenCount, len(m.rows))) + "\n\n"

	if len(m.rows) == 0 {
		output += "No tracked mods cached yet. Run the updates command first.\n"
		return output + "\n" + renderStatusFooter()
	}

	output += renderStatusHeader() + "\n"
	for i, row := range m.rows {
		output += m.renderStatusRow(i, row) + "\n"
	}
	return output + "\n" + renderStatusFooter()
}

func renderStatusHeader() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)
	return headerStyle.Render(fmt.Sprintf("%-10s %-20s %-8s %-18s", "Mod ID", "Version", "Adult", "Last File Update"))
}

func renderStatusFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Italic(true)
	return footerStyle.Render("↑/k: up  ↓/j: down  q: quit")
}

func (m statusModel) renderStatusRow(index int, row trackedRow) string {
	rowStyle := lipgloss.NewStyle().Padding(0, 1)
	if index == m.selectedIndex {
		rowStyle = rowStyle.Background(lipgloss.Color("8")).Bold(true)
	}

	adult := "no"
	if row.IsAdult {
		adult = "yes"
	}
	return rowStyle.Render(fmt.Sprintf("%-10d %-20s %-8s %-18s", row.ModID, truncate(row.Version, 18), adult, row.FileUpdate))
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}

func runStatus() {
	// The TUI owns stdout; keep log output in the file only.
	logger.InitSilentLogger()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalw("Failed to load configuration", zap.Error(err))
	}

	p := tea.NewProgram(newStatusModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Log.Fatalw("Failed to run status view", zap.Error(err))
	}
}
