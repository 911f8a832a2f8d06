package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"hydra-sim/internal/analytics"
	"hydra-sim/internal/station"
	"hydra-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a telemetry log line for the main viewport.
type logMsg struct{ line string }

// snapshotMsg carries the latest flattened snapshot.
type snapshotMsg struct{ row telemetry.SnapshotRow }

// anomalyMsg carries a formatted anomaly line.
type anomalyMsg struct{ line string }

// reportMsg carries the per-tick analytics and reasoning lines.
type reportMsg struct {
	report    analytics.Report
	reasoning []string
}

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

const (
	maxTUILines         = 500
	maxSectionHeightPct = 0.2
)

// TUIWriter renders the station dashboard using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(st station.Config) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(st), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements SnapshotWriter.
func (w *TUIWriter) Write(row telemetry.SnapshotRow) error {
	line := fmt.Sprintf("%s[%s]%s %stick=%d%s %sirr=%.1f%s %sdesal=%.2f%s %smem=%.1f%s %sbio=%.1f%s ph=%s turb=%s metal=%s %swqi=%.1f(%s)%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.Tick, colorReset,
		colorYellow, row.Irradiance, colorReset,
		colorCyan, row.Desal, colorReset,
		colorGreen, row.Membrane, colorReset,
		colorMagenta, row.Biofouling, colorReset,
		reading(row.PH, "%.2f"), reading(row.Turbidity, "%.2f"), reading(row.HeavyMetal, "%.4f"),
		gradeColor(row.Grade), row.WQI, row.Grade, colorReset,
	)
	if row.Countermeasure {
		line += fmt.Sprintf(" %sQQ%s", colorMagenta, colorReset)
	}
	w.program.Send(logMsg{line: line})
	w.program.Send(snapshotMsg{row: row})
	return nil
}

// WriteBatch outputs multiple snapshot rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.SnapshotRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAnomaly implements AnomalyWriter.
func (w *TUIWriter) WriteAnomaly(a telemetry.AnomalyRow) error {
	line := fmt.Sprintf("%s[%s]%s %sANOMALY%s tick=%d %s severity=%d",
		colorGray, a.Timestamp.Format(time.RFC3339), colorReset,
		severityColor(a.Severity), colorReset, a.Tick, a.Category, a.Severity)
	w.program.Send(anomalyMsg{line: line})
	return nil
}

// WriteAnomalies outputs multiple anomaly rows.
func (w *TUIWriter) WriteAnomalies(rows []telemetry.AnomalyRow) error {
	for _, a := range rows {
		_ = w.WriteAnomaly(a)
	}
	return nil
}

// WriteReport implements ReportWriter.
func (w *TUIWriter) WriteReport(r analytics.Report, reasoning []string) error {
	w.program.Send(reportMsg{report: r, reasoning: reasoning})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	station      station.Config
	table        table.Model
	vp           viewport.Model
	anomalyVP    viewport.Model
	reasonVP     viewport.Model
	logs         []string
	anomalyLogs  []string
	reasonLogs   []string
	latest       telemetry.SnapshotRow
	report       analytics.Report
	hasReport    bool
	admin        bool
	wrap         bool
	autoscroll   bool
	help         bool
	showReason   bool
	header       string
	headerHeight int
	height       int
}

func stationRows(st station.Config) []table.Row {
	cl := st.Climate()
	return []table.Row{
		{"Station", st.Name, "Climate", cl.Zone},
		{"Coordinates", fmt.Sprintf("%.4f, %.4f", st.Lat, st.Lon), "Noise", fmt.Sprintf("%.1f", cl.NoiseFactor)},
		{"Altitude (m)", fmt.Sprintf("%d", st.AltitudeM), "Fail rate", fmt.Sprintf("%.2f", cl.FailRate)},
		{"Seed", fmt.Sprintf("%d", st.Seed), "Cycle", fmt.Sprintf("%d", cl.CyclePeriod)},
	}
}

func newTUIModel(st station.Config) tuiModel {
	cols := []table.Column{
		{Title: "Station", Width: 14},
		{Title: "Value", Width: 22},
		{Title: "Climate", Width: 10},
		{Title: "Value", Width: 10},
	}
	rows := stationRows(st)
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		station:    st,
		table:      t,
		vp:         viewport.New(0, 0),
		anomalyVP:  viewport.New(0, 0),
		reasonVP:   viewport.New(0, 0),
		autoscroll: true,
		showReason: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func appendBounded(lines []string, add ...string) []string {
	lines = append(lines, add...)
	if over := len(lines) - maxTUILines; over > 0 {
		lines = append(lines[:0:0], lines[over:]...)
	}
	return lines
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width / 2)
		m.vp.Width = msg.Width
		m.anomalyVP.Width = msg.Width
		m.reasonVP.Width = msg.Width
		m.height = msg.Height
		m.refreshHeader()
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshAnomalies()
		m.refreshReasoning()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.refreshReasoning()
			m.refreshHeader()
			m.updateViewportHeight()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.anomalyVP.GotoBottom()
				m.reasonVP.GotoBottom()
			}
		case "r":
			m.showReason = !m.showReason
			m.updateViewportHeight()
		case "?", "h":
			m.help = true
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case logMsg:
		m.logs = appendBounded(m.logs, msg.line)
		m.refreshViewport()
	case snapshotMsg:
		m.latest = msg.row
		m.refreshHeader()
	case anomalyMsg:
		m.anomalyLogs = appendBounded(m.anomalyLogs, msg.line)
		m.updateViewportHeight()
		m.refreshAnomalies()
	case reportMsg:
		m.report = msg.report
		m.hasReport = true
		m.reasonLogs = appendBounded(m.reasonLogs, msg.reasoning...)
		m.refreshHeader()
		m.updateViewportHeight()
		m.refreshReasoning()
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

func (m *tuiModel) refreshHeader() {
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
}

func (m *tuiModel) sectionHeight(lines int) int {
	maxLines := m.maxSectionLines()
	if lines == 0 {
		lines = 1
	}
	if lines > maxLines {
		lines = maxLines
	}
	return lines
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	m.anomalyVP.Height = m.sectionHeight(len(m.anomalyLogs))
	sections := 1 + m.anomalyVP.Height
	if m.showReason {
		m.reasonVP.Height = m.sectionHeight(len(m.reasonLogs))
		sections += 1 + m.reasonVP.Height
	}
	h := m.height - m.headerHeight - bottomHeight - sections - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.anomalyVP.GotoBottom()
		m.reasonVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) wrapLines(lines []string, width int) string {
	if !m.wrap || width <= 0 {
		return strings.Join(lines, "\n")
	}
	wrapped := make([]string, 0, len(lines))
	for _, l := range lines {
		wrapped = append(wrapped, wordwrap.String(l, width))
	}
	return strings.Join(wrapped, "\n")
}

func (m *tuiModel) refreshViewport() {
	m.vp.SetContent(m.wrapLines(m.logs, m.vp.Width))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshAnomalies() {
	content := "none"
	if len(m.anomalyLogs) > 0 {
		content = strings.Join(m.anomalyLogs, "\n")
	}
	m.anomalyVP.SetContent(content)
	if m.autoscroll {
		m.anomalyVP.GotoBottom()
	}
}

func (m *tuiModel) refreshReasoning() {
	content := "none"
	if len(m.reasonLogs) > 0 {
		content = m.wrapLines(m.reasonLogs, m.reasonVP.Width)
	}
	m.reasonVP.SetContent(content)
	if m.autoscroll {
		m.reasonVP.GotoBottom()
	}
}

func (m tuiModel) maxSectionLines() int {
	h := int(float64(m.height) * maxSectionHeightPct)
	if h < 1 {
		h = 1
	}
	return h
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		"Anomalies:",
		m.anomalyVP.View(),
	}
	if m.showReason {
		sections = append(sections, divider, "Reasoning:", m.reasonVP.View())
	}
	sections = append(sections, divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	panel := m.renderAnalytics(m.vp.Width/2 - 1)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), sep, panel)
}

// renderAnalytics draws the live water quality, WHO and maintenance panel.
func (m tuiModel) renderAnalytics(width int) string {
	if !m.hasReport {
		return "Analytics\nwaiting for first tick"
	}
	r := m.report
	grade := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(r.WQI.Color)).Render(r.WQI.Grade)
	lines := []string{
		fmt.Sprintf("Analytics  tick %d", r.Tick),
		fmt.Sprintf("WQI %.1f %s  WHO %s", r.WQI.Score, grade, whoBadge(r.WHOStatus)),
		"Efficiency " + formatEfficiency(r.Efficiency),
		"Maintenance " + formatForecast(r.Maintenance),
	}
	for _, a := range r.Alerts {
		lines = append(lines, fmt.Sprintf("%s!%s %s x%d", severityColor(int(a.Severity)), colorReset, a.Category, a.Count))
	}
	out := strings.Join(lines, "\n")
	if m.wrap && width > 0 {
		out = wordwrap.String(out, width)
	}
	return out
}

func whoBadge(s analytics.Status) string {
	c := lipgloss.Color("8")
	switch s {
	case analytics.StatusPass:
		c = lipgloss.Color("10")
	case analytics.StatusFail:
		c = lipgloss.Color("9")
	case analytics.StatusPartial:
		c = lipgloss.Color("11")
	}
	return lipgloss.NewStyle().Foreground(c).Render(string(s))
}

func formatEfficiency(r telemetry.Reading) string {
	v, ok := r.Get()
	if !ok {
		return "night"
	}
	return fmt.Sprintf("%.2f L/kWh", v)
}

func formatForecast(f analytics.Forecast) string {
	switch {
	case f.TicksRemaining == nil:
		return "stable"
	case f.Due():
		return colorRed + "DUE NOW" + colorReset
	default:
		return fmt.Sprintf("in %d ticks", *f.TicksRemaining)
	}
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	live := fmt.Sprintf("%sLIVE%s tick=%d irr=%.0f mem=%.1f bio=%.1f",
		colorBlue, colorReset, m.latest.Tick, m.latest.Irradiance, m.latest.Membrane, m.latest.Biofouling)
	return fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | Reasoning %s | Help %s",
		live, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.showReason), indicator(m.help))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Keyboard shortcuts",
		"",
		"  w      toggle line wrapping",
		"  s      toggle autoscroll",
		"  r      show or hide the reasoning log",
		"  ↑/↓    scroll telemetry",
		"  ?, h   toggle this help",
		"  q      quit",
	}
	return strings.Join(lines, "\n")
}
