package ui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tabula/internal/config"
	"tabula/internal/db"
	"tabula/internal/export"
	"tabula/internal/model"
	"tabula/internal/source"
	"tabula/internal/table"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"
)

// ErrNoStore is reported when column settings are edited without a database.
var ErrNoStore = errors.New("column settings need a database")

type visibilitySaver interface {
	Save(ctx context.Context, dialogID string, visible []bool) error
	Reset(ctx context.Context, dialogID string) error
}

// Options configures the root model.
type Options struct {
	Config    *config.Config
	DB        *sql.DB
	Log       logr.Logger
	PrefsPath string
	// Dialog is the id of the dialog shown first.
	Dialog string
	Now    func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	log     logr.Logger
	store   visibilitySaver
	watcher *source.Watcher
	now     func() time.Time

	dialogs []*DialogModel
	current int
	mode    model.Mode
	gState  GState

	width  int
	height int

	error       string
	info        string
	showingHelp bool

	menu        *ColumnMenu
	exportInput textinput.Model
	spinner     spinner.Model

	keys      KeyMap
	menuKeys  MenuKeyMap
	prefs     UIPreferences
	prefsPath string
}

// New creates the root model with one dialog per configured entry.
func New(ctx context.Context, opts Options) (Model, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ti := textinput.New()
	ti.Prompt = "Export to: "
	ti.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		log:         opts.Log,
		now:         now,
		mode:        model.ModeNav,
		gState:      GStateIdle,
		keys:        DefaultKeyMap(),
		menuKeys:    DefaultMenuKeyMap(),
		exportInput: ti,
		spinner:     sp,
		prefs:       loadUIPreferences(opts.PrefsPath),
		prefsPath:   opts.PrefsPath,
	}

	var store table.VisibilityStore
	if opts.DB != nil {
		vs := db.VisibilityStore{DB: opts.DB}
		store = vs
		m.store = vs
	}

	for _, dc := range opts.Config.Dialogs {
		src, err := source.New(dc, opts.DB)
		if err != nil {
			return Model{}, err
		}
		d, err := NewDialogModel(dc, src, store, opts.Log)
		if err != nil {
			return Model{}, err
		}
		if err := d.LoadVisibility(ctx); err != nil {
			opts.Log.Error(err, "failed to load column visibility", "dialog", dc.ID)
			m.error = err.Error()
		}
		if p, ok := m.prefs.Dialogs[dc.ID]; ok {
			d.SetActiveColumn(p.ActiveColumn)
		}
		m.dialogs = append(m.dialogs, d)
	}
	if len(m.dialogs) == 0 {
		return Model{}, fmt.Errorf("no dialogs to show")
	}

	start := opts.Dialog
	if start == "" {
		start = m.prefs.LastDialog
	}
	for i, d := range m.dialogs {
		if d.ID() == start {
			m.current = i
		}
	}
	if opts.Dialog != "" && m.dialogs[m.current].ID() != opts.Dialog {
		return Model{}, fmt.Errorf("unknown dialog %q", opts.Dialog)
	}

	watcher, err := source.NewWatcher(opts.Config.Dialogs)
	if err != nil {
		return Model{}, err
	}
	m.watcher = watcher
	return m, nil
}

// Close releases the file watcher, if any.
func (m Model) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

// Init starts the first fetch of every dialog and its refresh timer.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, d := range m.dialogs {
		cmds = append(cmds, m.fetchCmd(d))
		if cmd := refreshTickCmd(d); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, m.waitForChange())
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle ctrl+c globally
		if msg.String() == "ctrl+c" {
			m.persistPrefs()
			return m, tea.Quit
		}

		switch m.mode {
		case model.ModeExport:
			return m.handleExportMode(msg)
		case model.ModeColumns:
			return m.handleColumnsMode(msg)
		}

		if key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}
		if m.showingHelp {
			if msg.String() == "esc" {
				m.showingHelp = false
			}
			return m, nil
		}
		return m.handleNavMode(msg)

	case model.ErrorMsg:
		m.error = msg.Err.Error()
		return m, nil

	case model.BodyFetchedMsg:
		d := m.dialog(msg.DialogID)
		if d == nil {
			return m, nil
		}
		d.Stage(msg.Body, msg.Err, msg.At)
		// Visibility may have been changed by another process.
		if err := d.LoadVisibility(m.ctx); err != nil {
			m.log.Error(err, "failed to load column visibility", "dialog", d.ID())
		}
		if err := d.Apply(m.ctx); err != nil {
			m.log.Error(err, "refresh failed", "dialog", d.ID())
			m.error = err.Error()
		} else if d == m.currentDialog() {
			m.error = ""
		}
		if d.reloadPending {
			d.reloadPending = false
			return m, m.fetchCmd(d)
		}
		return m, nil

	case model.RefreshTickMsg:
		d := m.dialog(msg.DialogID)
		if d == nil {
			return m, nil
		}
		var cmds []tea.Cmd
		if !d.loading {
			cmds = append(cmds, m.fetchCmd(d))
		}
		cmds = append(cmds, refreshTickCmd(d))
		return m, tea.Batch(cmds...)

	case model.FileChangedMsg:
		if msg.Err != nil {
			m.log.Error(msg.Err, "file watcher failed")
			m.error = msg.Err.Error()
			return m, m.waitForChange()
		}
		cmds := []tea.Cmd{m.waitForChange()}
		if d := m.dialog(msg.DialogID); d != nil {
			if d.loading {
				// The running fetch may have read the file before the write.
				d.reloadPending = true
			} else {
				cmds = append(cmds, m.fetchCmd(d))
			}
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.anyLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case model.ExportedMsg:
		if msg.Err != nil {
			m.error = msg.Err.Error()
			return m, nil
		}
		m.info = fmt.Sprintf("Exported %d rows to %s", msg.Rows, msg.Path)
		return m, nil

	case model.CopiedMsg:
		if msg.Err != nil {
			m.error = msg.Err.Error()
			return m, nil
		}
		m.info = "Copied " + msg.What
		return m, nil

	case model.VisibilitySavedMsg:
		if msg.Err != nil {
			m.error = msg.Err.Error()
			return m, nil
		}
		if d := m.dialog(msg.DialogID); d != nil {
			if err := d.LoadVisibility(m.ctx); err != nil {
				m.error = err.Error()
				return m, nil
			}
		}
		m.info = "Column settings saved"
		return m, nil

	default:
		if m.mode == model.ModeExport {
			var cmd tea.Cmd
			m.exportInput, cmd = m.exportInput.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	d := m.currentDialog()
	header := renderHeader([]string{d.Title()}, m.width, m.now())
	tabs := m.renderTabs(m.width)
	footer := RenderHelp(m.mode, m.width)

	var banners []string
	if m.error != "" {
		banners = append(banners, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		banners = append(banners, SuccessStyle.Width(m.width).Render(m.info))
	}
	var prompt string
	if m.mode == model.ModeExport {
		prompt = InputStyle.Width(m.width).Render(m.exportInput.View())
	}

	used := lipgloss.Height(header) + lipgloss.Height(tabs) + lipgloss.Height(footer) + len(banners)
	if prompt != "" {
		used += lipgloss.Height(prompt)
	}
	contentHeight := max(1, m.height-used)

	var content string
	if m.mode == model.ModeColumns && m.menu != nil {
		content = m.menu.View(m.width, contentHeight)
	} else {
		content = d.View(m.width, contentHeight, m.now())
	}
	content = lipgloss.NewStyle().Width(m.width).Height(contentHeight).Render(content)

	parts := []string{header, tabs}
	parts = append(parts, banners...)
	parts = append(parts, content)
	if prompt != "" {
		parts = append(parts, prompt)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTabs(width int) string {
	var tabStrings []string
	for i, d := range m.dialogs {
		tabStyle := lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted)

		if i == m.current {
			tabStyle = tabStyle.
				Foreground(ColorText).
				Bold(true).
				Underline(true)
		}

		title := d.Title()
		if d.loading {
			title = m.spinner.View() + " " + title
		}
		tabStrings = append(tabStrings, tabStyle.Render(title))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabStrings...)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		Render(tabBar)
}

func renderHeader(breadcrumbParts []string, width int, now time.Time) string {
	title := HeaderStyle.Render("tabula")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb
	right := BreadcrumbStyle.Render(now.Format("Mon 02 Jan 15:04")) + "  "

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	headerContent := left + strings.Repeat(" ", padding) + right
	return TitleStyle.Width(width).Render(headerContent)
}

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.currentDialog()

	// Handle "gg" state machine
	if key.Matches(msg, m.keys.Top) {
		if m.gState == GStateIdle {
			m.gState = GStateFirstG
			return m, nil
		}
		m.gState = GStateIdle
		d.JumpToTop()
		return m, nil
	}
	m.gState = GStateIdle

	if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= 9 {
		return m.selectHeader(func() (string, error) { return d.SelectVisibleHeader(n) })
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.persistPrefs()
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextDialog):
		m.current = (m.current + 1) % len(m.dialogs)
		m.error, m.info = "", ""
		m.persistPrefs()
		return m, nil
	case key.Matches(msg, m.keys.PrevDialog):
		m.current = (m.current - 1 + len(m.dialogs)) % len(m.dialogs)
		m.error, m.info = "", ""
		m.persistPrefs()
		return m, nil
	case key.Matches(msg, m.keys.NextColumn):
		d.NextColumn()
		m.persistPrefs()
		return m, nil
	case key.Matches(msg, m.keys.PrevColumn):
		d.PrevColumn()
		m.persistPrefs()
		return m, nil
	case key.Matches(msg, m.keys.SortColumn):
		return m.selectHeader(d.SelectActiveHeader)
	case key.Matches(msg, m.keys.Refresh):
		if d.loading {
			m.info = "Refresh already running"
			return m, nil
		}
		m.info = "Refreshing " + d.Title()
		return m, m.fetchCmd(d)
	case key.Matches(msg, m.keys.Export):
		m.mode = model.ModeExport
		m.exportInput.SetValue(d.ID() + ".csv")
		m.exportInput.CursorEnd()
		return m, m.exportInput.Focus()
	case key.Matches(msg, m.keys.CopyTable):
		return m, copyTableCmd(d.Header(), d.Rows())
	case key.Matches(msg, m.keys.CopyRow):
		row, ok := d.SelectedRow()
		if !ok {
			m.info = "No row selected"
			return m, nil
		}
		return m, copyRowCmd(row)
	case key.Matches(msg, m.keys.Columns):
		m.menu = NewColumnMenu(d.ID(), d.Header(), d.Visible())
		m.mode = model.ModeColumns
		return m, nil
	case key.Matches(msg, m.keys.ShowColumns):
		if m.store == nil {
			m.error = ErrNoStore.Error()
			return m, nil
		}
		return m, resetVisibilityCmd(m.ctx, m.store, d.ID())
	case key.Matches(msg, m.keys.Down):
		d.MoveDown()
	case key.Matches(msg, m.keys.Up):
		d.MoveUp()
	case key.Matches(msg, m.keys.Bottom):
		d.JumpToBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		d.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		d.HalfPageUp()
	}
	return m, nil
}

func (m Model) selectHeader(sel func() (string, error)) (tea.Model, tea.Cmd) {
	info, err := sel()
	if err != nil {
		m.info = err.Error()
		return m, nil
	}
	m.info = info
	m.persistPrefs()
	return m, nil
}

func (m Model) handleColumnsMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.menuKeys.Cancel):
		m.mode = model.ModeNav
		m.menu = nil
	case key.Matches(msg, m.menuKeys.Up):
		m.menu.Up()
	case key.Matches(msg, m.menuKeys.Down):
		m.menu.Down()
	case key.Matches(msg, m.menuKeys.Toggle):
		if !m.menu.Toggle() {
			m.info = "Cannot hide last visible column"
		}
	case key.Matches(msg, m.menuKeys.Save):
		menu := m.menu
		m.mode = model.ModeNav
		m.menu = nil
		if m.store == nil {
			m.error = ErrNoStore.Error()
			return m, nil
		}
		return m, saveVisibilityCmd(m.ctx, m.store, menu.dialogID, menu.Visible())
	}
	return m, nil
}

func (m Model) handleExportMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = model.ModeNav
		m.exportInput.Blur()
		m.info = "Export cancelled"
		return m, nil
	case "enter":
		m.mode = model.ModeNav
		m.exportInput.Blur()
		path := strings.TrimSpace(m.exportInput.Value())
		if path == "" {
			m.info = "Export cancelled"
			return m, nil
		}
		d := m.currentDialog()
		return m, exportCmd(d.ID(), path, d.Header(), d.Rows())
	}

	var cmd tea.Cmd
	m.exportInput, cmd = m.exportInput.Update(msg)
	return m, cmd
}

func (m Model) currentDialog() *DialogModel {
	return m.dialogs[m.current]
}

func (m Model) dialog(id string) *DialogModel {
	for _, d := range m.dialogs {
		if d.ID() == id {
			return d
		}
	}
	return nil
}

func (m Model) anyLoading() bool {
	for _, d := range m.dialogs {
		if d.loading {
			return true
		}
	}
	return false
}

func (m *Model) persistPrefs() {
	d := m.currentDialog()
	m.prefs.LastDialog = d.ID()
	m.prefs.Dialogs[d.ID()] = TablePrefs{ActiveColumn: d.ActiveColumnLabel()}
	if err := saveUIPreferences(m.prefsPath, m.prefs); err != nil {
		m.log.Error(err, "failed to save preferences")
	}
}

// Commands

func (m Model) fetchCmd(d *DialogModel) tea.Cmd {
	spin := !m.anyLoading()
	d.loading = true
	ctx, src, id, now := m.ctx, d.source, d.ID(), m.now
	fetch := func() tea.Msg {
		body, err := src.Fetch(ctx)
		return model.BodyFetchedMsg{DialogID: id, Body: body, Err: err, At: now()}
	}
	if !spin {
		return fetch
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m Model) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	changes := m.watcher.Changes()
	return func() tea.Msg {
		c, ok := <-changes
		if !ok {
			return nil
		}
		return model.FileChangedMsg{DialogID: c.DialogID, Err: c.Err}
	}
}

func refreshTickCmd(d *DialogModel) tea.Cmd {
	every := time.Duration(d.cfg.Refresh)
	if every <= 0 {
		return nil
	}
	id := d.ID()
	return tea.Tick(every, func(time.Time) tea.Msg {
		return model.RefreshTickMsg{DialogID: id}
	})
}

func exportCmd(dialogID, path string, header []string, rows table.Body) tea.Cmd {
	return func() tea.Msg {
		err := export.CSVFile(path, header, rows)
		return model.ExportedMsg{DialogID: dialogID, Path: path, Rows: len(rows), Err: err}
	}
}

func copyTableCmd(header []string, rows table.Body) tea.Cmd {
	return func() tea.Msg {
		err := export.Clipboard(header, rows)
		return model.CopiedMsg{What: fmt.Sprintf("%d rows", len(rows)), Err: err}
	}
}

func copyRowCmd(row table.Row) tea.Cmd {
	return func() tea.Msg {
		err := export.ClipboardRow(row)
		return model.CopiedMsg{What: "row", Err: err}
	}
}

func saveVisibilityCmd(ctx context.Context, store visibilitySaver, dialogID string, visible []bool) tea.Cmd {
	return func() tea.Msg {
		err := store.Save(ctx, dialogID, visible)
		return model.VisibilitySavedMsg{DialogID: dialogID, Err: err}
	}
}

func resetVisibilityCmd(ctx context.Context, store visibilitySaver, dialogID string) tea.Cmd {
	return func() tea.Msg {
		err := store.Reset(ctx, dialogID)
		return model.VisibilitySavedMsg{DialogID: dialogID, Err: err}
	}
}
