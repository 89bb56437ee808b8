package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabula/internal/config"
	"tabula/internal/db"
	"tabula/internal/model"
	"tabula/internal/table"
)

var testNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type appFixture struct {
	dir       string
	stockPath string
	prefsPath string
	cfg       *config.Config
}

func newAppFixture(t *testing.T) appFixture {
	t.Helper()
	dir := t.TempDir()
	stock := filepath.Join(dir, "stock.csv")
	orders := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(stock, []byte("sku,name,qty\nA-1,bolt,10\nA-2,nut,2\nA-3,,1\n"), 0o600))
	require.NoError(t, os.WriteFile(orders, []byte("1;A-1;open\n2;A-2;shipped\n"), 0o600))

	cfg := &config.Config{
		Dialogs: []config.Dialog{
			{
				ID: "stock", Title: "Stock", Width: 100, Height: 20,
				Headers: []string{"sku", "name", "qty"},
				Source:  config.Source{Kind: config.SourceCSV, Path: stock, SkipHeader: true},
			},
			{
				ID: "orders", Title: "Orders", Width: 100, Height: 20,
				Headers: []string{"order", "sku", "status"},
				Source:  config.Source{Kind: config.SourceCSV, Path: orders, Comma: ";"},
			},
		},
	}
	return appFixture{dir: dir, stockPath: stock, prefsPath: filepath.Join(dir, "ui_prefs.json"), cfg: cfg}
}

func (f appFixture) newApp(t *testing.T, database *db.VisibilityStore) Model {
	t.Helper()
	opts := Options{
		Config:    f.cfg,
		Log:       logr.Discard(),
		PrefsPath: f.prefsPath,
		Now:       func() time.Time { return testNow },
	}
	if database != nil {
		opts.DB = database.DB
	}
	m, err := New(context.Background(), opts)
	require.NoError(t, err)
	return runCmd(t, m, m.Init())
}

// runCmd executes cmd and feeds its messages back into the model. Commands
// returned by Update are dropped.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = runCmd(t, m, c)
		}
		return m
	}
	return update(t, m, msg)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

func skus(rows table.Body) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r[0])
	}
	return out
}

func TestApp_InitLoadsEveryDialog(t *testing.T) {
	m := newAppFixture(t).newApp(t, nil)

	require.Len(t, m.dialogs, 2)
	assert.Equal(t, []string{"A-1", "A-2", "A-3"}, skus(m.dialogs[0].Rows()))
	assert.Equal(t, []string{"1", "2"}, skus(m.dialogs[1].Rows()))
	assert.Empty(t, m.error)
}

func TestApp_SortKeys(t *testing.T) {
	m := newAppFixture(t).newApp(t, nil)

	m, _ = press(t, m, "tab", "tab", "s")
	assert.Equal(t, "Sorted QTY ascending", m.info)
	assert.Equal(t, []string{"A-3", "A-2", "A-1"}, skus(m.currentDialog().Rows()))

	m, _ = press(t, m, "s")
	assert.Equal(t, "Sorted QTY descending", m.info)
	assert.Equal(t, []string{"A-1", "A-2", "A-3"}, skus(m.currentDialog().Rows()))

	m, _ = press(t, m, "1")
	assert.Equal(t, "Sorted SKU ascending", m.info)

	m, _ = press(t, m, "9")
	assert.Contains(t, m.info, "out of range")
}

func TestApp_RefreshKeepsSort(t *testing.T) {
	f := newAppFixture(t)
	m := f.newApp(t, nil)
	m, _ = press(t, m, "3")

	require.NoError(t, os.WriteFile(f.stockPath, []byte("sku,name,qty\nB-1,pin,5\nB-2,washer,100\nB-3,clip,\n"), 0o600))

	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	assert.True(t, m.currentDialog().loading)

	m, again := press(t, m, "r")
	assert.Nil(t, again)
	assert.Equal(t, "Refresh already running", m.info)

	m = runCmd(t, m, cmd)
	assert.False(t, m.currentDialog().loading)
	assert.Equal(t, []string{"B-1", "B-2", "B-3"}, skus(m.currentDialog().Rows()))
}

func TestApp_FailedFetchShowsError(t *testing.T) {
	m := newAppFixture(t).newApp(t, nil)

	m = update(t, m, model.BodyFetchedMsg{DialogID: "stock", Err: errors.New("disk gone"), At: testNow})
	assert.Contains(t, m.error, "disk gone")
	assert.Len(t, m.currentDialog().Rows(), 3)

	m = update(t, m, model.BodyFetchedMsg{DialogID: "stock", Body: table.Body{{"only", "two"}}, At: testNow})
	assert.Contains(t, m.error, "row 0")
	assert.Len(t, m.currentDialog().Rows(), 3)

	m = update(t, m, model.BodyFetchedMsg{DialogID: "unknown"})
	assert.Len(t, m.currentDialog().Rows(), 3)
}

func TestApp_SwitchDialogsPersistsPrefs(t *testing.T) {
	f := newAppFixture(t)
	m := f.newApp(t, nil)

	m, _ = press(t, m, "]")
	assert.Equal(t, "orders", m.currentDialog().ID())
	m, _ = press(t, m, "]")
	assert.Equal(t, "stock", m.currentDialog().ID())
	m, _ = press(t, m, "[")
	assert.Equal(t, "orders", m.currentDialog().ID())
	_, _ = press(t, m, "tab")

	prefs := loadUIPreferences(f.prefsPath)
	assert.Equal(t, "orders", prefs.LastDialog)
	assert.Equal(t, "sku", prefs.Dialogs["orders"].ActiveColumn)

	reopened := f.newApp(t, nil)
	assert.Equal(t, "orders", reopened.currentDialog().ID())
	assert.Equal(t, "sku", reopened.currentDialog().ActiveColumnLabel())
}

func TestApp_UnknownStartDialog(t *testing.T) {
	f := newAppFixture(t)
	_, err := New(context.Background(), Options{Config: f.cfg, Log: logr.Discard(), Dialog: "nope"})
	require.Error(t, err)
}

func TestApp_ColumnMenuWithoutStore(t *testing.T) {
	m := newAppFixture(t).newApp(t, nil)

	m, _ = press(t, m, "c")
	assert.Equal(t, model.ModeColumns, m.mode)

	m, _ = press(t, m, " ", "j", " ", "j", " ")
	assert.Equal(t, "Cannot hide last visible column", m.info)
	assert.Equal(t, []bool{false, false, true}, m.menu.Visible())

	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, model.ModeNav, m.mode)
	assert.Equal(t, ErrNoStore.Error(), m.error)
	assert.Equal(t, []bool{true, true, true}, m.currentDialog().Visible())
}

func TestApp_ColumnMenuSavesToStore(t *testing.T) {
	f := newAppFixture(t)
	database, err := db.Open(filepath.Join(f.dir, "tabula.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	m := f.newApp(t, &db.VisibilityStore{DB: database})

	m, _ = press(t, m, "c", "j", " ")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	m = runCmd(t, m, cmd)

	assert.Equal(t, "Column settings saved", m.info)
	assert.Equal(t, []bool{true, false, true}, m.currentDialog().Visible())
	assert.NotContains(t, m.currentDialog().View(100, 20, testNow), "NAME")

	m, cmd = press(t, m, "c", "esc")
	assert.Nil(t, cmd)
	assert.Equal(t, model.ModeNav, m.mode)

	m, cmd = press(t, m, "C")
	require.NotNil(t, cmd)
	m = runCmd(t, m, cmd)
	assert.Equal(t, []bool{true, true, true}, m.currentDialog().Visible())
}

func TestApp_ExportPrompt(t *testing.T) {
	f := newAppFixture(t)
	m := f.newApp(t, nil)

	m, _ = press(t, m, "e")
	assert.Equal(t, model.ModeExport, m.mode)
	assert.Equal(t, "stock.csv", m.exportInput.Value())

	out := filepath.Join(f.dir, "exports", "stock.csv")
	m.exportInput.SetValue(out)
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, model.ModeNav, m.mode)

	m = runCmd(t, m, cmd)
	assert.Equal(t, "Exported 3 rows to "+out, m.info)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "sku,name,qty\nA-1,bolt,10\nA-2,nut,2\nA-3,,1\n", string(data))

	m, _ = press(t, m, "e", "esc")
	assert.Equal(t, model.ModeNav, m.mode)
	assert.Equal(t, "Export cancelled", m.info)
}

func TestApp_HelpAndView(t *testing.T) {
	m := newAppFixture(t).newApp(t, nil)
	assert.Empty(t, m.View())

	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	assert.Contains(t, view, "tabula")
	assert.Contains(t, view, "Stock")
	assert.Contains(t, view, "Orders")
	assert.Contains(t, view, "3 rows")

	m, _ = press(t, m, "?")
	assert.Contains(t, m.View(), "Sort by active column")
	m, _ = press(t, m, "esc")
	assert.False(t, m.showingHelp)
}

func TestApp_Quit(t *testing.T) {
	m := newAppFixture(t).newApp(t, nil)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_FileChangeReloads(t *testing.T) {
	f := newAppFixture(t)
	m := f.newApp(t, nil)

	require.NoError(t, os.WriteFile(f.stockPath, []byte("sku,name,qty\nZ-1,clip,7\n"), 0o600))
	next, cmd := m.Update(model.FileChangedMsg{DialogID: "stock"})
	m = runCmd(t, next.(Model), cmd)
	assert.Equal(t, []string{"Z-1"}, skus(m.currentDialog().Rows()))

	m = update(t, m, model.FileChangedMsg{Err: errors.New("watch limit reached")})
	assert.Equal(t, "watch limit reached", m.error)
	assert.NoError(t, m.Close())
}

func TestApp_FileChangeDuringFetchQueuesReload(t *testing.T) {
	f := newAppFixture(t)
	m := f.newApp(t, nil)

	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	require.True(t, m.currentDialog().loading)

	require.NoError(t, os.WriteFile(f.stockPath, []byte("sku,name,qty\nZ-1,clip,7\n"), 0o600))
	next, cmd := m.Update(model.FileChangedMsg{DialogID: "stock"})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.True(t, m.currentDialog().reloadPending)

	// The in-flight fetch read the file before the write.
	next, cmd = m.Update(model.BodyFetchedMsg{
		DialogID: "stock",
		Body:     table.Body{{"A-1", "bolt", "10"}, {"A-2", "nut", "2"}, {"A-3", "", "1"}},
		At:       testNow,
	})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.False(t, m.currentDialog().reloadPending)
	assert.True(t, m.currentDialog().loading)
	assert.Equal(t, []string{"A-1", "A-2", "A-3"}, skus(m.currentDialog().Rows()))

	m = runCmd(t, m, cmd)
	assert.False(t, m.currentDialog().loading)
	assert.Equal(t, []string{"Z-1"}, skus(m.currentDialog().Rows()))
}

func TestApp_ConcurrentFetchesShareSpinner(t *testing.T) {
	m := newAppFixture(t).newApp(t, nil)

	m, first := press(t, m, "r")
	require.NotNil(t, first)
	_, isBatch := first().(tea.BatchMsg)
	assert.True(t, isBatch, "first fetch starts the spinner")

	m, second := press(t, m, "]", "r")
	require.NotNil(t, second)
	assert.Equal(t, "orders", m.currentDialog().ID())
	assert.IsType(t, model.BodyFetchedMsg{}, second())
}

func TestApp_RefreshPicksUpExternalVisibility(t *testing.T) {
	f := newAppFixture(t)
	database, err := db.Open(filepath.Join(f.dir, "tabula.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	store := &db.VisibilityStore{DB: database}

	m := f.newApp(t, store)
	require.Equal(t, []bool{true, true, true}, m.currentDialog().Visible())

	require.NoError(t, store.Save(context.Background(), "stock", []bool{true, false, true}))
	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	m = runCmd(t, m, cmd)

	assert.Equal(t, []bool{true, false, true}, m.currentDialog().Visible())
	assert.Empty(t, m.error)
}
