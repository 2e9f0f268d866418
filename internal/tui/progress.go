package tui

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/csvload/internal/files/loader"
	"github.com/vvka-141/csvload/internal/files/scanner"
	"github.com/vvka-141/csvload/internal/stats"
	"github.com/vvka-141/csvload/pkg/csvload"
)

const maxBarWidth = 60

type folderMsg struct {
	path   string
	schema string
}

type chunkMsg loader.ChunkProgress

type fileMsg csvload.FileResult

type stopMsg struct{}

// progressModel is the bubbletea model of a running load.
type progressModel struct {
	keys    KeyMap
	spinner spinner.Model
	bar     progress.Model
	cancel  func()

	totalFiles int
	filesDone  int
	failed     int
	rows       int64

	folder   string
	schema   string
	file     string
	table    string
	chunk    int
	fileRows int64

	cancelling bool
	stopped    bool
}

func newProgressModel(totalFiles int, cancel func()) progressModel {
	return progressModel{
		keys: DefaultKeyMap(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(SpinnerStyle),
		),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel:     cancel,
		totalFiles: totalFiles,
	}
}

// Init implements tea.Model.
func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.cancelling {
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, maxBarWidth)
		return m, nil

	case folderMsg:
		m.folder, m.schema = msg.path, msg.schema
		m.file, m.table = "", ""
		return m, nil

	case chunkMsg:
		m.file = filepath.Base(msg.Path)
		m.table = msg.Table.String()
		m.chunk = msg.Chunk
		m.fileRows = msg.TotalRows
		return m, nil

	case fileMsg:
		m.filesDone++
		if msg.State == csvload.LoadDone {
			m.rows += msg.Rows
		} else {
			m.failed++
		}
		m.file, m.table, m.chunk, m.fileRows = "", "", 0, 0
		return m, nil

	case stopMsg:
		m.stopped = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m progressModel) percent() float64 {
	if m.totalFiles <= 0 {
		return 0
	}
	return float64(m.filesDone) / float64(m.totalFiles)
}

// View implements tea.Model.
func (m progressModel) View() string {
	if m.stopped {
		return ""
	}

	status := "Waiting for the next file"
	if m.file != "" {
		status = fmt.Sprintf("%s %s %s  chunk %d %s %s rows",
			m.file, SymbolArrowRight, m.table, m.chunk, SymbolBullet, stats.FormatCount(m.fileRows))
	}
	if m.cancelling {
		status = WarningStyle.Render("Stopping after the current chunk...")
	}

	folder := ""
	if m.folder != "" {
		schema := m.schema
		if schema == "" {
			schema = "(default)"
		}
		folder = MutedStyle.Render(fmt.Sprintf("%s %s %s", m.folder, SymbolArrowRight, schema))
	}

	counts := fmt.Sprintf("%d/%d files %s %s rows", m.filesDone, m.totalFiles, SymbolBullet, stats.FormatCount(m.rows))
	if m.failed > 0 {
		counts += " " + SymbolBullet + " " + ErrorStyle.Render(fmt.Sprintf("%d failed", m.failed))
	}

	return fmt.Sprintf("%s %s\n%s\n%s %s\n%s\n",
		m.spinner.View(), status,
		folder,
		m.bar.ViewAs(m.percent()), counts,
		HelpStyle.Render(m.keys.HelpText()))
}

// Progress draws a live view of a load on the terminal. It doubles as the
// run's logger so that log lines are printed above the view instead of
// through it. Once stopped, log lines go to the fallback logger.
type Progress struct {
	program  *tea.Program
	fallback csvload.Logger
	verbose  bool

	done    chan struct{}
	stopped atomic.Bool
	once    sync.Once
	err     error
}

var _ csvload.Logger = (*Progress)(nil)

// NewProgress creates the view for a run of totalFiles files. The cancel
// key calls cancel. Panics if fallback is nil.
func NewProgress(totalFiles int, cancel func(), fallback csvload.Logger, verbose bool, opts ...tea.ProgramOption) *Progress {
	if fallback == nil {
		panic("fallback logger cannot be nil")
	}
	return &Progress{
		program:  tea.NewProgram(newProgressModel(totalFiles, cancel), opts...),
		fallback: fallback,
		verbose:  verbose,
		done:     make(chan struct{}),
	}
}

// Start runs the view in the background. It must be called before any
// other method.
func (p *Progress) Start() {
	go func() {
		defer close(p.done)
		_, p.err = p.program.Run()
		p.stopped.Store(true)
	}()
}

// Stop clears the view and waits for the terminal to be restored.
func (p *Progress) Stop() error {
	p.once.Do(func() {
		p.program.Send(stopMsg{})
		<-p.done
		p.stopped.Store(true)
	})
	return p.err
}

// FolderStarted reports the folder being walked.
func (p *Progress) FolderStarted(plan scanner.FolderPlan) {
	p.send(folderMsg{path: plan.Path, schema: plan.Mapping.Schema})
}

// ChunkCommitted reports a committed chunk.
func (p *Progress) ChunkCommitted(c loader.ChunkProgress) {
	p.send(chunkMsg(c))
}

// FileFinished reports a file that finished, successfully or not.
func (p *Progress) FileFinished(res csvload.FileResult) {
	p.send(fileMsg(res))
}

func (p *Progress) send(msg tea.Msg) {
	if p.stopped.Load() {
		return
	}
	p.program.Send(msg)
}

func (p *Progress) println(style func(...string) string, prefix, format string, args []interface{}) bool {
	if p.stopped.Load() {
		return false
	}
	line := fmt.Sprintf(format, args...)
	if prefix != "" {
		line = style(prefix) + " " + line
	}
	p.program.Println(line)
	return true
}

// Verbose prints a diagnostic line when verbose output is on.
func (p *Progress) Verbose(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	if !p.println(MutedStyle.Render, "[VERBOSE]", format, args) {
		p.fallback.Verbose(format, args...)
	}
}

// Info prints an informational line above the view.
func (p *Progress) Info(format string, args ...interface{}) {
	if !p.println(nil, "", format, args) {
		p.fallback.Info(format, args...)
	}
}

// Warn prints a warning above the view.
func (p *Progress) Warn(format string, args ...interface{}) {
	if !p.println(WarningStyle.Render, "[WARN]", format, args) {
		p.fallback.Warn(format, args...)
	}
}

// Error prints an error above the view.
func (p *Progress) Error(format string, args ...interface{}) {
	if !p.println(ErrorStyle.Render, "[ERROR]", format, args) {
		p.fallback.Error(format, args...)
	}
}
