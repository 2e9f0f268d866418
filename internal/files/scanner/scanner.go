package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/vvka-141/csvload/internal/files/filesystem"
	"github.com/vvka-141/csvload/internal/naming"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// FilePlan is one CSV file and the table it loads into.
type FilePlan struct {
	Path  string
	Name  string
	Table csvload.TableRef

	// CollidesWith is the path of the earlier file of the same folder that
	// derives the same table name. Empty when the name is unique.
	CollidesWith string
}

// Collides reports whether an earlier file already claimed the table.
func (f FilePlan) Collides() bool {
	return f.CollidesWith != ""
}

// FolderPlan is the work for one entry of the folder mapping.
type FolderPlan struct {
	Mapping csvload.FolderMapping
	Path    string

	// Missing is set when the folder does not exist or is not a directory.
	Missing bool

	// Err is set when the folder exists but could not be listed.
	Err error

	Files []FilePlan
}

// Empty reports whether the folder was listed and holds no CSV file.
func (p FolderPlan) Empty() bool {
	return !p.Missing && p.Err == nil && len(p.Files) == 0
}

// Collisions returns the files whose table was claimed by an earlier file.
func (p FolderPlan) Collisions() []FilePlan {
	var out []FilePlan
	for _, f := range p.Files {
		if f.Collides() {
			out = append(out, f)
		}
	}
	return out
}

// Plan covers the whole folder mapping, in mapping order.
type Plan struct {
	BasePath string
	Folders  []FolderPlan
}

// FileCount returns the number of CSV files across all folders.
func (p Plan) FileCount() int {
	n := 0
	for _, f := range p.Folders {
		n += len(f.Files)
	}
	return n
}

// CollisionCount returns the number of files whose table name is taken.
func (p Plan) CollisionCount() int {
	n := 0
	for _, f := range p.Folders {
		n += len(f.Collisions())
	}
	return n
}

// Scanner lists and plans CSV folders.
// Safe for concurrent use if the FileSystemProvider is.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner over the OS filesystem.
func NewScanner() *Scanner {
	return &Scanner{fsProvider: filesystem.NewOSFileSystem()}
}

// NewScannerWithFS creates a scanner over fsProvider.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// ListCSV returns the paths of the CSV files directly inside dir, sorted by
// name. Subdirectories are not descended into.
func (s *Scanner) ListCSV(dir string) ([]string, error) {
	entries, err := s.fsProvider.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !naming.IsCSV(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// PlanFolder plans one mapping entry resolved under basePath. A missing
// folder is reported through FolderPlan.Missing, not as an error. Any other
// failure is returned and also recorded in FolderPlan.Err.
func (s *Scanner) PlanFolder(basePath string, mapping csvload.FolderMapping) (FolderPlan, error) {
	plan := FolderPlan{
		Mapping: mapping,
		Path:    filepath.Join(basePath, mapping.Folder),
	}

	info, err := s.fsProvider.Stat(plan.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		plan.Missing = true
		return plan, nil
	case err != nil:
		plan.Err = fmt.Errorf("failed to stat %s: %w", plan.Path, err)
		return plan, plan.Err
	case !info.IsDir():
		plan.Missing = true
		return plan, nil
	}

	paths, err := s.ListCSV(plan.Path)
	if err != nil {
		plan.Err = err
		return plan, err
	}

	claimed := make(map[string]string, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		table := csvload.TableRef{Schema: mapping.Schema, Name: naming.TableName(name)}
		fp := FilePlan{Path: p, Name: name, Table: table}

		if first, ok := claimed[table.Name]; ok {
			fp.CollidesWith = first
		} else {
			claimed[table.Name] = p
		}
		plan.Files = append(plan.Files, fp)
	}

	return plan, nil
}

// PlanAll plans every mapping entry in order. Unreadable folders keep their
// error in FolderPlan.Err and do not stop the planning of the others.
func (s *Scanner) PlanAll(basePath string, mappings []csvload.FolderMapping) Plan {
	plan := Plan{BasePath: basePath}
	for _, m := range mappings {
		fp, _ := s.PlanFolder(basePath, m)
		plan.Folders = append(plan.Folders, fp)
	}
	return plan
}
