package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vvka-141/csvload/internal/files/scanner"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// FileLoader is the part of the ingestion pipeline the runner drives.
type FileLoader interface {
	Load(ctx context.Context, path string, table csvload.TableRef) csvload.FileResult
	Reject(path string, table csvload.TableRef, err error) csvload.FileResult
}

// FolderRecorder receives folders that could not be walked.
type FolderRecorder interface {
	RecordFolderSkipped(folder csvload.FolderMapping, path string, err error)
}

// Runner walks the folder mapping of one run.
// Not safe for concurrent use: a run is strictly sequential.
type Runner struct {
	cfg         csvload.RunConfig
	scanner     *scanner.Scanner
	provisioner csvload.SchemaProvisioner
	loader      FileLoader
	recorder    FolderRecorder
	logger      csvload.Logger
	onFolder    func(scanner.FolderPlan)
}

// NewRunner creates a runner. provisioner may be nil when cfg.CreateSchemas
// is off. Panics on any other nil dependency.
func NewRunner(
	cfg csvload.RunConfig,
	scn *scanner.Scanner,
	provisioner csvload.SchemaProvisioner,
	loader FileLoader,
	recorder FolderRecorder,
	logger csvload.Logger,
) *Runner {
	if scn == nil {
		panic("scanner cannot be nil")
	}
	if provisioner == nil && cfg.CreateSchemas {
		panic("provisioner cannot be nil when schemas are created")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if recorder == nil {
		panic("recorder cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Runner{
		cfg:         cfg,
		scanner:     scn,
		provisioner: provisioner,
		loader:      loader,
		recorder:    recorder,
		logger:      logger,
	}
}

// WithOnFolder returns a copy of the runner that calls fn before each folder
// is walked.
func (r *Runner) WithOnFolder(fn func(scanner.FolderPlan)) *Runner {
	clone := *r
	clone.onFolder = fn
	return &clone
}

// ProcessAll walks every mapped folder in mapping order. A missing folder
// is a warning; a folder whose schema cannot be provisioned is skipped. File
// failures never stop the run. The only error returned is the context's,
// after which no further file is started.
func (r *Runner) ProcessAll(ctx context.Context) ([]csvload.FolderResult, error) {
	results := make([]csvload.FolderResult, 0, len(r.cfg.Folders))

	for _, mapping := range r.cfg.Folders {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		plan, err := r.scanner.PlanFolder(r.cfg.BasePath, mapping)
		res := csvload.FolderResult{Mapping: mapping, Path: plan.Path}

		switch {
		case plan.Missing:
			r.logger.Warn("Folder %s does not exist, skipping", plan.Path)
			res.Missing = true
			results = append(results, res)
			continue
		case err != nil:
			r.logger.Error("Cannot read folder %s: %v", plan.Path, err)
			res.Err = err
			r.recorder.RecordFolderSkipped(mapping, plan.Path, err)
			results = append(results, res)
			continue
		}

		if err := r.ensureSchema(ctx, mapping.Schema); err != nil {
			r.logger.Error("Skipping folder %s: %v", plan.Path, err)
			res.Err = err
			r.recorder.RecordFolderSkipped(mapping, plan.Path, err)
			results = append(results, res)
			continue
		}

		res.Files, err = r.processPlan(ctx, plan)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// ProcessFolder loads the CSV files directly inside path into schema, which
// may be empty for the default search path. It does not provision the
// schema.
func (r *Runner) ProcessFolder(ctx context.Context, path, schema string) (csvload.FolderResult, error) {
	path = filepath.Clean(path)
	mapping := csvload.FolderMapping{Folder: filepath.Base(path), Schema: schema}
	res := csvload.FolderResult{Mapping: mapping, Path: path}

	plan, err := r.scanner.PlanFolder(filepath.Dir(path), mapping)
	if plan.Missing {
		r.logger.Warn("Folder %s does not exist, skipping", path)
		res.Missing = true
		return res, nil
	}
	if err != nil {
		res.Err = err
		return res, err
	}

	res.Files, err = r.processPlan(ctx, plan)
	return res, err
}

func (r *Runner) ensureSchema(ctx context.Context, schema string) error {
	if !r.cfg.CreateSchemas || schema == "" {
		return nil
	}
	r.logger.Verbose("Ensuring schema %s", schema)
	return r.provisioner.EnsureSchema(ctx, schema)
}

func (r *Runner) processPlan(ctx context.Context, plan scanner.FolderPlan) ([]csvload.FileResult, error) {
	if r.onFolder != nil {
		r.onFolder(plan)
	}

	if plan.Empty() {
		r.logger.Warn("No CSV files found in %s", plan.Path)
		return nil, nil
	}

	r.logger.Info("Processing folder %s (%d files) -> schema %s", plan.Path, len(plan.Files), schemaLabel(plan.Mapping.Schema))

	results := make([]csvload.FileResult, 0, len(plan.Files))
	for _, f := range plan.Files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if f.Collides() {
			if r.cfg.OnCollision == csvload.CollisionSkip {
				err := fmt.Errorf("%w: %s and %s both map to %s", csvload.ErrTableNameCollision,
					filepath.Base(f.CollidesWith), f.Name, f.Table)
				results = append(results, r.loader.Reject(f.Path, f.Table, err))
				continue
			}
			r.logger.Warn("%s and %s both map to %s; %s replaces the table",
				filepath.Base(f.CollidesWith), f.Name, f.Table, f.Name)
		}

		results = append(results, r.loader.Load(ctx, f.Path, f.Table))
	}

	return results, nil
}

func schemaLabel(schema string) string {
	if schema == "" {
		return "(default)"
	}
	return schema
}
