package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/csvload/internal/files/filesystem"
	"github.com/vvka-141/csvload/internal/files/loader"
	"github.com/vvka-141/csvload/internal/files/scanner"
	"github.com/vvka-141/csvload/internal/logging"
	"github.com/vvka-141/csvload/internal/stats"
	"github.com/vvka-141/csvload/pkg/csvload"
)

func salesCSV(rows int) string {
	var sb strings.Builder
	sb.WriteString("Order ID,Amount ($),Region\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&sb, "%d,%d.25,west\n", i, i)
	}
	return sb.String()
}

func runConfig(folders ...csvload.FolderMapping) csvload.RunConfig {
	return csvload.RunConfig{
		BasePath:      "/data",
		Folders:       folders,
		ChunkSize:     200,
		Encoding:      "utf-8",
		CreateSchemas: true,
		OnCollision:   csvload.CollisionOverwrite,
	}
}

type fakeRun struct {
	runner      *Runner
	loader      *fakeLoader
	recorder    *fakeFolderRecorder
	provisioner *fakeProvisioner
}

func newFakeRun(t *testing.T, fsProvider filesystem.FileSystemProvider, cfg csvload.RunConfig) *fakeRun {
	t.Helper()
	run := &fakeRun{
		loader:      &fakeLoader{},
		recorder:    &fakeFolderRecorder{},
		provisioner: &fakeProvisioner{fail: map[string]bool{}},
	}
	run.runner = NewRunner(cfg, scanner.NewScannerWithFS(fsProvider), run.provisioner, run.loader, run.recorder, logging.NewNullLogger())
	return run
}

func TestNewRunner_PanicsOnNil(t *testing.T) {
	scn := scanner.NewScannerWithFS(filesystem.NewMemoryFileSystem("/data"))
	prov := &fakeProvisioner{}
	ld := &fakeLoader{}
	rec := &fakeFolderRecorder{}
	log := logging.NewNullLogger()
	cfg := runConfig()

	assert.Panics(t, func() { NewRunner(cfg, nil, prov, ld, rec, log) })
	assert.Panics(t, func() { NewRunner(cfg, scn, nil, ld, rec, log) })
	assert.Panics(t, func() { NewRunner(cfg, scn, prov, nil, rec, log) })
	assert.Panics(t, func() { NewRunner(cfg, scn, prov, ld, nil, log) })
	assert.Panics(t, func() { NewRunner(cfg, scn, prov, ld, rec, nil) })

	cfg.CreateSchemas = false
	assert.NotPanics(t, func() { NewRunner(cfg, scn, nil, ld, rec, log) })
}

func TestRunner_SalesScenario(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("A/sales-2023.csv", salesCSV(500))

	cfg := runConfig(csvload.FolderMapping{Folder: "A", Schema: "reports"})
	writer := newMemoryWriter()
	collector := stats.NewCollector(uuid.New())
	ld := loader.NewLoader(mfs, writer, collector, loader.Options{ChunkSize: cfg.ChunkSize, Encoding: cfg.Encoding}, logging.NewNullLogger())
	prov := &fakeProvisioner{}

	runner := NewRunner(cfg, scanner.NewScannerWithFS(mfs), prov, ld, collector, logging.NewNullLogger())
	results, err := runner.ProcessAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"reports"}, prov.ensured)
	assert.Equal(t, []string{
		"replace reports.sales_2023",
		"append reports.sales_2023",
		"append reports.sales_2023",
	}, writer.ops)
	assert.Len(t, writer.tables["reports.sales_2023"], 500)

	require.Len(t, results, 1)
	require.Len(t, results[0].Files, 1)
	assert.True(t, results[0].Files[0].Succeeded())

	snap := collector.Snapshot()
	assert.Equal(t, 1, snap.FilesProcessed)
	assert.Equal(t, 1, snap.TablesCreated)
	assert.Equal(t, int64(500), snap.RowsInserted)
	assert.Equal(t, 0, snap.Errors)
	assert.True(t, snap.Clean())
}

func TestRunner_EmptyFolder(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddDir("empty")
	mfs.AddFile("empty/readme.txt", "not a csv")

	run := newFakeRun(t, mfs, runConfig(csvload.FolderMapping{Folder: "empty", Schema: "staging"}))
	var seen []scanner.FolderPlan
	runner := run.runner.WithOnFolder(func(p scanner.FolderPlan) { seen = append(seen, p) })

	results, err := runner.ProcessAll(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Missing)
	assert.NoError(t, results[0].Err)
	assert.Empty(t, results[0].Files)
	assert.Empty(t, run.loader.loaded)
	assert.Empty(t, run.recorder.skipped)
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Empty())
}

func TestRunner_MissingFolderIsOnlyAWarning(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("B/customers.csv", "id\n1\n")
	mfs.AddFile("notadir", "plain file")

	run := newFakeRun(t, mfs, runConfig(
		csvload.FolderMapping{Folder: "A", Schema: "reports"},
		csvload.FolderMapping{Folder: "notadir", Schema: "other"},
		csvload.FolderMapping{Folder: "B", Schema: "crm"},
	))

	results, err := run.runner.ProcessAll(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Missing)
	assert.True(t, results[1].Missing)
	assert.False(t, results[2].Missing)
	assert.Equal(t, []string{"/data/B/customers.csv"}, run.loader.loaded)
	assert.Empty(t, run.recorder.skipped)
	assert.Equal(t, []string{"crm"}, run.provisioner.ensured, "schemas of missing folders are not created")
}

func TestRunner_SchemaFailureSkipsFolder(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("A/orders.csv", "id\n1\n")
	mfs.AddFile("B/customers.csv", "id\n1\n")

	run := newFakeRun(t, mfs, runConfig(
		csvload.FolderMapping{Folder: "A", Schema: "locked"},
		csvload.FolderMapping{Folder: "B", Schema: "crm"},
	))
	run.provisioner.fail["locked"] = true

	results, err := run.runner.ProcessAll(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, csvload.ErrSchemaProvisioning)
	assert.Empty(t, results[0].Files)
	assert.Equal(t, []string{"/data/B/customers.csv"}, run.loader.loaded)

	require.Len(t, run.recorder.skipped, 1)
	assert.Equal(t, "locked", run.recorder.skipped[0].Mapping.Schema)
	assert.Equal(t, "/data/A", run.recorder.skipped[0].Path)
}

func TestRunner_UnreadableFolderIsSkipped(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("A/orders.csv", "id\n1\n")
	mfs.AddFile("B/customers.csv", "id\n1\n")
	broken := &unreadableDirFS{MemoryFileSystem: mfs, dir: "/data/A"}

	run := newFakeRun(t, broken, runConfig(
		csvload.FolderMapping{Folder: "A", Schema: "reports"},
		csvload.FolderMapping{Folder: "B", Schema: "crm"},
	))

	results, err := run.runner.ProcessAll(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Equal(t, []string{"/data/B/customers.csv"}, run.loader.loaded)
	require.Len(t, run.recorder.skipped, 1)
	assert.NotErrorIs(t, run.recorder.skipped[0].Err, csvload.ErrSchemaProvisioning)
	assert.Equal(t, []string{"crm"}, run.provisioner.ensured)
}

func TestRunner_SchemasNotCreatedWhenDisabled(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("A/orders.csv", "id\n1\n")

	cfg := runConfig(csvload.FolderMapping{Folder: "A", Schema: "reports"})
	cfg.CreateSchemas = false
	run := newFakeRun(t, mfs, cfg)

	_, err := run.runner.ProcessAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, run.provisioner.ensured)
	assert.Equal(t, []csvload.TableRef{{Schema: "reports", Name: "orders"}}, run.loader.tables)
}

func TestRunner_DefaultSchemaIsNotProvisioned(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("A/orders.csv", "id\n1\n")

	run := newFakeRun(t, mfs, runConfig(csvload.FolderMapping{Folder: "A"}))

	_, err := run.runner.ProcessAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, run.provisioner.ensured)
	assert.Equal(t, []csvload.TableRef{{Name: "orders"}}, run.loader.tables)
}

func TestRunner_MappingOrderIsPreserved(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("A/a1.csv", "id\n1\n")
	mfs.AddFile("B/b1.csv", "id\n1\n")
	mfs.AddFile("B/b2.csv", "id\n1\n")
	mfs.AddFile("C/c1.csv", "id\n1\n")

	run := newFakeRun(t, mfs, runConfig(
		csvload.FolderMapping{Folder: "C", Schema: "c"},
		csvload.FolderMapping{Folder: "A", Schema: "a"},
		csvload.FolderMapping{Folder: "B", Schema: "b"},
	))

	_, err := run.runner.ProcessAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, run.provisioner.ensured)
	assert.Equal(t, []string{"/data/C/c1.csv", "/data/A/a1.csv", "/data/B/b1.csv", "/data/B/b2.csv"}, run.loader.loaded)
}

func TestRunner_Collisions(t *testing.T) {
	tests := []struct {
		name         string
		policy       csvload.CollisionPolicy
		wantLoaded   []string
		wantRejected int
	}{
		{
			name:       "overwrite loads both",
			policy:     csvload.CollisionOverwrite,
			wantLoaded: []string{"/data/B/Crm.User.csv", "/data/B/crm_user.csv"},
		},
		{
			name:         "skip loads the first",
			policy:       csvload.CollisionSkip,
			wantLoaded:   []string{"/data/B/Crm.User.csv"},
			wantRejected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := filesystem.NewMemoryFileSystem("/data")
			mfs.AddFile("B/Crm.User.csv", "id\n1\n")
			mfs.AddFile("B/crm_user.csv", "id\n2\n")

			cfg := runConfig(csvload.FolderMapping{Folder: "B", Schema: "crm"})
			cfg.OnCollision = tt.policy
			run := newFakeRun(t, mfs, cfg)

			results, err := run.runner.ProcessAll(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.wantLoaded, run.loader.loaded)
			for _, table := range run.loader.tables {
				assert.Equal(t, csvload.TableRef{Schema: "crm", Name: "crm_user"}, table)
			}
			require.Len(t, run.loader.rejected, tt.wantRejected)
			for _, rejErr := range run.loader.rejected {
				assert.ErrorIs(t, rejErr, csvload.ErrTableNameCollision)
			}
			require.Len(t, results, 1)
			assert.Len(t, results[0].Files, 2)
		})
	}
}

func TestRunner_CollisionSkipCountsAnError(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("B/Crm.User.csv", "id\n1\n")
	mfs.AddFile("B/crm_user.csv", "id\n2\n")

	cfg := runConfig(csvload.FolderMapping{Folder: "B", Schema: "crm"})
	cfg.OnCollision = csvload.CollisionSkip
	writer := newMemoryWriter()
	collector := stats.NewCollector(uuid.New())
	ld := loader.NewLoader(mfs, writer, collector, loader.Options{ChunkSize: 10}, logging.NewNullLogger())

	runner := NewRunner(cfg, scanner.NewScannerWithFS(mfs), &fakeProvisioner{}, ld, collector, logging.NewNullLogger())
	_, err := runner.ProcessAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"replace crm.crm_user"}, writer.ops, "first file owns the table")
	assert.Len(t, writer.tables["crm.crm_user"], 1)

	snap := collector.Snapshot()
	assert.Equal(t, 1, snap.FilesProcessed)
	assert.Equal(t, 1, snap.Errors)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, csvload.FailureCollision.String(), snap.Failures[0].Reason)
	assert.False(t, snap.Clean())
}

func TestRunner_CancellationStopsBeforeNextFile(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("A/a1.csv", "id\n1\n")
	mfs.AddFile("A/a2.csv", "id\n1\n")
	mfs.AddFile("B/b1.csv", "id\n1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := newFakeRun(t, mfs, runConfig(
		csvload.FolderMapping{Folder: "A", Schema: "a"},
		csvload.FolderMapping{Folder: "B", Schema: "b"},
	))
	run.loader.onLoad = func(string) { cancel() }

	results, err := run.runner.ProcessAll(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"/data/A/a1.csv"}, run.loader.loaded)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Files, 1)
}

func TestRunner_ProcessFolder(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("exports/Q1 Summary.csv", "id\n1\n")
	mfs.AddFile("exports/orders.csv.gz", "")

	run := newFakeRun(t, mfs, runConfig())

	res, err := run.runner.ProcessFolder(context.Background(), "/data/exports/", "analytics")

	require.NoError(t, err)
	assert.Equal(t, "/data/exports", res.Path)
	assert.Empty(t, run.provisioner.ensured, "ProcessFolder does not provision")
	assert.Equal(t, []csvload.TableRef{
		{Schema: "analytics", Name: "q1_summary"},
		{Schema: "analytics", Name: "orders"},
	}, run.loader.tables)
}

func TestRunner_ProcessFolder_Missing(t *testing.T) {
	run := newFakeRun(t, filesystem.NewMemoryFileSystem("/data"), runConfig())

	res, err := run.runner.ProcessFolder(context.Background(), "/data/nope", "x")

	require.NoError(t, err)
	assert.True(t, res.Missing)
	assert.Empty(t, run.loader.loaded)
}
