package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/internal/services"
	"github.com/benmeehan/fieldcase/internal/state_managers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Setup_MissingConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	app := &App{opts: &Options{ConfigFile: filepath.Join(dir, "absent.yaml"), LogFormat: "json"}, ctx: context.Background()}

	require.NoError(t, app.Setup())
	defer app.Close()

	assert.Equal(t, "file", app.config.Store.Backend)
	assert.Equal(t, "json", app.config.Log.Format)

	store, err := app.CaseStore()
	require.NoError(t, err)
	assert.IsType(t, &state_managers.CaseStateManager{}, store)
}

func TestApp_Commands_SubmitAndList(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	casesPath := filepath.Join(dir, "cases.json")
	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  file_path: "+casesPath+"\n"), 0o600))

	app := &App{opts: &Options{ConfigFile: configPath, LogLevel: "error"}, ctx: context.Background()}
	create := &CreateCommand{app: app, Name: "Ravi Patel", ContactNo: "9800000000", City: "Surat",
		Valuer: "k", Branch: "Adajan", Address: "4 Canal Road"}
	require.NoError(t, create.Execute(nil))

	store, err := app.CaseStore()
	require.NoError(t, err)
	cases, err := services.NewCaseService(store, app.logger).ListCases(app.ctx, models.FilterAll, "")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "K001", cases[0].CaseNo)

	submit := &SubmitCommand{app: app, CaseID: cases[0].ID, Date: "2026-10-17"}
	require.NoError(t, submit.Execute(nil))

	list := &ListCommand{app: app, Filter: string(models.FilterPaymentPending)}
	require.NoError(t, list.Execute(nil))

	loaded, err := store.LoadCase(app.ctx, cases[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusCompleted, loaded.Status)
	assert.Equal(t, "2026-10-17", loaded.ReportSubmittedDate)
}
