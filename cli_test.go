package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/borgmon/dose-alarm/pkg/engine"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	dir    string
	config string
	db     string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	body := "log:\n  level: error\n  dir: " + filepath.Join(dir, "logs") + "\n"
	require.NoError(t, os.WriteFile(config, []byte(body), 0o600))
	return cliEnv{dir: dir, config: config, db: filepath.Join(dir, "dose-alarm.db")}
}

func (e cliEnv) run(t *testing.T, user string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db, "--user", user}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e cliEnv) mustRun(t *testing.T, user string, args ...string) string {
	t.Helper()
	out, err := e.run(t, user, args...)
	require.NoError(t, err, out)
	return out
}

func TestCLI_MedicationLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	id := strings.TrimSpace(env.mustRun(t, "alice", "med", "add",
		"--name", "Aspirin", "--amount", "100", "--unit", "mg",
		"--frequency", "2", "--times", "08:00,20:00",
		"--start", "2026-01-01", "--end", "2099-12-31"))
	require.NotEmpty(t, id)

	list := env.mustRun(t, "alice", "med", "list")
	assert.Contains(t, list, id)
	assert.Contains(t, list, "Aspirin")
	assert.Contains(t, list, "100 mg")
	assert.Contains(t, list, "08:00,20:00")

	// other users see nothing
	assert.NotContains(t, env.mustRun(t, "bob", "med", "list"), "Aspirin")

	env.mustRun(t, "alice", "med", "remove", id)
	assert.NotContains(t, env.mustRun(t, "alice", "med", "list"), "Aspirin")

	_, err := env.run(t, "alice", "med", "remove", id)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCLI_PauseResumeAndInstructions(t *testing.T) {
	env := newCLIEnv(t)

	id := strings.TrimSpace(env.mustRun(t, "alice", "med", "add",
		"--name", "Aspirin", "--amount", "100",
		"--times", "08:00", "--start", "2026-01-01", "--end", "2099-12-31"))

	env.mustRun(t, "alice", "med", "pause", id)
	list := env.mustRun(t, "alice", "med", "list")
	assert.Contains(t, list, "false")
	assert.NotContains(t, list, "true")

	env.mustRun(t, "alice", "med", "resume", id)
	assert.Contains(t, env.mustRun(t, "alice", "med", "list"), "true")

	env.mustRun(t, "alice", "med", "instructions", id, "  Take with food ")
	var doc struct {
		Medications []models.Medication `json:"medications"`
	}
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "alice", "export")), &doc))
	require.Len(t, doc.Medications, 1)
	assert.Equal(t, "Take with food", doc.Medications[0].Instructions)
	assert.True(t, doc.Medications[0].IsActive)

	_, err := env.run(t, "alice", "med", "pause", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCLI_MedAddValidates(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "alice", "med", "add",
		"--name", "Aspirin", "--amount", "100",
		"--frequency", "2", "--times", "08:00",
		"--start", "2026-01-01", "--end", "2099-12-31")
	assert.ErrorContains(t, err, "expected 2 dose times")

	_, err = env.run(t, "alice", "med", "add",
		"--name", "Aspirin", "--amount", "lots",
		"--times", "08:00", "--end", "2099-12-31")
	assert.ErrorContains(t, err, "invalid --amount")
}

func TestCLI_Appointments(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "alice", "appointment", "add",
		"--doctor", "Dr. Smith", "--type", "Checkup", "--at", "2099-03-10 14:30", "--location", "Room 4")

	list := env.mustRun(t, "alice", "appt", "list")
	assert.Contains(t, list, "Dr. Smith")
	assert.Contains(t, list, "Room 4")

	_, err := env.run(t, "alice", "appointment", "add", "--doctor", "Dr. Smith", "--at", "tomorrow")
	assert.ErrorContains(t, err, "invalid --at")
}

func TestCLI_ExportImport(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "alice", "med", "add",
		"--name", "Metformin", "--amount", "500",
		"--times", "09:00", "--start", "2026-01-01", "--end", "2099-12-31")

	exported := env.mustRun(t, "alice", "export")
	var doc struct {
		Username    string              `json:"username"`
		Version     string              `json:"version"`
		Medications []models.Medication `json:"medications"`
	}
	require.NoError(t, json.Unmarshal([]byte(exported), &doc))
	assert.Equal(t, "alice", doc.Username)
	require.Len(t, doc.Medications, 1)
	assert.Equal(t, "Metformin", doc.Medications[0].Name)

	file := filepath.Join(env.dir, "export.json")
	env.mustRun(t, "alice", "export", "-o", file)

	// importing under another user re-homes the records
	env.mustRun(t, "bob", "import", file)
	assert.Contains(t, env.mustRun(t, "bob", "med", "list"), "Metformin")

	csv := env.mustRun(t, "alice", "export", "--format", "csv")
	assert.Contains(t, csv, "MEDICATIONS")

	_, err := env.run(t, "alice", "export", "--format", "xml")
	assert.Error(t, err)
}

func TestWriteHistory_NewestFirstWithLimit(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)
	history := []models.HistoryEntry{
		{MedicationName: "First", Action: models.HistoryActionTaken, ActualTime: base, ScheduledTime: base},
		{MedicationName: "Second", Action: models.HistoryActionMissed, ActualTime: base.Add(time.Hour), ScheduledTime: base.Add(time.Hour)},
		{MedicationName: "Third", Action: models.HistoryActionTaken, ActualTime: base.Add(2 * time.Hour), ScheduledTime: base.Add(2 * time.Hour)},
	}

	var out bytes.Buffer
	writeHistory(&out, history, 2)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Third")
	assert.Contains(t, lines[2], "Second")
	assert.NotContains(t, out.String(), "First")
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "No alarm ringing", statusText(engine.Status{State: models.AlarmStateNone}))

	snap := &models.AlarmSnapshot{Name: "Aspirin"}
	assert.Equal(t, "Ringing: Aspirin", statusText(engine.Status{State: models.AlarmStateActive, Current: snap}))
	assert.Equal(t, "Snoozed: Aspirin (+2 waiting)",
		statusText(engine.Status{State: models.AlarmStateSnoozed, Current: snap, Queued: 2}))

	escalated := &models.AlarmSnapshot{Name: "Aspirin", Escalated: true}
	assert.Equal(t, "Waiting for answer: Aspirin",
		statusText(engine.Status{State: models.AlarmStateActive, Current: escalated}))
}

func TestOptionHelpers(t *testing.T) {
	assert.Equal(t, "15 min", optionLabel(15, "min"))
	assert.Equal(t, "3", optionLabel(3, ""))
	assert.Equal(t, 15, optionValue("15 min", 30))
	assert.Equal(t, 3, optionValue("3", 1))
	assert.Equal(t, 30, optionValue("", 30))

	assert.Equal(t, "1 reminder", pluralize(1, "reminder"))
	assert.Equal(t, "0 reminders", pluralize(0, "reminder"))
}

func TestMedicationLine(t *testing.T) {
	weekly := models.Medication{
		Name: "Vitamin D", DosageAmount: 1000, DosageUnit: "unit",
		Frequency: models.FrequencyWeekly, WeeklyDay: "sunday", Times: []string{"09:00"},
	}
	assert.Equal(t, "Vitamin D 1000 unit  |  weekly on sunday at 09:00  |  paused", medicationLine(weekly))

	prn := models.Medication{Name: "Ibuprofen", DosageAmount: 200, DosageUnit: "mg", Frequency: models.FrequencyAsNeeded}
	assert.True(t, strings.HasPrefix(medicationLine(prn), "Ibuprofen 200 mg  |  as needed"))
}

func TestParseTimes(t *testing.T) {
	assert.Equal(t, []string{"08:00", "20:00"}, parseTimes(" 08:00, ,20:00 "))
	assert.Nil(t, parseTimes(""))
}
