package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func sampleData() models.UserData {
	return models.UserData{
		Username: "alice",
		Medications: []models.Medication{{
			ID:           "m1",
			Name:         "Aspirin",
			DosageAmount: 100,
			DosageUnit:   "mg",
			Frequency:    "2",
			Times:        []string{"08:00", "20:00"},
			StartDate:    "2025-03-01",
			EndDate:      "2025-06-01",
			Instructions: "With food, after meals",
			IsActive:     true,
			CreatedAt:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		}},
		MedicationHistory: []models.HistoryEntry{{
			ID:             "h1",
			MedicationID:   "m1",
			MedicationName: "Aspirin",
			Action:         models.HistoryActionTaken,
			Dosage:         "100 mg",
			Notes:          "Marked as taken",
		}},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleData(), now))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "1.0", doc["version"])
	assert.Equal(t, "alice", doc["username"])
	assert.Equal(t, "2025-03-10T12:00:00Z", doc["exportDate"])
	assert.Equal(t, []any{}, doc["appointments"], "empty sections are arrays, not null")
}

func TestWriteCSVSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleData(), now))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "MEDICATIONS\nName,Dosage,Frequency,Times,Instructions,Start Date,End Date,Created At\n"))
	assert.Contains(t, out, `Aspirin,100 mg,2,08:00;20:00,"With food, after meals",2025-03-01,2025-06-01,2025-03-01T09:00:00Z`)
	assert.Contains(t, out, "\n\nAPPOINTMENTS\nDate,Time,Doctor,Type,Notes\n")
	assert.Contains(t, out, "\n\nHISTORY\n")
	assert.Contains(t, out, "Aspirin,taken,")
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "xml", sampleData(), now))
}

func TestReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleData(), now))

	data, err := Read(&buf, now)
	require.NoError(t, err)
	assert.Equal(t, "alice", data.Username)
	require.Len(t, data.Medications, 1)
	assert.Equal(t, "m1", data.Medications[0].ID)
	assert.Len(t, data.MedicationHistory, 1)
	assert.Empty(t, data.Appointments)
}

func TestReadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "nope"},
		{"no username", `{"medications": []}`},
		{"no medications", `{"username": "alice"}`},
		{"medications not array", `{"username": "alice", "medications": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), now)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestReadValidatesMedications(t *testing.T) {
	input := `{"username": "alice", "medications": [{"name": "Aspirin", "dosageAmount": 0, "frequency": "1", "times": ["08:00"], "startDate": "2025-03-01", "endDate": "2025-04-01"}]}`
	_, err := Read(strings.NewReader(input), now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Aspirin")
	assert.Contains(t, err.Error(), "dosage amount")
}

func TestReadGeneratesIDs(t *testing.T) {
	input := `{"username": "alice", "medications": [{"name": "Aspirin", "dosageAmount": 5, "frequency": "1", "times": ["08:00"], "startDate": "2025-03-01", "endDate": "2025-04-01"}]}`
	data, err := Read(strings.NewReader(input), now)
	require.NoError(t, err)
	require.Len(t, data.Medications, 1)
	assert.NotEmpty(t, data.Medications[0].ID)
	assert.True(t, data.Medications[0].CreatedAt.Equal(now))
}
