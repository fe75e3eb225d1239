package history

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_AppendKeepsSeriesAligned(t *testing.T) {
	rec := NewRecorder()
	assert.Equal(t, 0, rec.Len())

	rec.Append(0, 0.9, 0.1, -1.2)
	rec.Append(1, 0.8, 0.2, -1.1)
	rec.Append(2, 0.7, 0.3, -1.0)

	points := rec.Points()
	require.Len(t, points, 3)
	assert.Equal(t, Point{Step: 1, Entropy: 0.8, AvgCurvature: 0.2, AvgEnergy: -1.1}, points[1])
}

func TestRecorder_RunIDIsValidUUID(t *testing.T) {
	rec := NewRecorder()
	_, err := uuid.Parse(rec.RunID())
	assert.NoError(t, err)
}

func TestRecorder_ResetClearsPointsAndRotatesRunID(t *testing.T) {
	rec := NewRecorder()
	rec.Append(0, 0.5, 0.1, -1.0)
	oldID := rec.RunID()

	rec.Reset()
	assert.Equal(t, 0, rec.Len())
	assert.NotEqual(t, oldID, rec.RunID())
}

func TestRecorder_PointsReturnsCopy(t *testing.T) {
	rec := NewRecorder()
	rec.Append(0, 0.5, 0.1, -1.0)

	points := rec.Points()
	points[0].Entropy = 99.0
	assert.Equal(t, 0.5, rec.Points()[0].Entropy)
}

func TestExportJSON_ParallelArrays(t *testing.T) {
	rec := NewRecorder()
	rec.Append(0, 0.9, 0.1, -1.2)
	rec.Append(1, 0.8, 0.2, -1.1)

	var buf bytes.Buffer
	require.NoError(t, rec.ExportJSON(&buf))

	var payload struct {
		RunID        string    `json:"run_id"`
		Step         []int     `json:"step"`
		Entropy      []float64 `json:"entropy"`
		AvgCurvature []float64 `json:"avg_curvature"`
		AvgEnergy    []float64 `json:"avg_energy"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))

	assert.Equal(t, rec.RunID(), payload.RunID)
	assert.Equal(t, []int{0, 1}, payload.Step)
	assert.Equal(t, []float64{0.9, 0.8}, payload.Entropy)
	assert.Equal(t, []float64{0.1, 0.2}, payload.AvgCurvature)
	assert.Equal(t, []float64{-1.2, -1.1}, payload.AvgEnergy)
}
