package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpacas/gtd-neto/internal/model"
)

func TestExportJSON_RoundTripsThroughImport(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Capture(ctx, "u1", "Llamar al banco")
	require.NoError(t, err)
	_, err = svc.Capture(ctx, "u1", "Comprar pan")
	require.NoError(t, err)

	b, err := svc.ExportJSON(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(b), "\n"))

	var bundle ExportBundle
	require.NoError(t, json.Unmarshal(b, &bundle))
	assert.Equal(t, 1, bundle.Version)
	assert.Len(t, bundle.Items, 2)

	// The bundle is exactly what the importer accepts back.
	added, err := svc.ImportMerge(ctx, "u2", b)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestExportJSON_RoundTripsSpawnedItems(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	project, err := svc.Capture(ctx, "u1", "Preparar el viaje")
	require.NoError(t, err)
	_, err = svc.SendTo(ctx, "u1", project.ID, model.ListDesglosar)
	require.NoError(t, err)
	subs := []model.Subtask{{ID: "s1", Text: "Comprar billetes", Status: model.SubtaskOpen}}
	_, err = svc.Edit(ctx, "u1", project.ID, model.Patch{Subtasks: &subs})
	require.NoError(t, err)
	_, err = svc.SendSubtask(ctx, "u1", project.ID, "s1", model.ListHacer)
	require.NoError(t, err)

	b, err := svc.ExportJSON(ctx, "u1")
	require.NoError(t, err)

	// The spawned item carries the subtask back-reference; the bundle
	// must still import cleanly.
	added, err := svc.ImportMerge(ctx, "u2", b)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestExportJSON_EmptyStore(t *testing.T) {
	svc := newTestService()

	b, err := svc.ExportJSON(context.Background(), "u1")

	require.NoError(t, err)
	var bundle ExportBundle
	require.NoError(t, json.Unmarshal(b, &bundle))
	assert.NotNil(t, bundle.Items)
	assert.Empty(t, bundle.Items)
}

func TestExportCSV(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	item, err := svc.Capture(ctx, "u1", "Llamar al banco")
	require.NoError(t, err)
	_, err = svc.SendTo(ctx, "u1", item.ID, model.ListHacer)
	require.NoError(t, err)
	urg, imp := 5, 4
	_, err = svc.Edit(ctx, "u1", item.ID, model.Patch{Urgency: &urg, Importance: &imp})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, "u1", &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])

	row := records[1]
	assert.Equal(t, item.ID, row[0])
	assert.Equal(t, "Llamar al banco", row[1])
	assert.Equal(t, "hacer", row[2])
	assert.Equal(t, "20", row[7])
}
