package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	it := NewItem("Llamar al banco")

	assert.True(t, ValidID(it.ID))
	assert.Equal(t, "Llamar al banco", it.Input)
	assert.Equal(t, ListCollect, it.List)
	assert.Equal(t, StatusUnprocessed, it.Status)
	assert.False(t, it.CreatedAt.IsZero())
	assert.Equal(t, it.CreatedAt, it.UpdatedAt)
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.True(t, ValidID(id))
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("abc12345"))
	assert.True(t, ValidID("task_8f3a-Bc9"))
	assert.False(t, ValidID("ab"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("has space"))
	assert.False(t, ValidID("ñandú123"))
}

func TestParseList_Legacy(t *testing.T) {
	cases := map[string]List{
		"collect":  ListCollect,
		"hacer":    ListHacer,
		"no-hacer": ListNoHacer,
		"inbox":    ListCollect,
		"next":     ListHacer,
		"calendar": ListAgendar,
		"waiting":  ListDelegar,
		"projects": ListDesglosar,
		"someday":  ListNoHacer,
	}
	for in, want := range cases {
		got, ok := ParseList(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseList("basura")
	assert.False(t, ok)
}

func TestSendTo_RecomputesPriority(t *testing.T) {
	now := time.Now()
	it := NewItem("Pagar la factura de la luz")
	it.Urgency = 5
	it.Importance = 4

	it.SendTo(ListHacer, now)

	assert.Equal(t, ListHacer, it.List)
	assert.Equal(t, 20, it.PriorityScore)
	assert.Equal(t, StatusProcessed, it.Status)
}

func TestSendTo_ClearsForeignFields(t *testing.T) {
	now := time.Now()
	it := NewItem("Organizar mudanza")
	it.SendTo(ListAgendar, now)
	it.ScheduledFor = "2026-09-15"

	it.SendTo(ListDelegar, now)

	assert.Equal(t, ListDelegar, it.List)
	assert.Empty(t, it.ScheduledFor)
	assert.Zero(t, it.PriorityScore)
}

func TestComplete(t *testing.T) {
	now := time.Now()
	it := NewItem("Llamar al banco")

	it.Complete(now)

	assert.Equal(t, StatusDone, it.Status)
	require.NotNil(t, it.CompletedAt)
	assert.Equal(t, now, *it.CompletedAt)
}

func TestPriority_Clamped(t *testing.T) {
	assert.Equal(t, 25, Priority(9, 9))
	assert.Equal(t, 1, Priority(0, -3))
	assert.Equal(t, 20, Priority(5, 4))
}

func TestSpawnFromSubtask(t *testing.T) {
	now := time.Now()
	project := NewItem("Preparar el viaje")
	project.SendTo(ListDesglosar, now)
	project.Subtasks = []Subtask{
		{ID: "s1", Text: "Comprar billetes", Status: SubtaskOpen},
	}

	sub := project.Subtask("s1")
	require.NotNil(t, sub)

	spawned := project.SpawnFromSubtask(sub, ListHacer, now)

	assert.Equal(t, ListHacer, spawned.List)
	assert.Equal(t, project.ID, spawned.SourceProjectID)
	assert.Equal(t, "s1", spawned.SourceSubtaskID)
	assert.Equal(t, SubtaskSent, project.Subtasks[0].Status)
	assert.Equal(t, spawned.ID, project.Subtasks[0].SentItemID)
	assert.Equal(t, "hacer", project.Subtasks[0].SentTo)
}

func TestEffectiveTitle(t *testing.T) {
	it := Item{Input: "comprar pan"}
	assert.Equal(t, "comprar pan", it.EffectiveTitle())

	it.Title = "Pan"
	assert.Equal(t, "Pan", it.EffectiveTitle())
}

func TestSortHacer(t *testing.T) {
	items := []Item{
		{ID: "aaaaaa", PriorityScore: 12, EstimateMin: 120},
		{ID: "bbbbbb", PriorityScore: 20, EstimateMin: 30},
		{ID: "cccccc", PriorityScore: 20, EstimateMin: 5},
		{ID: "dddddd", PriorityScore: 20},
	}

	SortHacer(items)

	// Highest priority first; within a priority the shorter estimate
	// wins and a missing estimate sorts last.
	assert.Equal(t, "cccccc", items[0].ID)
	assert.Equal(t, "bbbbbb", items[1].ID)
	assert.Equal(t, "dddddd", items[2].ID)
	assert.Equal(t, "aaaaaa", items[3].ID)
}

func TestSortHacer_EstimateCapped(t *testing.T) {
	// Past ten minutes the estimate stops mattering, so order between
	// a 30- and a 120-minute task of equal priority stays as stored.
	items := []Item{
		{ID: "aaaaaa", PriorityScore: 20, EstimateMin: 120},
		{ID: "bbbbbb", PriorityScore: 20, EstimateMin: 30},
	}

	SortHacer(items)

	assert.Equal(t, "aaaaaa", items[0].ID)
	assert.Equal(t, "bbbbbb", items[1].ID)
}
