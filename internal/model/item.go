package model

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// List is the GTD destination bucket an item currently lives in.
type List string

const (
	ListCollect   List = "collect"
	ListHacer     List = "hacer"
	ListAgendar   List = "agendar"
	ListDelegar   List = "delegar"
	ListDesglosar List = "desglosar"
	ListNoHacer   List = "no-hacer"
)

// Legacy bucket names from older exports, mapped to the current lists.
var legacyLists = map[string]List{
	"inbox":     ListCollect,
	"next":      ListHacer,
	"calendar":  ListAgendar,
	"waiting":   ListDelegar,
	"projects":  ListDesglosar,
	"someday":   ListNoHacer,
	"reference": ListNoHacer,
}

// ParseList resolves a list name, current or legacy.
func ParseList(s string) (List, bool) {
	switch l := List(strings.TrimSpace(s)); l {
	case ListCollect, ListHacer, ListAgendar, ListDelegar, ListDesglosar, ListNoHacer:
		return l, true
	}
	if l, ok := legacyLists[strings.TrimSpace(s)]; ok {
		return l, true
	}
	return "", false
}

type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusProcessed   Status = "processed"
	StatusDone        Status = "done"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusUnprocessed, StatusProcessed, StatusDone:
		return st, true
	}
	return "", false
}

type Kind string

const (
	KindAction    Kind = "action"
	KindProject   Kind = "project"
	KindReference Kind = "reference"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case KindAction, KindProject, KindReference:
		return k, true
	}
	return "", false
}

type SubtaskStatus string

const (
	SubtaskOpen SubtaskStatus = "open"
	SubtaskSent SubtaskStatus = "sent"
	SubtaskDone SubtaskStatus = "done"
)

func ParseSubtaskStatus(s string) (SubtaskStatus, bool) {
	switch st := SubtaskStatus(strings.TrimSpace(s)); st {
	case SubtaskOpen, SubtaskSent, SubtaskDone:
		return st, true
	}
	return "", false
}

// Subtask is one step of a desglosar (breakdown) item.
type Subtask struct {
	ID          string        `json:"id"`
	Text        string        `json:"text"`
	Status      SubtaskStatus `json:"status"`
	SentTo      string        `json:"sentTo,omitempty"`
	SentItemID  string        `json:"sentItemId,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// Item is a captured note routed through the GTD lists.
type Item struct {
	ID     string `json:"id"`
	Input  string `json:"input"`
	Title  string `json:"title,omitempty"`
	Kind   Kind   `json:"kind,omitempty"`
	List   List   `json:"list"`
	Status Status `json:"status"`

	Context    string `json:"context,omitempty"`
	NextAction string `json:"nextAction,omitempty"`
	Notes      string `json:"notes,omitempty"`

	Urgency         int `json:"urgency,omitempty"`
	Importance      int `json:"importance,omitempty"`
	EstimateMin     int `json:"estimateMin,omitempty"`
	PriorityScore   int `json:"priorityScore,omitempty"`
	ActionableScore int `json:"actionableScore,omitempty"`

	ScheduledFor string `json:"scheduledFor,omitempty"`
	DelegatedTo  string `json:"delegatedTo,omitempty"`
	DelegatedFor string `json:"delegatedFor,omitempty"`

	Objective string    `json:"objective,omitempty"`
	Subtasks  []Subtask `json:"subtasks,omitempty"`

	Tags []string `json:"tags,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	SourceProjectID string `json:"sourceProjectId,omitempty"`
	SourceSubtaskID string `json:"sourceSubtaskId,omitempty"`
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

// ValidID reports whether id matches the accepted identifier shape.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// NewItem captures free text into the collect list.
func NewItem(input string) Item {
	now := time.Now()
	return Item{
		ID:        NewID(),
		Input:     input,
		Title:     input,
		List:      ListCollect,
		Status:    StatusUnprocessed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (it *Item) touch(now time.Time) {
	it.UpdatedAt = now
}

// Priority is urgency times importance, both clamped to [1,5].
func Priority(urgency, importance int) int {
	return clamp(urgency, 1, 5) * clamp(importance, 1, 5)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hacerEstimateCap bounds how much a time estimate counts when
// ordering the hacer list: beyond 10 minutes all tasks tie.
const hacerEstimateCap = 10

func hacerEstimate(it Item) int {
	if it.EstimateMin <= 0 {
		// No estimate sorts after every estimated task of equal priority.
		return hacerEstimateCap + 1
	}
	if it.EstimateMin > hacerEstimateCap {
		return hacerEstimateCap
	}
	return it.EstimateMin
}

// SortHacer orders hacer items for display: highest priority first,
// and among equal priorities the shorter estimate wins, with the
// estimate clamped to 10 minutes.
func SortHacer(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].PriorityScore != items[j].PriorityScore {
			return items[i].PriorityScore > items[j].PriorityScore
		}
		return hacerEstimate(items[i]) < hacerEstimate(items[j])
	})
}

// SendTo moves the item to another list. The move replaces the list and
// recomputes the list-specific derived fields; fields belonging to the
// list being left are cleared so an item never carries stale scheduling
// or delegation data.
func (it *Item) SendTo(list List, now time.Time) {
	prev := it.List
	it.List = list

	if list != ListHacer {
		it.Urgency = 0
		it.Importance = 0
		it.PriorityScore = 0
		it.EstimateMin = 0
	}
	if list != ListAgendar {
		it.ScheduledFor = ""
	}
	if list != ListDelegar {
		it.DelegatedTo = ""
		it.DelegatedFor = ""
	}
	if list != ListDesglosar && prev == ListDesglosar {
		it.Objective = ""
		it.Subtasks = nil
	}

	if list == ListHacer && it.Urgency > 0 && it.Importance > 0 {
		it.PriorityScore = Priority(it.Urgency, it.Importance)
	}
	if list != ListCollect && it.Status == StatusUnprocessed {
		it.Status = StatusProcessed
	}
	it.touch(now)
}

// SetPriority records urgency and importance and refreshes the derived
// score. Only meaningful while the item sits in hacer.
func (it *Item) SetPriority(urgency, importance int, now time.Time) {
	it.Urgency = clamp(urgency, 1, 5)
	it.Importance = clamp(importance, 1, 5)
	it.PriorityScore = Priority(it.Urgency, it.Importance)
	it.touch(now)
}

// Complete marks the item done. Done is terminal for the normal
// workflow; active views exclude completed items.
func (it *Item) Complete(now time.Time) {
	it.Status = StatusDone
	t := now
	it.CompletedAt = &t
	it.touch(now)
}

// EffectiveTitle returns the short label, falling back to the capture.
func (it *Item) EffectiveTitle() string {
	if strings.TrimSpace(it.Title) != "" {
		return it.Title
	}
	return it.Input
}

// Subtask looks up a subtask by id.
func (it *Item) Subtask(id string) *Subtask {
	for i := range it.Subtasks {
		if it.Subtasks[i].ID == id {
			return &it.Subtasks[i]
		}
	}
	return nil
}

// SpawnFromSubtask creates a new item on dest out of one subtask of a
// desglosar item, recording the back-references on both sides. The
// subtask flips to sent.
func (it *Item) SpawnFromSubtask(sub *Subtask, dest List, now time.Time) Item {
	spawned := NewItem(sub.Text)
	spawned.SourceProjectID = it.ID
	spawned.SourceSubtaskID = sub.ID
	spawned.SendTo(dest, now)

	sub.Status = SubtaskSent
	sub.SentTo = string(dest)
	sub.SentItemID = spawned.ID
	it.touch(now)

	return spawned
}
