package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const MaxTags = 5

var ErrTooManyTags = errors.New("too many tags (max 5)")

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for optional text fields => clear
type Patch struct {
	Title      *string `json:"title,omitempty"`
	Kind       *string `json:"kind,omitempty"`
	Context    *string `json:"context,omitempty"`
	NextAction *string `json:"nextAction,omitempty"`
	Notes      *string `json:"notes,omitempty"`

	Urgency     *int `json:"urgency,omitempty"`
	Importance  *int `json:"importance,omitempty"`
	EstimateMin *int `json:"estimateMin,omitempty"`

	ScheduledFor *string `json:"scheduledFor,omitempty"`
	DelegatedTo  *string `json:"delegatedTo,omitempty"`
	DelegatedFor *string `json:"delegatedFor,omitempty"`

	Objective *string    `json:"objective,omitempty"`
	Subtasks  *[]Subtask `json:"subtasks,omitempty"`

	Tags *[]string `json:"tags,omitempty"`
}

// Apply copies the set fields of p onto it and stamps UpdatedAt. A
// patch can only touch fields the model declares; there is no way to
// smuggle arbitrary keys through it.
func Apply(it *Item, p Patch, now time.Time) error {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Kind != nil {
		if *p.Kind == "" {
			it.Kind = ""
		} else {
			k, ok := ParseKind(*p.Kind)
			if !ok {
				return fmt.Errorf("unknown kind %q", *p.Kind)
			}
			it.Kind = k
		}
	}
	if p.Context != nil {
		it.Context = *p.Context
	}
	if p.NextAction != nil {
		it.NextAction = *p.NextAction
	}
	if p.Notes != nil {
		it.Notes = *p.Notes
	}

	if p.Urgency != nil {
		if *p.Urgency < 1 || *p.Urgency > 5 {
			return fmt.Errorf("urgency %d out of range [1,5]", *p.Urgency)
		}
		it.Urgency = *p.Urgency
	}
	if p.Importance != nil {
		if *p.Importance < 1 || *p.Importance > 5 {
			return fmt.Errorf("importance %d out of range [1,5]", *p.Importance)
		}
		it.Importance = *p.Importance
	}
	if p.Urgency != nil || p.Importance != nil {
		if it.Urgency > 0 && it.Importance > 0 {
			it.PriorityScore = Priority(it.Urgency, it.Importance)
		}
	}
	if p.EstimateMin != nil {
		if *p.EstimateMin < 1 || *p.EstimateMin > 600 {
			return fmt.Errorf("estimateMin %d out of range [1,600]", *p.EstimateMin)
		}
		it.EstimateMin = *p.EstimateMin
	}

	if p.ScheduledFor != nil {
		it.ScheduledFor = *p.ScheduledFor
	}
	if p.DelegatedTo != nil {
		it.DelegatedTo = *p.DelegatedTo
	}
	if p.DelegatedFor != nil {
		it.DelegatedFor = *p.DelegatedFor
	}
	if p.Objective != nil {
		it.Objective = *p.Objective
	}
	if p.Subtasks != nil {
		if *p.Subtasks == nil {
			it.Subtasks = nil
		} else {
			it.Subtasks = *p.Subtasks
		}
	}

	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		if len(tags) > MaxTags {
			return ErrTooManyTags
		}
		it.Tags = tags
	}

	it.touch(now)
	return nil
}

// NormalizeTags lower-cases, trims and de-duplicates, keeping first
// occurrences in order. Empty entries are dropped.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
