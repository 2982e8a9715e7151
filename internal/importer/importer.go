// Package importer validates untrusted export bundles into well-formed
// items. It does no I/O: the caller decides what to do with the result.
// A malformed payload is rejected as a whole; nothing is ever partially
// imported.
package importer

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jpacas/gtd-neto/internal/model"
	"github.com/jpacas/gtd-neto/internal/sanitize"
)

const (
	// MaxItems bounds the payload before any per-item work happens.
	MaxItems = 10000
	// MaxProblems caps the itemized error list; once reached the
	// remaining items are not inspected.
	MaxProblems = 10

	MaxSubtasks    = 200
	MaxTagsPerItem = 20
	MaxTagLen      = 20

	maxInput       = 500
	maxTitle       = 200
	maxContext     = 100
	maxNextAction  = 200
	maxNotes       = 2000
	maxObjective   = 300
	maxDelegatedTo = 120
	maxSubtaskText = 200
)

// allowedKeys is the closed set of item fields an import may carry.
var allowedKeys = map[string]bool{
	"id": true, "input": true, "title": true, "kind": true,
	"list": true, "status": true,
	"context": true, "nextAction": true, "notes": true,
	"urgency": true, "importance": true, "estimateMin": true,
	"priorityScore": true, "actionableScore": true,
	"scheduledFor": true, "delegatedTo": true, "delegatedFor": true,
	"objective": true, "subtasks": true, "tags": true,
	"createdAt": true, "updatedAt": true, "completedAt": true,
	"sourceProjectId": true, "sourceSubtaskId": true,
}

var allowedSubtaskKeys = map[string]bool{
	"id": true, "text": true, "status": true,
	"sentTo": true, "sentItemId": true, "completedAt": true,
}

// Problem describes one rejected entry of the payload.
type Problem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ValidationError rejects a payload with an itemized list of reasons.
type ValidationError struct {
	Message   string
	Problems  []Problem
	Truncated bool // more problems existed than were collected
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return e.Message
	}
	msg := fmt.Sprintf("%s (%d problems", e.Message, len(e.Problems))
	if e.Truncated {
		msg += ", more omitted"
	}
	return msg + ")"
}

// Normalize turns a raw export bundle into validated items or rejects
// it entirely. On success every returned item is fully populated with
// the model defaults.
func Normalize(data []byte) ([]model.Item, error) {
	var top struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ValidationError{Message: "payload is not a valid export bundle"}
	}
	if top.Items == nil {
		return nil, &ValidationError{Message: "payload has no items array"}
	}
	if len(top.Items) > MaxItems {
		return nil, &ValidationError{
			Message: fmt.Sprintf("payload has %d items, limit is %d", len(top.Items), MaxItems),
		}
	}

	now := time.Now()
	seen := make(map[string]bool, len(top.Items))
	items := make([]model.Item, 0, len(top.Items))
	var problems []Problem
	truncated := false

	for i, raw := range top.Items {
		if len(problems) >= MaxProblems {
			truncated = true
			break
		}
		it, err := normalizeItem(raw, now)
		if err != nil {
			problems = append(problems, Problem{Index: i, Reason: err.Error()})
			continue
		}
		if seen[it.ID] {
			problems = append(problems, Problem{Index: i, Reason: fmt.Sprintf("duplicate id %q", it.ID)})
			continue
		}
		seen[it.ID] = true
		items = append(items, it)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{
			Message:   "import rejected",
			Problems:  problems,
			Truncated: truncated,
		}
	}
	return items, nil
}

func normalizeItem(raw json.RawMessage, now time.Time) (model.Item, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.Item{}, fmt.Errorf("not an object")
	}

	if unknown := unknownKeys(fields, allowedKeys); len(unknown) > 0 {
		return model.Item{}, fmt.Errorf("unknown keys: %s", strings.Join(unknown, ", "))
	}

	var it model.Item

	id, ok, err := stringField(fields, "id")
	if err != nil || !ok {
		return model.Item{}, fmt.Errorf("id is required and must be a string")
	}
	if !model.ValidID(id) {
		return model.Item{}, fmt.Errorf("id %q is malformed", id)
	}
	it.ID = id

	input, err := textField(fields, "input", maxInput)
	if err != nil {
		return model.Item{}, err
	}
	title, err := textField(fields, "title", maxTitle)
	if err != nil {
		return model.Item{}, err
	}
	if input == "" && title == "" {
		return model.Item{}, fmt.Errorf("one of input/title is required")
	}
	if input == "" {
		input = title
	}
	if title == "" {
		title = input
	}
	it.Input = input
	it.Title = title

	listRaw, ok, err := stringField(fields, "list")
	if err != nil || !ok {
		return model.Item{}, fmt.Errorf("list is required and must be a string")
	}
	list, ok := model.ParseList(listRaw)
	if !ok {
		return model.Item{}, fmt.Errorf("unknown list %q", listRaw)
	}
	it.List = list

	statusRaw, ok, err := stringField(fields, "status")
	if err != nil || !ok {
		return model.Item{}, fmt.Errorf("status is required and must be a string")
	}
	status, ok := model.ParseStatus(statusRaw)
	if !ok {
		return model.Item{}, fmt.Errorf("unknown status %q", statusRaw)
	}
	it.Status = status

	if kindRaw, ok, err := stringField(fields, "kind"); err != nil {
		return model.Item{}, fmt.Errorf("kind must be a string")
	} else if ok && kindRaw != "" {
		kind, ok := model.ParseKind(kindRaw)
		if !ok {
			return model.Item{}, fmt.Errorf("unknown kind %q", kindRaw)
		}
		it.Kind = kind
	}

	if it.Context, err = textField(fields, "context", maxContext); err != nil {
		return model.Item{}, err
	}
	if it.NextAction, err = textField(fields, "nextAction", maxNextAction); err != nil {
		return model.Item{}, err
	}
	if it.Notes, err = textField(fields, "notes", maxNotes); err != nil {
		return model.Item{}, err
	}
	if it.Objective, err = textField(fields, "objective", maxObjective); err != nil {
		return model.Item{}, err
	}
	if it.DelegatedTo, err = textField(fields, "delegatedTo", maxDelegatedTo); err != nil {
		return model.Item{}, err
	}

	if it.Urgency, err = boundedInt(fields, "urgency", 1, 5); err != nil {
		return model.Item{}, err
	}
	if it.Importance, err = boundedInt(fields, "importance", 1, 5); err != nil {
		return model.Item{}, err
	}
	if it.EstimateMin, err = boundedInt(fields, "estimateMin", 1, 600); err != nil {
		return model.Item{}, err
	}
	if it.PriorityScore, err = boundedInt(fields, "priorityScore", 1, 1000); err != nil {
		return model.Item{}, err
	}
	if it.ActionableScore, err = boundedInt(fields, "actionableScore", 0, 100); err != nil {
		return model.Item{}, err
	}
	if it.PriorityScore == 0 && it.Urgency > 0 && it.Importance > 0 {
		it.PriorityScore = model.Priority(it.Urgency, it.Importance)
	}

	if it.ScheduledFor, err = isoField(fields, "scheduledFor"); err != nil {
		return model.Item{}, err
	}
	if it.DelegatedFor, err = isoField(fields, "delegatedFor"); err != nil {
		return model.Item{}, err
	}

	if it.CreatedAt, err = timeField(fields, "createdAt", now); err != nil {
		return model.Item{}, err
	}
	if it.UpdatedAt, err = timeField(fields, "updatedAt", now); err != nil {
		return model.Item{}, err
	}
	if raw, ok := fields["completedAt"]; ok && !isNull(raw) {
		t, err := timeField(fields, "completedAt", now)
		if err != nil {
			return model.Item{}, err
		}
		it.CompletedAt = &t
	}

	if it.Subtasks, err = subtasksField(fields, now); err != nil {
		return model.Item{}, err
	}
	if it.Tags, err = tagsField(fields); err != nil {
		return model.Item{}, err
	}

	if it.SourceProjectID, _, err = optionalID(fields, "sourceProjectId"); err != nil {
		return model.Item{}, err
	}
	if it.SourceSubtaskID, err = optionalSubtaskRef(fields, "sourceSubtaskId"); err != nil {
		return model.Item{}, err
	}

	return it, nil
}

func unknownKeys(fields map[string]json.RawMessage, allowed map[string]bool) []string {
	var unknown []string
	for k := range fields {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, fmt.Errorf("%s must be a string", key)
	}
	return s, true, nil
}

// textField sanitizes a free-text field and rejects overlength input
// rather than truncating it.
func textField(fields map[string]json.RawMessage, key string, maxLen int) (string, error) {
	s, ok, err := stringField(fields, key)
	if err != nil || !ok {
		return "", err
	}
	s = sanitize.Text(s)
	if len(s) > maxLen {
		return "", fmt.Errorf("%s exceeds %d characters", key, maxLen)
	}
	return s, nil
}

func boundedInt(fields map[string]json.RawMessage, key string, lo, hi int) (int, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	n := int(f)
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s %d out of range [%d,%d]", key, n, lo, hi)
	}
	return n, nil
}

// isoField accepts an ISO date or date-time and keeps it as given.
func isoField(fields map[string]json.RawMessage, key string) (string, error) {
	s, ok, err := stringField(fields, key)
	if err != nil || !ok || s == "" {
		return "", err
	}
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s, nil
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s, nil
	}
	return "", fmt.Errorf("%s is not an ISO date or date-time", key)
}

// timeField defaults to now when absent but fails when present and
// unparseable.
func timeField(fields map[string]json.RawMessage, key string, now time.Time) (time.Time, error) {
	s, ok, err := stringField(fields, key)
	if err != nil {
		return time.Time{}, err
	}
	if !ok || strings.TrimSpace(s) == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s is not an ISO timestamp", key)
	}
	return t, nil
}

func optionalID(fields map[string]json.RawMessage, key string) (string, bool, error) {
	s, ok, err := stringField(fields, key)
	if err != nil || !ok || s == "" {
		return "", ok, err
	}
	if !model.ValidID(s) {
		return "", false, fmt.Errorf("%s %q is malformed", key, s)
	}
	return s, true, nil
}

// optionalSubtaskRef accepts a subtask back-reference. Subtask ids are
// freer than item ids (any non-empty string up to 64 chars), so the
// reference carries the same rule, not the item id pattern.
func optionalSubtaskRef(fields map[string]json.RawMessage, key string) (string, error) {
	s, ok, err := stringField(fields, key)
	if err != nil || !ok || s == "" {
		return "", err
	}
	if len(s) > 64 {
		return "", fmt.Errorf("%s exceeds 64 characters", key)
	}
	return s, nil
}

func subtasksField(fields map[string]json.RawMessage, now time.Time) ([]model.Subtask, error) {
	raw, ok := fields["subtasks"]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("subtasks must be an array")
	}
	if len(entries) > MaxSubtasks {
		return nil, fmt.Errorf("subtasks exceed %d entries", MaxSubtasks)
	}

	seen := make(map[string]bool, len(entries))
	out := make([]model.Subtask, 0, len(entries))
	for i, entry := range entries {
		var sf map[string]json.RawMessage
		if err := json.Unmarshal(entry, &sf); err != nil {
			return nil, fmt.Errorf("subtask %d is not an object", i)
		}
		if unknown := unknownKeys(sf, allowedSubtaskKeys); len(unknown) > 0 {
			return nil, fmt.Errorf("subtask %d has unknown keys: %s", i, strings.Join(unknown, ", "))
		}

		var st model.Subtask
		id, ok, err := stringField(sf, "id")
		if err != nil || !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("subtask %d needs an id", i)
		}
		if len(id) > 64 {
			return nil, fmt.Errorf("subtask %d id exceeds 64 characters", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("subtask %d repeats id %q", i, id)
		}
		seen[id] = true
		st.ID = id

		text, err := textField(sf, "text", maxSubtaskText)
		if err != nil {
			return nil, fmt.Errorf("subtask %d: %v", i, err)
		}
		if text == "" {
			return nil, fmt.Errorf("subtask %d needs text", i)
		}
		st.Text = text

		statusRaw, ok, err := stringField(sf, "status")
		if err != nil || !ok {
			return nil, fmt.Errorf("subtask %d needs a status", i)
		}
		status, ok := model.ParseSubtaskStatus(statusRaw)
		if !ok {
			return nil, fmt.Errorf("subtask %d has unknown status %q", i, statusRaw)
		}
		st.Status = status

		if st.SentTo, err = textField(sf, "sentTo", maxDelegatedTo); err != nil {
			return nil, fmt.Errorf("subtask %d: %v", i, err)
		}
		if sid, ok, err := stringField(sf, "sentItemId"); err != nil {
			return nil, fmt.Errorf("subtask %d: sentItemId must be a string", i)
		} else if ok && sid != "" {
			if !model.ValidID(sid) {
				return nil, fmt.Errorf("subtask %d sentItemId %q is malformed", i, sid)
			}
			st.SentItemID = sid
		}
		if raw, ok := sf["completedAt"]; ok && !isNull(raw) {
			t, err := timeField(sf, "completedAt", now)
			if err != nil {
				return nil, fmt.Errorf("subtask %d: %v", i, err)
			}
			st.CompletedAt = &t
		}

		out = append(out, st)
	}
	return out, nil
}

func tagsField(fields map[string]json.RawMessage) ([]string, error) {
	raw, ok := fields["tags"]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("tags must be an array of strings")
	}
	if len(tags) > MaxTagsPerItem {
		return nil, fmt.Errorf("tags exceed %d entries", MaxTagsPerItem)
	}
	for i, tag := range tags {
		clean := sanitize.Text(tag)
		if len(clean) > MaxTagLen {
			return nil, fmt.Errorf("tag %d exceeds %d characters", i, MaxTagLen)
		}
		tags[i] = clean
	}
	out := model.NormalizeTags(tags)
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
