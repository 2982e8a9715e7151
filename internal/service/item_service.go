package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jpacas/gtd-neto/internal/importer"
	"github.com/jpacas/gtd-neto/internal/model"
	"github.com/jpacas/gtd-neto/internal/sanitize"
	"github.com/jpacas/gtd-neto/internal/store"
)

const maxCaptureLen = 500

// ItemService wraps the GTD workflow around the store: capture, route,
// edit, complete, break down, import and export.
type ItemService struct {
	store store.Store
}

func NewItemService(st store.Store) *ItemService {
	return &ItemService{store: st}
}

// Capture adds free text to the collect list. A capture identical to
// one made moments before (double form submit, retried request) is
// suppressed and the existing item returned instead.
func (s *ItemService) Capture(ctx context.Context, owner, input string) (*model.Item, error) {
	text := sanitize.Text(input)
	if text == "" {
		return nil, fmt.Errorf("input is required")
	}
	if len(text) > maxCaptureLen {
		return nil, fmt.Errorf("input exceeds %d characters", maxCaptureLen)
	}

	dup, err := s.store.FindRecentDuplicate(ctx, owner, text, time.Now())
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return dup, nil
	}

	item := model.NewItem(text)
	item.ActionableScore = model.ActionableScore(text)
	if err := s.store.SaveOne(ctx, owner, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Edit applies a partial update. Free-text fields are sanitized before
// the patch touches the item.
func (s *ItemService) Edit(ctx context.Context, owner, id string, p model.Patch) (*model.Item, error) {
	sanitizePatch(&p)

	item, err := s.store.LoadByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := model.Apply(&item, p, time.Now()); err != nil {
		return nil, err
	}
	if err := s.store.SaveOne(ctx, owner, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// SendTo routes an item to a destination list.
func (s *ItemService) SendTo(ctx context.Context, owner, id string, list model.List) (*model.Item, error) {
	item, err := s.store.LoadByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	item.SendTo(list, time.Now())
	if err := s.store.SaveOne(ctx, owner, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Complete marks an item done.
func (s *ItemService) Complete(ctx context.Context, owner, id string) (*model.Item, error) {
	item, err := s.store.LoadByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	item.Complete(time.Now())
	if err := s.store.SaveOne(ctx, owner, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item. Deleting an absent id is not an error.
func (s *ItemService) Delete(ctx context.Context, owner, id string) error {
	return s.store.DeleteOne(ctx, owner, id)
}

// SendSubtask spawns a new item on dest out of one subtask of a
// desglosar item. The spawned item is saved first so the subtask's
// back-reference never points at a row that was not written.
func (s *ItemService) SendSubtask(ctx context.Context, owner, projectID, subtaskID string, dest model.List) (*model.Item, error) {
	project, err := s.store.LoadByID(ctx, owner, projectID)
	if err != nil {
		return nil, err
	}
	if project.List != model.ListDesglosar {
		return nil, fmt.Errorf("item %s is not on the desglosar list", projectID)
	}
	sub := project.Subtask(subtaskID)
	if sub == nil {
		return nil, fmt.Errorf("subtask %s not found", subtaskID)
	}
	if sub.Status != model.SubtaskOpen {
		return nil, fmt.Errorf("subtask %s was already sent or completed", subtaskID)
	}

	spawned := project.SpawnFromSubtask(sub, dest, time.Now())
	if err := s.store.SaveOne(ctx, owner, spawned); err != nil {
		return nil, err
	}
	if err := s.store.SaveOne(ctx, owner, project); err != nil {
		return nil, err
	}
	return &spawned, nil
}

func (s *ItemService) ListByList(ctx context.Context, owner string, list model.List, excludeDone bool) ([]model.Item, error) {
	items, err := s.store.LoadByList(ctx, owner, list, excludeDone)
	if err != nil {
		return nil, err
	}
	if list == model.ListHacer {
		model.SortHacer(items)
	}
	return items, nil
}

func (s *ItemService) ListByStatus(ctx context.Context, owner string, status model.Status) ([]model.Item, error) {
	return s.store.LoadByStatus(ctx, owner, status)
}

func (s *ItemService) Get(ctx context.Context, owner, id string) (*model.Item, error) {
	item, err := s.store.LoadByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ImportMerge validates a raw export bundle and merges the accepted
// items into the owner's set. Ids that already exist are left alone;
// only new ids are added. Returns how many items were added.
func (s *ItemService) ImportMerge(ctx context.Context, owner string, payload []byte) (int, error) {
	incoming, err := importer.Normalize(payload)
	if err != nil {
		return 0, err
	}

	existing, err := s.store.LoadAll(ctx, owner)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, it := range existing {
		have[it.ID] = true
	}

	added := 0
	merged := existing
	for _, it := range incoming {
		if have[it.ID] {
			continue
		}
		merged = append(merged, it)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := s.store.SaveAll(ctx, owner, merged); err != nil {
		return 0, err
	}
	return added, nil
}

func sanitizePatch(p *model.Patch) {
	clean := func(sp *string) {
		if sp != nil {
			*sp = sanitize.Text(*sp)
		}
	}
	clean(p.Title)
	clean(p.Context)
	clean(p.NextAction)
	clean(p.Notes)
	clean(p.Objective)
	clean(p.DelegatedTo)
	if p.Subtasks != nil {
		for i := range *p.Subtasks {
			(*p.Subtasks)[i].Text = sanitize.Text((*p.Subtasks)[i].Text)
		}
	}
	if p.Tags != nil {
		for i := range *p.Tags {
			(*p.Tags)[i] = sanitize.Text((*p.Tags)[i])
		}
	}
}
