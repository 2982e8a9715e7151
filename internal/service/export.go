package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jpacas/gtd-neto/internal/model"
)

// ExportBundle is the interchange format: exactly what the importer
// accepts back.
type ExportBundle struct {
	Version int          `json:"version"`
	Items   []model.Item `json:"items"`
}

const exportVersion = 1

// ExportJSON renders the owner's full item set as a pretty-printed
// bundle with a trailing newline.
func (s *ItemService) ExportJSON(ctx context.Context, owner string) ([]byte, error) {
	items, err := s.store.LoadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	b, err := json.MarshalIndent(ExportBundle{Version: exportVersion, Items: items}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return append(b, '\n'), nil
}

var csvHeader = []string{
	"id", "title", "list", "status", "context",
	"urgency", "importance", "priorityScore",
	"scheduledFor", "delegatedTo", "tags",
	"createdAt", "completedAt",
}

// ExportCSV writes the owner's items as a spreadsheet-friendly table.
func (s *ItemService) ExportCSV(ctx context.Context, owner string, w io.Writer) error {
	items, err := s.store.LoadAll(ctx, owner)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, it := range items {
		completed := ""
		if it.CompletedAt != nil {
			completed = it.CompletedAt.Format(time.RFC3339)
		}
		row := []string{
			it.ID,
			it.EffectiveTitle(),
			string(it.List),
			string(it.Status),
			it.Context,
			numOrEmpty(it.Urgency),
			numOrEmpty(it.Importance),
			numOrEmpty(it.PriorityScore),
			it.ScheduledFor,
			it.DelegatedTo,
			strings.Join(it.Tags, " "),
			it.CreatedAt.Format(time.RFC3339),
			completed,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func numOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
