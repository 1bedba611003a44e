// Package export writes JSON snapshots of the locally cached meal plans to
// an S3 bucket.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/mealplanner/internal/client/cache"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/logging"
)

const keyPrefix = "snapshots/"

// Uploader is the subset of *s3.Client used by the exporter.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Snapshot struct {
	CreatedAt      time.Time      `json:"created_at"`
	PendingChanges int            `json:"pending_changes"`
	Menus          []MenuSnapshot `json:"menus"`
}

type MenuSnapshot struct {
	ID          string          `json:"id"`
	ShortID     string          `json:"short_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date,omitempty"`
	PeriodWeeks int             `json:"period_weeks"`
	TotalDays   int             `json:"total_days"`
	Local       bool            `json:"local,omitempty"`
	Entries     []EntrySnapshot `json:"entries"`
}

type EntrySnapshot struct {
	Date     string `json:"date"`
	MealType string `json:"meal_type"`
	MealID   string `json:"meal_id"`
	MealName string `json:"meal_name,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type Exporter struct {
	cache  *cache.Cache
	up     Uploader
	bucket string
	log    logging.Logger
}

func New(c *cache.Cache, up Uploader, bucket string, log logging.Logger) *Exporter {
	if log == nil {
		log = logging.Discard()
	}
	return &Exporter{cache: c, up: up, bucket: bucket, log: log}
}

// Snapshot collects every cached menu with its entries.
func (e *Exporter) Snapshot(ctx context.Context) (*Snapshot, error) {
	menus, err := e.cache.GetAllMenus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read menus: %w", err)
	}
	pending, err := e.cache.QueueLength(ctx)
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}

	snap := &Snapshot{
		CreatedAt:      e.cache.Now(),
		PendingChanges: pending,
		Menus:          make([]MenuSnapshot, 0, len(menus)),
	}
	for _, m := range menus {
		entries, err := e.cache.GetMenuEntries(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("read entries of %s: %w", m.ID, err)
		}
		snap.Menus = append(snap.Menus, menuSnapshot(m, entries))
	}
	return snap, nil
}

func menuSnapshot(m *models.Menu, entries []*models.MenuEntry) MenuSnapshot {
	end, _ := m.EndDate()
	out := MenuSnapshot{
		ID:          m.ID,
		ShortID:     m.ShortID,
		Name:        m.Name,
		Description: m.Description,
		StartDate:   m.StartDate,
		EndDate:     end,
		PeriodWeeks: m.PeriodWeeks,
		TotalDays:   m.TotalDays,
		Local:       m.IsLocal(),
		Entries:     make([]EntrySnapshot, 0, len(entries)),
	}
	for _, en := range entries {
		es := EntrySnapshot{Date: en.Date, MealType: string(en.MealType), MealID: en.MealID, Notes: en.Notes}
		if en.Meal != nil {
			es.MealName = en.Meal.Name
		}
		out.Entries = append(out.Entries, es)
	}
	return out
}

// Export uploads a snapshot and returns its object key.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := keyPrefix + snap.CreatedAt.Format("20060102T150405.000000000Z") + ".json"
	_, err = e.up.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	e.log.Info(ctx, "snapshot exported", "bucket", e.bucket, "key", key, "menus", len(snap.Menus))
	return key, nil
}
