package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/campaign-engine/internal/errors"
	"github.com/unclebandit/campaign-engine/internal/model"
)

// CampaignRegistryInterface is the durable store of campaign definitions and
// mutable run-state. UpdateRunState is the only mutation path for
// scheduling-related fields (scheduler core and coordinator); UpdatePerformance
// is the only mutation path for the performance snapshot (aggregator).
type CampaignRegistryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id string) (*model.Campaign, error)
	List(f model.CampaignFilter) ([]*model.Campaign, error)
	UpdateRunState(id string, upd model.RunStateUpdate) error
	UpdatePerformance(id string, p model.PerformanceSnapshot) error
}

// CampaignRepository is the Postgres-backed registry.
type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	cadence, err := json.Marshal(c.Cadence)
	if err != nil {
		return err
	}
	perf, err := json.Marshal(c.Performance)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO campaigns
            (id, name, cadence, channels, content_types, target_segments,
             segment_cursor, status, in_flight, next_run, last_run, performance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	_, err = r.DB.Exec(query,
		c.ID, c.Name, cadence,
		pq.Array(c.Channels), pq.Array(c.ContentTypes), pq.Array(c.TargetSegments),
		c.SegmentCursor, c.Status, c.InFlight, c.NextRun, c.LastRun, perf, c.CreatedAt,
	)
	return err
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
	query := `
        SELECT id, name, cadence, channels, content_types, target_segments,
               segment_cursor, status, in_flight, next_run, last_run, performance, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) List(f model.CampaignFilter) ([]*model.Campaign, error) {
	query := `
        SELECT id, name, cadence, channels, content_types, target_segments,
               segment_cursor, status, in_flight, next_run, last_run, performance, created_at, updated_at
        FROM campaigns WHERE 1=1
    `
	args := []interface{}{}
	argPos := 1

	if f.Status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, f.Status)
		argPos++
	}
	if f.Channel != "" {
		query += fmt.Sprintf(" AND $%d = ANY(channels)", argPos)
		args = append(args, f.Channel)
	}
	query += " ORDER BY created_at"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// UpdateRunState applies only the fields set in upd. The single UPDATE keeps
// concurrent writers to the same row linearized by the database.
func (r *CampaignRepository) UpdateRunState(id string, upd model.RunStateUpdate) error {
	set := "updated_at=NOW()"
	args := []interface{}{}
	argPos := 1

	if upd.Status != nil {
		set += fmt.Sprintf(", status=$%d", argPos)
		args = append(args, *upd.Status)
		argPos++
	}
	if upd.NextRun != nil {
		set += fmt.Sprintf(", next_run=$%d", argPos)
		args = append(args, *upd.NextRun)
		argPos++
	}
	if upd.LastRun != nil {
		set += fmt.Sprintf(", last_run=$%d", argPos)
		args = append(args, *upd.LastRun)
		argPos++
	}
	if upd.InFlight != nil {
		set += fmt.Sprintf(", in_flight=$%d", argPos)
		args = append(args, *upd.InFlight)
		argPos++
	}
	if upd.SegmentCursor != nil {
		set += fmt.Sprintf(", segment_cursor=$%d", argPos)
		args = append(args, *upd.SegmentCursor)
		argPos++
	}

	query := fmt.Sprintf("UPDATE campaigns SET %s WHERE id=$%d", set, argPos)
	args = append(args, id)

	res, err := r.DB.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return err
}

func (r *CampaignRepository) UpdatePerformance(id string, p model.PerformanceSnapshot) error {
	perf, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := r.DB.Exec(`UPDATE campaigns SET performance=$1, updated_at=NOW() WHERE id=$2`, perf, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var (
		c            model.Campaign
		cadence      []byte
		perf         []byte
		channels     pq.StringArray
		contentTypes pq.StringArray
		segments     pq.StringArray
	)
	err := row.Scan(&c.ID, &c.Name, &cadence, &channels, &contentTypes, &segments,
		&c.SegmentCursor, &c.Status, &c.InFlight, &c.NextRun, &c.LastRun, &perf, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cadence, &c.Cadence); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(perf, &c.Performance); err != nil {
		return nil, err
	}
	c.Channels = channels
	c.ContentTypes = contentTypes
	c.TargetSegments = segments
	return &c, nil
}

var _ CampaignRegistryInterface = (*CampaignRepository)(nil)
