package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/unclebandit/campaign-engine/internal/model"
)

// ResultRepository persists execution results for audit and offline analysis.
// Rows are written by the analytics worker, not by the scheduler.
type ResultRepository struct {
	DB *sql.DB
}

// Create inserts one execution result. Attempts are kept as a JSON payload;
// the derived aggregates get their own columns for querying.
func (r *ResultRepository) Create(res *model.ExecutionResult) error {
	attempts, err := json.Marshal(res.Attempts)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO execution_results
            (campaign_id, triggered_at, posts_created, posts_succeeded, attempts, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err = r.DB.Exec(query, res.CampaignID, res.TriggeredAt, res.PostsCreated, res.PostsSucceeded, attempts, time.Now())
	return err
}

// ListByCampaign returns the most recent results for a campaign, newest first.
func (r *ResultRepository) ListByCampaign(campaignID string, limit int) ([]*model.ExecutionResult, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT campaign_id, triggered_at, posts_created, posts_succeeded, attempts
        FROM execution_results
        WHERE campaign_id=$1
        ORDER BY triggered_at DESC
        LIMIT $2
    `
	rows, err := r.DB.Query(query, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*model.ExecutionResult{}
	for rows.Next() {
		var (
			res      model.ExecutionResult
			attempts []byte
		)
		if err := rows.Scan(&res.CampaignID, &res.TriggeredAt, &res.PostsCreated, &res.PostsSucceeded, &attempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(attempts, &res.Attempts); err != nil {
			return nil, err
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}
