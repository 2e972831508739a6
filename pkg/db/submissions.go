package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dineshxr/submithunt/pkg/core/model"
)

const submissionColumns = `id, slug, title, description, url, category, tags,
	author_name, author_profile_url, author_avatar_url, author_email,
	launch_date::text, plan, is_live, upvote_count, daily_rank,
	notification_sent, notification_sent_at, featured_until, created_at`

// GetDateCounts computes free and total submission counts for a launch
// date in a single aggregate query
func (db *DB) GetDateCounts(ctx context.Context, date string) (DateCounts, error) {
	query := `
		SELECT count(*) FILTER (WHERE plan = 'free') AS free_count,
		       count(*) AS total_count
		FROM submissions
		WHERE launch_date = $1::date`

	var counts DateCounts
	if err := db.pool.QueryRow(ctx, query, date).Scan(&counts.FreeCount, &counts.TotalCount); err != nil {
		return DateCounts{}, fmt.Errorf("failed to count submissions for %s: %w", date, err)
	}

	return counts, nil
}

// CountByDateFallback computes the same counts as GetDateCounts via two
// plain count queries
func (db *DB) CountByDateFallback(ctx context.Context, date string) (DateCounts, error) {
	var counts DateCounts

	freeQuery := `SELECT count(*) FROM submissions WHERE launch_date = $1::date AND plan = 'free'`
	if err := db.pool.QueryRow(ctx, freeQuery, date).Scan(&counts.FreeCount); err != nil {
		return DateCounts{}, fmt.Errorf("failed to count free submissions for %s: %w", date, err)
	}

	totalQuery := `SELECT count(*) FROM submissions WHERE launch_date = $1::date`
	if err := db.pool.QueryRow(ctx, totalQuery, date).Scan(&counts.TotalCount); err != nil {
		return DateCounts{}, fmt.Errorf("failed to count submissions for %s: %w", date, err)
	}

	return counts, nil
}

// GetLiveByLaunchDate retrieves all live submissions for a launch date
// ordered by creation time ascending. The ordering is semantically
// meaningful: submission-order bonuses are computed against it.
func (db *DB) GetLiveByLaunchDate(ctx context.Context, date string) ([]Submission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM submissions
		WHERE is_live = true AND launch_date = $1::date
		ORDER BY created_at ASC, id ASC`, submissionColumns)

	rows, err := db.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live submissions for %s: %w", date, err)
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

// UpdateDailyRank persists the computed rank for a single submission
func (db *DB) UpdateDailyRank(ctx context.Context, id string, rank int) error {
	tag, err := db.pool.Exec(ctx, `UPDATE submissions SET daily_rank = $2 WHERE id = $1`, id, rank)
	if err != nil {
		return fmt.Errorf("failed to update daily rank for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update daily rank for %s: %w", id, ErrNotFound)
	}
	return nil
}

// InsertSubmission inserts a submission, mapping a unique-constraint
// violation on the slug to ErrSlugTaken so the caller can retry with a
// suffix
func (db *DB) InsertSubmission(ctx context.Context, sub *Submission) error {
	query := `
		INSERT INTO submissions (
			id, slug, title, description, url, category, tags,
			author_name, author_profile_url, author_avatar_url, author_email,
			launch_date, plan, is_live, upvote_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::date, $13, $14, $15, $16)`

	_, err := db.pool.Exec(ctx, query,
		sub.ID, sub.Slug, sub.Title, sub.Description, sub.URL, sub.Category, sub.Tags,
		sub.AuthorName, sub.AuthorProfileURL, sub.AuthorAvatarURL, sub.AuthorEmail,
		sub.LaunchDate, sub.Plan, sub.IsLive, sub.UpvoteCount, sub.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to insert submission %s: %w", sub.Slug, err)
	}

	return nil
}

// ClaimFreeSlot inserts a free-plan submission only while the launch
// date's free count is below capacity, in a single conditional
// statement. Two clients racing for the last slot cannot both succeed.
func (db *DB) ClaimFreeSlot(ctx context.Context, sub *Submission, capacity int) error {
	query := `
		INSERT INTO submissions (
			id, slug, title, description, url, category, tags,
			author_name, author_profile_url, author_avatar_url, author_email,
			launch_date, plan, is_live, upvote_count, created_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::date, $13, $14, $15, $16
		WHERE (
			SELECT count(*) FROM submissions
			WHERE launch_date = $12::date AND plan = 'free'
		) < $17`

	tag, err := db.pool.Exec(ctx, query,
		sub.ID, sub.Slug, sub.Title, sub.Description, sub.URL, sub.Category, sub.Tags,
		sub.AuthorName, sub.AuthorProfileURL, sub.AuthorAvatarURL, sub.AuthorEmail,
		sub.LaunchDate, sub.Plan, sub.IsLive, sub.UpvoteCount, sub.CreatedAt,
		capacity,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to claim free slot for %s: %w", sub.LaunchDate, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoFreeCapacity
	}

	return nil
}

// HasSubmissionByAuthor reports whether the author already has any
// submission on record
func (db *DB) HasSubmissionByAuthor(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM submissions WHERE author_email = $1)`
	if err := db.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check submissions for author: %w", err)
	}
	return exists, nil
}

// GetBySlug retrieves a single submission by its slug
func (db *DB) GetBySlug(ctx context.Context, slug string) (*Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE slug = $1`, submissionColumns)

	sub, err := scanSubmission(db.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch submission %s: %w", slug, err)
	}

	return sub, nil
}

// ApplyUpgrade applies a successful payment to a submission: flips the
// plan, moves the launch date when one is given, marks the record live,
// and clears the notification flag so launch emails go out again
func (db *DB) ApplyUpgrade(ctx context.Context, id string, plan model.Plan, launchDate string, featuredUntil *time.Time) (*Submission, error) {
	query := fmt.Sprintf(`
		UPDATE submissions
		SET plan = $2,
		    launch_date = COALESCE(NULLIF($3, '')::date, launch_date),
		    is_live = true,
		    notification_sent = false,
		    notification_sent_at = NULL,
		    featured_until = $4
		WHERE id = $1
		RETURNING %s`, submissionColumns)

	sub, err := scanSubmission(db.pool.QueryRow(ctx, query, id, plan, launchDate, featuredUntil))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to apply upgrade to %s: %w", id, err)
	}

	return sub, nil
}

// ListPendingLaunchNotifications retrieves live submissions for a
// launch date that have not yet been notified
func (db *DB) ListPendingLaunchNotifications(ctx context.Context, date string) ([]Submission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM submissions
		WHERE is_live = true AND launch_date = $1::date AND notification_sent = false
		ORDER BY created_at ASC, id ASC`, submissionColumns)

	rows, err := db.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending notifications for %s: %w", date, err)
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

// MarkNotificationSent records that the launch email for a submission
// went out
func (db *DB) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE submissions SET notification_sent = true, notification_sent_at = $2 WHERE id = $1`
	tag, err := db.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark notification sent for %s: %w", id, ErrNotFound)
	}
	return nil
}

func collectSubmissions(rows pgx.Rows) ([]Submission, error) {
	submissions := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read submissions: %w", err)
	}
	return submissions, nil
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var sub Submission
	err := row.Scan(
		&sub.ID, &sub.Slug, &sub.Title, &sub.Description, &sub.URL, &sub.Category, &sub.Tags,
		&sub.AuthorName, &sub.AuthorProfileURL, &sub.AuthorAvatarURL, &sub.AuthorEmail,
		&sub.LaunchDate, &sub.Plan, &sub.IsLive, &sub.UpvoteCount, &sub.DailyRank,
		&sub.NotificationSent, &sub.NotificationSentAt, &sub.FeaturedUntil, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
