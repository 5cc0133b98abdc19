package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/records-hexbin/internal/database"
	"github.com/jengzang/records-hexbin/internal/models"
)

// TrackRepository handles database operations for track points
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new track repository
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

func buildConditions(filter models.TrackPointFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.StartTime > 0 {
		conditions = append(conditions, "dataTime >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "dataTime <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.Province != "" {
		conditions = append(conditions, "province = ?")
		args = append(args, filter.Province)
	}
	if filter.City != "" {
		conditions = append(conditions, "city = ?")
		args = append(args, filter.City)
	}
	if filter.County != "" {
		conditions = append(conditions, "county = ?")
		args = append(args, filter.County)
	}
	if filter.MinSpeed > 0 {
		conditions = append(conditions, "speed >= ?")
		args = append(args, filter.MinSpeed)
	}
	if filter.MaxSpeed > 0 {
		conditions = append(conditions, "speed <= ?")
		args = append(args, filter.MaxSpeed)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// CountTrackPoints counts the track points matching filter
func (r *TrackRepository) CountTrackPoints(filter models.TrackPointFilter) (int64, error) {
	where, args := buildConditions(filter)
	var total int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM "一生足迹"`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count track points: %w", err)
	}
	return total, nil
}

// GetTrackPoints returns the matching track points in time order, at most
// filter.Limit of them
func (r *TrackRepository) GetTrackPoints(filter models.TrackPointFilter) ([]models.TrackPoint, error) {
	if filter.Limit < 1 {
		filter.Limit = models.DefaultTrackLimit
	}
	if filter.Limit > models.MaxTrackLimit {
		filter.Limit = models.MaxTrackLimit
	}

	where, args := buildConditions(filter)
	query := `SELECT id, dataTime, longitude, latitude, heading, accuracy, speed, distance, altitude,
		COALESCE(province, ''), COALESCE(city, ''), COALESCE(county, '')
		FROM "一生足迹"` + where + " ORDER BY dataTime ASC, id ASC LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track points: %w", err)
	}
	defer rows.Close()

	var points []models.TrackPoint
	for rows.Next() {
		var p models.TrackPoint
		err := rows.Scan(
			&p.ID, &p.DataTime, &p.Longitude, &p.Latitude, &p.Heading, &p.Accuracy,
			&p.Speed, &p.Distance, &p.Altitude, &p.Province, &p.City, &p.County,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read track points: %w", err)
	}
	return points, nil
}

// InsertTrackPoints stores points in one transaction. IDs are assigned by the
// database.
func (r *TrackRepository) InsertTrackPoints(points []models.TrackPoint) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO "一生足迹"
			(dataTime, longitude, latitude, heading, accuracy, speed, distance, altitude, province, city, county)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			_, err := stmt.Exec(p.DataTime, p.Longitude, p.Latitude, p.Heading, p.Accuracy,
				p.Speed, p.Distance, p.Altitude, p.Province, p.City, p.County)
			if err != nil {
				return fmt.Errorf("failed to insert track point: %w", err)
			}
		}
		return nil
	})
}
