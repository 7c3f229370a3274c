package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/farmers-market-api/internal/models"
	"go.uber.org/zap"
)

const farmerColumns = "id, name, email, location, created_at, updated_at"

// FarmerStore reads and writes the farmers table.
type FarmerStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewFarmerStore creates a farmer store on top of the shared pool.
func NewFarmerStore(db *sql.DB, log *zap.Logger) *FarmerStore {
	return &FarmerStore{db: db, log: log}
}

// List returns every farmer. An empty table yields an empty, non-nil slice.
func (s *FarmerStore) List(ctx context.Context) ([]models.Farmer, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+farmerColumns+" FROM farmers ORDER BY id")
	if err != nil {
		s.log.Error("Error fetching farmers", zap.Error(err))
		return nil, fmt.Errorf("could not retrieve farmers: %w", err)
	}
	defer rows.Close()

	farmers := []models.Farmer{}
	for rows.Next() {
		var f models.Farmer
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Location, &f.CreatedAt, &f.UpdatedAt); err != nil {
			s.log.Error("Error scanning farmer row", zap.Error(err))
			return nil, fmt.Errorf("could not retrieve farmers: %w", err)
		}
		farmers = append(farmers, f)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("Error iterating farmer rows", zap.Error(err))
		return nil, fmt.Errorf("could not retrieve farmers: %w", err)
	}

	return farmers, nil
}

// GetByID returns the farmer with the given id, or ErrNotFound.
func (s *FarmerStore) GetByID(ctx context.Context, id int64) (*models.Farmer, error) {
	var f models.Farmer
	err := s.db.QueryRowContext(ctx, "SELECT "+farmerColumns+" FROM farmers WHERE id = ?", id).
		Scan(&f.ID, &f.Name, &f.Email, &f.Location, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Error("Error fetching farmer", zap.Int64("farmer_id", id), zap.Error(err))
		return nil, fmt.Errorf("could not retrieve farmer %d: %w", id, err)
	}
	return &f, nil
}

// Create inserts a farmer and returns its generated id.
func (s *FarmerStore) Create(ctx context.Context, in models.NewFarmer) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO farmers (name, email, location) VALUES (?, ?, ?)",
		in.Name, in.Email, in.Location,
	)
	if err != nil {
		s.log.Error("Error creating farmer", zap.Error(err))
		return 0, fmt.Errorf("could not create farmer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("could not read new farmer id: %w", err)
	}
	return id, nil
}

// Update applies the supplied fields to the farmer with the given id.
func (s *FarmerStore) Update(ctx context.Context, id int64, upd models.FarmerUpdate) error {
	var a assignments
	setIf(&a, "name", upd.Name)
	setIf(&a, "email", upd.Email)
	setIf(&a, "location", upd.Location)

	query, args, err := a.build("farmers", id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.log.Error("Error updating farmer", zap.Int64("farmer_id", id), zap.Error(err))
		return fmt.Errorf("could not update farmer %d: %w", id, err)
	}
	return requireAffected(res)
}

// Delete removes the farmer with the given id. Its products keep existing
// with a NULL farmer_id.
func (s *FarmerStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM farmers WHERE id = ?", id)
	if err != nil {
		s.log.Error("Error deleting farmer", zap.Int64("farmer_id", id), zap.Error(err))
		return fmt.Errorf("could not delete farmer %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
