package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/farmers-market-api/internal/models"
	"go.uber.org/zap"
)

const productColumns = "id, farmer_id, name, price, description, quantity, category, created_at, updated_at"

// ProductStore reads and writes the products table.
type ProductStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewProductStore creates a product store on top of the shared pool.
func NewProductStore(db *sql.DB, log *zap.Logger) *ProductStore {
	return &ProductStore{db: db, log: log}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(r rowScanner, p *models.Product) error {
	return r.Scan(
		&p.ID,
		&p.FarmerID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.Quantity,
		&p.Category,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (s *ProductStore) query(ctx context.Context, what, query string, args ...interface{}) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error("Error fetching products", zap.String("query", what), zap.Error(err))
		return nil, fmt.Errorf("could not retrieve %s: %w", what, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			s.log.Error("Error scanning product row", zap.Error(err))
			return nil, fmt.Errorf("could not retrieve %s: %w", what, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("Error iterating product rows", zap.Error(err))
		return nil, fmt.Errorf("could not retrieve %s: %w", what, err)
	}
	return products, nil
}

// List returns every product. An empty table yields an empty, non-nil slice.
func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	return s.query(ctx, "products", "SELECT "+productColumns+" FROM products ORDER BY id")
}

// ListByFarmer returns the products owned by one farmer.
func (s *ProductStore) ListByFarmer(ctx context.Context, farmerID int64) ([]models.Product, error) {
	return s.query(ctx, "farmer's products",
		"SELECT "+productColumns+" FROM products WHERE farmer_id = ? ORDER BY id", farmerID)
}

// ListByFarmers returns the products of several farmers in one round trip,
// grouped by farmer id.
func (s *ProductStore) ListByFarmers(ctx context.Context, farmerIDs []int64) (map[int64][]models.Product, error) {
	grouped := make(map[int64][]models.Product, len(farmerIDs))
	if len(farmerIDs) == 0 {
		return grouped, nil
	}

	args := make([]interface{}, len(farmerIDs))
	for i, id := range farmerIDs {
		args[i] = id
	}

	products, err := s.query(ctx, "farmers' products",
		"SELECT "+productColumns+" FROM products WHERE farmer_id IN ("+placeholders(len(args))+") ORDER BY id",
		args...)
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		if p.FarmerID != nil {
			grouped[*p.FarmerID] = append(grouped[*p.FarmerID], p)
		}
	}
	return grouped, nil
}

// GetByID returns the product with the given id, or ErrNotFound.
func (s *ProductStore) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := scanProduct(s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Error("Error fetching product", zap.Int64("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("could not retrieve product %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts a product and returns its generated id.
func (s *ProductStore) Create(ctx context.Context, in models.NewProduct) (int64, error) {
	query := `
		INSERT INTO products
		(farmer_id, name, price, description, quantity, category)
		VALUES
		(?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		in.FarmerID,
		in.Name,
		in.Price,
		in.Description,
		in.Quantity,
		in.Category,
	)
	if err != nil {
		s.log.Error("Error creating product", zap.Error(err))
		return 0, fmt.Errorf("could not create product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("could not read new product id: %w", err)
	}
	return id, nil
}

// Update applies the supplied fields to the product with the given id.
func (s *ProductStore) Update(ctx context.Context, id int64, upd models.ProductUpdate) error {
	var a assignments
	setIf(&a, "farmer_id", upd.FarmerID)
	setIf(&a, "name", upd.Name)
	setIf(&a, "price", upd.Price)
	setIf(&a, "description", upd.Description)
	setIf(&a, "quantity", upd.Quantity)
	setIf(&a, "category", upd.Category)

	query, args, err := a.build("products", id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.log.Error("Error updating product", zap.Int64("product_id", id), zap.Error(err))
		return fmt.Errorf("could not update product %d: %w", id, err)
	}
	return requireAffected(res)
}

// Delete removes the product with the given id.
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		s.log.Error("Error deleting product", zap.Int64("product_id", id), zap.Error(err))
		return fmt.Errorf("could not delete product %d: %w", id, err)
	}
	return requireAffected(res)
}
