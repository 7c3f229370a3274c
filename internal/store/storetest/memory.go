// Package storetest provides in-memory stand-ins for the MySQL stores so
// handlers and routes can be tested without a database.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/01moynul/farmers-market-api/internal/models"
	"github.com/01moynul/farmers-market-api/internal/store"
	"github.com/go-sql-driver/mysql"
)

// Memory backs all three stores with maps. It mimics the schema's unique
// emails, the products.farmer_id foreign key and ON DELETE SET NULL.
// Setting Err makes every call fail with it.
type Memory struct {
	mu sync.Mutex

	Err error

	farmers  map[int64]models.Farmer
	products map[int64]models.Product
	users    map[int64]models.User
	nextID   int64
	now      func() time.Time

	// Counts of successful inserts, handy for "no insert happened" checks.
	FarmerInserts  int
	ProductInserts int
	UserInserts    int
}

// NewMemory returns an empty in-memory database.
func NewMemory() *Memory {
	return &Memory{
		farmers:  map[int64]models.Farmer{},
		products: map[int64]models.Product{},
		users:    map[int64]models.User{},
		now:      time.Now,
	}
}

func (m *Memory) Farmers() *Farmers   { return &Farmers{m} }
func (m *Memory) Products() *Products { return &Products{m} }
func (m *Memory) Users() *Users       { return &Users{m} }

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func duplicate() error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
}

func sortedKeys[T any](in map[int64]T) []int64 {
	keys := make([]int64, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Farmers implements the farmer store contract.
type Farmers struct{ m *Memory }

func (f *Farmers) List(_ context.Context) ([]models.Farmer, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.Err != nil {
		return nil, f.m.Err
	}
	out := []models.Farmer{}
	for _, id := range sortedKeys(f.m.farmers) {
		out = append(out, f.m.farmers[id])
	}
	return out, nil
}

func (f *Farmers) GetByID(_ context.Context, id int64) (*models.Farmer, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.Err != nil {
		return nil, f.m.Err
	}
	farmer, ok := f.m.farmers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &farmer, nil
}

func (f *Farmers) Create(_ context.Context, in models.NewFarmer) (int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.Err != nil {
		return 0, f.m.Err
	}
	for _, existing := range f.m.farmers {
		if existing.Email == in.Email {
			return 0, duplicate()
		}
	}
	now := f.m.now()
	id := f.m.id()
	f.m.farmers[id] = models.Farmer{
		ID:        id,
		Name:      in.Name,
		Email:     in.Email,
		Location:  in.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.m.FarmerInserts++
	return id, nil
}

func (f *Farmers) Update(_ context.Context, id int64, upd models.FarmerUpdate) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.Err != nil {
		return f.m.Err
	}
	if upd.Name == nil && upd.Email == nil && upd.Location == nil {
		return store.ErrEmptyUpdate
	}
	farmer, ok := f.m.farmers[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Name != nil {
		farmer.Name = *upd.Name
	}
	if upd.Email != nil {
		farmer.Email = *upd.Email
	}
	if upd.Location != nil {
		farmer.Location = upd.Location
	}
	farmer.UpdatedAt = f.m.now()
	f.m.farmers[id] = farmer
	return nil
}

func (f *Farmers) Delete(_ context.Context, id int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.Err != nil {
		return f.m.Err
	}
	if _, ok := f.m.farmers[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.m.farmers, id)
	for pid, p := range f.m.products {
		if p.FarmerID != nil && *p.FarmerID == id {
			p.FarmerID = nil
			f.m.products[pid] = p
		}
	}
	return nil
}

// Products implements the product store contract.
type Products struct{ m *Memory }

func (p *Products) filter(keep func(models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, id := range sortedKeys(p.m.products) {
		if prod := p.m.products[id]; keep(prod) {
			out = append(out, prod)
		}
	}
	return out
}

func (p *Products) List(_ context.Context) ([]models.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.Err != nil {
		return nil, p.m.Err
	}
	return p.filter(func(models.Product) bool { return true }), nil
}

func (p *Products) ListByFarmer(_ context.Context, farmerID int64) ([]models.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.Err != nil {
		return nil, p.m.Err
	}
	return p.filter(func(prod models.Product) bool {
		return prod.FarmerID != nil && *prod.FarmerID == farmerID
	}), nil
}

func (p *Products) ListByFarmers(_ context.Context, farmerIDs []int64) (map[int64][]models.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.Err != nil {
		return nil, p.m.Err
	}
	wanted := make(map[int64]bool, len(farmerIDs))
	for _, id := range farmerIDs {
		wanted[id] = true
	}
	grouped := make(map[int64][]models.Product, len(farmerIDs))
	for _, prod := range p.filter(func(prod models.Product) bool {
		return prod.FarmerID != nil && wanted[*prod.FarmerID]
	}) {
		grouped[*prod.FarmerID] = append(grouped[*prod.FarmerID], prod)
	}
	return grouped, nil
}

func (p *Products) GetByID(_ context.Context, id int64) (*models.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.Err != nil {
		return nil, p.m.Err
	}
	prod, ok := p.m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &prod, nil
}

func (p *Products) checkFarmer(farmerID *int64) error {
	if farmerID == nil {
		return nil
	}
	if _, ok := p.m.farmers[*farmerID]; !ok {
		return &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	}
	return nil
}

func (p *Products) Create(_ context.Context, in models.NewProduct) (int64, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.Err != nil {
		return 0, p.m.Err
	}
	if err := p.checkFarmer(in.FarmerID); err != nil {
		return 0, err
	}
	now := p.m.now()
	id := p.m.id()
	p.m.products[id] = models.Product{
		ID:          id,
		FarmerID:    in.FarmerID,
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Quantity:    in.Quantity,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.m.ProductInserts++
	return id, nil
}

func (p *Products) Update(_ context.Context, id int64, upd models.ProductUpdate) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.Err != nil {
		return p.m.Err
	}
	if upd == (models.ProductUpdate{}) {
		return store.ErrEmptyUpdate
	}
	prod, ok := p.m.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := p.checkFarmer(upd.FarmerID); err != nil {
		return err
	}
	if upd.FarmerID != nil {
		prod.FarmerID = upd.FarmerID
	}
	if upd.Name != nil {
		prod.Name = *upd.Name
	}
	if upd.Price != nil {
		prod.Price = *upd.Price
	}
	if upd.Description != nil {
		prod.Description = upd.Description
	}
	if upd.Quantity != nil {
		prod.Quantity = upd.Quantity
	}
	if upd.Category != nil {
		prod.Category = upd.Category
	}
	prod.UpdatedAt = p.m.now()
	p.m.products[id] = prod
	return nil
}

func (p *Products) Delete(_ context.Context, id int64) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.Err != nil {
		return p.m.Err
	}
	if _, ok := p.m.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(p.m.products, id)
	return nil
}

// Users implements the user store contract.
type Users struct{ m *Memory }

func (u *Users) List(_ context.Context) ([]models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return nil, u.m.Err
	}
	out := []models.User{}
	for _, id := range sortedKeys(u.m.users) {
		out = append(out, u.m.users[id])
	}
	return out, nil
}

func (u *Users) GetByID(_ context.Context, id int64) (*models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return nil, u.m.Err
	}
	user, ok := u.m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return nil, u.m.Err
	}
	for _, user := range u.m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (u *Users) Create(_ context.Context, in models.NewUser) (int64, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return 0, u.m.Err
	}
	for _, existing := range u.m.users {
		if existing.Email == in.Email {
			return 0, duplicate()
		}
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	id := u.m.id()
	u.m.users[id] = models.User{
		ID:           id,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         role,
		CreatedAt:    u.m.now(),
	}
	u.m.UserInserts++
	return id, nil
}

func (u *Users) Update(_ context.Context, id int64, upd models.UserUpdate) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return u.m.Err
	}
	if upd == (models.UserUpdate{}) {
		return store.ErrEmptyUpdate
	}
	user, ok := u.m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		user.PasswordHash = *upd.PasswordHash
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	u.m.users[id] = user
	return nil
}

func (u *Users) Delete(_ context.Context, id int64) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return u.m.Err
	}
	if _, ok := u.m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(u.m.users, id)
	return nil
}
