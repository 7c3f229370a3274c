package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/01moynul/farmers-market-api/internal/middleware"
	"github.com/01moynul/farmers-market-api/internal/models"
	"github.com/01moynul/farmers-market-api/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FarmerStore is the data access the farmer handlers need.
type FarmerStore interface {
	List(ctx context.Context) ([]models.Farmer, error)
	GetByID(ctx context.Context, id int64) (*models.Farmer, error)
	Create(ctx context.Context, in models.NewFarmer) (int64, error)
	Update(ctx context.Context, id int64, upd models.FarmerUpdate) error
	Delete(ctx context.Context, id int64) error
}

// ProductStore is the data access the product handlers need.
type ProductStore interface {
	List(ctx context.Context) ([]models.Product, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]models.Product, error)
	ListByFarmers(ctx context.Context, farmerIDs []int64) (map[int64][]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, in models.NewProduct) (int64, error)
	Update(ctx context.Context, id int64, upd models.ProductUpdate) error
	Delete(ctx context.Context, id int64) error
}

// UserStore is the data access the user handlers need.
type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, in models.NewUser) (int64, error)
	Update(ctx context.Context, id int64, upd models.UserUpdate) error
	Delete(ctx context.Context, id int64) error
}

// TokenIssuer mints bearer tokens on login.
type TokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Farmers  FarmerStore
	Products ProductStore
	Users    UserStore
	Tokens   TokenIssuer
	DB       Pinger
	Log      *zap.Logger
}

// --- Helpers ---

// parseID reads the ":id" path parameter. It writes the 400 itself and
// returns false when the id is not a positive integer.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return 0, false
	}
	return id, true
}

// fail forwards err to the central error handler, turning a missing row
// into a 404 with an entity-specific message.
func fail(c *gin.Context, err error, notFoundMessage string) {
	if errors.Is(err, store.ErrNotFound) {
		err = middleware.NewAPIError(http.StatusNotFound, notFoundMessage, err)
	}
	_ = c.Error(err)
}

// --- Health ---

// Ping is a liveness probe.
func (h *Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong!"})
}

// Healthz checks that the connection pool can still reach MySQL.
func (h *Handlers) Healthz(c *gin.Context) {
	if err := h.DB.PingContext(c.Request.Context()); err != nil {
		h.Log.Error("Database health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "message": "database connection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
