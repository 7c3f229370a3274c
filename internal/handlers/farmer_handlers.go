package handlers

import (
	"net/http"

	"github.com/01moynul/farmers-market-api/internal/models"
	"github.com/gin-gonic/gin"
)

// CreateFarmerInput is the body of POST /api/farmers.
type CreateFarmerInput struct {
	Name     string  `json:"name" binding:"required,notblank"`
	Email    string  `json:"email" binding:"required,email"`
	Location *string `json:"location"`
}

// FarmerWithProducts is a farmer as returned by the list endpoint.
type FarmerWithProducts struct {
	models.Farmer
	Products []models.Product `json:"products"`
}

// GetAllFarmers handles GET /api/farmers. Each farmer comes back with its
// products, fetched in a single extra query.
func (h *Handlers) GetAllFarmers(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. --- Fetch Farmers ---
	farmers, err := h.Farmers.List(ctx)
	if err != nil {
		fail(c, err, "")
		return
	}

	// 2. --- Fetch Their Products ---
	ids := make([]int64, len(farmers))
	for i, f := range farmers {
		ids[i] = f.ID
	}
	products, err := h.Products.ListByFarmers(ctx, ids)
	if err != nil {
		fail(c, err, "")
		return
	}

	// 3. --- Attach ---
	out := make([]FarmerWithProducts, len(farmers))
	for i, f := range farmers {
		owned := products[f.ID]
		if owned == nil {
			owned = []models.Product{}
		}
		out[i] = FarmerWithProducts{Farmer: f, Products: owned}
	}

	c.JSON(http.StatusOK, out)
}

// GetFarmer handles GET /api/farmers/:id.
func (h *Handlers) GetFarmer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	farmer, err := h.Farmers.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Farmer not found")
		return
	}

	c.JSON(http.StatusOK, farmer)
}

// GetFarmerProducts handles GET /api/farmers/:id/products.
func (h *Handlers) GetFarmerProducts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.Farmers.GetByID(ctx, id); err != nil {
		fail(c, err, "Farmer not found")
		return
	}

	products, err := h.Products.ListByFarmer(ctx, id)
	if err != nil {
		fail(c, err, "")
		return
	}

	c.JSON(http.StatusOK, products)
}

// CreateFarmer handles POST /api/farmers.
func (h *Handlers) CreateFarmer(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CreateFarmerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}
	ctx := c.Request.Context()

	// 2. --- Insert ---
	id, err := h.Farmers.Create(ctx, models.NewFarmer{
		Name:     input.Name,
		Email:    input.Email,
		Location: input.Location,
	})
	if err != nil {
		fail(c, err, "")
		return
	}

	// 3. --- Read Back ---
	// The insert only gives us the id; the row has server-side defaults.
	farmer, err := h.Farmers.GetByID(ctx, id)
	if err != nil {
		fail(c, err, "Farmer not found")
		return
	}

	c.JSON(http.StatusCreated, farmer)
}

// UpdateFarmer handles PUT /api/farmers/:id. Only the supplied fields change.
func (h *Handlers) UpdateFarmer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input models.FarmerUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}
	ctx := c.Request.Context()

	if err := h.Farmers.Update(ctx, id, input); err != nil {
		fail(c, err, "Farmer not found")
		return
	}

	farmer, err := h.Farmers.GetByID(ctx, id)
	if err != nil {
		fail(c, err, "Farmer not found")
		return
	}

	c.JSON(http.StatusOK, farmer)
}

// DeleteFarmer handles DELETE /api/farmers/:id.
func (h *Handlers) DeleteFarmer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.Farmers.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, "Farmer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Farmer deleted successfully"})
}
