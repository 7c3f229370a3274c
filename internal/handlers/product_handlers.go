package handlers

import (
	"net/http"

	"github.com/01moynul/farmers-market-api/internal/models"
	"github.com/gin-gonic/gin"
)

// CreateProductInput is the body of POST /api/products.
// Price is a pointer so that an explicit 0 is accepted but a missing price is not.
type CreateProductInput struct {
	FarmerID    *int64   `json:"farmerId" binding:"omitempty,gt=0"`
	Name        string   `json:"name" binding:"required,notblank"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Description *string  `json:"description"`
	Quantity    *int     `json:"quantity" binding:"omitempty,gte=0"`
	Category    *string  `json:"category"`
}

// GetAllProducts handles GET /api/products.
func (h *Handlers) GetAllProducts(c *gin.Context) {
	products, err := h.Products.List(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /api/products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.Products.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/products.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}
	ctx := c.Request.Context()

	id, err := h.Products.Create(ctx, models.NewProduct{
		FarmerID:    input.FarmerID,
		Name:        input.Name,
		Price:       *input.Price,
		Description: input.Description,
		Quantity:    input.Quantity,
		Category:    input.Category,
	})
	if err != nil {
		fail(c, err, "")
		return
	}

	product, err := h.Products.GetByID(ctx, id)
	if err != nil {
		fail(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id. Only the supplied fields change.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input models.ProductUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}
	ctx := c.Request.Context()

	if err := h.Products.Update(ctx, id, input); err != nil {
		fail(c, err, "Product not found")
		return
	}

	product, err := h.Products.GetByID(ctx, id)
	if err != nil {
		fail(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.Products.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
