package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/farmers-market-api/internal/middleware"
	"github.com/01moynul/farmers-market-api/internal/models"
	"github.com/01moynul/farmers-market-api/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// --- User Registration ---

// RegisterUserInput is kept apart from models.User because we never accept
// an id, a role or a hash from the client.
type RegisterUserInput struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// UpdateUserInput is the body of PUT /api/users/:id.
type UpdateUserInput struct {
	Name     *string `json:"name" binding:"omitempty,notblank"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateUser handles POST /api/users. Passwords are bcrypt-hashed here, so
// plaintext never reaches the store.
func (h *Handlers) CreateUser(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		_ = c.Error(err)
		return
	}
	ctx := c.Request.Context()

	// 3. --- Save to Database ---
	id, err := h.Users.Create(ctx, models.NewUser{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: password.Hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		fail(c, err, "")
		return
	}

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		fail(c, err, "User not found")
		return
	}

	// The hash is tagged json:"-" so it never leaves the server.
	c.JSON(http.StatusCreated, user)
}

// GetAllUsers handles GET /api/users (admin only).
func (h *Handlers) GetAllUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /api/users/:id. Callers may read themselves; admins may read anyone.
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !selfOrAdmin(c, id) {
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/:id. Only admins may change a role.
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !selfOrAdmin(c, id) {
		return
	}

	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}

	if input.Role != nil {
		if claims, _ := middleware.ClaimsFrom(c); claims == nil || !claims.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"message": "Access Denied. Admin privileges required."})
			return
		}
	}

	upd := models.UserUpdate{
		Name:  input.Name,
		Email: input.Email,
		Role:  input.Role,
	}
	if input.Password != nil {
		var password models.Password
		if err := password.Set(*input.Password); err != nil {
			_ = c.Error(err)
			return
		}
		upd.PasswordHash = &password.Hash
	}
	ctx := c.Request.Context()

	if err := h.Users.Update(ctx, id, upd); err != nil {
		fail(c, err, "User not found")
		return
	}

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		fail(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/:id (admin only).
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// Login handles POST /api/auth/login and returns a bearer token.
// Unknown emails and wrong passwords get the same 401.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}

	user, err := h.Users.GetByEmail(c.Request.Context(), input.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	token, err := h.Tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.Log.Info("User logged in", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// selfOrAdmin writes a 403 and returns false unless the caller is the user
// identified by id or an admin.
func selfOrAdmin(c *gin.Context, id int64) bool {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden. User details not found."})
		return false
	}
	if claims.IsAdmin() {
		return true
	}
	if callerID, err := claims.UserID(); err == nil && callerID == id {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"message": "Access Denied."})
	return false
}
