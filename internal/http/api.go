package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"journal-api/internal/domain"
	"journal-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth    service.AuthService
	entries service.EntryService
	exports service.ExportService

	generalLimiter *RateLimiter
	authLimiter    *RateLimiter
}

func NewHandler(auth service.AuthService, entries service.EntryService, exports service.ExportService, generalLimiter, authLimiter *RateLimiter) *Handler {
	return &Handler{
		auth:           auth,
		entries:        entries,
		exports:        exports,
		generalLimiter: generalLimiter,
		authLimiter:    authLimiter,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := api.Group("/auth")
		auth.Use(h.optionalAuth(), h.rateLimit(h.authLimiter))
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/refresh", h.refresh)
			auth.POST("/forgot-password", h.forgotPassword)
			auth.POST("/reset-password", h.resetPassword)
		}
		// logout shares the general limiter, matching the other
		// authenticated routes
		api.POST("/auth/logout", h.optionalAuth(), h.rateLimit(h.generalLimiter), h.requireAuth(), h.logout)

		entries := api.Group("/entries")
		entries.Use(h.optionalAuth(), h.rateLimit(h.generalLimiter), h.requireAuth())
		{
			entries.POST("", h.createEntry)
			entries.GET("", h.listEntries)
			entries.DELETE("", h.deleteAllEntries)
			entries.GET("/:id", h.getEntry)
			entries.PUT("/:id", h.updateEntry)
			entries.DELETE("/:id", h.deleteEntry)
		}

		exports := api.Group("/exports")
		exports.Use(h.optionalAuth(), h.rateLimit(h.generalLimiter), h.requireAuth())
		{
			exports.POST("", h.exportEntries)
			exports.GET("", h.listExports)
			exports.DELETE("", h.purgeExports)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func tokenPairToResponse(pair *service.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, tokenPairToResponse(pair))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, tokenPairToResponse(pair))
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, tokenPairToResponse(pair))
}

func (h *Handler) logout(c *gin.Context) {
	user := currentUser(c)
	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrEmailDispatchFailed) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send password reset email"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// identical response whether or not the account exists
	c.Status(http.StatusNoContent)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

type createEntryRequest struct {
	Work      string `json:"work" binding:"required,max=256"`
	Struggle  string `json:"struggle" binding:"required,max=256"`
	Intention string `json:"intention" binding:"required,max=256"`
}

type updateEntryRequest struct {
	Work      *string `json:"work" binding:"omitempty,max=256"`
	Struggle  *string `json:"struggle" binding:"omitempty,max=256"`
	Intention *string `json:"intention" binding:"omitempty,max=256"`
}

type EntryResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Work      string `json:"work"`
	Struggle  string `json:"struggle"`
	Intention string `json:"intention"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func entryToResponse(entry domain.JournalEntry) EntryResponse {
	return EntryResponse{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Work:      entry.Work,
		Struggle:  entry.Struggle,
		Intention: entry.Intention,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt: entry.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) createEntry(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	entry, err := h.entries.Create(c.Request.Context(), user.ID, req.Work, req.Struggle, req.Intention)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, entryToResponse(*entry))
}

func (h *Handler) listEntries(c *gin.Context) {
	user := currentUser(c)
	entries, err := h.entries.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := make([]EntryResponse, len(entries))
	for i := range entries {
		resp[i] = entryToResponse(entries[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getEntry(c *gin.Context) {
	user := currentUser(c)
	entry, err := h.entries.Get(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		h.entryError(c, err)
		return
	}

	c.JSON(http.StatusOK, entryToResponse(*entry))
}

func (h *Handler) updateEntry(c *gin.Context) {
	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	entry, err := h.entries.Update(c.Request.Context(), c.Param("id"), user.ID, service.EntryUpdate{
		Work:      req.Work,
		Struggle:  req.Struggle,
		Intention: req.Intention,
	})
	if err != nil {
		h.entryError(c, err)
		return
	}

	c.JSON(http.StatusOK, entryToResponse(*entry))
}

func (h *Handler) deleteEntry(c *gin.Context) {
	user := currentUser(c)
	if err := h.entries.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		h.entryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteAllEntries(c *gin.Context) {
	user := currentUser(c)
	if err := h.entries.DeleteAll(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) entryError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Journal entry not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

type ExportResponse struct {
	Key          string  `json:"key"`
	Location     string  `json:"location"`
	Size         int64   `json:"size"`
	EntryCount   int     `json:"entry_count,omitempty"`
	URL          string  `json:"url,omitempty"`
	LastModified *string `json:"last_modified,omitempty"`
}

func exportToResponse(export service.Export) ExportResponse {
	resp := ExportResponse{
		Key:        export.Key,
		Location:   export.Location,
		Size:       export.Size,
		EntryCount: export.EntryCount,
		URL:        export.URL,
	}
	if export.LastModified != nil && !export.LastModified.IsZero() {
		v := export.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

func (h *Handler) exportEntries(c *gin.Context) {
	if h.exports == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	user := currentUser(c)
	export, err := h.exports.Export(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, exportToResponse(*export))
}

func (h *Handler) listExports(c *gin.Context) {
	if h.exports == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	user := currentUser(c)
	exports, err := h.exports.ListExports(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := make([]ExportResponse, len(exports))
	for i := range exports {
		resp[i] = exportToResponse(exports[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) purgeExports(c *gin.Context) {
	if h.exports == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	user := currentUser(c)
	if err := h.exports.PurgeExports(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
