package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/aw226929-cmd/iturnin-backend/internal/http/middleware"
	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

// AuthHandler exchanges the admin password for a bearer token.
type AuthHandler struct {
	JWTSecret    string
	PasswordHash string
	TokenTTL     time.Duration
	Now          func() time.Time
}

func (h AuthHandler) enabled() bool {
	return h.JWTSecret != "" && h.PasswordHash != ""
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// POST /api/admin/login
func (h AuthHandler) Login(c *gin.Context) {
	if !h.enabled() {
		RespondError(c, http.StatusNotFound, "admin login is not enabled", nil)
		return
	}

	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(req.Password)); err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "admin login rejected")
		RespondError(c, http.StatusUnauthorized, "invalid password", nil)
		return
	}

	now := utils.NowUTC()
	if h.Now != nil {
		now = h.Now()
	}
	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	token, err := middleware.IssueAdminToken(h.JWTSecret, ttl, now)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "admin token issued")
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": now.Add(ttl).UTC(),
	})
}
