package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const sessionAuthKey = "admin_authed"

type loginRequest struct {
	Password string `json:"password"`
}

// Login checks the shared team password and marks the session as
// authenticated.
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "password is required") {
		return
	}

	if len(a.adminPasswordHash) == 0 {
		respondError(c, http.StatusServiceUnavailable, "admin access is not configured")
		return
	}
	if err := bcrypt.CompareHashAndPassword(a.adminPasswordHash, []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "wrong password")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionAuthKey, true)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Logout clears the session.
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if authed, ok := session.Get(sessionAuthKey).(bool); !ok || !authed {
			respondError(c, http.StatusUnauthorized, "login required")
			c.Abort()
			return
		}
		c.Next()
	}
}
