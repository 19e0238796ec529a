package httpapi

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

const (
	sessionUserKey = "user_id"
	currentUserKey = "currentUser"
)

func (s *Server) sessionUser(c *gin.Context) (*models.User, error) {
	id, _ := sessions.Default(c).Get(sessionUserKey).(uint)
	if id == 0 {
		return nil, apperr.NeedLogin("User not logged in, please log in")
	}
	u, err := s.users.Information(c.Request.Context(), id)
	if err != nil {
		return nil, apperr.NeedLogin("User not logged in, please log in")
	}
	return u, nil
}

func (s *Server) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.sessionUser(c)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(currentUserKey, u)
		c.Next()
	}
}

func (s *Server) adminUser(c *gin.Context) (*models.User, error) {
	u, err := s.sessionUser(c)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, apperr.Fail("No administrator privileges")
	}
	return u, nil
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.adminUser(c)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(currentUserKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	u, _ := c.MustGet(currentUserKey).(*models.User)
	return u
}

func login(c *gin.Context, u *models.User) error {
	sess := sessions.Default(c)
	sess.Set(sessionUserKey, u.ID)
	return sess.Save()
}
