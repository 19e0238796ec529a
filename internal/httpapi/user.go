package httpapi

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/service"
	"storefront/internal/store"
)

type credentialsForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req credentialsForm
	if !bind(c, &req) {
		return
	}
	u, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	if err := login(c, u); err != nil {
		fail(c, apperr.Wrap(err, "Login failed"))
		return
	}
	okMsgData(c, "Login successful", u)
}

func (s *Server) manageLogin(c *gin.Context) {
	var req credentialsForm
	if !bind(c, &req) {
		return
	}
	u, err := s.users.ManageLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	if err := login(c, u); err != nil {
		fail(c, apperr.Wrap(err, "Login failed"))
		return
	}
	okMsgData(c, "Login successful", u)
}

func (s *Server) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		fail(c, apperr.Wrap(err, "Logout failed"))
		return
	}
	ok(c, nil)
}

type registerForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Phone    string `form:"phone"`
	Question string `form:"question"`
	Answer   string `form:"answer"`
}

func (s *Server) register(c *gin.Context) {
	var req registerForm
	if !bind(c, &req) {
		return
	}
	err := s.users.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Registration succeeded")
}

func (s *Server) checkValid(c *gin.Context) {
	var req struct {
		Str  string `form:"str" binding:"required"`
		Type string `form:"type"`
	}
	if !bind(c, &req) {
		return
	}
	if err := s.users.CheckValid(c.Request.Context(), req.Str, req.Type); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Verification succeeded")
}

func (s *Server) getUserInfo(c *gin.Context) {
	u, err := s.sessionUser(c)
	if err != nil {
		fail(c, apperr.Fail("User not logged in, unable to get current user information"))
		return
	}
	ok(c, u)
}

func (s *Server) getInformation(c *gin.Context) {
	ok(c, currentUser(c))
}

func (s *Server) forgetGetQuestion(c *gin.Context) {
	var req struct {
		Username string `form:"username" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	q, err := s.users.ForgetGetQuestion(c.Request.Context(), req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, q)
}

func (s *Server) forgetCheckAnswer(c *gin.Context) {
	var req struct {
		Username string `form:"username" binding:"required"`
		Question string `form:"question" binding:"required"`
		Answer   string `form:"answer" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	token, err := s.users.ForgetCheckAnswer(c.Request.Context(), req.Username, req.Question, req.Answer)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, token)
}

func (s *Server) forgetResetPassword(c *gin.Context) {
	var req struct {
		Username    string `form:"username" binding:"required"`
		PasswordNew string `form:"passwordNew" binding:"required"`
		ForgetToken string `form:"forgetToken"`
	}
	if !bind(c, &req) {
		return
	}
	if err := s.users.ForgetResetPassword(c.Request.Context(), req.Username, req.PasswordNew, req.ForgetToken); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Password updated")
}

func (s *Server) resetPassword(c *gin.Context) {
	var req struct {
		PasswordOld string `form:"passwordOld" binding:"required"`
		PasswordNew string `form:"passwordNew" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if err := s.users.ResetPassword(c.Request.Context(), currentUser(c).ID, req.PasswordOld, req.PasswordNew); err != nil {
		fail(c, err)
		return
	}
	okMsg(c, "Password updated")
}

func (s *Server) updateInformation(c *gin.Context) {
	var req struct {
		Email    *string `form:"email" binding:"omitempty,email"`
		Phone    *string `form:"phone"`
		Question *string `form:"question"`
		Answer   *string `form:"answer"`
	}
	if !bind(c, &req) {
		return
	}
	u, err := s.users.UpdateInformation(c.Request.Context(), currentUser(c).ID, store.Profile{
		Email:    req.Email,
		Phone:    req.Phone,
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		fail(c, err)
		return
	}
	okMsgData(c, "Information updated", u)
}
