package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Kinds accepted by CheckValid.
const (
	CheckUsername = "username"
	CheckEmail    = "email"

	forgetTokenPrefix = "token_"
)

// UserService handles customer and admin accounts.
type UserService struct {
	users  store.UserRepository
	tokens TokenCache
}

// NewUserService builds a UserService that keeps forget-password tokens in tokens.
func NewUserService(users store.UserRepository, tokens TokenCache) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Login checks the credentials of a username.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, lookup(err, "The username does not exist")
	}
	if !models.CheckPassword(u.Password, password) {
		return nil, apperr.Fail("Wrong password")
	}
	return u, nil
}

// ManageLogin is Login restricted to administrators.
func (s *UserService) ManageLogin(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, apperr.Fail("Not an administrator, cannot log in")
	}
	return u, nil
}

// RegisterInput is a new customer account.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Phone    string
	Question string
	Answer   string
}

// Register creates a customer with a unique username and email.
func (s *UserService) Register(ctx context.Context, in RegisterInput) error {
	if err := s.CheckValid(ctx, in.Username, CheckUsername); err != nil {
		return err
	}
	if err := s.CheckValid(ctx, in.Email, CheckEmail); err != nil {
		return err
	}
	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return apperr.Wrap(err, "Registration failed")
	}
	u := models.User{
		Username: in.Username,
		Password: hash,
		Email:    in.Email,
		Phone:    in.Phone,
		Question: in.Question,
		Answer:   in.Answer,
		Role:     models.RoleCustomer,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return apperr.Wrap(err, "Registration failed")
	}
	return nil
}

// CheckValid reports whether value is still free for the given kind.
func (s *UserService) CheckValid(ctx context.Context, value, kind string) error {
	var (
		n   int64
		err error
	)
	switch strings.TrimSpace(kind) {
	case CheckUsername:
		if n, err = s.users.CountByUsername(ctx, value); err == nil && n > 0 {
			return apperr.Fail("The username already exists")
		}
	case CheckEmail:
		if n, err = s.users.CountByEmail(ctx, value, 0); err == nil && n > 0 {
			return apperr.Fail("The email already exists")
		}
	default:
		return apperr.Fail("Wrong parameter")
	}
	if err != nil {
		return apperr.Wrap(err, "Verification failed")
	}
	return nil
}

// Information reloads the user from the store.
func (s *UserService) Information(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.Fail("The current user cannot be found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load user information")
	}
	return u, nil
}

// ForgetGetQuestion returns the security question of username.
func (s *UserService) ForgetGetQuestion(ctx context.Context, username string) (string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", lookup(err, "The username does not exist")
	}
	if strings.TrimSpace(u.Question) == "" {
		return "", apperr.Fail("The security question is not set")
	}
	return u.Question, nil
}

// ForgetCheckAnswer issues a one-shot reset token when the answer matches.
func (s *UserService) ForgetCheckAnswer(ctx context.Context, username, question, answer string) (string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", lookup(err, "The username does not exist")
	}
	if u.Question != question || u.Answer != answer || answer == "" {
		return "", apperr.Fail("Wrong answer to the security question")
	}
	token := uuid.NewString()
	if err := s.tokens.Set(ctx, forgetTokenPrefix+username, token); err != nil {
		return "", apperr.Wrap(err, "Failed to issue a reset token")
	}
	return token, nil
}

// ForgetResetPassword sets a new password when token matches the one issued
// by ForgetCheckAnswer. The token is single use.
func (s *UserService) ForgetResetPassword(ctx context.Context, username, passwordNew, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.Fail("The token is empty")
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return lookup(err, "The username does not exist")
	}
	key := forgetTokenPrefix + username
	cached, err := s.tokens.Get(ctx, key)
	if err != nil {
		return apperr.Wrap(err, "Failed to read the reset token")
	}
	if cached == "" {
		return apperr.Fail("The token is invalid or expired")
	}
	if cached != token {
		return apperr.Fail("Wrong token, please get a new one")
	}
	if err := s.setPassword(ctx, u.ID, passwordNew); err != nil {
		return err
	}
	if err := s.tokens.Delete(ctx, key); err != nil {
		return apperr.Wrap(err, "Failed to clear the reset token")
	}
	return nil
}

// ResetPassword changes the password of a logged-in user.
func (s *UserService) ResetPassword(ctx context.Context, userID uint, passwordOld, passwordNew string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return lookup(err, "The current user cannot be found")
	}
	if !models.CheckPassword(u.Password, passwordOld) {
		return apperr.Fail("Wrong old password")
	}
	return s.setPassword(ctx, u.ID, passwordNew)
}

func (s *UserService) setPassword(ctx context.Context, id uint, pw string) error {
	hash, err := models.HashPassword(pw)
	if err != nil {
		return apperr.Wrap(err, "Failed to update the password")
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return lookup(err, "Failed to update the password")
	}
	return nil
}

// UpdateInformation changes the supplied profile fields of userID; the
// username is immutable.
func (s *UserService) UpdateInformation(ctx context.Context, userID uint, p store.Profile) (*models.User, error) {
	if p.Email != nil {
		if strings.TrimSpace(*p.Email) == "" {
			return nil, apperr.IllegalArgument()
		}
		n, err := s.users.CountByEmail(ctx, *p.Email, userID)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to update information")
		}
		if n > 0 {
			return nil, apperr.Fail("The email is already in use, please try another one")
		}
	}
	if err := s.users.UpdateProfile(ctx, userID, p); err != nil {
		return nil, lookup(err, "Failed to update information")
	}
	return s.Information(ctx, userID)
}
