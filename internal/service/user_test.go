package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

func registerAlice(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.users.Register(f.ctx, RegisterInput{
		Username: "alice",
		Password: "pw1",
		Email:    "alice@example.com",
		Question: "pet?",
		Answer:   "cat",
	}))
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	u, err := f.users.Login(f.ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.NotEqual(t, "pw1", u.Password)

	msg := failure(t, func() error { _, err := f.users.Login(f.ctx, "alice", "bad"); return err }(), apperr.CodeFailure)
	assert.Equal(t, "Wrong password", msg)

	msg = failure(t, func() error { _, err := f.users.Login(f.ctx, "bob", "pw1"); return err }(), apperr.CodeFailure)
	assert.Equal(t, "The username does not exist", msg)
}

func TestRegisterRejectsTakenNames(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	err := f.users.Register(f.ctx, RegisterInput{Username: "alice", Password: "x", Email: "other@example.com"})
	assert.Equal(t, "The username already exists", failure(t, err, apperr.CodeFailure))

	err = f.users.Register(f.ctx, RegisterInput{Username: "bob", Password: "x", Email: "alice@example.com"})
	assert.Equal(t, "The email already exists", failure(t, err, apperr.CodeFailure))
}

func TestCheckValid(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	assert.NoError(t, f.users.CheckValid(f.ctx, "bob", CheckUsername))
	assert.NoError(t, f.users.CheckValid(f.ctx, "bob@example.com", CheckEmail))
	failure(t, f.users.CheckValid(f.ctx, "alice", CheckUsername), apperr.CodeFailure)
	assert.Equal(t, "Wrong parameter", failure(t, f.users.CheckValid(f.ctx, "alice", " "), apperr.CodeFailure))
}

func TestManageLoginRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	_, err := f.users.ManageLogin(f.ctx, "alice", "pw1")
	failure(t, err, apperr.CodeFailure)

	hash, err := models.HashPassword("root")
	require.NoError(t, err)
	require.NoError(t, f.db.Repos().Users.Create(f.ctx, &models.User{
		Username: "admin", Password: hash, Email: "admin@example.com", Role: models.RoleAdmin,
	}))
	u, err := f.users.ManageLogin(f.ctx, "admin", "root")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestForgetPasswordFlow(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	q, err := f.users.ForgetGetQuestion(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "pet?", q)

	_, err = f.users.ForgetCheckAnswer(f.ctx, "alice", "pet?", "dog")
	failure(t, err, apperr.CodeFailure)

	err = f.users.ForgetResetPassword(f.ctx, "alice", "new", "not-issued")
	assert.Equal(t, "The token is invalid or expired", failure(t, err, apperr.CodeFailure))

	token, err := f.users.ForgetCheckAnswer(f.ctx, "alice", "pet?", "cat")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = f.users.ForgetResetPassword(f.ctx, "alice", "new", "")
	assert.Equal(t, "The token is empty", failure(t, err, apperr.CodeFailure))
	err = f.users.ForgetResetPassword(f.ctx, "alice", "new", "wrong")
	assert.Equal(t, "Wrong token, please get a new one", failure(t, err, apperr.CodeFailure))

	require.NoError(t, f.users.ForgetResetPassword(f.ctx, "alice", "new", token))
	_, err = f.users.Login(f.ctx, "alice", "new")
	assert.NoError(t, err)

	err = f.users.ForgetResetPassword(f.ctx, "alice", "again", token)
	assert.Equal(t, "The token is invalid or expired", failure(t, err, apperr.CodeFailure))
}

func TestForgetQuestionNotSet(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Register(f.ctx, RegisterInput{Username: "bob", Password: "pw", Email: "bob@example.com"}))

	_, err := f.users.ForgetGetQuestion(f.ctx, "bob")
	failure(t, err, apperr.CodeFailure)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)
	u, err := f.users.Login(f.ctx, "alice", "pw1")
	require.NoError(t, err)

	failure(t, f.users.ResetPassword(f.ctx, u.ID, "nope", "pw2"), apperr.CodeFailure)
	require.NoError(t, f.users.ResetPassword(f.ctx, u.ID, "pw1", "pw2"))
	_, err = f.users.Login(f.ctx, "alice", "pw2")
	assert.NoError(t, err)
}

func TestUpdateInformation(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)
	require.NoError(t, f.users.Register(f.ctx, RegisterInput{Username: "bob", Password: "pw", Email: "bob@example.com"}))
	alice, err := f.users.Login(f.ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = f.users.UpdateInformation(f.ctx, alice.ID, store.Profile{Email: ptr("bob@example.com")})
	failure(t, err, apperr.CodeFailure)

	u, err := f.users.UpdateInformation(f.ctx, alice.ID, store.Profile{
		Email: ptr("alice@example.com"), Phone: ptr("123"), Question: ptr("city?"), Answer: ptr("oslo"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "123", u.Phone)
	assert.Equal(t, "city?", u.Question)
}

func TestUpdateInformationKeepsOmittedFields(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)
	alice, err := f.users.Login(f.ctx, "alice", "pw1")
	require.NoError(t, err)

	u, err := f.users.UpdateInformation(f.ctx, alice.ID, store.Profile{
		Email: ptr("alice2@example.com"), Phone: ptr("2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2@example.com", u.Email)
	assert.Equal(t, "2", u.Phone)

	q, err := f.users.ForgetGetQuestion(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "pet?", q)
	_, err = f.users.ForgetCheckAnswer(f.ctx, "alice", "pet?", "cat")
	assert.NoError(t, err, "the answer survives a partial update")

	u, err = f.users.UpdateInformation(f.ctx, alice.ID, store.Profile{})
	require.NoError(t, err)
	assert.Equal(t, "alice2@example.com", u.Email)

	_, err = f.users.UpdateInformation(f.ctx, alice.ID, store.Profile{Email: ptr(" ")})
	failure(t, err, apperr.CodeIllegalArgument)
}
