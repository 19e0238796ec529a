package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/models"
	"storefront/internal/paging"
)

func newMock(t *testing.T) (*Gorm, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGorm(db), mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func TestFindByUsernameNotFound(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectQuery(q(`SELECT * FROM "users" WHERE username = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	_, err := g.Repos().Users.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsername(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectQuery(q(`SELECT * FROM "users" WHERE username = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "role"}).
			AddRow(7, "alice", "alice@example.com", "admin"))

	u, err := g.Repos().Users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, uint(7), u.ID)
	assert.True(t, u.IsAdmin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByEmailExcludesUser(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectQuery(q(`SELECT count(*) FROM "users" WHERE email = $1 AND id <> $2`)).
		WithArgs("a@example.com", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := g.Repos().Users.CountByEmail(context.Background(), "a@example.com", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileWritesSuppliedColumnsOnly(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectExec(q(`UPDATE "users" SET "phone"=$1,"updated_at"=$2 WHERE id = $3`)).
		WithArgs("2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	phone := "2"
	require.NoError(t, g.Repos().Users.UpdateProfile(context.Background(), 7, Profile{Phone: &phone}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecreaseStockShortage(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectExec(q(`UPDATE "products" SET "stock"=stock - $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := g.Repos().Products.DecreaseStock(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrStockShortage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecreaseStock(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectExec(q(`UPDATE "products" SET "stock"=stock - $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, g.Repos().Products.DecreaseStock(context.Background(), 1, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumQuantityEmptyCart(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectQuery(q(`SELECT COALESCE(SUM(quantity), 0) FROM "cart_items" WHERE user_id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	n, err := g.Repos().Carts.SumQuantity(context.Background(), 9)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkShippedRequiresPaid(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectExec(q(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := g.Repos().Orders.MarkShipped(context.Background(), 4, time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListShippingsPages(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectQuery(q(`SELECT count(*) FROM "shippings" WHERE user_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(q(`SELECT * FROM "shippings" WHERE user_id = $1 ORDER BY id asc`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "receiver_name"}).AddRow(11, 2, "Alice"))

	list, total, err := g.Repos().Shippings.ListByUser(context.Background(), 2, paging.New(2, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].ReceiverName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRollsBack(t *testing.T) {
	g, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "products" SET "stock"=stock - $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := g.Transaction(context.Background(), func(r Repos) error {
		if err := r.Products.DecreaseStock(context.Background(), 1, 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
