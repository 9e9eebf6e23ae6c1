package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric_pos_backend/internal/repositories"
)

func newAccessService(t *testing.T) (AccessService, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewAccessService(db, repositories.NewRBACRepository(db)), mock, db
}

func existsRow(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func testNow() time.Time {
	return time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
}

func TestAccessService_Can(t *testing.T) {
	t.Run("admin role allows everything", func(t *testing.T) {
		svc, mock, db := newAccessService(t)
		defer db.Close()

		mock.ExpectQuery(`JOIN roles ro ON ro\.id = ur\.role_id`).
			WithArgs(int64(5), "admin").
			WillReturnRows(existsRow(true))

		allowed, err := svc.Can(5, PermDeleteSales)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("direct grant allows without any role", func(t *testing.T) {
		svc, mock, db := newAccessService(t)
		defer db.Close()

		mock.ExpectQuery(`JOIN roles ro ON ro\.id = ur\.role_id`).
			WillReturnRows(existsRow(false))
		mock.ExpectQuery(`JOIN permissions pe ON pe\.id = up\.permission_id`).
			WithArgs(int64(5), PermCreateSales).
			WillReturnRows(existsRow(true))

		allowed, err := svc.Can(5, PermCreateSales)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("role grant allows", func(t *testing.T) {
		svc, mock, db := newAccessService(t)
		defer db.Close()

		mock.ExpectQuery(`JOIN roles ro ON ro\.id = ur\.role_id`).
			WillReturnRows(existsRow(false))
		mock.ExpectQuery(`JOIN permissions pe ON pe\.id = up\.permission_id`).
			WillReturnRows(existsRow(false))
		mock.ExpectQuery(`JOIN role_permissions rp ON rp\.role_id = ur\.role_id`).
			WithArgs(int64(5), PermViewSales).
			WillReturnRows(existsRow(true))

		allowed, err := svc.Can(5, PermViewSales)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no grant anywhere denies", func(t *testing.T) {
		svc, mock, db := newAccessService(t)
		defer db.Close()

		mock.ExpectQuery(`JOIN roles ro ON ro\.id = ur\.role_id`).
			WillReturnRows(existsRow(false))
		mock.ExpectQuery(`JOIN permissions pe ON pe\.id = up\.permission_id`).
			WillReturnRows(existsRow(false))
		mock.ExpectQuery(`JOIN role_permissions rp ON rp\.role_id = ur\.role_id`).
			WillReturnRows(existsRow(false))

		allowed, err := svc.Can(5, PermManageRoles)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown permission name always denies", func(t *testing.T) {
		svc, mock, db := newAccessService(t)
		defer db.Close()

		allowed, err := svc.Can(5, "launch_rockets")
		assert.ErrorIs(t, err, ErrUnknownPermission)
		assert.False(t, allowed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccessService_ProtectedRoles(t *testing.T) {
	roleColumns := []string{"id", "name", "description", "created_at", "updated_at"}

	t.Run("deleting the admin role is refused", func(t *testing.T) {
		svc, mock, db := newAccessService(t)
		defer db.Close()

		mock.ExpectQuery(`FROM roles WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(roleColumns).AddRow(1, "admin", nil, testNow(), testNow()))
		mock.ExpectQuery(`JOIN role_permissions rp ON rp\.permission_id`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}))

		err := svc.DeleteRole(1)
		assert.ErrorIs(t, err, ErrProtectedRole)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("renaming the customer role is refused", func(t *testing.T) {
		svc, mock, db := newAccessService(t)
		defer db.Close()

		mock.ExpectQuery(`FROM roles WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(roleColumns).AddRow(2, "customer", nil, testNow(), testNow()))
		mock.ExpectQuery(`JOIN role_permissions rp ON rp\.permission_id`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}))

		_, err := svc.UpdateRole(2, RoleRequest{Name: "shopper"})
		assert.ErrorIs(t, err, ErrProtectedRole)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
