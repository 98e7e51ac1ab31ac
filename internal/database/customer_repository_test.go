package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vistalens/booking-backend/internal/models"
)

var customerColumns = []string{"id", "email", "name", "phone", "created_at"}

func TestUpsertCustomerByEmail(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewCustomerRepository(db)

	t.Run("Insert New", func(t *testing.T) {
		now := time.Now()
		returnedID := uuid.New()

		mock.ExpectQuery(`INSERT INTO customers`).
			WithArgs(sqlmock.AnyArg(), "jane@example.com", "Jane Doe", "+905551112233").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(returnedID, now))

		customer := &models.Customer{
			Email: "jane@example.com",
			Name:  "Jane Doe",
			Phone: "+905551112233",
		}

		err := repo.UpsertByEmail(customer)
		require.NoError(t, err)
		assert.Equal(t, returnedID, customer.ID)
		assert.Equal(t, now, customer.CreatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Conflict Keeps Existing ID", func(t *testing.T) {
		existingID := uuid.New()
		created := time.Now().Add(-48 * time.Hour)

		mock.ExpectQuery(`INSERT INTO customers`).
			WithArgs(sqlmock.AnyArg(), "jane@example.com", "Jane Renamed", "+905559998877").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(existingID, created))

		customer := &models.Customer{
			Email: "jane@example.com",
			Name:  "Jane Renamed",
			Phone: "+905559998877",
		}

		err := repo.UpsertByEmail(customer)
		require.NoError(t, err)
		assert.Equal(t, existingID, customer.ID)
		assert.Equal(t, created, customer.CreatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO customers`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.UpsertByEmail(&models.Customer{Email: "jane@example.com"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upsert customer")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetCustomerByEmail(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewCustomerRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		customerID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM customers WHERE email`).
			WithArgs("jane@example.com").
			WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(
				customerID, "jane@example.com", "Jane Doe", "+905551112233", now,
			))

		customer, err := repo.GetByEmail("jane@example.com")
		require.NoError(t, err)
		require.NotNil(t, customer)
		assert.Equal(t, customerID, customer.ID)
		assert.Equal(t, "Jane Doe", customer.Name)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM customers WHERE email`).
			WithArgs("missing@example.com").
			WillReturnRows(sqlmock.NewRows(customerColumns))

		customer, err := repo.GetByEmail("missing@example.com")
		assert.NoError(t, err)
		assert.Nil(t, customer)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListCustomers(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewCustomerRepository(db)

	t.Run("With Search", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM customers`).
			WithArgs("%jane%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery(`SELECT (.+) FROM customers`).
			WithArgs("%jane%", 20, 0).
			WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(
				uuid.New(), "jane@example.com", "Jane Doe", "+905551112233", now,
			))

		customers, total, err := repo.List(models.CustomerListFilter{
			Page:   1,
			Limit:  20,
			Search: "jane",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, customers, 1)
		assert.Equal(t, "jane@example.com", customers[0].Email)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Count Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM customers`).
			WillReturnError(fmt.Errorf("database error"))

		customers, total, err := repo.List(models.CustomerListFilter{Page: 1, Limit: 20})
		assert.Error(t, err)
		assert.Zero(t, total)
		assert.Nil(t, customers)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
