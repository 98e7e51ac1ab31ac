package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vistalens/booking-backend/internal/models"
)

var customerSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"email":      "email",
}

// CustomerRepository handles database operations for the customers table
type CustomerRepository struct {
	db DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// UpsertByEmail inserts or refreshes a customer keyed by email. Name and
// phone are updated on conflict so the record tracks the latest booking
// attempt.
func (r *CustomerRepository) UpsertByEmail(customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, email, name, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, phone = EXCLUDED.phone
		RETURNING id, created_at
	`

	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}

	err := r.db.QueryRow(query, customer.ID, customer.Email, customer.Name, customer.Phone).
		Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}

	return nil
}

// GetByEmail retrieves a customer by email
func (r *CustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	query := `
		SELECT id, email, name, phone, created_at
		FROM customers
		WHERE email = $1
	`

	var customer models.Customer
	err := r.db.Get(&customer, query, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}

	return &customer, nil
}

// List returns a page of customers matching the filter plus the total count
func (r *CustomerRepository) List(filter models.CustomerListFilter) ([]models.Customer, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Search != "" {
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers WHERE %s", whereClause)
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	sortCol, ok := customerSortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	sortDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortDir = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, email, name, phone, created_at
		FROM customers
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortCol, sortDir, argIdx, argIdx+1)

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	customers := []models.Customer{}
	if err := r.db.Select(&customers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, total, nil
}
