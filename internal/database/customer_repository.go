package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// CustomerRepository handles customer database operations. Customers are
// keyed by phone number; repeat bookings refresh name and email.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const upsertCustomerQuery = `
	INSERT INTO customers (id, name, phone, email)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (phone)
	DO UPDATE SET
		name = EXCLUDED.name,
		email = COALESCE(NULLIF(EXCLUDED.email, ''), customers.email)
	RETURNING id, name, phone, email, created_at`

// UpsertTx creates or refreshes a customer inside the booking transaction.
func (r *CustomerRepository) UpsertTx(tx *sqlx.Tx, input models.CustomerInput) (*models.Customer, error) {
	var customer models.Customer
	err := tx.Get(&customer, upsertCustomerQuery, uuid.New().String(), input.Name, input.Phone, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	return &customer, nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(id string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Get(&customer, `SELECT id, name, phone, email, created_at FROM customers WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}
