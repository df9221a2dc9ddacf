package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

const employeeColumns = `id, full_name, phone, position, login, password_hash, role, active, created_at, updated_at`

// EmployeeRepository manages persistence for staff.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns staff matching the filter ordered by name.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, "role = ?")
		args = append(args, string(*filter.Role))
	}
	if filter.Active != nil {
		conditions = append(conditions, "active = ?")
		args = append(args, *filter.Active)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY full_name ASC, id ASC"

	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// FindByID fetches a staff member by id.
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*models.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE id = ?"
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &employee, nil
}

// FindByLogin fetches a staff member by login name.
func (r *EmployeeRepository) FindByLogin(ctx context.Context, login string) (*models.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE login = ? LIMIT 1"
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, login); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find employee by login: %w", err)
	}
	return &employee, nil
}

// ExistsByLogin checks whether another staff member uses login.
func (r *EmployeeRepository) ExistsByLogin(ctx context.Context, login string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM employees WHERE login = ?"
	args := []interface{}{login}
	if excludeID > 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check employee login: %w", err)
	}
	return true, nil
}

// Create inserts a staff member and sets its id.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	employee.CreatedAt = stamp(employee.CreatedAt)
	employee.UpdatedAt = employee.CreatedAt

	const query = `INSERT INTO employees (full_name, phone, position, login, password_hash, role, active, created_at, updated_at)
VALUES (:full_name, :phone, :position, :login, :password_hash, :role, :active, :created_at, :updated_at)`
	res, err := r.db.NamedExecContext(ctx, query, employee)
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read employee id: %w", err)
	}
	employee.ID = id
	return nil
}

// Update modifies profile fields. The password hash is changed through
// UpdatePassword only.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = stamp(employee.UpdatedAt)
	const query = `UPDATE employees SET full_name = :full_name, phone = :phone, position = :position, login = :login,
role = :role, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *EmployeeRepository) UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error {
	const query = `UPDATE employees SET password_hash = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, hash, stamp(at), id); err != nil {
		return fmt.Errorf("update employee password: %w", err)
	}
	return nil
}

// Delete removes a staff member. Groups they train keep existing without a
// trainer.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
