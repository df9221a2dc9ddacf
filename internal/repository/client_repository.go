package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

const clientColumns = `c.id, c.full_name, c.birth_date, c.phone, c.document_type, c.document_number, c.notes, c.created_at, c.updated_at`

// ClientRepository manages persistence for clients and their guardians.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs a ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// List returns clients matching filters along with the total count.
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	base := "FROM clients c WHERE 1=1"
	var conditions []string
	var args []interface{}

	if search := models.SearchKey(filter.Search); search != "" {
		conditions = append(conditions, "c.search_key LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(search)+"%")
	}
	if filter.GroupID > 0 {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM group_members gm WHERE gm.client_id = c.id AND gm.group_id = ?)")
		args = append(args, filter.GroupID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "c.full_name",
		"birth_date": "c.birth_date",
		"created_at": "c.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "c.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	_, size, offset := paginate(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, c.id ASC LIMIT %d OFFSET %d", clientColumns, base, column, order, size, offset)
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}
	return clients, total, nil
}

// ListAll returns every client ordered by name.
func (r *ClientRepository) ListAll(ctx context.Context) ([]models.Client, error) {
	query := "SELECT " + clientColumns + " FROM clients c ORDER BY c.full_name ASC, c.id ASC"
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("list all clients: %w", err)
	}
	return clients, nil
}

// FindByID fetches a client with its guardians.
func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*models.Client, error) {
	query := "SELECT " + clientColumns + " FROM clients c WHERE c.id = ?"
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	parents, err := r.ListParents(ctx, id)
	if err != nil {
		return nil, err
	}
	client.Parents = parents
	return &client, nil
}

// ExistsByNameAndBirthDate reports whether another client has the same full
// name and birth date. A missing birth date only matches another missing one.
func (r *ClientRepository) ExistsByNameAndBirthDate(ctx context.Context, fullName string, birthDate *models.Date, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM clients WHERE full_name = ? AND birth_date IS ?"
	args := []interface{}{fullName, birthDate}
	if excludeID > 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check duplicate client: %w", err)
	}
	return true, nil
}

// Create inserts a client and sets its id. Guardians are written separately
// with ReplaceParents.
func (r *ClientRepository) Create(ctx context.Context, exec sqlx.ExtContext, client *models.Client) error {
	client.CreatedAt = stamp(client.CreatedAt)
	client.UpdatedAt = client.CreatedAt

	const query = `INSERT INTO clients (full_name, birth_date, phone, document_type, document_number, notes, search_key, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := target(r.db, exec).ExecContext(ctx, query,
		client.FullName, client.BirthDate, client.Phone, client.DocumentType, client.DocumentNumber, client.Notes,
		models.ClientSearchKey(client.FullName, client.Phone), client.CreatedAt, client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read client id: %w", err)
	}
	client.ID = id
	return nil
}

// Update modifies a client's own fields.
func (r *ClientRepository) Update(ctx context.Context, exec sqlx.ExtContext, client *models.Client) error {
	client.UpdatedAt = stamp(client.UpdatedAt)
	const query = `UPDATE clients SET full_name = ?, birth_date = ?, phone = ?, document_type = ?, document_number = ?, notes = ?,
search_key = ?, updated_at = ? WHERE id = ?`
	res, err := target(r.db, exec).ExecContext(ctx, query,
		client.FullName, client.BirthDate, client.Phone, client.DocumentType, client.DocumentNumber, client.Notes,
		models.ClientSearchKey(client.FullName, client.Phone), client.UpdatedAt, client.ID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a client; guardians, memberships, assignments and
// attendance rows go with it.
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListParents returns the guardians of a client.
func (r *ClientRepository) ListParents(ctx context.Context, clientID int64) ([]models.ClientParent, error) {
	const query = `SELECT id, client_id, full_name, phone, relation FROM client_parents WHERE client_id = ? ORDER BY id ASC`
	var parents []models.ClientParent
	if err := r.db.SelectContext(ctx, &parents, query, clientID); err != nil {
		return nil, fmt.Errorf("list client parents: %w", err)
	}
	return parents, nil
}

// ReplaceParents swaps the guardian list of a client for parents.
func (r *ClientRepository) ReplaceParents(ctx context.Context, exec sqlx.ExtContext, clientID int64, parents []models.ClientParent) error {
	q := target(r.db, exec)
	if _, err := q.ExecContext(ctx, `DELETE FROM client_parents WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("clear client parents: %w", err)
	}
	for i := range parents {
		p := &parents[i]
		p.ClientID = clientID
		res, err := q.ExecContext(ctx, `INSERT INTO client_parents (client_id, full_name, phone, relation) VALUES (?, ?, ?, ?)`,
			clientID, p.FullName, p.Phone, p.Relation)
		if err != nil {
			return fmt.Errorf("insert client parent: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("read client parent id: %w", err)
		}
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
