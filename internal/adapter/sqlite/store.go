package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/proviq/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements domain.SubscriptionRepository and domain.ComponentStore
// using SQLite. Config and metadata maps live in JSON TEXT columns.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready store.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

// --- Subscriptions ---

func (s *Store) Create(ctx context.Context, sub domain.Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, client_id, product_name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ClientID, sub.ProductName, string(sub.Status),
		sub.CreatedAt.Format(timeFormat),
		sub.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (domain.Subscription, error) {
	return s.scanSubscription(s.db.QueryRowContext(ctx,
		`SELECT id, client_id, product_name, status, created_at, updated_at
		 FROM subscriptions WHERE id = ?`, id,
	))
}

func (s *Store) List(ctx context.Context, filter domain.ListFilter) ([]domain.Subscription, error) {
	query := `SELECT id, client_id, product_name, status, created_at, updated_at FROM subscriptions`
	var args []any

	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		sub, err := s.scanSubscriptionFromRows(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("updating subscription status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

// --- Component definitions ---

func (s *Store) CreateDefinition(ctx context.Context, def domain.ComponentDefinition) error {
	metadata, err := marshalMap(def.Metadata)
	if err != nil {
		return fmt.Errorf("encoding definition metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO component_definitions (id, component_key, name, provisioning_required, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		def.ID, def.ComponentKey, def.Name, boolToInt(def.ProvisioningRequired),
		metadata, def.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ComponentKeyConflictError{ComponentKey: def.ComponentKey}
		}
		return fmt.Errorf("inserting component definition: %w", err)
	}
	return nil
}

func (s *Store) GetDefinitionByKey(ctx context.Context, componentKey string) (domain.ComponentDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, component_key, name, provisioning_required, metadata, created_at
		 FROM component_definitions WHERE component_key = ?`, componentKey,
	)

	var def domain.ComponentDefinition
	var required int
	var metadata, createdAt string

	err := row.Scan(&def.ID, &def.ComponentKey, &def.Name, &required, &metadata, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ComponentDefinition{}, domain.ErrDefinitionNotFound
		}
		return domain.ComponentDefinition{}, fmt.Errorf("scanning component definition: %w", err)
	}

	def.ProvisioningRequired = required == 1
	def.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	if def.Metadata, err = unmarshalMap(metadata); err != nil {
		return domain.ComponentDefinition{}, fmt.Errorf("decoding definition metadata: %w", err)
	}

	return def, nil
}

func (s *Store) ListDefinitions(ctx context.Context) ([]domain.ComponentDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, component_key, name, provisioning_required, metadata, created_at
		 FROM component_definitions ORDER BY component_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing component definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.ComponentDefinition
	for rows.Next() {
		var def domain.ComponentDefinition
		var required int
		var metadata, createdAt string

		if err := rows.Scan(&def.ID, &def.ComponentKey, &def.Name, &required, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning component definition row: %w", err)
		}

		def.ProvisioningRequired = required == 1
		def.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		if def.Metadata, err = unmarshalMap(metadata); err != nil {
			return nil, fmt.Errorf("decoding definition metadata: %w", err)
		}

		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// --- Subscribed components ---

const componentColumns = `sc.id, sc.subscription_id, sc.definition_id, sc.config, sc.metadata,
	 sc.is_active, sc.created_at, sc.updated_at,
	 cd.component_key, cd.name, cd.provisioning_required, cd.metadata, cd.created_at`

func (s *Store) CreateComponent(ctx context.Context, c domain.SubscribedComponent) error {
	config, err := marshalMap(c.Config)
	if err != nil {
		return fmt.Errorf("encoding component config: %w", err)
	}
	metadata, err := marshalMap(c.Metadata)
	if err != nil {
		return fmt.Errorf("encoding component metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subscribed_components (id, subscription_id, definition_id, config, metadata, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SubscriptionID, c.DefinitionID, config, metadata, boolToInt(c.IsActive),
		c.CreatedAt.Format(timeFormat), c.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting subscribed component: %w", err)
	}
	return nil
}

func (s *Store) GetComponent(ctx context.Context, id string) (domain.SubscribedComponent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+componentColumns+`
		 FROM subscribed_components sc
		 JOIN component_definitions cd ON cd.id = sc.definition_id
		 WHERE sc.id = ?`, id,
	)

	c, err := scanComponent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.SubscribedComponent{}, domain.ErrComponentNotFound
		}
		return domain.SubscribedComponent{}, err
	}
	return c, nil
}

func (s *Store) ListBySubscription(ctx context.Context, subscriptionID string) ([]domain.SubscribedComponent, error) {
	// The caller needs to distinguish "no such subscription" from "no
	// components yet"; only the former aborts a dispatch.
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM subscriptions WHERE id = ?`, subscriptionID,
	).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("checking subscription: %w", err)
	}

	// rowid keeps insertion order even when created_at timestamps tie.
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+componentColumns+`
		 FROM subscribed_components sc
		 JOIN component_definitions cd ON cd.id = sc.definition_id
		 WHERE sc.subscription_id = ?
		 ORDER BY sc.rowid`, subscriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing subscribed components: %w", err)
	}
	defer rows.Close()

	var components []domain.SubscribedComponent
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}

	return components, rows.Err()
}

func (s *Store) UpdateComponentState(ctx context.Context, id string, metadata domain.Metadata, isActive bool) error {
	encoded, err := marshalMap(metadata)
	if err != nil {
		return fmt.Errorf("encoding component metadata: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE subscribed_components SET metadata = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		encoded, boolToInt(isActive), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("updating component state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrComponentNotFound
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanComponent(row scanner) (domain.SubscribedComponent, error) {
	var c domain.SubscribedComponent
	var config, metadata, createdAt, updatedAt string
	var isActive, defRequired int
	var defMetadata, defCreatedAt string

	err := row.Scan(
		&c.ID, &c.SubscriptionID, &c.DefinitionID, &config, &metadata,
		&isActive, &createdAt, &updatedAt,
		&c.Definition.ComponentKey, &c.Definition.Name, &defRequired, &defMetadata, &defCreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.SubscribedComponent{}, err
		}
		return domain.SubscribedComponent{}, fmt.Errorf("scanning subscribed component: %w", err)
	}

	c.Definition.ID = c.DefinitionID
	c.Definition.ProvisioningRequired = defRequired == 1
	c.Definition.CreatedAt, _ = time.Parse(timeFormat, defCreatedAt)
	c.IsActive = isActive == 1
	c.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	c.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	if c.Config, err = unmarshalMap(config); err != nil {
		return domain.SubscribedComponent{}, fmt.Errorf("decoding component config: %w", err)
	}
	raw, err := unmarshalMap(metadata)
	if err != nil {
		return domain.SubscribedComponent{}, fmt.Errorf("decoding component metadata: %w", err)
	}
	c.Metadata = domain.Metadata(raw)
	if c.Definition.Metadata, err = unmarshalMap(defMetadata); err != nil {
		return domain.SubscribedComponent{}, fmt.Errorf("decoding definition metadata: %w", err)
	}

	return c, nil
}

func (s *Store) scanSubscription(row *sql.Row) (domain.Subscription, error) {
	var sub domain.Subscription
	var status, createdAt, updatedAt string

	err := row.Scan(&sub.ID, &sub.ClientID, &sub.ProductName, &status, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Subscription{}, domain.ErrSubscriptionNotFound
		}
		return domain.Subscription{}, fmt.Errorf("scanning subscription: %w", err)
	}

	sub.Status = domain.SubscriptionStatus(status)
	sub.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	sub.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return sub, nil
}

func (s *Store) scanSubscriptionFromRows(rows *sql.Rows) (domain.Subscription, error) {
	var sub domain.Subscription
	var status, createdAt, updatedAt string

	err := rows.Scan(&sub.ID, &sub.ClientID, &sub.ProductName, &status, &createdAt, &updatedAt)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("scanning subscription row: %w", err)
	}

	sub.Status = domain.SubscriptionStatus(status)
	sub.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	sub.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return sub, nil
}

func marshalMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalMap(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
