package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/plant-shop/internal/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS plants (
	id              TEXT PRIMARY KEY,
	common_name     TEXT NOT NULL,
	scientific_name TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	care_tips       JSONB,
	price           DOUBLE PRECISION NOT NULL DEFAULT 0,
	image           TEXT NOT NULL DEFAULT '',
	image_url       TEXT NOT NULL DEFAULT '',
	toxicity        TEXT NOT NULL DEFAULT '',
	maintenance     TEXT NOT NULL DEFAULT '',
	air_purifying   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS banners (
	id         TEXT PRIMARY KEY,
	file_name  TEXT NOT NULL UNIQUE,
	file_path  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cart_items (
	user_id     TEXT NOT NULL,
	product_id  TEXT NOT NULL,
	common_name TEXT NOT NULL DEFAULT '',
	cart_count  INTEGER NOT NULL CHECK (cart_count BETWEEN 1 AND 20),
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_cart_items_product ON cart_items(product_id);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	avatar        TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'customer',
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_favorites (
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	product_id TEXT NOT NULL,
	PRIMARY KEY (user_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_user_favorites_product ON user_favorites(product_id);
`

const plantColumns = `id, common_name, scientific_name, category, description, care_tips,
	price, image, image_url, toxicity, maintenance, air_purifying`

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-based store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// EnsureSchema creates the tables if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

// Plants

func (s *PostgresStore) ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (model.Plant, error) {
	var p model.Plant
	var tips []byte
	err := row.Scan(&p.ID, &p.CommonName, &p.ScientificName, &p.Category, &p.Description, &tips,
		&p.Price, &p.Image, &p.ImageURL, &p.Toxicity, &p.Maintenance, &p.AirPurifying)
	if err != nil {
		return p, err
	}
	if len(tips) > 0 {
		p.CareTips = &model.CareTips{}
		if err := json.Unmarshal(tips, p.CareTips); err != nil {
			return p, fmt.Errorf("care tips: %w", err)
		}
	}
	return p, nil
}

func (s *PostgresStore) queryPlants(ctx context.Context, query string, args ...any) ([]model.Plant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plants := []model.Plant{}
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

func (s *PostgresStore) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = $1`, id)
	p, err := scanPlant(row)
	if err != nil {
		return nil, sqlErr(err)
	}
	return &p, nil
}

func (s *PostgresStore) GetPlantsByIDs(ctx context.Context, ids []string) ([]model.Plant, error) {
	if len(ids) == 0 {
		return []model.Plant{}, nil
	}
	return s.queryPlants(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = ANY($1) ORDER BY common_name`, pq.Array(ids))
}

func (s *PostgresStore) ListPlants(ctx context.Context) ([]model.Plant, error) {
	return s.queryPlants(ctx, `SELECT `+plantColumns+` FROM plants ORDER BY common_name`)
}

func (s *PostgresStore) SearchPlants(ctx context.Context, term string) ([]model.Plant, error) {
	pattern := "%" + escapeLike(term) + "%"
	return s.queryPlants(ctx, `SELECT `+plantColumns+` FROM plants
		WHERE common_name ILIKE $1 OR scientific_name ILIKE $1
		ORDER BY common_name`, pattern)
}

func (s *PostgresStore) CreatePlant(ctx context.Context, plant *model.Plant) error {
	if plant.ID == "" {
		plant.ID = uuid.New().String()
	}
	tips, err := careTipsJSON(plant.CareTips)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plants (`+plantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, plant.ID, plant.CommonName, plant.ScientificName, plant.Category, plant.Description, tips,
		plant.Price, plant.Image, plant.ImageURL, plant.Toxicity, plant.Maintenance, plant.AirPurifying)
	return err
}

func (s *PostgresStore) UpdatePlant(ctx context.Context, id string, patch model.PlantPatch) (*model.Plant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = $1 FOR UPDATE`, id)
	p, err := scanPlant(row)
	if err != nil {
		return nil, sqlErr(err)
	}
	patch.Apply(&p)

	tips, err := careTipsJSON(p.CareTips)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE plants SET common_name = $2, scientific_name = $3, category = $4, description = $5,
			care_tips = $6, price = $7, image = $8, image_url = $9, toxicity = $10,
			maintenance = $11, air_purifying = $12
		WHERE id = $1
	`, id, p.CommonName, p.ScientificName, p.Category, p.Description, tips,
		p.Price, p.Image, p.ImageURL, p.Toxicity, p.Maintenance, p.AirPurifying)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) DeletePlant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PostgresStore) ListBanners(ctx context.Context) ([]model.Banner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, file_name, file_path, created_at FROM banners ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banners := []model.Banner{}
	for rows.Next() {
		var b model.Banner
		if err := rows.Scan(&b.ID, &b.FileName, &b.FilePath, &b.CreatedAt); err != nil {
			return nil, err
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}

// Cart

const cartColumns = `user_id, product_id, common_name, cart_count, created_at, updated_at`

func scanCartEntry(row rowScanner) (*model.CartEntry, error) {
	var e model.CartEntry
	if err := row.Scan(&e.UserID, &e.ProductID, &e.CommonName, &e.Quantity, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, sqlErr(err)
	}
	return &e, nil
}

func (s *PostgresStore) UpsertCartEntry(ctx context.Context, userID, productID string, quantity int, commonName string) (*model.CartEntry, error) {
	now := time.Now()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (`+cartColumns+`)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			common_name = EXCLUDED.common_name,
			cart_count = EXCLUDED.cart_count,
			updated_at = EXCLUDED.updated_at
		RETURNING `+cartColumns, userID, productID, commonName, quantity, now)
	return scanCartEntry(row)
}

func (s *PostgresStore) AdjustCartEntry(ctx context.Context, userID, productID string, delta, max int, commonName string) (*model.CartEntry, error) {
	if delta > max || -delta > max {
		return nil, ErrOutOfRange
	}
	if delta > 0 {
		return s.incrementCartEntry(ctx, userID, productID, delta, max, commonName)
	}
	return s.decrementCartEntry(ctx, userID, productID, -delta)
}

// incrementCartEntry inserts or adds in one statement so concurrent first
// inserts both count. A conflicting row whose sum would pass max is left
// alone and no row comes back.
func (s *PostgresStore) incrementCartEntry(ctx context.Context, userID, productID string, delta, max int, commonName string) (*model.CartEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (`+cartColumns+`)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			cart_count = cart_items.cart_count + EXCLUDED.cart_count,
			common_name = COALESCE(NULLIF(EXCLUDED.common_name, ''), cart_items.common_name),
			updated_at = EXCLUDED.updated_at
		WHERE cart_items.cart_count + EXCLUDED.cart_count <= $6
		RETURNING `+cartColumns, userID, productID, commonName, delta, time.Now(), max)
	entry, err := scanCartEntry(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrOutOfRange
	}
	return entry, err
}

// decrementCartEntry never creates a row, so locking the existing one is
// enough. Reaching zero deletes the entry.
func (s *PostgresStore) decrementCartEntry(ctx context.Context, userID, productID string, by int) (*model.CartEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := scanCartEntry(tx.QueryRowContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 AND product_id = $2 FOR UPDATE`,
		userID, productID))
	if err != nil {
		return nil, err
	}

	next := entry.Quantity - by
	if next < 0 {
		return nil, ErrOutOfRange
	}
	entry.Quantity = next
	entry.UpdatedAt = time.Now()

	if next == 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_items SET cart_count = $3, updated_at = $4 WHERE user_id = $1 AND product_id = $2`,
			userID, productID, next, entry.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *PostgresStore) DeleteCartEntry(ctx context.Context, userID, productID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PostgresStore) GetCartEntry(ctx context.Context, userID, productID string) (*model.CartEntry, error) {
	return scanCartEntry(s.db.QueryRowContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID))
}

func (s *PostgresStore) ListCartEntries(ctx context.Context, userID string) ([]model.CartEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.CartEntry
	for rows.Next() {
		e, err := scanCartEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) CartProductIDs(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT product_id FROM cart_items`)
}

func (s *PostgresStore) DeleteCartEntriesByProduct(ctx context.Context, productID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE product_id = $1`, productID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Users

const userColumns = `id, email, password_hash, name, phone, address, avatar, role, created_at`

func (s *PostgresStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	role := user.Role
	if role == "" {
		role = model.RoleCustomer
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.Email, user.PasswordHash, user.Name, user.Phone, user.Address, user.Avatar, role, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if user.Favorites == nil {
		user.Favorites = []string{}
	}
	return err
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Address, &u.Avatar, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, sqlErr(err)
	}
	favorites, err := s.queryStrings(ctx, `SELECT product_id FROM user_favorites WHERE user_id = $1`, u.ID)
	if err != nil {
		return nil, err
	}
	u.Favorites = favorites
	return &u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	var sets []string
	args := []any{id}
	add := func(column string, v *string) {
		if v != nil {
			args = append(args, *v)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("name", update.Name)
	add("email", update.Email)
	add("phone", update.Phone)
	add("address", update.Address)
	add("avatar", update.Avatar)

	if len(sets) > 0 {
		res, err := s.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		if err != nil {
			return nil, err
		}
		if err := requireAffected(res); err != nil {
			return nil, err
		}
	}
	return s.GetUser(ctx, id)
}

func (s *PostgresStore) ToggleFavorite(ctx context.Context, userID, productID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// lock the owner row so concurrent toggles of one user serialize
	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		return false, sqlErr(err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if removed == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_favorites (user_id, product_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, userID, productID)
		if err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return removed == 0, nil
}

func (s *PostgresStore) FavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return s.queryStrings(ctx, `SELECT product_id FROM user_favorites WHERE user_id = $1`, userID)
}

func (s *PostgresStore) FavoriteProductIDs(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT product_id FROM user_favorites`)
}

func (s *PostgresStore) RemoveFavoriteEverywhere(ctx context.Context, productID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_favorites WHERE product_id = $1`, productID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PostgresStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func careTipsJSON(tips *model.CareTips) (any, error) {
	if tips == nil {
		return nil, nil
	}
	return json.Marshal(tips)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func sqlErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
