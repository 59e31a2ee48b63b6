package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

const productColumns = "id, name, category, price, description, image, highlight"

// SQLiteProvider serves the catalog from a sqlite database, seeded through
// migrations. It implements the same Provider contract as StaticProvider.
type SQLiteProvider struct {
	db *sql.DB
}

func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLiteProvider{db: db}, nil
}

func (p *SQLiteProvider) RunMigrations(migrationsPath string) error {
	driver, err := migratesqlite.WithInstance(p.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

func (p *SQLiteProvider) All(ctx context.Context) ([]Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products ORDER BY rowid", productColumns)
	return p.queryProducts(ctx, query)
}

func (p *SQLiteProvider) GetByID(ctx context.Context, id string) (*Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE id = ?", productColumns)

	var product Product
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.Description,
		&product.Image,
		&product.Highlight,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (p *SQLiteProvider) GetByCategory(ctx context.Context, category string) ([]Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE category = ? ORDER BY rowid", productColumns)
	return p.queryProducts(ctx, query, category)
}

func (p *SQLiteProvider) Search(ctx context.Context, text string) ([]Product, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return p.All(ctx)
	}
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE instr(lower(name), lower(?)) > 0
		   OR instr(lower(description), lower(?)) > 0
		   OR instr(lower(category), lower(?)) > 0
		ORDER BY rowid
	`, productColumns)
	return p.queryProducts(ctx, query, text, text, text)
}

func (p *SQLiteProvider) Featured(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		return []Product{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM products ORDER BY highlight DESC, rowid LIMIT ?", productColumns)
	return p.queryProducts(ctx, query, limit)
}

func (p *SQLiteProvider) Related(ctx context.Context, id string, limit int) ([]Product, error) {
	current, err := p.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return p.Featured(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Product{}, nil
	}

	// Same category first, everything else as backfill.
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE id != ?
		ORDER BY (category = ?) DESC, rowid
		LIMIT ?
	`, productColumns)
	return p.queryProducts(ctx, query, id, current.Category, limit)
}

func (p *SQLiteProvider) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var product Product
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Category,
			&product.Price,
			&product.Description,
			&product.Image,
			&product.Highlight,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}
