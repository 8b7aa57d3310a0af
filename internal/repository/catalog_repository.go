package repository

import (
	"context"
	"database/sql"

	"github.com/ayoub195/safisaana/internal/models"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Products

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, currency, image_url, in_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.ImageURL, p.InStock, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), price, currency, COALESCE(image_url, ''), in_stock, created_at, updated_at
		FROM products WHERE id = $1
	`
	p := &models.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency, &p.ImageURL, &p.InStock, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), price, currency, COALESCE(image_url, ''), in_stock, created_at, updated_at
		FROM products ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency, &p.ImageURL, &p.InStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *CatalogRepository) UpdateProduct(ctx context.Context, p *models.Product) (bool, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, currency = $4, image_url = $5, in_stock = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		p.Name, p.Description, p.Price, p.Currency, p.ImageURL, p.InStock, p.UpdatedAt, p.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *CatalogRepository) DeleteProduct(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Courses

func (r *CatalogRepository) CreateCourse(ctx context.Context, c *models.Course) error {
	query := `
		INSERT INTO courses (id, title, description, price, currency, instructor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, c.Description, c.Price, c.Currency, c.Instructor, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CatalogRepository) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), price, currency, COALESCE(instructor, ''), created_at, updated_at
		FROM courses WHERE id = $1
	`
	c := &models.Course{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Description, &c.Price, &c.Currency, &c.Instructor, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *CatalogRepository) ListCourses(ctx context.Context) ([]*models.Course, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), price, currency, COALESCE(instructor, ''), created_at, updated_at
		FROM courses ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		c := &models.Course{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.Currency, &c.Instructor, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *CatalogRepository) UpdateCourse(ctx context.Context, c *models.Course) (bool, error) {
	query := `
		UPDATE courses
		SET title = $1, description = $2, price = $3, currency = $4, instructor = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		c.Title, c.Description, c.Price, c.Currency, c.Instructor, c.UpdatedAt, c.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *CatalogRepository) DeleteCourse(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Ebooks

func (r *CatalogRepository) CreateEbook(ctx context.Context, e *models.Ebook) error {
	query := `
		INSERT INTO ebooks (id, title, description, price, currency, author, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Price, e.Currency, e.Author, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *CatalogRepository) GetEbook(ctx context.Context, id string) (*models.Ebook, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), price, currency, COALESCE(author, ''), created_at, updated_at
		FROM ebooks WHERE id = $1
	`
	e := &models.Ebook{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.Price, &e.Currency, &e.Author, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *CatalogRepository) ListEbooks(ctx context.Context) ([]*models.Ebook, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), price, currency, COALESCE(author, ''), created_at, updated_at
		FROM ebooks ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ebooks []*models.Ebook
	for rows.Next() {
		e := &models.Ebook{}
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Price, &e.Currency, &e.Author, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		ebooks = append(ebooks, e)
	}
	return ebooks, rows.Err()
}

func (r *CatalogRepository) UpdateEbook(ctx context.Context, e *models.Ebook) (bool, error) {
	query := `
		UPDATE ebooks
		SET title = $1, description = $2, price = $3, currency = $4, author = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		e.Title, e.Description, e.Price, e.Currency, e.Author, e.UpdatedAt, e.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *CatalogRepository) DeleteEbook(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ebooks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
