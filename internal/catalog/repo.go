package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Products(ctx context.Context, ids []int64) (map[int64]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price::text, product_code, created_at, updated_at
		FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repo) Option(ctx context.Context, productID, optionID int64) (Option, error) {
	var o Option
	err := r.DB.QueryRow(ctx, `
		SELECT id, product_id, size, color, COALESCE(color_code, '')
		FROM options WHERE id=$1 AND product_id=$2`, optionID, productID).
		Scan(&o.ID, &o.ProductID, &o.Size, &o.Color, &o.ColorCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return Option{}, ErrOptionNotFound
	}
	if err != nil {
		return Option{}, err
	}
	return o, nil
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price::text, product_code, created_at, updated_at
		FROM products ORDER BY product_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProducts(rows pgx.Rows) (map[int64]Product, error) {
	out := map[int64]Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func scanProduct(rows pgx.Rows) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := rows.Scan(&p.ID, &p.Name, &price, &p.ProductCode, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, err
	}
	p.Price = d
	return p, nil
}
