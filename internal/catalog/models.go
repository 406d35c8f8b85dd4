package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	ProductCode string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Option is one purchasable variant of a product. (product, size, color) is
// unique.
type Option struct {
	ID        int64
	ProductID int64
	Size      string
	Color     string
	ColorCode string
}
