package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Seed inserts products when the catalog is empty. It reports whether
// anything was inserted. Ids that already exist are skipped.
func Seed(ctx context.Context, repo Repository, products []Product) (bool, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return false, errors.Wrap(err, "count products")
	}
	if n > 0 {
		zctx.From(ctx).Debug("Catalog already seeded", zap.Int("count", n))
		return false, nil
	}
	if err := repo.InsertMissing(ctx, products); err != nil {
		return false, errors.Wrap(err, "insert products")
	}
	zctx.From(ctx).Info("Seeded catalog", zap.Int("count", len(products)))
	return true, nil
}

// ParseSeed decodes a JSON array of products. Prices may be given as JSON
// strings or numbers.
func ParseSeed(data []byte) ([]Product, error) {
	var products []Product
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var p Product
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				p.ID, err = d.Str()
			case "name":
				p.Name, err = d.Str()
			case "description":
				p.Description, err = d.Str()
			case "category":
				p.Category, err = d.Str()
			case "image":
				p.Image, err = d.Str()
			case "stock":
				p.Stock, err = d.Int()
			case "price":
				p.Price, err = decodePrice(d)
			default:
				return d.Skip()
			}
			if err != nil {
				return errors.Wrapf(err, "field %q", key)
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "product %d", len(products))
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	return products, nil
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(n.String())
}
