package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
	"github.com/xenking/brewhaven-cafe/internal/domain/order"
	"github.com/xenking/brewhaven-cafe/internal/domain/product"
)

const maxBodySize = 1 << 20

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("price")
	e.Float64(p.Price.InexactFloat64())
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("image")
	e.Str(p.Image)
	e.ObjEnd()
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.ArrStart()
	for _, p := range products {
		encodeProduct(e, p)
	}
	e.ArrEnd()
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

func encodeCartItems(e *jx.Encoder, items []cart.Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Float64(it.Price.InexactFloat64())
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("image")
		e.Str(it.Image)
		e.FieldStart("category")
		e.Str(it.Category)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("user_id")
	e.Str(o.UserID)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.ArrStart()
	for _, o := range orders {
		encodeOrder(e, o)
	}
	e.ArrEnd()
}

// writeJSON encodes the body with fn and writes it with status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeField(w http.ResponseWriter, status int, field, value string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart(field)
		e.Str(value)
		e.ObjEnd()
	})
}

// writeDetail writes {"detail": msg}, the body of every HTTP error.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeField(w, status, "detail", msg)
}

// writeMessage writes a 200 {"message": msg}.
func writeMessage(w http.ResponseWriter, msg string) {
	writeField(w, http.StatusOK, "message", msg)
}

// writeSoftError writes a 200 {"error": msg}. Cart and order mutations
// report store failures this way.
func writeSoftError(w http.ResponseWriter, msg string) {
	writeField(w, http.StatusOK, "error", msg)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return data, nil
}

type loginRequest struct {
	Username string
	Password string
}

func decodeLogin(data []byte) (req loginRequest, err error) {
	var hasUser, hasPass bool
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "username":
			req.Username, err = d.Str()
			hasUser = true
		case "password":
			req.Password, err = d.Str()
			hasPass = true
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	switch {
	case err != nil:
		return req, err
	case !hasUser:
		return req, errors.New("username is required")
	case !hasPass:
		return req, errors.New("password is required")
	}
	return req, nil
}

type cartItemRequest struct {
	ProductID string
	Quantity  int
}

// decodeCartItem decodes {"product_id": ..., "quantity": ...}. Quantity
// defaults to 1.
func decodeCartItem(data []byte) (req cartItemRequest, err error) {
	req.Quantity = 1
	var hasProduct bool
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			req.ProductID, err = d.Str()
			hasProduct = true
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return req, err
	}
	if !hasProduct {
		return req, errors.New("product_id is required")
	}
	return req, nil
}
