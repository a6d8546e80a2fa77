package backend

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// SearchProducts runs the backend's word-AND product name search.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []Product{}, nil
	}
	u := url.URL{Path: "/products/search"}
	qv := url.Values{}
	qv.Set("q", q)
	u.RawQuery = qv.Encode()
	var out []Product
	if err := c.getJSON(ctx, "Search", u.String(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return nil, errors.New("product id is required")
	}
	var out Product
	if err := c.getJSON(ctx, "Product lookup", "/products/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
