package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Product mirrors the backend's product payload; rating fields are aggregated
// from reviews on the server side.
type Product struct {
	ID                 string `json:"product_id"`
	Name               string `json:"product_name"`
	Category           string `json:"category"`
	ActualPrice        Number `json:"actual_price_usd"`
	DiscountedPrice    Number `json:"discounted_price_usd"`
	DiscountPercentage Number `json:"discount_percentage"`
	About              string `json:"about_product,omitempty"`
	ImageLink          string `json:"img_link,omitempty"`
	ProductLink        string `json:"product_link,omitempty"`
	AvgRating          Number `json:"avg_rating"`
	ReviewCount        Number `json:"review_count"`
}

// Number accepts JSON numbers, numeric strings (DECIMAL columns are
// serialized as strings) and null.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
