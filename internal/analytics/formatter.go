package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// NoDataMessage replaces the whole report when a query returns no records.
const NoDataMessage = "No data available for this query."

const (
	defaultCategory = "Uncategorized"
	defaultLabel    = "Unknown"
	defaultName     = "N/A"

	nameWordLimit = 5
)

// Queries 7 and 8 return long per-product lists; only the head is shown.
var displayLimits = map[QueryID]int{
	RatingVariance:            10,
	SentimentRatingComparison: 10,
}

type blockRenderer func(b *strings.Builder, r Record)

var renderers = map[QueryID]blockRenderer{
	TopRatedByCategory:        renderTopRatedByCategory,
	SentimentByPriceRange:     renderSentimentByPriceRange,
	BestValueProducts:         renderBestValue,
	ReviewLengthRating:        renderReviewLength,
	SentimentByCategory:       renderSentimentByCategory,
	DiscountReviewQuality:     renderDiscountQuality,
	RatingVariance:            renderRatingVariance,
	SentimentRatingComparison: renderSentimentComparison,
}

// Format renders the records of a query as a single chat message. Missing or
// null fields fall back to fixed defaults, so any record shape is accepted.
func Format(id QueryID, records []Record) string {
	if len(records) == 0 {
		return NoDataMessage
	}
	q, ok := Lookup(id)
	render := renderers[id]
	if !ok || render == nil {
		return fmt.Sprintf("Unsupported analytics query %d.", int(id))
	}
	if limit, ok := displayLimits[id]; ok && len(records) > limit {
		records = records[:limit]
	}

	var b strings.Builder
	b.WriteString(q.Title)
	b.WriteString("\n")
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. ", i+1)
		render(&b, r)
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}

// SentimentLabel buckets a sentiment score; the thresholds are exclusive.
func SentimentLabel(v any) string {
	f, ok := toFloat(v)
	switch {
	case !ok:
		return "Neutral"
	case f > 0.3:
		return "Positive"
	case f < -0.3:
		return "Negative"
	default:
		return "Neutral"
	}
}

// TruncateName keeps the first five words of a product name.
func TruncateName(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return defaultName
	}
	if len(words) > nameWordLimit {
		return strings.Join(words[:nameWordLimit], " ") + " ..."
	}
	return strings.Join(words, " ")
}

func renderTopRatedByCategory(b *strings.Builder, r Record) {
	b.WriteString(category(r["category"]) + "\n")
	fmt.Fprintf(b, "   Avg Rating: %s stars\n", fixed(r["avg_rating"], 1))
	fmt.Fprintf(b, "   Reviews: %d | Products: %d\n", count(r["review_count"]), count(r["product_count"]))
	renderTopProducts(b, r["top_products"])
}

func renderSentimentByPriceRange(b *strings.Builder, r Record) {
	b.WriteString(label(r["price_range"]) + "\n")
	writeSentiment(b, r["avg_sentiment"])
	fmt.Fprintf(b, "   Avg Rating: %s stars\n", fixed(r["avg_rating"], 1))
	fmt.Fprintf(b, "   Reviews: %d\n", count(r["review_count"]))
	renderTopProducts(b, r["top_products"])
}

func renderBestValue(b *strings.Builder, r Record) {
	price := r["discounted_price"]
	if price == nil {
		price = r["discounted_price_usd"]
	}
	b.WriteString(productName(r["product_name"]) + "\n")
	fmt.Fprintf(b, "   Category: %s\n", category(r["category"]))
	fmt.Fprintf(b, "   Price: $%s\n", fixed(price, 2))
	fmt.Fprintf(b, "   Rating: %s stars (%d reviews)\n", fixed(r["avg_rating"], 1), count(r["review_count"]))
	fmt.Fprintf(b, "   Value Score: %s\n", fixed(r["value_score"], 2))
}

func renderReviewLength(b *strings.Builder, r Record) {
	b.WriteString(label(r["length_category"]) + "\n")
	fmt.Fprintf(b, "   Avg Rating: %s stars\n", fixed(r["avg_rating"], 1))
	writeSentiment(b, r["avg_sentiment"])
	fmt.Fprintf(b, "   Avg Length: %s chars\n", fixed(r["avg_length"], 0))
	fmt.Fprintf(b, "   Reviews: %d\n", count(r["review_count"]))
	renderTopProducts(b, r["top_products"])
}

func renderSentimentByCategory(b *strings.Builder, r Record) {
	b.WriteString(category(r["category"]) + "\n")
	writeSentiment(b, r["avg_sentiment"])
	fmt.Fprintf(b, "   Avg Rating: %s stars\n", fixed(r["avg_rating"], 1))
	fmt.Fprintf(b, "   Reviews: %d | Products: %d\n", count(r["review_count"]), count(r["product_count"]))
	renderTopProducts(b, r["top_products"])
}

func renderDiscountQuality(b *strings.Builder, r Record) {
	b.WriteString(label(r["discount_range"]) + "\n")
	fmt.Fprintf(b, "   Avg Rating: %s stars\n", fixed(r["avg_rating"], 1))
	writeSentiment(b, r["avg_sentiment"])
	fmt.Fprintf(b, "   Reviews: %d | Products: %d\n", count(r["review_count"]), count(r["product_count"]))
	renderTopProducts(b, r["top_products"])
}

func renderRatingVariance(b *strings.Builder, r Record) {
	b.WriteString(productName(r["product_name"]) + "\n")
	fmt.Fprintf(b, "   Category: %s\n", category(r["category"]))
	fmt.Fprintf(b, "   Avg Rating: %s stars\n", fixed(r["avg_rating"], 1))
	fmt.Fprintf(b, "   Std Dev: %s | Range: %s-%s stars\n",
		fixed(r["rating_stddev"], 2), fixed(r["min_rating"], 1), fixed(r["max_rating"], 1))
	fmt.Fprintf(b, "   Reviews: %d\n", count(r["review_count"]))
}

func renderSentimentComparison(b *strings.Builder, r Record) {
	b.WriteString(productName(r["product_name"]) + "\n")
	fmt.Fprintf(b, "   Category: %s\n", category(r["category"]))
	fmt.Fprintf(b, "   Avg Rating: %s stars\n", fixed(r["avg_rating"], 1))
	writeSentiment(b, r["avg_sentiment"])
	fmt.Fprintf(b, "   Comparison: %s\n", label(r["comparison"]))
	fmt.Fprintf(b, "   Reviews: %d\n", count(r["review_count"]))
}

func writeSentiment(b *strings.Builder, v any) {
	fmt.Fprintf(b, "   Avg Sentiment: %s (%s)\n", fixed(v, 2), SentimentLabel(v))
}

func renderTopProducts(b *strings.Builder, v any) {
	products := records(v)
	if len(products) == 0 {
		return
	}
	b.WriteString("   Top Products:\n")
	for i, p := range products {
		fmt.Fprintf(b, "     %d. %s (%s stars, %d reviews)\n",
			i+1, productName(p["product_name"]), fixed(p["avg_rating"], 1), count(p["review_count"]))
	}
}

// records accepts the nested list shapes produced by encoding/json as well as
// values built in Go.
func records(v any) []Record {
	switch list := v.(type) {
	case []Record:
		return list
	case []map[string]any:
		out := make([]Record, 0, len(list))
		for _, m := range list {
			out = append(out, Record(m))
		}
		return out
	case []any:
		out := make([]Record, 0, len(list))
		for _, item := range list {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Record(m))
			case Record:
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func productName(v any) string {
	s, _ := v.(string)
	return TruncateName(s)
}

func category(v any) string {
	s, _ := v.(string)
	if i := strings.Index(s, "|"); i >= 0 {
		s = s[:i]
	}
	if s = strings.TrimSpace(s); s == "" {
		return defaultCategory
	}
	return s
}

func label(v any) string {
	s, _ := v.(string)
	if s = strings.TrimSpace(s); s == "" {
		return defaultLabel
	}
	return s
}

func fixed(v any, prec int) string {
	f, _ := toFloat(v)
	return ToFixed(f, prec)
}

// ToFixed renders f with prec decimals, rounding exact ties away from zero
// the way the storefront's Number.toFixed does. The tie is decided on the
// exact binary value, so 1.005 still renders as 1.00.
func ToFixed(f float64, prec int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	if prec < 0 {
		prec = 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(prec)), nil)
	x := new(big.Float).SetPrec(256).SetFloat64(math.Abs(f))
	x.Mul(x, new(big.Float).SetInt(scale))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	digits := n.String()
	if prec > 0 {
		if len(digits) <= prec {
			digits = strings.Repeat("0", prec-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-prec] + "." + digits[len(digits)-prec:]
	}
	if f < 0 {
		digits = "-" + digits
	}
	return digits
}

func count(v any) int64 {
	f, _ := toFloat(v)
	return int64(math.Round(f))
}

// toFloat reports false for nil, non-numeric and non-finite values.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
