package analytics

import "fmt"

// QueryID identifies one of the eight canned analytics queries.
type QueryID int

const (
	TopRatedByCategory QueryID = iota + 1
	SentimentByPriceRange
	BestValueProducts
	ReviewLengthRating
	SentimentByCategory
	DiscountReviewQuality
	RatingVariance
	SentimentRatingComparison
)

// Query describes a single entry of the catalogue.
type Query struct {
	ID    QueryID `json:"id"`
	Label string  `json:"label"`
	Title string  `json:"title"`
	Path  string  `json:"path"`
}

var catalogue = []Query{
	{TopRatedByCategory, "Top-rated products by category", "Top-Rated Products by Category:", "/analytics/top-rated-by-category"},
	{SentimentByPriceRange, "Sentiment by price range", "Sentiment Analysis by Price Range:", "/analytics/sentiment-by-price-range"},
	{BestValueProducts, "Best value products", "Best Value Products (High Rating + Low Price):", "/analytics/best-value-products"},
	{ReviewLengthRating, "Review length vs rating", "Review Length vs Rating Correlation:", "/analytics/review-length-rating"},
	{SentimentByCategory, "Sentiment by category", "Sentiment Analysis by Category:", "/analytics/sentiment-by-category"},
	{DiscountReviewQuality, "Discount impact on review quality", "Discount Impact on Review Quality:", "/analytics/discount-review-quality"},
	{RatingVariance, "Rating consistency (variance)", "Most Consistent Ratings (Low Rating Variance):", "/analytics/rating-variance"},
	{SentimentRatingComparison, "Sentiment vs rating comparison", "Sentiment vs Rating Comparison:", "/analytics/sentiment-rating-comparison"},
}

// Queries returns the catalogue in identifier order.
func Queries() []Query {
	return append([]Query(nil), catalogue...)
}

// Valid reports whether id is one of the known queries.
func (id QueryID) Valid() bool {
	return id >= TopRatedByCategory && id <= SentimentRatingComparison
}

// Lookup returns the catalogue entry for id.
func Lookup(id QueryID) (Query, bool) {
	if !id.Valid() {
		return Query{}, false
	}
	return catalogue[id-1], true
}

func (id QueryID) String() string {
	if q, ok := Lookup(id); ok {
		return q.Label
	}
	return fmt.Sprintf("query(%d)", int(id))
}
