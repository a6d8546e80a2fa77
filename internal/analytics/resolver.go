package analytics

import "strings"

// keywordRule matches when every clause has at least one needle present.
type keywordRule struct {
	id      QueryID
	clauses [][]string
}

// Order matters: several messages satisfy more than one rule and the first
// rule in this list wins.
var keywordRules = []keywordRule{
	{TopRatedByCategory, [][]string{
		{"top", "best products", "highest rating"},
		{"category", "categories"},
	}},
	{SentimentByPriceRange, [][]string{
		{"sentiment", "feeling", "emotion"},
		{"price", "cost", "range"},
	}},
	{BestValueProducts, [][]string{
		{"best value", "value products", "best deal", "high rating low price", "value score"},
	}},
	{ReviewLengthRating, [][]string{
		{"review length", "length review"},
		{"rating", "correlation", "longer"},
	}},
	{SentimentByCategory, [][]string{
		{"sentiment"},
		{"category", "categories"},
	}},
	{DiscountReviewQuality, [][]string{
		{"discount", "discounted"},
		{"review", "rating", "quality", "worse", "better"},
	}},
	{RatingVariance, [][]string{
		{"rating variance", "variance", "consistency", "consistent", "varied"},
	}},
	{SentimentRatingComparison, [][]string{
		{"sentiment rating", "rating sentiment", "comparison", "compare"},
	}},
}

// DetectQuery maps a chat message to an analytics query. A bare digit 1-8
// selects the query directly and takes precedence over the keyword rules.
func DetectQuery(message string) (QueryID, bool) {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return 0, false
	}
	if len(m) == 1 && m[0] >= '1' && m[0] <= '8' {
		return QueryID(m[0] - '0'), true
	}
	for _, rule := range keywordRules {
		if rule.matches(m) {
			return rule.id, true
		}
	}
	return 0, false
}

func (r keywordRule) matches(m string) bool {
	for _, clause := range r.clauses {
		if !containsAny(m, clause) {
			return false
		}
	}
	return true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
