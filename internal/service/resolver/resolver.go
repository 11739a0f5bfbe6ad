package resolver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
)

// legal suffixes stripped before alias comparison
var suffixes = map[string]bool{
	"inc": true, "incorporated": true, "corp": true, "corporation": true,
	"co": true, "company": true, "ltd": true, "limited": true,
	"plc": true, "stock": true, "shares": true, "stocks": true,
}

var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z])?$`)

// Resolver maps free-form company references to canonical tickers. It is
// a pure function over its static tables; repeated calls with the same
// input return the same result.
type Resolver struct {
	aliases        map[string]string
	names          map[string]string
	threshold      float64
	maxSuggestions int
}

// New builds a Resolver over the built-in alias table.
func New() drepo.Resolver {
	return &Resolver{
		aliases:        aliasTable,
		names:          displayNames,
		threshold:      0.75,
		maxSuggestions: 3,
	}
}

// Resolve maps query to a CanonicalSymbol. Resolution order: exact alias
// match, known-ticker match, then approximate match against the alias
// table accepted only above the score threshold.
func (r *Resolver) Resolve(query string) (*models.CanonicalSymbol, *models.ResolveFailure) {
	norm := normalize(query)
	if norm == "" {
		return nil, &models.ResolveFailure{
			Kind:    models.ErrInvalidQuery,
			Message: "query must be a non-empty company name or ticker symbol",
		}
	}

	if ticker, ok := r.aliases[norm]; ok {
		return r.canonical(ticker), nil
	}

	upper := strings.ToUpper(strings.TrimSpace(query))
	if tickerPattern.MatchString(upper) {
		if _, ok := r.names[upper]; ok {
			return r.canonical(upper), nil
		}
	}

	best, suggestions := r.approximate(norm)
	if best != nil {
		return best, nil
	}
	return nil, &models.ResolveFailure{
		Kind:        models.ErrSymbolNotFound,
		Message:     fmt.Sprintf("no symbol found for %q", strings.TrimSpace(query)),
		Suggestions: suggestions,
	}
}

func (r *Resolver) canonical(ticker string) *models.CanonicalSymbol {
	name := r.names[ticker]
	if name == "" {
		name = ticker
	}
	return &models.CanonicalSymbol{Symbol: ticker, DisplayName: name}
}

type scored struct {
	ticker string
	score  float64
}

// approximate scores the query against every alias and returns either the
// accepted best match or ranked suggestions.
func (r *Resolver) approximate(norm string) (*models.CanonicalSymbol, []string) {
	ranked := make([]scored, 0, len(r.aliases))
	for alias, ticker := range r.aliases {
		ranked = append(ranked, scored{ticker: ticker, score: similarity(norm, alias)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > 0 && ranked[0].score >= r.threshold {
		return r.canonical(ranked[0].ticker), nil
	}

	suggestions := make([]string, 0, r.maxSuggestions)
	seen := make(map[string]bool)
	for _, s := range ranked {
		if seen[s.ticker] {
			continue
		}
		seen[s.ticker] = true
		suggestions = append(suggestions, s.ticker)
		if len(suggestions) == r.maxSuggestions {
			break
		}
	}
	return nil, suggestions
}

// normalize lowercases, drops punctuation, and strips legal suffixes.
func normalize(q string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(q) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == ' ':
			b.WriteRune(c)
		case c == '.', c == ',', c == '\'', c == '&', c == '-':
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	for len(tokens) > 1 && suffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// similarity blends normalized edit distance with token overlap.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ed := editScore(a, b)
	to := tokenOverlap(a, b)
	if to > ed {
		return to
	}
	return ed
}

func editScore(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

func tokenOverlap(a, b string) float64 {
	at, bt := strings.Fields(a), strings.Fields(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}
	set := make(map[string]bool, len(at))
	for _, t := range at {
		set[t] = true
	}
	common := 0
	for _, t := range bt {
		if set[t] {
			common++
		}
	}
	return 2 * float64(common) / float64(len(at)+len(bt))
}

func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		cur[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(br)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
