package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"StockGate/internal/domain/models"
)

func TestResolveCompanyName(t *testing.T) {
	r := New()
	sym, fail := r.Resolve("Apple")
	require.Nil(t, fail)
	require.Equal(t, "AAPL", sym.Symbol)
	require.Equal(t, "Apple Inc.", sym.DisplayName)
}

func TestResolveStripsSuffixes(t *testing.T) {
	r := New()
	for _, q := range []string{"Apple Inc.", "Apple Inc", "apple stock", "APPLE SHARES"} {
		sym, fail := r.Resolve(q)
		require.Nil(t, fail, "query %q", q)
		require.Equal(t, "AAPL", sym.Symbol, "query %q", q)
	}
}

func TestResolveTicker(t *testing.T) {
	r := New()
	for _, q := range []string{"AAPL", "aapl", " msft "} {
		sym, fail := r.Resolve(q)
		require.Nil(t, fail, "query %q", q)
		require.NotEmpty(t, sym.DisplayName)
	}

	sym, fail := r.Resolve("BRK.B")
	require.Nil(t, fail)
	require.Equal(t, "BRK.B", sym.Symbol)
}

func TestResolveApproximate(t *testing.T) {
	r := New()
	sym, fail := r.Resolve("Microsft")
	require.Nil(t, fail)
	require.Equal(t, "MSFT", sym.Symbol)

	sym, fail = r.Resolve("Tesl")
	require.Nil(t, fail)
	require.Equal(t, "TSLA", sym.Symbol)
}

func TestResolveIdempotent(t *testing.T) {
	r := New()
	first, fail := r.Resolve("Nvidia Corp")
	require.Nil(t, fail)
	for i := 0; i < 5; i++ {
		again, fail := r.Resolve("Nvidia Corp")
		require.Nil(t, fail)
		require.Equal(t, first, again)
	}
}

func TestResolveNotFoundSuggests(t *testing.T) {
	r := New()
	sym, fail := r.Resolve("Zzyzx Nonexistent Co")
	require.Nil(t, sym)
	require.NotNil(t, fail)
	require.Equal(t, models.ErrSymbolNotFound, fail.Kind)
	require.NotEmpty(t, fail.Suggestions)
	require.LessOrEqual(t, len(fail.Suggestions), 3)
}

func TestResolveEmptyQuery(t *testing.T) {
	r := New()
	for _, q := range []string{"", "   ", "???"} {
		sym, fail := r.Resolve(q)
		require.Nil(t, sym, "query %q", q)
		require.NotNil(t, fail, "query %q", q)
		require.Equal(t, models.ErrInvalidQuery, fail.Kind, "query %q", q)
	}
}
