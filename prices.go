package folio

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// PriceSource prices symbols against a JSON HTTP endpoint. The endpoint URL is
// a template with a {symbol} placeholder, and Path is the jsonpath plucking
// the quote out of whatever shape the provider returns.
//
// It implements Oracle; any failure (network, bad status, missing path) comes
// back wrapped in ErrPriceUnavailable so the aggregator can degrade.
type PriceSource struct {
	Client   *http.Client // http.DefaultClient when nil
	URL      string       // e.g. "https://quotes.example.com/v1/{symbol}"
	Path     string       // e.g. "$.quote.last"
	Currency string
}

func (s *PriceSource) CurrentPrice(ctx context.Context, symbol string) (Money, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	addr := strings.ReplaceAll(s.URL, "{symbol}", symbol)

	var jobj any
	if err := jwget(ctx, client, addr, &jobj); err != nil {
		return Money{}, fmt.Errorf("%w for %q: %v", ErrPriceUnavailable, symbol, err)
	}

	jval, err := jsonpath.Get(s.Path, jobj)
	if err != nil {
		return Money{}, fmt.Errorf("%w for %q: path %q: %v", ErrPriceUnavailable, symbol, s.Path, err)
	}
	// jsonpath is never clear about whether it returns a list of 1 answer, or a
	// single answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	val, ok := jval.(float64)
	if !ok {
		// sometimes providers return the value as a string
		sval, ok := jval.(string)
		if !ok {
			return Money{}, fmt.Errorf("%w for %q: value %v is neither float nor string", ErrPriceUnavailable, symbol, jval)
		}
		sval = strings.ReplaceAll(sval, ",", ".")
		sval = strings.ReplaceAll(sval, " ", "")
		val, err = strconv.ParseFloat(sval, 64)
		if err != nil {
			return Money{}, fmt.Errorf("%w for %q: invalid string value %q", ErrPriceUnavailable, symbol, sval)
		}
	}
	if val <= 0 {
		return Money{}, fmt.Errorf("%w for %q: empty quote", ErrPriceUnavailable, symbol)
	}
	return M(val, s.Currency), nil
}
