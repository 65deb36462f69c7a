// Package exchange supplies the USD→BS exchange rate. Rates come from
// public HTTP endpoints that change shape and availability often, so
// the fetcher tolerates malformed bodies and the cache layer guarantees
// callers always get some usable rate: fresh, last-known-good, or the
// configured default.
package exchange

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Source fetches the current USD→BS rate.
type Source interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

// ErrNoRate is returned when every configured endpoint failed to yield
// a usable rate.
var ErrNoRate = errors.New("no exchange rate available")

// Endpoint describes one rate provider: its URL and the JSON field
// names (in priority order) that may carry the rate.
type Endpoint struct {
	URL    string
	Fields []string
}

var _ Source = (*HTTPSource)(nil)

// HTTPSource queries the configured endpoints in order and returns the
// first plausible rate. Non-JSON responses, missing fields, and
// non-positive values just advance to the next endpoint.
type HTTPSource struct {
	client    *resty.Client
	endpoints []Endpoint
}

// NewHTTPSource creates an HTTPSource with a per-request timeout.
func NewHTTPSource(endpoints []Endpoint, timeout time.Duration) *HTTPSource {
	client := resty.New().SetTimeout(timeout)
	return &HTTPSource{client: client, endpoints: endpoints}
}

// Fetch tries each endpoint in order.
func (s *HTTPSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	lg := zctx.From(ctx)
	for _, ep := range s.endpoints {
		rate, err := s.fetchOne(ctx, ep)
		if err != nil {
			lg.Warn("exchange rate endpoint failed",
				zap.String("url", ep.URL),
				zap.Error(err))
			continue
		}
		return rate, nil
	}
	return decimal.Decimal{}, ErrNoRate
}

func (s *HTTPSource) fetchOne(ctx context.Context, ep Endpoint) (decimal.Decimal, error) {
	resp, err := s.client.R().SetContext(ctx).Get(ep.URL)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "request")
	}
	if resp.StatusCode() != http.StatusOK {
		return decimal.Decimal{}, errors.Errorf("status %d", resp.StatusCode())
	}

	rate, err := parseRate(resp.Body(), ep.Fields)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, errors.Errorf("implausible rate %s", rate)
	}
	return rate, nil
}

// parseRate scans a JSON object (including one level of nesting) for
// the first of the wanted fields holding a numeric or numeric-string
// value. Anything unparseable is an error, never a panic.
func parseRate(body []byte, fields []string) (decimal.Decimal, error) {
	wanted := make(map[string]bool, len(fields))
	for _, f := range fields {
		wanted[strings.ToLower(f)] = true
	}

	var found *decimal.Decimal
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if found != nil {
			return d.Skip()
		}
		if wanted[strings.ToLower(key)] {
			rate, err := decodeNumber(d)
			if err != nil {
				return err
			}
			found = &rate
			return nil
		}
		if d.Next() == jx.Object {
			return d.Obj(func(d *jx.Decoder, key string) error {
				if found == nil && wanted[strings.ToLower(key)] {
					rate, err := decodeNumber(d)
					if err != nil {
						return err
					}
					found = &rate
					return nil
				}
				return d.Skip()
			})
		}
		return d.Skip()
	})
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse body")
	}
	if found == nil {
		return decimal.Decimal{}, errors.Errorf("none of fields %v present", fields)
	}
	return *found, nil
}

// decodeNumber accepts both JSON numbers and numeric strings, which
// rate providers use interchangeably.
func decodeNumber(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		num, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, errors.Wrap(err, "number")
		}
		return decimal.NewFromString(strings.TrimSpace(num.String()))
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, errors.Wrap(err, "string")
		}
		// Providers sometimes use comma decimals.
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		return decimal.NewFromString(s)
	default:
		if err := d.Skip(); err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.Decimal{}, errors.New("field is not numeric")
	}
}
