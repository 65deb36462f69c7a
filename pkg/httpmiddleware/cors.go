package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// AllowOrigins lists origins permitted to make cross-origin requests.
	// Empty, or a single "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists methods permitted in actual requests. When empty
	// the middleware sends "GET, POST, PUT, PATCH, DELETE, OPTIONS".
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. When empty the
	// preflight's Access-Control-Request-Headers value is echoed back.
	AllowHeaders []string

	// ExposeHeaders lists response headers browser scripts may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and Authorization headers on
	// cross-origin requests. The CORS spec forbids combining credentials
	// with the wildcard origin, so enabling this switches the middleware
	// to echoing the matched origin instead.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header; a negative value sends "0".
	MaxAge int
}

// cors holds the header values precomputed from a CORSConfig.
type cors struct {
	cfg      CORSConfig
	wildcard bool
	origins  map[string]string // lowercased -> configured spelling
	methods  string
	headers  string
	expose   string
	maxAge   string
}

// CORS returns a middleware that answers preflight requests and sets CORS
// response headers, with Vary maintained so shared caches keep per-origin
// responses apart.
func CORS(cfg CORSConfig) Middleware {
	c := &cors{
		cfg:      cfg,
		wildcard: len(cfg.AllowOrigins) == 0,
		origins:  make(map[string]string, len(cfg.AllowOrigins)),
		methods:  strings.Join(cfg.AllowMethods, ", "),
		headers:  strings.Join(cfg.AllowHeaders, ", "),
		expose:   strings.Join(cfg.ExposeHeaders, ", "),
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.wildcard = true
			break
		}
		c.origins[strings.ToLower(o)] = o
	}
	if cfg.AllowCredentials {
		c.wildcard = false
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.serve(next, w, r)
		})
	}
}

func (c *cors) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	// Same-origin request. Still vary on Origin so a cached response is
	// not later served cross-origin without headers.
	if origin == "" {
		if !c.wildcard {
			w.Header().Add("Vary", "Origin")
		}
		next.ServeHTTP(w, r)
		return
	}

	allowOrigin := c.match(origin)

	// A preflight is OPTIONS plus Access-Control-Request-Method.
	if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
		c.preflight(w, r, allowOrigin)
		return
	}

	if !c.wildcard {
		w.Header().Add("Vary", "Origin")
	}
	if allowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		if c.cfg.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if c.expose != "" {
			w.Header().Set("Access-Control-Expose-Headers", c.expose)
		}
	}

	next.ServeHTTP(w, r)
}

func (c *cors) preflight(w http.ResponseWriter, r *http.Request, allowOrigin string) {
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	// Disallowed origin: 204 with no CORS headers, the browser blocks it.
	if allowOrigin == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", c.methods)

	if c.headers != "" {
		w.Header().Set("Access-Control-Allow-Headers", c.headers)
	} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
		w.Header().Set("Access-Control-Allow-Headers", rh)
	}
	if c.cfg.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", c.maxAge)
	}

	w.WriteHeader(http.StatusNoContent)
}

// match returns the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not allowed. Matching is case-insensitive but the
// configured spelling is echoed.
func (c *cors) match(origin string) string {
	if c.wildcard {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}
