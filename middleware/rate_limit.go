package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mnehpets/papyrus/endpoint"
)

const (
	visitorIdle   = 10 * time.Minute
	sweepInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitProcessor limits requests per client IP with a token bucket.
// Requests over the limit fail with 429 Too Many Requests and a Retry-After
// header. Clients idle for ten minutes are forgotten.
type RateLimitProcessor struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimitProcessor allows each client rps requests per second on
// average, with bursts of up to burst requests.
func NewRateLimitProcessor(rps float64, burst int) *RateLimitProcessor {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitProcessor{
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Process implements endpoint.Processor.
func (p *RateLimitProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	if !p.allow(clientIP(r)) {
		retry := 1
		if p.limit > 0 {
			retry = max(1, int(1/float64(p.limit)))
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		return endpoint.Error(http.StatusTooManyRequests, "", nil)
	}
	return next(w, r)
}

func (p *RateLimitProcessor) allow(ip string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) > sweepInterval {
		for k, v := range p.visitors {
			if now.Sub(v.lastSeen) > visitorIdle {
				delete(p.visitors, k)
			}
		}
		p.lastSweep = now
	}

	v, ok := p.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// clientIP is the host part of RemoteAddr. Forwarding headers are not
// trusted here; put a proxy-aware handler in front when needed.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var _ endpoint.Processor = (*RateLimitProcessor)(nil)
