package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// Throttled is a handler that answers "429 Too Many Requests" once its
// token bucket is empty.
type Throttled struct {
	next    fake.Handler
	limiter *rate.Limiter
}

// Throttle limits h to rps requests per second with the given burst. A
// non-positive rps disables the limit; burst defaults to 1.
func Throttle(h fake.Handler, rps float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Throttled{
		next:    h,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// SetRate changes the limit at runtime.
func (t *Throttled) SetRate(rps float64) {
	if rps <= 0 {
		t.limiter.SetLimit(rate.Inf)
		return
	}
	t.limiter.SetLimit(rate.Limit(rps))
}

func (t *Throttled) Handle(r *message.ServerRequest) (*http.Response, error) {
	if t.limiter.Allow() {
		return t.next.Handle(r)
	}
	resp := fake.NewResponse(http.StatusTooManyRequests, nil)
	resp.Header.Set("Retry-After", strconv.Itoa(t.retryAfter()))
	return resp, nil
}

// retryAfter is the number of whole seconds until the next token.
func (t *Throttled) retryAfter() int {
	limit := t.limiter.Limit()
	if limit == rate.Inf || limit <= 0 {
		return 1
	}
	wait := time.Duration(float64(time.Second) / float64(limit))
	return int(math.Max(1, math.Ceil(wait.Seconds())))
}
