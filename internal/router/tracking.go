package router

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	trackingPrefix    = "INQ"
	trackingSuffixLen = 5
	// 36^5 suffixes per millisecond
	trackingSuffixSpace = 60466176
)

// TrackingGenerator issues inquiry reference numbers of the form
// INQ-<base36 unix millis>-<5 base36 chars>, upper-cased. Ids issued by one
// generator never repeat within a millisecond.
type TrackingGenerator struct {
	mu     sync.Mutex
	now    func() time.Time
	millis int64
	issued map[int64]struct{}
}

// NewTrackingGenerator creates a generator; a nil clock uses time.Now
func NewTrackingGenerator(now func() time.Time) *TrackingGenerator {
	if now == nil {
		now = time.Now
	}
	return &TrackingGenerator{
		now:    now,
		issued: make(map[int64]struct{}),
	}
}

// Next returns a fresh tracking id
func (g *TrackingGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := g.now().UnixMilli()
	if millis != g.millis {
		g.millis = millis
		clear(g.issued)
	}

	suffix := rand.Int64N(trackingSuffixSpace)
	for _, taken := g.issued[suffix]; taken; _, taken = g.issued[suffix] {
		suffix = rand.Int64N(trackingSuffixSpace)
	}
	g.issued[suffix] = struct{}{}

	random := strconv.FormatInt(suffix, 36)
	if pad := trackingSuffixLen - len(random); pad > 0 {
		random = strings.Repeat("0", pad) + random
	}

	return strings.ToUpper(trackingPrefix + "-" + strconv.FormatInt(millis, 36) + "-" + random)
}
