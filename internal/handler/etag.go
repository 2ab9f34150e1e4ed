package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
)

// Per-resource generation counters, local to this process. Every write bumps
// its resource, which retires all cached list bodies and their ETags at once;
// unexpired entries for older generations stop being addressable and age out
// by TTL, as do entries computed by other processes.
var generations sync.Map // resource -> *atomic.Int64

func generation(res string) int64 {
	v, _ := generations.LoadOrStore(res, new(atomic.Int64))
	return v.(*atomic.Int64).Load()
}

func bumpGeneration(res string) {
	v, _ := generations.LoadOrStore(res, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

// etagFor is the content fingerprint of a response body.
func etagFor(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func listCacheKey(res, rawQuery string) string {
	qhash := sha256.Sum256([]byte(rawQuery))
	return fmt.Sprintf("list:%s:g%d:%s", res, generation(res), hex.EncodeToString(qhash[:8]))
}
