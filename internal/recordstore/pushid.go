package recordstore

import (
	"crypto/rand"
	"sync"
	"time"
)

// Push keys are generated client-side in the same format the realtime store
// uses: 8 characters encoding the creation time in milliseconds followed by
// 12 characters of randomness, over an alphabet whose ASCII order matches its
// logical order. Keys therefore sort lexicographically by creation time,
// which is what makes reply collections "ordered by key".
const pushAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var pushMu sync.Mutex
var lastPushMillis int64
var lastRandom [12]byte

// NewPushID returns a 20-character time-ordered child key. Keys generated
// within the same millisecond increment the random tail so ordering holds
// even then.
func NewPushID() string {
	return newPushIDAt(time.Now().UnixMilli())
}

func newPushIDAt(millis int64) string {
	pushMu.Lock()
	defer pushMu.Unlock()

	var id [20]byte
	ts := millis
	for i := 7; i >= 0; i-- {
		id[i] = pushAlphabet[ts%64]
		ts /= 64
	}

	if millis == lastPushMillis {
		// Same millisecond: bump the previous random tail by one.
		for i := 11; i >= 0; i-- {
			if lastRandom[i] < 63 {
				lastRandom[i]++
				break
			}
			lastRandom[i] = 0
		}
	} else {
		var buf [12]byte
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand never fails on supported platforms; fall back to
			// the clock so a key is still produced.
			for i := range buf {
				buf[i] = byte((millis >> (i % 8)) & 0x3f)
			}
		}
		for i := range buf {
			lastRandom[i] = buf[i] % 64
		}
	}
	lastPushMillis = millis

	for i := 0; i < 12; i++ {
		id[8+i] = pushAlphabet[lastRandom[i]]
	}
	return string(id[:])
}
