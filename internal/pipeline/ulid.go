package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// ulidSource hands out ULIDs: 48-bit millisecond time, 16-bit sequence and
// 64 random bits, as 26 Crockford base32 characters. Ids from one source are
// strictly increasing even if the wall clock steps back.
type ulidSource struct {
	mu     sync.Mutex
	lastMS uint64
	seq    uint16
}

var ids ulidSource

func generateULID() string {
	return ids.next(time.Now())
}

func (s *ulidSource) next(now time.Time) string {
	s.mu.Lock()
	ms := uint64(now.UnixMilli())
	if ms <= s.lastMS {
		ms = s.lastMS
		s.seq++
		if s.seq == 0 {
			ms++
		}
	} else {
		s.seq = 0
	}
	s.lastMS = ms
	seq := s.seq
	s.mu.Unlock()

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], ms<<16|uint64(seq))
	rand.Read(b[8:])
	return encodeCrockford(b)
}

// encodeCrockford writes 128 bits as 26 five-bit digits, most significant first.
func encodeCrockford(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	var out [26]byte
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
