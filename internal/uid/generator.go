package uid

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"github.com/spaolacci/murmur3"

	"github.com/roach88/idsync/internal/ir"
)

// maxCreateAttempts bounds the retry loop in Create. Collisions in a 56-bit
// space are rare enough that hitting the bound means the random source is
// broken.
const maxCreateAttempts = 1000

// Generator creates UIDs that are unique within its used-set.
// It is not safe for concurrent use.
type Generator struct {
	used   map[int64]struct{}
	pool   []int64
	rnd    *rand.Rand
	strict bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic. Use only in tests.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithStrictChecksum makes Verify reject UIDs whose embedded checksum does
// not match.
func WithStrictChecksum(strict bool) Option {
	return func(g *Generator) {
		g.strict = strict
	}
}

// WithPool pre-reserves UIDs. They are registered as used and handed out by
// Create, in order, before any random UID is drawn.
func WithPool(pool []int64) Option {
	return func(g *Generator) {
		g.pool = append(g.pool, pool...)
	}
}

// New creates a Generator with an empty used-set apart from any pool.
func New(opts ...Option) *Generator {
	g := &Generator{used: make(map[int64]struct{})}
	for _, opt := range opts {
		opt(g)
	}
	if g.rnd == nil {
		var seed [32]byte
		_, _ = crand.Read(seed[:])
		g.rnd = rand.New(rand.NewChaCha8(seed))
	}
	for _, uid := range g.pool {
		g.used[uid] = struct{}{}
	}
	return g
}

// Create returns a fresh positive UID that is not in the used-set and
// registers it.
func (g *Generator) Create() (int64, error) {
	if len(g.pool) > 0 {
		uid := g.pool[0]
		g.pool = g.pool[1:]
		return uid, nil
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		// Clear the sign bit and the checksum byte.
		random := int64(g.rnd.Uint64()>>1) &^ 0xFF
		if random == 0 {
			continue
		}
		uid := random | int64(checksum(random))
		if _, taken := g.used[uid]; taken {
			continue
		}
		g.used[uid] = struct{}{}
		return uid, nil
	}
	return 0, ir.Errorf(ir.CodeIllegalState, "could not create a unique uid after %d attempts", maxCreateAttempts)
}

// Verify checks that uid is a legal UID.
func (g *Generator) Verify(uid int64) error {
	if uid <= 0 {
		return &ir.Error{Code: ir.CodeIllegalIdentifier, Message: "uid must be positive", UID: uid}
	}
	if g.strict && !HasValidChecksum(uid) {
		return &ir.Error{Code: ir.CodeIllegalIdentifier, Message: "uid checksum does not match", UID: uid}
	}
	return nil
}

// RegisterExisting adds a previously assigned UID to the used-set.
func (g *Generator) RegisterExisting(uid int64) error {
	if err := g.Verify(uid); err != nil {
		return err
	}
	if _, taken := g.used[uid]; taken {
		return &ir.Error{Code: ir.CodeDuplicateIdentifier, Message: "uid is used more than once", UID: uid}
	}
	g.used[uid] = struct{}{}
	return nil
}

// Contains reports whether uid is in the used-set.
func (g *Generator) Contains(uid int64) bool {
	_, ok := g.used[uid]
	return ok
}

// Len returns the size of the used-set.
func (g *Generator) Len() int {
	return len(g.used)
}

// Pool returns the pre-reserved UIDs not handed out yet.
func (g *Generator) Pool() []int64 {
	return append([]int64(nil), g.pool...)
}

// HasValidChecksum reports whether the lowest byte of uid matches the
// checksum of its upper 56 bits.
func HasValidChecksum(uid int64) bool {
	return byte(uid) == checksum(uid)
}

func checksum(uid int64) byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(uid))
	return byte(murmur3.Sum32(buf[:7]))
}
