package uid

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idsync/internal/ir"
)

func TestCreateReturnsPositiveChecksummedUIDs(t *testing.T) {
	g := New(WithSeed(1))
	for i := 0; i < 1000; i++ {
		uid, err := g.Create()
		require.NoError(t, err)
		assert.Greater(t, uid, int64(0))
		assert.True(t, HasValidChecksum(uid), "uid %d must carry a valid checksum", uid)
	}
	assert.Equal(t, 1000, g.Len())
}

func TestCreateIsDeterministicWithSeed(t *testing.T) {
	a, err := New(WithSeed(42)).Create()
	require.NoError(t, err)
	b, err := New(WithSeed(42)).Create()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCreateSkipsRegisteredUIDs(t *testing.T) {
	first, err := New(WithSeed(7)).Create()
	require.NoError(t, err)

	g := New(WithSeed(7))
	require.NoError(t, g.RegisterExisting(first))

	next, err := g.Create()
	require.NoError(t, err)
	assert.NotEqual(t, first, next)
}

func TestCreateUsesPoolFirst(t *testing.T) {
	g := New(WithSeed(3), WithPool([]int64{111, 222}))
	assert.True(t, g.Contains(111))

	uid, err := g.Create()
	require.NoError(t, err)
	assert.Equal(t, int64(111), uid)
	assert.Equal(t, []int64{222}, g.Pool())

	uid, err = g.Create()
	require.NoError(t, err)
	assert.Equal(t, int64(222), uid)

	uid, err = g.Create()
	require.NoError(t, err)
	assert.NotContains(t, []int64{111, 222}, uid)
	assert.Empty(t, g.Pool())
}

func TestVerify(t *testing.T) {
	g := New(WithSeed(1))
	assert.NoError(t, g.Verify(1))
	assert.NoError(t, g.Verify(4858050548069557694))

	for _, bad := range []int64{0, -1, -4858050548069557694} {
		err := g.Verify(bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ir.ErrIllegalIdentifier))
	}
}

func TestVerifyStrictChecksum(t *testing.T) {
	lenient := New(WithSeed(1))
	strict := New(WithSeed(1), WithStrictChecksum(true))

	good, err := lenient.Create()
	require.NoError(t, err)
	bad := good ^ 0x01

	assert.NoError(t, strict.Verify(good))
	assert.NoError(t, lenient.Verify(bad))

	err = strict.Verify(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ir.ErrIllegalIdentifier))
	assert.Contains(t, err.Error(), "checksum")
}

func TestRegisterExistingRejectsDuplicates(t *testing.T) {
	g := New(WithSeed(1))
	require.NoError(t, g.RegisterExisting(4858050548069557694))

	err := g.RegisterExisting(4858050548069557694)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ir.ErrDuplicateIdentifier))

	var e *ir.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, int64(4858050548069557694), e.UID)
}

func TestRegisterExistingRejectsIllegal(t *testing.T) {
	g := New(WithSeed(1))
	err := g.RegisterExisting(0)
	assert.True(t, errors.Is(err, ir.ErrIllegalIdentifier))
	assert.Equal(t, 0, g.Len())
}

func TestProperty_CreateNeverReturnsRegisteredUID(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("created uids are fresh and never collide with registered ones", prop.ForAll(
		func(seed uint64, count int) bool {
			reference := New(WithSeed(seed))
			var retired []int64
			for i := 0; i < count; i++ {
				uid, err := reference.Create()
				if err != nil {
					return false
				}
				retired = append(retired, uid)
			}

			// Same seed: without the registry these exact values would come out again.
			g := New(WithSeed(seed))
			for _, uid := range retired {
				if g.RegisterExisting(uid) != nil {
					return false
				}
			}
			seen := make(map[int64]bool)
			for i := 0; i < count; i++ {
				uid, err := g.Create()
				if err != nil || uid <= 0 || seen[uid] {
					return false
				}
				for _, r := range retired {
					if r == uid {
						return false
					}
				}
				seen[uid] = true
			}
			return true
		},
		gen.UInt64(),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
