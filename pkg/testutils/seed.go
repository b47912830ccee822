package testutils

import (
	"math/rand/v2"
	"os"
	"strconv"
	"testing"
	"time"
)

// SeedEnv names the environment variable that pins the PRNG seed of randomized tests.
const SeedEnv = "TEST_SEED"

var Seed uint64 //nolint:gochecknoglobals // intentionally global for test reproducibility

func init() { //nolint:gochecknoinits // intentionally using init to set seed
	Seed = uint64(time.Now().UnixNano()) //nolint:gosec // overflow is acceptable for test seeds
	if envSeed := os.Getenv(SeedEnv); envSeed != "" {
		if parsed, err := strconv.ParseUint(envSeed, 0, 64); err == nil {
			Seed = parsed
		}
	}
}

// NewRand returns a PRNG seeded from Seed and logs the seed so a failing run can be replayed.
func NewRand(t testing.TB) *rand.Rand {
	t.Helper()
	t.Logf("to reproduce: %s=0x%x", SeedEnv, Seed)
	return rand.New(rand.NewPCG(Seed, Seed)) //nolint:gosec // weak RNG is fine for tests
}
