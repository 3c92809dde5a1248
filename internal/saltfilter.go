package internal

import (
	"os"
	"strconv"
	"sync"
)

// Defaults for the salt replay filter. A million entries at a one-in-a-
// million false positive rate costs a few MB and covers hours of traffic on
// a busy server.
const (
	DefaultSFCapacity = 1e6
	// FalsePositiveRate
	DefaultSFFPR  = 1e-6
	DefaultSFSlot = 10
)

// EnvironmentPrefix for all tunables read from the environment.
const EnvironmentPrefix = "UMBRA_"

// Shared instance used for checking salt repeats.
var saltfilter *BloomRing

// Used to initialize the saltfilter singleton only once.
var initOnce sync.Once

// GetSaltFilterSingleton returns the shared BloomRing, initializing it on
// first use from UMBRA_SF_CAPACITY, UMBRA_SF_FPR and UMBRA_SF_SLOT. A
// non-positive capacity disables the filter.
func GetSaltFilterSingleton() *BloomRing {
	initOnce.Do(func() {
		var (
			finalCapacity = float64(DefaultSFCapacity)
			finalFPR      = float64(DefaultSFFPR)
			finalSlot     = float64(DefaultSFSlot)
		)
		for _, opt := range []struct {
			envName string
			target  *float64
		}{
			{"CAPACITY", &finalCapacity},
			{"FPR", &finalFPR},
			{"SLOT", &finalSlot},
		} {
			envKey := EnvironmentPrefix + "SF_" + opt.envName
			env := os.Getenv(envKey)
			if env == "" {
				continue
			}
			p, err := strconv.ParseFloat(env, 64)
			if err != nil {
				panic("invalid environment `" + envKey + "` setting in saltfilter: " + env)
			}
			*opt.target = p
		}
		if finalCapacity <= 0 {
			return
		}
		saltfilter = NewBloomRing(int(finalSlot), int(finalCapacity), finalFPR)
	})
	return saltfilter
}

// TestSalt returns true if salt is repeated.
func TestSalt(b []byte) bool {
	if bf := GetSaltFilterSingleton(); bf != nil {
		return bf.Test(b)
	}
	return false
}

// AddSalt adds salt to the filter.
func AddSalt(b []byte) {
	if bf := GetSaltFilterSingleton(); bf != nil {
		bf.Add(b)
	}
}
