package runner

import (
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/intersim/internal/core/models"
)

// RandomSpawner draws reproducible traffic from a seed string. It is not safe for concurrent use.
type RandomSpawner struct {
	rng         *rand.Rand
	probability float64
}

// NewRandomSpawner spawns with the given probability per call to Next.
func NewRandomSpawner(seed string, probability float64) *RandomSpawner {
	h := xxhash.Sum64String(seed)
	return &RandomSpawner{
		rng:         rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15)),
		probability: probability,
	}
}

func (s *RandomSpawner) Next(uint64) (Request, bool) {
	if s.probability <= 0 || s.rng.Float64() >= s.probability {
		return Request{}, false
	}
	return s.Pair(), true
}

// Pair picks a random origin and a different destination.
func (s *RandomSpawner) Pair() Request {
	all := models.All()
	from := all[s.rng.IntN(len(all))]
	return Request{From: from, To: s.Except(from)}
}

// Except picks a random approach other than a.
func (s *RandomSpawner) Except(a models.Approach) models.Approach {
	others := make([]models.Approach, 0, 3)
	for _, o := range models.All() {
		if o != a {
			others = append(others, o)
		}
	}
	return others[s.rng.IntN(len(others))]
}
