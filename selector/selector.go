// Package selector implements the cooldown based fair pick.
//
// Every pick attempt first decays all cooldowns by one. The eligible pool is
// the present students with a zero cooldown whose number is not the current
// lucky number. One of them is drawn uniformly and gets a fresh cooldown, so
// it sits out the next Cooldown attempts.
package selector

import (
	"math/rand/v2"
	"time"

	"classroll/models"
)

// Cooldown is assigned to a student right after being picked.
const Cooldown = 3

// Rand is the subset of *rand.Rand the selector draws from.
type Rand interface {
	IntN(n int) int
}

// DecayCooldowns lowers every cooldown by one, stopping at zero.
func DecayCooldowns(students []*models.Student) {
	for _, st := range students {
		st.Cooldown = max(0, st.Cooldown-1)
	}
}

// Eligible returns the students a pick may choose from. A lucky number of 0
// excludes nobody.
func Eligible(students []*models.Student, lucky int) []*models.Student {
	pool := make([]*models.Student, 0, len(students))
	for _, st := range students {
		if st.Cooldown != 0 || !st.IsPresent {
			continue
		}
		if lucky != 0 && st.Number == lucky {
			continue
		}
		pool = append(pool, st)
	}
	return pool
}

// PickEligible draws one student from the eligible pool and puts it on
// cooldown. It returns nil when the pool is empty. Cooldowns must already
// have been decayed for this attempt.
func PickEligible(rng Rand, students []*models.Student, lucky int) *models.Student {
	pool := Eligible(students, lucky)
	if len(pool) == 0 {
		return nil
	}
	chosen := pool[rng.IntN(len(pool))]
	chosen.Cooldown = Cooldown
	return chosen
}

// Selector carries the session state of picking: the random source and the
// lucky number.
type Selector struct {
	rng   Rand
	lucky int
}

// New returns a Selector drawing from rng, or from a time seeded source when
// rng is nil.
func New(rng Rand) *Selector {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>32|1))
	}
	return &Selector{rng: rng}
}

// Pick runs one attempt: decay, then draw. The decay happens even when
// nobody is eligible.
func (s *Selector) Pick(students []*models.Student) (*models.Student, bool) {
	DecayCooldowns(students)
	chosen := PickEligible(s.rng, students, s.lucky)
	return chosen, chosen != nil
}

// DrawLuckyNumber picks a number in [1, count] and excludes it from
// subsequent picks until cleared or redrawn.
func (s *Selector) DrawLuckyNumber(count int) (int, error) {
	if count <= 0 {
		return 0, models.ErrNoStudents
	}
	s.lucky = s.rng.IntN(count) + 1
	return s.lucky, nil
}

func (s *Selector) LuckyNumber() (int, bool) {
	return s.lucky, s.lucky != 0
}

func (s *Selector) ClearLuckyNumber() {
	s.lucky = 0
}
