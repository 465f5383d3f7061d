// Public domain.

package pzcal

import (
	"math"

	"github.com/soniakeys/photoz/internal/pzphot"
)

// StopCriteria decides when calibration ends.  Stop is called once per
// iteration with the newly computed correction map.  Implementations are
// usually stateful and good for a single calibration run.
type StopCriteria interface {
	Stop(next pzphot.CorrectionMap) bool
}

// Seeder is implemented by stop criteria that can take a starting map, so
// that the first iteration can already be compared against something.
type Seeder interface {
	Seed(initial pzphot.CorrectionMap)
}

// DefaultStopCriteria stops on an iteration cap or when corrections
// settle.
type DefaultStopCriteria struct {
	maxIter int
	tol     float64
	calls   int
	prev    pzphot.CorrectionMap
}

// NewDefaultStopCriteria returns criteria that stop at the maxIter-th call
// to Stop or as soon as every filter changed by strictly less than tol
// since the previous map.
//
// The comparison is strict, so a change equal to tol does not stop, and
// with tol 0 only maxIter ends a run.  A filter new to the map counts as
// changed.  Without Seed, the first call has nothing to compare against
// and stops only if maxIter is 1.
func NewDefaultStopCriteria(maxIter int, tol float64) (*DefaultStopCriteria, error) {
	switch {
	case tol < 0 || math.IsNaN(tol):
		return nil, ErrNegativeTolerance
	case maxIter < 1:
		return nil, ErrInvalidIterations
	}
	return &DefaultStopCriteria{maxIter: maxIter, tol: tol}, nil
}

// Seed sets the map the first call to Stop compares against.
func (s *DefaultStopCriteria) Seed(initial pzphot.CorrectionMap) {
	s.prev = initial.Clone()
}

// Calls returns the number of calls to Stop so far.
func (s *DefaultStopCriteria) Calls() int { return s.calls }

// Stop implements StopCriteria.
func (s *DefaultStopCriteria) Stop(next pzphot.CorrectionMap) bool {
	s.calls++
	settled := s.prev != nil && s.settled(next)
	s.prev = next.Clone()
	return settled || s.calls >= s.maxIter
}

func (s *DefaultStopCriteria) settled(next pzphot.CorrectionMap) bool {
	for f, v := range next {
		p, ok := s.prev[f]
		if !ok || !(math.Abs(v-p) < s.tol) {
			return false
		}
	}
	return true
}
