package spigot

import (
	"fmt"

	"pistream/pkg/bignum"
)

var (
	bigOne  = bignum.New(1)
	bigTwo  = bignum.New(2)
	bigNine = bignum.New(9)
)

// Engine produces the fractional digits of pi in order. It is not safe for
// concurrent use; the stream driver is the single owner.
type Engine struct {
	q, r, t, k, n, l *bignum.Int
	digits           uint64
}

// New returns an engine positioned before the first fractional digit. The
// leading integer digit 3 is generated and discarded here so that Next
// yields 1, 4, 1, 5, 9, ...
func New() *Engine {
	e := &Engine{
		q: bignum.New(1),
		r: bignum.New(0),
		t: bignum.New(1),
		k: bignum.New(1),
		n: bignum.New(3),
		l: bignum.New(3),
	}
	e.produce()
	return e
}

// Restore builds an engine from a snapshot, validating it first. The
// snapshot is cloned; the caller's copy stays independent.
func Restore(s State) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		q:      s.Q.Clone(),
		r:      s.R.Clone(),
		t:      s.T.Clone(),
		k:      s.K.Clone(),
		n:      s.N.Clone(),
		l:      s.L.Clone(),
		digits: s.Digits,
	}, nil
}

// Next returns the next fractional digit, in 0..9.
func (e *Engine) Next() int {
	d := e.produce()
	e.digits++
	return d
}

// Digits returns how many fractional digits have been produced.
func (e *Engine) Digits() uint64 { return e.digits }

// State returns a deep-copied snapshot of the engine. Restoring it yields
// an engine that continues the digit sequence exactly where this one is.
func (e *Engine) State() State {
	return State{
		Q:      e.q.Clone(),
		R:      e.r.Clone(),
		T:      e.t.Clone(),
		K:      e.k.Clone(),
		N:      e.n.Clone(),
		L:      e.l.Clone(),
		Digits: e.digits,
	}
}

// produce runs term steps until the candidate digit is stable, then applies
// the digit step and returns the digit. All right-hand sides use the values
// from before the step; r goes negative routinely, which is why the term
// type is signed.
func (e *Engine) produce() int {
	for {
		// Stable once 4q+r-t < n*t: the candidate no longer depends on
		// series terms not yet consumed.
		lhs := e.q.MulSmall(4).Add(e.r).Sub(e.t)
		if lhs.Cmp(e.n.Mul(e.t)) < 0 {
			d := int(e.n.Int64())
			q := e.q.MulSmall(10)
			r := e.r.Sub(e.n.Mul(e.t)).MulSmall(10)
			n := e.q.MulSmall(3).Add(e.r).MulSmall(10).QuoFloor(e.t).Sub(e.n.MulSmall(10))
			e.q, e.r, e.n = q, r, n
			return d
		}
		q := e.q.Mul(e.k)
		r := e.q.MulSmall(2).Add(e.r).Mul(e.l)
		t := e.t.Mul(e.l)
		n := e.q.Mul(e.k.MulSmall(7).Add(bigTwo)).Add(e.r.Mul(e.l)).QuoFloor(t)
		e.q, e.r, e.t, e.n = q, r, t, n
		e.k = e.k.Add(bigOne)
		e.l = e.l.Add(bigTwo)
	}
}

// State is a restartable snapshot: the six transformation terms plus the
// count of fractional digits produced. Terms marshal as decimal strings.
type State struct {
	Q      *bignum.Int `json:"q"`
	R      *bignum.Int `json:"r"`
	T      *bignum.Int `json:"t"`
	K      *bignum.Int `json:"k"`
	N      *bignum.Int `json:"n"`
	L      *bignum.Int `json:"l"`
	Digits uint64      `json:"digits"`
}

// Validate checks the structural invariants every reachable snapshot
// satisfies. It cannot prove a state lies on pi's orbit, but it rejects
// the corruptions that matter: missing terms, a digit counter no state of
// this shape could have produced, and term relations the recurrences
// preserve unconditionally.
func (s State) Validate() error {
	for name, v := range map[string]*bignum.Int{
		"q": s.Q, "r": s.R, "t": s.T, "k": s.K, "n": s.N, "l": s.L,
	} {
		if v == nil {
			return fmt.Errorf("spigot: state term %s is missing", name)
		}
	}
	if s.Q.Sign() <= 0 {
		return fmt.Errorf("spigot: term q must be positive, got %s", s.Q)
	}
	if s.T.Sign() <= 0 {
		return fmt.Errorf("spigot: term t must be positive, got %s", s.T)
	}
	if s.K.Sign() <= 0 {
		return fmt.Errorf("spigot: term k must be positive, got %s", s.K)
	}
	if s.L.Cmp(s.K.MulSmall(2).Add(bigOne)) != 0 {
		return fmt.Errorf("spigot: term l must equal 2k+1, got k=%s l=%s", s.K, s.L)
	}
	if s.N.Sign() < 0 || s.N.Cmp(bigNine) > 0 {
		return fmt.Errorf("spigot: candidate digit out of range: %s", s.N)
	}
	// q gains a factor of ten per emitted digit (integer part included), so
	// a genuine snapshot at d fractional digits has at least d+2 decimal
	// digits in q.
	if uint64(s.Q.DecimalLen()-1) <= s.Digits {
		return fmt.Errorf("spigot: term q too small for digit count %d", s.Digits)
	}
	return nil
}
