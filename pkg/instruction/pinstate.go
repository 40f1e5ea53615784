package instruction

import "time"

// PinPolicy configures how many incorrect PIN attempts a wallet account gets before it
// is locked out, grouped into rounds separated by an escalating timeout.
//
// AttemptsPerRound incorrect guesses are allowed before a round is exhausted. After each
// exhausted round the account is locked out for the matching entry of RoundTimeouts;
// once all rounds are exhausted the account is permanently Blocked.
type PinPolicy struct {
	AttemptsPerRound int
	RoundTimeouts    []time.Duration
}

// DefaultPinPolicy mirrors the wallet's three-strikes-then-cooldown default: four
// attempts per round, with a one minute, five minute and then indefinite lockout.
func DefaultPinPolicy() PinPolicy {
	return PinPolicy{
		AttemptsPerRound: 4,
		RoundTimeouts:    []time.Duration{time.Minute, 5 * time.Minute},
	}
}

// PinResult is the outcome reported to the wallet after an incorrect PIN attempt.
type PinResult struct {
	// Blocked is true once the account is permanently locked out.
	Blocked bool
	// TimeoutRemaining is non-zero while the account is in a temporary cooldown
	// between rounds; the wallet must wait this long before attempting again.
	TimeoutRemaining time.Duration
	// AttemptsLeftInRound is the number of attempts remaining in the current round,
	// valid only when Blocked is false and TimeoutRemaining is zero.
	AttemptsLeftInRound int
	// IsFinalRound reports whether the current round is the last one before the
	// account is permanently blocked.
	IsFinalRound bool
}

// PinState tracks one account's incorrect-PIN attempt history against a PinPolicy.
type PinState struct {
	policy          PinPolicy
	attemptsInRound int
	round           int
	lockedUntil     time.Time
	blocked         bool
}

// NewPinState creates a PinState governed by policy.
func NewPinState(policy PinPolicy) *PinState {
	return &PinState{policy: policy}
}

// Check reports the account's current standing without consuming an attempt: it
// returns ErrPinBlocked if the account is permanently blocked, or the remaining cooldown
// if it is mid-timeout.
func (s *PinState) Check(now time.Time) (time.Duration, error) {
	if s.blocked {
		return 0, ErrPinBlocked
	}
	if now.Before(s.lockedUntil) {
		return s.lockedUntil.Sub(now), nil
	}
	return 0, nil
}

// RecordIncorrectAttempt consumes one PIN attempt at time now and returns the resulting
// PinResult, or ErrPinBlocked if the account was already permanently blocked.
func (s *PinState) RecordIncorrectAttempt(now time.Time) (PinResult, error) {
	if s.blocked {
		return PinResult{}, ErrPinBlocked
	}
	if now.Before(s.lockedUntil) {
		return PinResult{TimeoutRemaining: s.lockedUntil.Sub(now)}, nil
	}

	s.attemptsInRound++
	if s.attemptsInRound < s.policy.AttemptsPerRound {
		return PinResult{
			AttemptsLeftInRound: s.policy.AttemptsPerRound - s.attemptsInRound,
			IsFinalRound:        s.round == len(s.policy.RoundTimeouts),
		}, nil
	}

	s.attemptsInRound = 0
	if s.round >= len(s.policy.RoundTimeouts) {
		s.blocked = true
		return PinResult{Blocked: true}, nil
	}
	timeout := s.policy.RoundTimeouts[s.round]
	s.round++
	s.lockedUntil = now.Add(timeout)
	return PinResult{TimeoutRemaining: timeout}, nil
}

// Reset clears the attempt history after a correct PIN entry.
func (s *PinState) Reset() {
	s.attemptsInRound = 0
	s.round = 0
	s.lockedUntil = time.Time{}
}
