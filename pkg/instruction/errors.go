package instruction

import "errors"

var (
	// ErrWalletIDMismatch is returned when a ChallengeRequestPayload's wallet id
	// does not match the wallet id the caller expects.
	ErrWalletIDMismatch = errors.New("instruction: wallet id mismatch")

	// ErrSequenceNumberMismatch is returned when a payload's sequence number fails
	// the configured SequenceNumberComparison.
	ErrSequenceNumberMismatch = errors.New("instruction: sequence number mismatch")

	// ErrChallengeMismatch is returned when a ChallengeResponsePayload's challenge
	// does not match the challenge the caller issued.
	ErrChallengeMismatch = errors.New("instruction: challenge mismatch")

	// ErrSignatureVerification is returned when an outer or inner signature fails
	// cryptographic verification.
	ErrSignatureVerification = errors.New("instruction: signature verification failed")

	// ErrAssertionCounterReplay is returned when an Apple App Attest assertion's
	// counter does not strictly exceed the previously recorded counter.
	ErrAssertionCounterReplay = errors.New("instruction: assertion counter did not increase")

	// ErrPinBlocked is returned once the account has exhausted its PIN attempts.
	ErrPinBlocked = errors.New("instruction: pin blocked after too many incorrect attempts")
)
