package planning

import "errors"

// ErrSessionNotReady is returned by GenerateSpecWithClarification when the
// session has not reached ready-for-planning (spec §4.4 public contract).
var ErrSessionNotReady = errors.New("planning: clarification session is not ready for planning")

// ErrMalformedCandidate is returned when C1's candidate spec JSON cannot be
// parsed at all (distinct from a validation-loop violation, which is
// recoverable by repair prompting).
var ErrMalformedCandidate = errors.New("planning: candidate spec completion was not valid JSON")
