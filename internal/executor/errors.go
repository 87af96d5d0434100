package executor

import "errors"

// errCanceled marks a run that stopped because Cancel(task_id) was called,
// distinct from the eight error kinds in orcherr (spec §7): cancellation is
// a cooperative terminal phase, not a failure the caller retries.
var errCanceled = errors.New("executor: task canceled")
