package timesync

import "errors"

// ErrTimeSyncUnavailable is returned by a time source when the authority
// could not be reached or returned something unusable.
var ErrTimeSyncUnavailable = errors.New("time sync unavailable")
