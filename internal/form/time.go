package form

import "time"

// timeNow is replaced in tests to pin timestamps.
var timeNow = time.Now
