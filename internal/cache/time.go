package cache

import "time"

var timeNow = time.Now
