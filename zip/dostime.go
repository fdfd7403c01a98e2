// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zip

import "time"

// msDosTimeToTime converts the packed 16-bit MS-DOS date and time fields
// into a time.Time in UTC. Resolution is 2 seconds, as the format allows.
func msDosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		// date bits 0-4: day of month; 5-8: month; 9-15: years since 1980
		int(dosDate>>9)+1980,
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),

		// time bits 0-4: second/2; 5-10: minute; 11-15: hour
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f)*2,
		0,
		time.UTC,
	)
}

// timeToMsDosTime converts a time.Time to an MS-DOS date and time.
// The resolution is 2s.
func timeToMsDosTime(t time.Time) (dosDate, dosTime uint16) {
	t = t.UTC()
	dosDate = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	dosTime = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return
}

// millisToTime converts epoch milliseconds (UTC) to a time.Time, the unit
// the in-memory builder (SPEC_FULL.md §4.3) receives timestamps in.
func millisToTime(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}

// timeToMillis is the inverse of millisToTime.
func timeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}
