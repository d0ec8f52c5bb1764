// Package period names betting rounds. Every round gets a fixed-width
// identifier derived from the calendar date, the track duration and the
// round's sequence number within the day, so operators can predict future
// identifiers from a wall clock alone.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	dateLayout       = "20060102"
	identifierLength = 14 // YYYYMMDD + DD + SSSS
)

var ErrMalformedIdentifier = errors.New("malformed period identifier")

// Sequence returns the 1-based sequence number of the round that contains t
// for the given track duration. Sequences reset at local midnight.
func Sequence(t time.Time, durationMinutes int) int {
	minutesSinceMidnight := t.Hour()*60 + t.Minute()
	return minutesSinceMidnight/durationMinutes + 1
}

// Window returns the natural start and end time of the round containing t.
// Rounds are aligned to duration boundaries counted from local midnight.
func Window(t time.Time, durationMinutes int) (start, end time.Time) {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	seq := Sequence(t, durationMinutes)
	start = midnight.Add(time.Duration(seq-1) * time.Duration(durationMinutes) * time.Minute)
	end = start.Add(time.Duration(durationMinutes) * time.Minute)
	return start, end
}

// Encode names the round that contains t on the given duration track.
func Encode(t time.Time, durationMinutes int) string {
	return EncodeAt(t, durationMinutes, Sequence(t, durationMinutes))
}

// EncodeAt builds an identifier from explicit parts. The date component is
// taken from the calendar date of t.
func EncodeAt(date time.Time, durationMinutes, sequence int) string {
	return fmt.Sprintf("%s%02d%04d", date.Format(dateLayout), durationMinutes, sequence)
}

// Decode is the exact inverse of EncodeAt. The returned date is midnight
// local time of the encoded calendar date.
func Decode(identifier string) (date time.Time, durationMinutes, sequence int, err error) {
	if len(identifier) != identifierLength {
		return time.Time{}, 0, 0, ErrMalformedIdentifier
	}
	for _, r := range identifier {
		if r < '0' || r > '9' {
			return time.Time{}, 0, 0, ErrMalformedIdentifier
		}
	}

	date, err = time.ParseInLocation(dateLayout, identifier[:8], time.Local)
	if err != nil {
		return time.Time{}, 0, 0, ErrMalformedIdentifier
	}

	durationMinutes, err = strconv.Atoi(identifier[8:10])
	if err != nil || durationMinutes == 0 {
		return time.Time{}, 0, 0, ErrMalformedIdentifier
	}

	sequence, err = strconv.Atoi(identifier[10:])
	if err != nil || sequence == 0 {
		return time.Time{}, 0, 0, ErrMalformedIdentifier
	}

	return date, durationMinutes, sequence, nil
}
