package model

import (
    "fmt"
    "strconv"
    "strings"
)

// Times of day are carried through the engine as minutes from midnight.
// Database TIME columns and request payloads use the "HH:MM" form; the
// conversion happens once at the repository/handler boundary so the
// availability and booking code only ever deals in integers.

// ParseClock converts an "HH:MM" string into minutes from midnight.
// Hours up to 24 are accepted so a period may end exactly at midnight
// (24:00 -> 1440). Anything malformed returns an error.
func ParseClock(s string) (int, error) {
    parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
    if len(parts) != 2 {
        return 0, fmt.Errorf("invalid clock value %q", s)
    }
    h, err := strconv.Atoi(parts[0])
    if err != nil {
        return 0, fmt.Errorf("invalid clock value %q", s)
    }
    m, err := strconv.Atoi(parts[1])
    if err != nil {
        return 0, fmt.Errorf("invalid clock value %q", s)
    }
    if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
        return 0, fmt.Errorf("clock value %q out of range", s)
    }
    return h*60 + m, nil
}

// FormatClock renders minutes from midnight back into "HH:MM".
func FormatClock(min int) string {
    if min < 0 {
        min = 0
    }
    return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
