package journey

import "time"

const displayTimeLayout = "2006-01-02 15:04:05"

// NormalizeHL7Timestamp rewrites a compact HL7 timestamp (YYYYMMDDHHMM or
// YYYYMMDDHHMMSS) as "YYYY-MM-DD HH:MM:SS". Anything that is not a valid
// timestamp in one of those two shapes is returned unchanged, so already
// formatted values and free text survive a second pass.
func NormalizeHL7Timestamp(s string) string {
	var layout string
	switch len(s) {
	case 12:
		layout = "200601021504"
	case 14:
		layout = "20060102150405"
	default:
		return s
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return s
	}
	return t.Format(displayTimeLayout)
}
