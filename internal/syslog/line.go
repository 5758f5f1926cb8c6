// Package syslog splits raw auth.log / journal lines into their timestamp,
// host, reporter tag, and message body. It is the upstream half of the
// classification pipeline: it never looks inside the body.
package syslog

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hanamahes78/sshsift/internal/parsers"
)

// tag matches the reporter field, e.g. "sshd[123]:", "sshd:" or "CRON[7]:".
var tagRe = regexp.MustCompile(`^([A-Za-z0-9._/-]+?)(?:\[([0-9]+)\])?:$`)

// severity matches the optional "<facility.severity>" field some relays
// insert between the host and the reporter tag.
var severityRe = regexp.MustCompile(`^<([a-z0-9]+)\.([a-z]+)>$`)

var months = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// Split breaks a raw log line into its context parts and free-text body.
// Both the classic "Jan  2 15:04:05 host sshd[123]: body" form and the
// journalctl short-iso form are recognized. now anchors the year of classic
// timestamps, which do not carry one. Lines that are not syslog-shaped are
// reported with a false result and simply skipped by callers.
func Split(raw string, now time.Time) (parsers.LineContext, bool) {
	if lc, ok := splitISO(raw); ok {
		return lc, true
	}
	return splitClassic(raw, now)
}

// splitISO handles journalctl --output=short-iso lines:
// "2026-02-03T22:01:02-0500 host sshd[123]: body".
func splitISO(raw string) (parsers.LineContext, bool) {
	first, rest, ok := strings.Cut(raw, " ")
	if !ok {
		return parsers.LineContext{}, false
	}
	ts, err := time.Parse(time.RFC3339, first)
	if err != nil {
		ts, err = time.Parse("2006-01-02T15:04:05-0700", first)
	}
	if err != nil {
		return parsers.LineContext{}, false
	}
	return splitAfterTimestamp(ts, rest)
}

// splitClassic handles the traditional syslog form. The timestamp occupies a
// fixed 15-character prefix: "Jan  2 15:04:05".
func splitClassic(raw string, now time.Time) (parsers.LineContext, bool) {
	if len(raw) < 16 || raw[15] != ' ' {
		return parsers.LineContext{}, false
	}
	ts, ok := parseClassicTimestamp(raw[:15], now)
	if !ok {
		return parsers.LineContext{}, false
	}
	return splitAfterTimestamp(ts, raw[16:])
}

// splitAfterTimestamp consumes "host [<facility.severity>] tag body".
func splitAfterTimestamp(ts time.Time, rest string) (parsers.LineContext, bool) {
	lc := parsers.LineContext{Timestamp: ts}

	var ok bool
	lc.Hostname, rest, ok = strings.Cut(strings.TrimLeft(rest, " "), " ")
	if !ok {
		return parsers.LineContext{}, false
	}

	tag, rest, ok := strings.Cut(strings.TrimLeft(rest, " "), " ")
	if !ok {
		return parsers.LineContext{}, false
	}
	if m := severityRe.FindStringSubmatch(tag); m != nil {
		lc.Severity = m[2]
		tag, rest, ok = strings.Cut(strings.TrimLeft(rest, " "), " ")
		if !ok {
			return parsers.LineContext{}, false
		}
	}

	m := tagRe.FindStringSubmatch(tag)
	if m == nil {
		return parsers.LineContext{}, false
	}
	lc.Reporter = m[1]
	lc.PID = m[2]
	lc.Body = strings.TrimLeft(rest, " ")
	if lc.Body == "" {
		return parsers.LineContext{}, false
	}
	return lc, true
}

// parseClassicTimestamp parses "Jan  2 15:04:05" against now's year. A
// timestamp more than a day in the future is taken to be from last year
// (year roll-over while the log was still being written).
func parseClassicTimestamp(prefix string, now time.Time) (time.Time, bool) {
	fields := strings.Fields(prefix)
	if len(fields) != 3 {
		return time.Time{}, false
	}
	month, ok := months[fields[0]]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(fields[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	hms := strings.Split(fields[2], ":")
	if len(hms) != 3 {
		return time.Time{}, false
	}
	hour, err1 := strconv.Atoi(hms[0])
	min, err2 := strconv.Atoi(hms[1])
	sec, err3 := strconv.Atoi(hms[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	ts := time.Date(now.Year(), month, day, hour, min, sec, 0, now.Location())
	if ts.After(now.Add(24 * time.Hour)) {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts, true
}
