package scheduler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrBadRecurrence is returned by Add when a trigger spec cannot be parsed.
// Malformed specs fail at creation time instead of being silently dropped
// at poll time.
var ErrBadRecurrence = errors.New("scheduler: unrecognized trigger specification")

// Trigger is a parsed firing rule: an absolute one-shot time, an "every N
// minutes/hours" interval, or a five-field cron expression.
type Trigger struct {
	Spec      string
	Recurring bool

	at       time.Time
	interval time.Duration
	schedule cron.Schedule
}

var everyRe = regexp.MustCompile(`(?i)^every\s+(\d+)\s+(minutes?|hours?)$`)

// one-shot absolute time formats accepted, tried in order
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTrigger parses a trigger spec. Supported forms:
//
//	2026-09-01T08:30:00Z        one-shot absolute time (RFC 3339)
//	2026-09-01 08:30            one-shot absolute time (local)
//	every 15 minutes            interval recurrence
//	every 2 hours               interval recurrence
//	30 8 * * 1-5                five-field cron expression
func ParseTrigger(spec string) (Trigger, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Trigger{}, fmt.Errorf("%w: empty spec", ErrBadRecurrence)
	}

	if m := everyRe.FindStringSubmatch(spec); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return Trigger{}, fmt.Errorf("%w: %q", ErrBadRecurrence, spec)
		}
		unit := time.Minute
		if strings.HasPrefix(strings.ToLower(m[2]), "hour") {
			unit = time.Hour
		}
		return Trigger{Spec: spec, Recurring: true, interval: time.Duration(n) * unit}, nil
	}

	for _, layout := range timeLayouts {
		if at, err := time.ParseInLocation(layout, spec, time.Local); err == nil {
			return Trigger{Spec: spec, at: at}, nil
		}
	}

	if len(strings.Fields(spec)) == 5 {
		schedule, err := cron.ParseStandard(spec)
		if err != nil {
			return Trigger{}, fmt.Errorf("%w: %q: %v", ErrBadRecurrence, spec, err)
		}
		return Trigger{Spec: spec, Recurring: true, schedule: schedule}, nil
	}

	return Trigger{}, fmt.Errorf("%w: %q", ErrBadRecurrence, spec)
}

// Next returns the first firing time strictly after now. For a one-shot
// trigger whose time has passed this still returns the recorded time; the
// store decides whether it is due.
func (t Trigger) Next(now time.Time) time.Time {
	switch {
	case t.schedule != nil:
		return t.schedule.Next(now)
	case t.interval > 0:
		return now.Add(t.interval)
	default:
		return t.at
	}
}
