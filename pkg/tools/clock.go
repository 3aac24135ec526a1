package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTools returns the time tool definitions. All of them are pure
// functions of wall-clock time and simple date arithmetic; the now func is
// injectable so tests can pin the clock.
func ClockTools(now func() time.Time) []Definition {
	if now == nil {
		now = time.Now
	}
	c := clock{now: now}
	return []Definition{
		{
			Name:        "getCurrentTime",
			Description: "returns the current date and time",
			Exec:        c.currentTime,
		},
		{
			Name:        "getTimeInTimezone",
			Description: "returns the current time in a named timezone, e.g. Asia/Shanghai or America/New_York",
			Params:      []Param{{Name: "timezone", Type: "string", Description: "IANA timezone name"}},
			Exec:        c.timeInTimezone,
		},
		{
			Name:        "daysBetween",
			Description: "returns the number of days between two dates (yyyy-mm-dd)",
			Params: []Param{
				{Name: "start", Type: "string", Description: "start date, yyyy-mm-dd"},
				{Name: "end", Type: "string", Description: "end date, yyyy-mm-dd"},
			},
			Exec: c.daysBetween,
		},
		{
			Name:        "calculateDate",
			Description: "returns the date a number of days from today (negative for the past)",
			Params:      []Param{{Name: "days", Type: "integer", Description: "day offset from today"}},
			Exec:        c.calculateDate,
		},
		{
			Name:        "isWorkday",
			Description: "reports whether a date (yyyy-mm-dd) falls on a workday (Monday-Friday)",
			Params:      []Param{{Name: "date", Type: "string", Description: "date, yyyy-mm-dd"}},
			Exec:        c.isWorkday,
		},
		{
			Name:        "daysLeftInMonth",
			Description: "returns how many days remain in the current month",
			Exec:        c.daysLeftInMonth,
		},
	}
}

type clock struct {
	now func() time.Time
}

const dateLayout = "2006-01-02"

func (c clock) currentTime(_ context.Context, _ string) (string, error) {
	now := c.now()
	return fmt.Sprintf("current time: %s (%s), unix timestamp %d",
		now.Format("2006-01-02 15:04:05"), now.Weekday(), now.Unix()), nil
}

func (c clock) timeInTimezone(_ context.Context, args string) (string, error) {
	name := strings.Trim(strings.TrimSpace(args), `"'`)
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		return fmt.Sprintf("error: unknown timezone %q; try Asia/Shanghai, America/New_York, Europe/London", name), nil
	}
	t := c.now().In(loc)
	_, offset := t.Zone()
	return fmt.Sprintf("time in %s: %s (UTC offset %+d:%02d)",
		name, t.Format("2006-01-02 15:04:05"), offset/3600, abs(offset%3600)/60), nil
}

func (c clock) daysBetween(_ context.Context, args string) (string, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return "error: expected daysBetween(start, end) with yyyy-mm-dd dates", nil
	}
	start, err1 := time.Parse(dateLayout, strings.TrimSpace(parts[0]))
	end, err2 := time.Parse(dateLayout, strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return "error: dates must use the yyyy-mm-dd format, e.g. 2024-01-01", nil
	}
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return fmt.Sprintf("%s and %s are %d days apart",
		start.Format(dateLayout), end.Format(dateLayout), days), nil
}

func (c clock) calculateDate(_ context.Context, args string) (string, error) {
	days, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return fmt.Sprintf("error: expected a whole number of days, got %q", args), nil
	}
	target := c.now().AddDate(0, 0, days)
	direction := "from now"
	if days < 0 {
		direction = "ago"
	}
	return fmt.Sprintf("%d days %s is %s (%s)",
		abs(days), direction, target.Format(dateLayout), target.Weekday()), nil
}

func (c clock) isWorkday(_ context.Context, args string) (string, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(args))
	if err != nil {
		return "error: date must use the yyyy-mm-dd format", nil
	}
	day := date.Weekday()
	if day == time.Saturday || day == time.Sunday {
		return fmt.Sprintf("%s (%s) is a weekend day", date.Format(dateLayout), day), nil
	}
	return fmt.Sprintf("%s (%s) is a workday", date.Format(dateLayout), day), nil
}

func (c clock) daysLeftInMonth(_ context.Context, _ string) (string, error) {
	now := c.now()
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	endOfMonth := firstOfNext.AddDate(0, 0, -1)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	left := int(endOfMonth.Sub(today).Hours() / 24)
	return fmt.Sprintf("today is %s; the month ends on %s; %d of its %d days remain",
		today.Format(dateLayout), endOfMonth.Format(dateLayout), left, endOfMonth.Day()), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
