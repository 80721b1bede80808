package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/czar/internal/model"
)

// weekdays accepts full lowercase day names, their three-letter forms and the
// common "tues"/"thur"/"thurs" spellings.
var weekdays = func() map[string]time.Weekday {
	out := map[string]time.Weekday{"tues": time.Tuesday, "thur": time.Thursday, "thurs": time.Thursday}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		out[name] = d
		out[name[:3]] = d
	}
	return out
}()

// ResolveDate turns a due expression into local midnight of the day it names:
// today, tomorrow, +Nd, a weekday name (the next one strictly after today),
// or YYYY-MM-DD.
func ResolveDate(raw string, now time.Time) (time.Time, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.TrimPrefix(v, "next ")
	today := model.StartOfDay(now)
	switch v {
	case "":
		return time.Time{}, invalid("date is empty")
	case "today":
		return today, nil
	case "tomorrow":
		return model.AddDays(today, 1), nil
	}
	if strings.HasPrefix(v, "+") && strings.HasSuffix(v, "d") {
		n, err := strconv.Atoi(v[1 : len(v)-1])
		if err != nil || n < 0 {
			return time.Time{}, invalid("bad day offset %q", raw)
		}
		return model.AddDays(today, n), nil
	}
	if wd, ok := weekdays[v]; ok {
		delta := (int(wd) - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return model.AddDays(today, delta), nil
	}
	day, err := model.ParseDayKey(v, now.Location())
	if err != nil {
		return time.Time{}, invalid("unrecognized date %q", raw)
	}
	return day, nil
}
