package agora

import (
	"fmt"
	"html/template"
	"strconv"
	"time"
)

var NowFunc func() time.Time = time.Now

func unixMilli(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

func fromUnixMilli(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond))
}

// timeAgo describes how long ago t was, using the largest whole unit.
func timeAgo(t time.Time) string {
	seconds := int64(NowFunc().Sub(t).Seconds())

	units := []struct {
		seconds int64
		name    string
	}{
		{31536000, "year"},
		{2592000, "month"},
		{86400, "day"},
		{3600, "hour"},
		{60, "minute"},
	}
	for _, u := range units {
		if n := seconds / u.seconds; n >= 1 {
			if n == 1 {
				return "1 " + u.name + " ago"
			}
			return strconv.FormatInt(n, 10) + " " + u.name + "s ago"
		}
	}

	return "just now"
}

var helpers template.FuncMap = template.FuncMap{
	"timeAgo": timeAgo,
	"date": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
	"plural": func(n int, singular string, plural string) string {
		if n == 1 {
			return "1 " + singular
		}
		return strconv.Itoa(n) + " " + plural
	},
	"dict": func(values ...interface{}) (map[string]interface{}, error) {
		if len(values)%2 != 0 {
			return nil, fmt.Errorf("invalid dict call, odd number of arguments")
		}

		dict := make(map[string]interface{}, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			k, ok := values[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict keys must be strings")
			}
			v := values[i+1]
			dict[k] = v
		}

		return dict, nil
	},
}
