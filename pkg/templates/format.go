package templates

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
)

const shortLimit = 50

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// format applies a named formatter. Unknown names and values of the wrong
// type come back unchanged.
func (r *Renderer) format(v any, name string) string {
	switch name {
	case "date", "time", "datetime":
		t, ok := toTime(v)
		if !ok {
			return stringify(v)
		}
		t = t.In(r.location)
		switch name {
		case "date":
			return t.Format("1/2/2006")
		case "time":
			return t.Format("3:04:05 PM")
		default:
			return t.Format("1/2/2006, 3:04:05 PM")
		}
	case "capitalize":
		if s, ok := v.(string); ok && s != "" {
			first, size := utf8.DecodeRuneInString(s)
			return string(unicode.ToUpper(first)) + s[size:]
		}
	case "uppercase":
		if s, ok := v.(string); ok {
			return strings.ToUpper(s)
		}
	case "lowercase":
		if s, ok := v.(string); ok {
			return strings.ToLower(s)
		}
	case "number":
		if f, ok := toFloat(v); ok {
			return message.NewPrinter(r.language).Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
		}
	case "currency":
		if f, ok := toFloat(v); ok {
			return fmt.Sprintf("$%.2f", f)
		}
	case "short":
		if s, ok := v.(string); ok {
			return sanitizer.Truncate(s, shortLimit, "...")
		}
	}
	return stringify(v)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

type timer interface{ Time() time.Time }

// toTime accepts time.Time, anything with a Time() method (bson.DateTime),
// date strings and Unix milliseconds.
// maxUnixMilli bounds numeric timestamps to ±100,000,000 days around the
// epoch, the range a JavaScript Date can hold. Infinities fall outside it.
const maxUnixMilli = 8.64e15

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x != nil {
			return *x, true
		}
	case timer:
		return x.Time(), true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
	default:
		if f, ok := toFloat(v); ok && !math.IsNaN(f) && math.Abs(f) <= maxUnixMilli {
			return time.UnixMilli(int64(f)), true
		}
	}
	return time.Time{}, false
}

// stringify renders a value the way it appears in interpolated text.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}
