package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/inventur/internal/model"
)

// MaxCount is the largest stock or reserved quantity accepted.
const MaxCount = math.MaxInt32

// valueKind controls how a client-supplied value is converted before it is bound.
type valueKind int

const (
	kindText     valueKind = iota // any string or number, stored as text
	kindLabel                     // non-empty text
	kindCount                     // integer >= 0
	kindDate                      // YYYY-MM-DD
	kindRole                      // model role name
)

// column is one updatable column. The name is always a literal from the maps below.
type column struct {
	name string
	kind valueKind
}

// itemFields maps request field names to inventory columns. The German keys are
// the column names older clients still send.
var itemFields = map[string]column{
	"group":    {"group_name", kindText},
	"gruppe":   {"group_name", kindText},
	"name_id":  {"name_id", kindLabel},
	"location": {"location", kindText},
	"lagerort": {"location", kindText},
	"quantity": {"quantity", kindCount},
	"anzahl":   {"quantity", kindCount},
	"info":     {"info", kindText},
	"usage":    {"usage", kindText},
	"gebrauch": {"usage", kindText},
}

var eventFields = map[string]column{
	"date":           {"date", kindDate},
	"datum":          {"date", kindDate},
	"name":           {"name", kindText},
	"location":       {"location", kindText},
	"ort":            {"location", kindText},
	"responsible":    {"responsible", kindText},
	"verantwortlich": {"responsible", kindText},
	"info":           {"info", kindText},
	"status":         {"status", kindText},
}

// userFields excludes password: hashing happens before UpdateUserPassword.
var userFields = map[string]column{
	"username": {"username", kindLabel},
	"role":     {"role", kindRole},
	"info":     {"info", kindText},
}

// lookupField resolves a request field name against an allow-list.
func lookupField(fields map[string]column, name string) (column, error) {
	c, ok := fields[name]
	if !ok {
		return column{}, fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return c, nil
}

// convert turns a decoded JSON value into the value bound for c.
func (c column) convert(value any) (any, error) {
	switch c.kind {
	case kindCount:
		n, err := toInt(value)
		if err != nil || n < 0 || n > MaxCount {
			return nil, fmt.Errorf("%w: %s must be a whole number from 0 to %d", ErrInvalidValue, c.name, MaxCount)
		}
		return n, nil
	case kindDate:
		s, err := toText(value)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return nil, fmt.Errorf("%w: %s must be formatted as YYYY-MM-DD", ErrInvalidValue, c.name)
		}
		return s, nil
	case kindLabel:
		s, err := toText(value)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidValue, c.name)
		}
		return s, nil
	case kindRole:
		s, err := toText(value)
		if err != nil {
			return nil, err
		}
		if !model.ValidRole(s) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidValue, s)
		}
		return s, nil
	default:
		return toText(value)
	}
}

func toText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", fmt.Errorf("%w: expected text, got %T", ErrInvalidValue, value)
	}
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > MaxCount {
			return 0, ErrInvalidValue
		}
		return int(v), nil
	case int:
		return toInt(int64(v))
	case int64:
		if v > MaxCount || v < -MaxCount {
			return 0, ErrInvalidValue
		}
		return int(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, ErrInvalidValue
		}
		return toInt(n)
	default:
		return 0, ErrInvalidValue
	}
}
