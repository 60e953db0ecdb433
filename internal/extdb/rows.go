package extdb

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Row is one result row with lower-cased column names and decoded values.
// NULL becomes the empty string.
type Row map[string]string

// Rows is a forward-only cursor over a query result.
type Rows interface {
	Next() bool
	Row() (Row, error)
	Err() error
	Close() error
}

type cursor struct {
	rows    *sqlx.Rows
	decoder *Decoder
}

func (c *cursor) Next() bool { return c.rows.Next() }

func (c *cursor) Row() (Row, error) {
	raw := make(map[string]interface{})
	if err := c.rows.MapScan(raw); err != nil {
		return nil, err
	}
	return normalize(raw, c.decoder)
}

func (c *cursor) Err() error { return c.rows.Err() }

func (c *cursor) Close() error { return c.rows.Close() }

func normalize(raw map[string]interface{}, decoder *Decoder) (Row, error) {
	row := make(Row, len(raw))
	for k, v := range raw {
		s, err := stringify(v, decoder)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", k, err)
		}
		row[strings.ToLower(k)] = s
	}
	return row, nil
}

func stringify(v interface{}, decoder *Decoder) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case []byte:
		return decoder.Decode(string(val))
	case string:
		return decoder.Decode(val)
	case time.Time:
		return formatTime(val), nil
	default:
		return fmt.Sprint(val), nil
	}
}

// formatTime renders DATE, TIME and DATETIME columns the way they would come
// back as text from the records system.
func formatTime(t time.Time) string {
	switch {
	case t.Year() == 0:
		return t.Format("15:04:05")
	case t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0:
		return t.Format("2006-01-02")
	default:
		return t.Format("2006-01-02 15:04:05")
	}
}
