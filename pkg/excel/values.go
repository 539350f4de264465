package excel

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

func (e *ExcelExporter) convertCell(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		if e.opts.DateFormat != "" {
			return val.Format(e.opts.DateFormat)
		}
		return val
	default:
		return v
	}
}

// formatTextValue renders a cell value for plain-text output. Floats drop
// trailing zeros and dates use the ISO layout so the output stays parseable.
func formatTextValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(val)
	}
}
