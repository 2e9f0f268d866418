package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vvka-141/csvload/pkg/csvload"
)

// ColumnKind is the storage kind of a column, fixed by the first chunk.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindBigint
	KindDouble
	KindBoolean
)

// SQLType returns the PostgreSQL column type for the kind.
func (k ColumnKind) SQLType() string {
	switch k {
	case KindBigint:
		return "BIGINT"
	case KindDouble:
		return "DOUBLE PRECISION"
	case KindBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (k ColumnKind) String() string {
	return strings.ToLower(k.SQLType())
}

// Column is a normalized column name with its fixed kind.
type Column struct {
	Name string
	Kind ColumnKind
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// InferKinds picks a kind per column from the rows of the first chunk.
// A column is numeric or boolean only if every cell is non-empty and parses
// as that kind; anything else, including any empty cell, makes it text.
// Numbers written with leading zeros ("007", "007.5") stay text so they
// round-trip.
func InferKinds(rows [][]string, width int) []ColumnKind {
	kinds := make([]ColumnKind, width)
	for col := 0; col < width; col++ {
		kinds[col] = inferColumn(rows, col)
	}
	return kinds
}

func inferColumn(rows [][]string, col int) ColumnKind {
	if len(rows) == 0 {
		return KindText
	}

	isInt, isFloat, isBool := true, true, true
	for _, row := range rows {
		v := row[col]
		if v == "" {
			return KindText
		}
		if isInt {
			if _, ok := parseInt(v); !ok {
				isInt = false
			}
		}
		if isFloat {
			if _, ok := parseFloat(v); !ok {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(v); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return KindText
		}
	}

	switch {
	case isInt:
		return KindBigint
	case isFloat:
		return KindDouble
	case isBool:
		return KindBoolean
	default:
		return KindText
	}
}

// hasLeadingZero reports whether the integer part of a number has more than
// one digit and starts with '0'. "0.5" does not; "007" and "-007.5" do.
func hasLeadingZero(v string) bool {
	digits := strings.TrimLeft(v, "+-")
	if i := strings.IndexAny(digits, ".eE"); i >= 0 {
		digits = digits[:i]
	}
	return len(digits) > 1 && digits[0] == '0'
}

func parseInt(v string) (int64, bool) {
	if hasLeadingZero(v) {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil
}

func parseFloat(v string) (float64, bool) {
	if hasLeadingZero(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// Coerce converts the string cells of a chunk into values of the fixed
// column kinds. A cell that does not fit its column fails the whole chunk
// with csvload.ErrTypeConflict. firstLine is the source line of rows[0].
func Coerce(cols []Column, rows [][]string, firstLine int) ([][]any, error) {
	out := make([][]any, len(rows))
	for r, row := range rows {
		values := make([]any, len(cols))
		for c, col := range cols {
			v, ok := coerceCell(col.Kind, row[c])
			if !ok {
				return nil, fmt.Errorf("row %d, column %q: value %q is not %s: %w",
					firstLine+r, col.Name, preview(row[c]), col.Kind, csvload.ErrTypeConflict)
			}
			values[c] = v
		}
		out[r] = values
	}
	return out, nil
}

func coerceCell(kind ColumnKind, v string) (any, bool) {
	switch kind {
	case KindBigint:
		return parseInt(v)
	case KindDouble:
		return parseFloat(v)
	case KindBoolean:
		return parseBool(v)
	default:
		return v, true
	}
}

func preview(v string) string {
	if len(v) <= csvload.MaxErrorPreviewLength {
		return v
	}
	return v[:csvload.MaxErrorPreviewLength] + "..."
}
