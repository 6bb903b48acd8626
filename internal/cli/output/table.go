package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// TableFormatter renders data as aligned columns.
//
// Struct fields are turned into columns named after their json tag. The
// table tag tunes a column:
//
//	table:"-"        skip the field
//	table:"wide"     only shown with --wide
//	table:"unixms"   int64 Unix milliseconds rendered as a timestamp
//	table:"ago"      timestamps rendered relative to now
//
// Options combine with commas, e.g. table:"unixms,ago".
type TableFormatter struct {
	Wide      bool
	NoHeaders bool

	now func() time.Time
}

// Format writes data as a table. Supports *Table, []T, map[K]V and single
// structs; anything else is written as JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	table, err := f.toTable(data)
	if err != nil {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func (f *TableFormatter) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}

// column is one rendered struct field.
type column struct {
	index  int
	header string
	name   string
	unixMS bool
	ago    bool
}

func (f *TableFormatter) columns(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		var col column
		col.index = i
		skip := false
		for _, opt := range strings.Split(field.Tag.Get("table"), ",") {
			switch opt {
			case "-":
				skip = true
			case "wide":
				skip = skip || !f.Wide
			case "unixms":
				col.unixMS = true
			case "ago":
				col.ago = true
			}
		}
		if skip {
			continue
		}

		col.name = field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			if name, _, _ := strings.Cut(jsonTag, ","); name != "" && name != "-" {
				col.name = name
			}
		}
		col.header = strings.ToUpper(toSnakeCase(col.name))
		cols = append(cols, col)
	}
	return cols
}

func (f *TableFormatter) cell(v reflect.Value, col column) string {
	if col.unixMS {
		if v.Kind() == reflect.Int64 || v.Kind() == reflect.Int {
			if v.Int() == 0 {
				return "-"
			}
			v = reflect.ValueOf(time.UnixMilli(v.Int()))
		}
	}
	if col.ago {
		if tm, ok := v.Interface().(time.Time); ok {
			if tm.IsZero() {
				return "-"
			}
			return humanize.RelTime(tm, f.clock(), "ago", "from now")
		}
	}
	return formatValue(v)
}

func (f *TableFormatter) toTable(data any) (*Table, error) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return f.sliceToTable(v)
	case reflect.Map:
		return mapToTable(v), nil
	case reflect.Struct:
		return f.structToTable(v), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

func (f *TableFormatter) sliceToTable(v reflect.Value) (*Table, error) {
	if v.Len() == 0 {
		return &Table{}, nil
	}

	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}

	table := &Table{}
	if elemType.Kind() != reflect.Struct {
		table.Headers = []string{"VALUE"}
		for i := 0; i < v.Len(); i++ {
			table.AddRow(formatValue(v.Index(i)))
		}
		return table, nil
	}

	cols := f.columns(elemType)
	for _, c := range cols {
		table.Headers = append(table.Headers, c.header)
	}
	for i := 0; i < v.Len(); i++ {
		elem := reflect.Indirect(v.Index(i))
		if !elem.IsValid() {
			continue
		}
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = f.cell(elem.Field(c.index), c)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// mapToTable renders a map as KEY/VALUE rows sorted by key.
func mapToTable(v reflect.Value) *Table {
	table := &Table{Headers: []string{"KEY", "VALUE"}}
	iter := v.MapRange()
	for iter.Next() {
		table.AddRow(formatValue(iter.Key()), formatValue(iter.Value()))
	}
	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i][0] < table.Rows[j][0] })
	return table
}

// structToTable renders a single struct as FIELD/VALUE rows.
func (f *TableFormatter) structToTable(v reflect.Value) *Table {
	table := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range f.columns(v.Type()) {
		table.AddRow(c.name, f.cell(v.Field(c.index), c))
	}
	return table
}

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	if tm, ok := v.Interface().(time.Time); ok {
		if tm.IsZero() {
			return "-"
		}
		return tm.Format("2006-01-02 15:04")
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.2f", v.Float())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// toSnakeCase converts CamelCase to Snake_Case. json names are already
// snake case and pass through unchanged.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return result.String()
}

// Table is pre-built tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render writes the table with headers.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions writes the table, optionally without the header row.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders replaces the header row.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
