package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// Defaults.
const (
	DefaultPreviewItems = 5
	DefaultMaxLength    = 4000

	unknown         = "unknown"
	truncatedSuffix = "\n... (truncated)"
)

// Options controls summary rendering.
type Options struct {
	// PreviewItems is the number of array elements shown before "+N more".
	PreviewItems int
	// MaxLength caps the summary in runes, suffix included.
	MaxLength int
}

// Formatter renders reports. It is safe for concurrent use.
type Formatter struct {
	opts Options
}

// New creates a Formatter. Non-positive options fall back to defaults.
func New(opts Options) *Formatter {
	if opts.PreviewItems <= 0 {
		opts.PreviewItems = DefaultPreviewItems
	}
	if opts.MaxLength <= len(truncatedSuffix) {
		opts.MaxLength = DefaultMaxLength
	}
	return &Formatter{opts: opts}
}

// Format renders r with default options.
func Format(r *domain.Report) string {
	return New(Options{}).Format(r)
}

// Format renders r as plain text. A nil report or missing metadata yields
// "unknown" markers rather than an error.
func (f *Formatter) Format(r *domain.Report) string {
	var b strings.Builder

	if r == nil {
		b.WriteString("Report " + unknown + "\n")
		b.WriteString("token: " + unknown + "\n")
		return f.limit(b.String())
	}

	fmt.Fprintf(&b, "Report %s\n", orUnknown(r.ID))
	tok := unknown
	if r.TokenID != "" {
		tok = domain.MaskToken(r.TokenID)
	}
	fmt.Fprintf(&b, "token: %s\n", tok)

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f.writeField(&b, k, r.Fields[k])
	}

	if n := len(r.Attachments); n > 0 {
		fmt.Fprintf(&b, "attachments: %d\n", n)
		for _, a := range r.Attachments {
			fmt.Fprintf(&b, "  - %s (%s, %s)\n",
				orUnknown(a.Name), orUnknown(a.ContentType), humanize.Bytes(uint64(a.Size())))
		}
	}

	return f.limit(b.String())
}

func (f *Formatter) writeField(b *strings.Builder, key string, v any) {
	switch val := v.(type) {
	case []any:
		fmt.Fprintf(b, "%s: %d items\n", key, len(val))
		shown := min(len(val), f.opts.PreviewItems)
		for _, item := range val[:shown] {
			fmt.Fprintf(b, "  - %s\n", scalar(item))
		}
		if rest := len(val) - shown; rest > 0 {
			fmt.Fprintf(b, "  +%d more\n", rest)
		}
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		f.writeField(b, key, items)
	case map[string]any:
		if len(val) == 0 {
			fmt.Fprintf(b, "%s: %s\n", key, unknown)
			return
		}
		fmt.Fprintf(b, "%s:\n", key)
		subs := make([]string, 0, len(val))
		for k := range val {
			subs = append(subs, k)
		}
		sort.Strings(subs)
		for _, k := range subs {
			fmt.Fprintf(b, "  %s: %s\n", k, scalar(val[k]))
		}
	default:
		fmt.Fprintf(b, "%s: %s\n", key, scalar(val))
	}
}

// scalar renders a single value on one line. Composite values are encoded
// as compact JSON (encoding/json sorts map keys).
func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return unknown
	case string:
		return orUnknown(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func (f *Formatter) limit(s string) string {
	s = strings.TrimRight(s, "\n")
	r := []rune(s)
	if len(r) <= f.opts.MaxLength {
		return s
	}
	cut := f.opts.MaxLength - len([]rune(truncatedSuffix))
	return string(r[:cut]) + truncatedSuffix
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}
