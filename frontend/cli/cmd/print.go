package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	OutputFormatTable    OutputFormat = "table"
	OutputFormatJSON     OutputFormat = "json"
	OutputFormatYAML     OutputFormat = "yaml"
	OutputFormatMarkdown OutputFormat = "markdown"
)

func (f *OutputFormat) String() string {
	if f == nil || *f == "" {
		return string(OutputFormatTable)
	}
	return string(*f)
}

func (f *OutputFormat) Set(v string) error {
	switch v {
	case "table":
		*f = OutputFormatTable
	case "json":
		*f = OutputFormatJSON
	case "yaml":
		*f = OutputFormatYAML
	case "markdown", "md":
		*f = OutputFormatMarkdown
	default:
		return errors.New(`must be one of "table", "json", "yaml" or "markdown"`)
	}
	return nil
}

func (f *OutputFormat) Type() string {
	return "format"
}

type RenderOptions struct {
	Format OutputFormat
}

func addRenderOptions(cmd *cobra.Command, options *RenderOptions) {
	cmd.Flags().VarP(&options.Format, "output", "o", "output format (table, json, yaml, markdown)")
}

type OutputRenderer interface {
	Render(resources any, options *RenderOptions) error
}

// DefaultRenderer prints resources in the requested format. Table and
// markdown output list the struct fields tagged with detail:"default".
type DefaultRenderer struct {
	Out io.Writer
}

func (r *DefaultRenderer) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

func (r *DefaultRenderer) Render(resources any, options *RenderOptions) error {
	format := OutputFormatTable
	if options != nil && options.Format != "" {
		format = options.Format
	}

	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(r.out())
		encoder.SetIndent("", "  ")
		return encoder.Encode(resources)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(r.out())
		defer encoder.Close()
		return encoder.Encode(resources)
	case OutputFormatMarkdown:
		return renderMarkdown(r.out(), resources)
	default:
		return renderTable(r.out(), resources)
	}
}

type column struct {
	index int
	name  string
}

func displayColumns(t reflect.Type) []column {
	var columns []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("detail") != "default" {
			continue
		}
		columns = append(columns, column{index: i, name: field.Name})
	}
	return columns
}

// rows flattens a struct, pointer or slice of either into struct values.
func rows(resources any) []reflect.Value {
	if resources == nil {
		return nil
	}

	v := reflect.ValueOf(resources)
	if v.Kind() == reflect.Slice {
		out := make([]reflect.Value, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, reflect.Indirect(v.Index(i)))
		}
		return out
	}
	return []reflect.Value{reflect.Indirect(v)}
}

func renderTable(w io.Writer, resources any) error {
	values := rows(resources)
	if len(values) == 0 {
		return nil
	}

	columns := displayColumns(values[0].Type())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c.name)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, v := range values {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = fmt.Sprint(v.Field(c.index).Interface())
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func renderMarkdown(w io.Writer, resources any) error {
	values := rows(resources)
	for i, v := range values {
		if i > 0 {
			fmt.Fprintln(w, "---")
			fmt.Fprintln(w)
		}
		for _, c := range displayColumns(v.Type()) {
			fmt.Fprintf(w, "**%s:** %v\n\n", c.name, v.Field(c.index).Interface())
		}
	}
	return nil
}
