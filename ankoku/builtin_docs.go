package ankoku

import (
	"fmt"
	"sort"
	"strings"
)

type ParamDoc struct {
	Name        string
	Description string
}

// Docstring documents a native for the doc generator and editor tooling.
type Docstring struct {
	Description string
	Params      []ParamDoc
	Returns     string
}

func NewDocstring(description string, params []ParamDoc, returns string) *Docstring {
	return &Docstring{
		Description: description,
		Params:      params,
		Returns:     returns,
	}
}

func (d *Docstring) String() string {
	var b strings.Builder
	b.WriteString(d.Description)
	if len(d.Params) > 0 {
		b.WriteString("\n\nParams:\n")
		for _, p := range d.Params {
			b.WriteString(fmt.Sprintf("  %s: %s\n", p.Name, p.Description))
		}
	}
	if d.Returns != "" {
		b.WriteString("\nReturns:\n")
		b.WriteString(fmt.Sprintf("  %s\n", d.Returns))
	}
	return b.String()
}

// Signature renders the call shape, e.g. "setField(instance, name, value)".
func (d *Docstring) Signature(name string) string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.Name
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
}

var BuiltinDocs = map[string]*Docstring{
	"clock": NewDocstring(
		"Returns the number of seconds elapsed since the process started.",
		nil,
		"number",
	),
	"str": NewDocstring(
		"Converts any value to its printed string form.",
		[]ParamDoc{
			{"value", "The value to convert."},
		},
		"string",
	),
	"len": NewDocstring(
		"Returns the length of a string in bytes.",
		[]ParamDoc{
			{"s", "The string to measure."},
		},
		"number",
	),
	"num": NewDocstring(
		"Converts a string, bool or number to a number.",
		[]ParamDoc{
			{"value", "The value to convert."},
		},
		"number",
	),
	"sqrt": NewDocstring(
		"Returns the square root of x.",
		[]ParamDoc{
			{"x", "A number."},
		},
		"number",
	),
	"floor": NewDocstring(
		"Returns the greatest integer value less than or equal to x.",
		[]ParamDoc{
			{"x", "A number."},
		},
		"number",
	),
	"abs": NewDocstring(
		"Returns the absolute value of x.",
		[]ParamDoc{
			{"x", "A number."},
		},
		"number",
	),
	"type": NewDocstring(
		"Returns the name of a value's type.",
		[]ParamDoc{
			{"value", "The value to inspect."},
		},
		"string",
	),
	"hasField": NewDocstring(
		"Reports whether an instance has a field with the given name.",
		[]ParamDoc{
			{"instance", "The instance to inspect."},
			{"name", "The field name."},
		},
		"bool",
	),
	"getField": NewDocstring(
		"Reads a field by name. It is an error if the field does not exist.",
		[]ParamDoc{
			{"instance", "The instance to read from."},
			{"name", "The field name."},
		},
		"any",
	),
	"setField": NewDocstring(
		"Sets a field by name and returns the value.",
		[]ParamDoc{
			{"instance", "The instance to modify."},
			{"name", "The field name."},
			{"value", "The value to store."},
		},
		"any",
	),
	"deleteField": NewDocstring(
		"Removes a field from an instance.",
		[]ParamDoc{
			{"instance", "The instance to modify."},
			{"name", "The field name."},
		},
		"bool: whether the field existed",
	),
	"gc": NewDocstring(
		"Runs the garbage collector immediately.",
		nil,
		"number: bytes freed",
	),
}

// BuiltinNames lists every documented native in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(BuiltinDocs))
	for name := range BuiltinDocs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
