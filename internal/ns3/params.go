package ns3

import (
	"fmt"
	"strconv"
	"strings"
)

type Param struct {
	Name  string
	Value any
}

// ParamSet is an ordered set of simulator arguments. It is a value type:
// With returns a modified copy and never touches the receiver.
type ParamSet struct {
	params []Param
}

func NewParamSet(params ...Param) ParamSet {
	var ps ParamSet
	for _, p := range params {
		ps.set(p.Name, p.Value)
	}
	return ps
}

// With overlays name=value. An existing name keeps its position.
func (ps ParamSet) With(name string, value any) ParamSet {
	out := ParamSet{params: make([]Param, len(ps.params), len(ps.params)+1)}
	copy(out.params, ps.params)
	out.set(name, value)
	return out
}

func (ps *ParamSet) set(name string, value any) {
	for i := range ps.params {
		if ps.params[i].Name == name {
			ps.params[i].Value = value
			return
		}
	}
	ps.params = append(ps.params, Param{Name: name, Value: value})
}

func (ps ParamSet) Get(name string) (any, bool) {
	for _, p := range ps.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Lookup returns the formatted value of name, or "" when absent.
func (ps ParamSet) Lookup(name string) string {
	v, ok := ps.Get(name)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

func (ps ParamSet) Len() int { return len(ps.params) }

// Args renders every parameter as a --name=value token.
func (ps ParamSet) Args() []string {
	out := make([]string, 0, len(ps.params))
	for _, p := range ps.params {
		out = append(out, "--"+p.Name+"="+FormatValue(p.Value))
	}
	return out
}

func (ps ParamSet) String() string {
	parts := make([]string, 0, len(ps.params))
	for _, p := range ps.params {
		parts = append(parts, p.Name+"="+FormatValue(p.Value))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// FormatValue prints floats in shortest form, so 0.00001 becomes 1e-05.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// CommandLine joins program and arguments into the single string the
// ns3 launcher expects after "run".
func CommandLine(program string, ps ParamSet) string {
	if ps.Len() == 0 {
		return program
	}
	return program + " " + strings.Join(ps.Args(), " ")
}
