// Package resultio renders an interp.AIResult to JSON and exposes a small
// gjson/sjson-backed query helper, so the CLI's `run --json --query` flag
// can pull one field out of a large result without a caller writing a
// JSON-walking loop by hand.
package resultio

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cwbudde/aicore/internal/domain"
	"github.com/cwbudde/aicore/internal/domain/numeric"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/interp"
)

// Document is the JSON-serializable view of an interp.AIResult.
type Document struct {
	WasAborted  bool                   `json:"wasAborted"`
	AbortReason string                 `json:"abortReason,omitempty"`
	PCs         map[string]PCState     `json:"pcs"`
	Returns     map[string]any         `json:"returns,omitempty"`
	Thrown      map[string][]any       `json:"thrown,omitempty"`
}

// PCState is the rendered operand stack and local register state recorded
// at one pc.
type PCState struct {
	Operands []any `json:"operands"`
	Locals   []any `json:"locals"`
}

// Render converts an AIResult into its JSON document form.
func Render(r *interp.AIResult) Document {
	doc := Document{
		WasAborted: r.WasAborted,
		PCs:        map[string]PCState{},
	}
	if r.AbortReason != nil {
		doc.AbortReason = r.AbortReason.Error()
	}
	for pc, ops := range r.OperandsAt {
		locals := r.LocalsAt[pc]
		doc.PCs[strconv.Itoa(pc)] = PCState{
			Operands: renderValues(ops),
			Locals:   renderValues(locals),
		}
	}
	if len(r.ReturnValues) > 0 {
		doc.Returns = map[string]any{}
		for pc, v := range r.ReturnValues {
			doc.Returns[strconv.Itoa(pc)] = renderValue(v)
		}
	}
	if len(r.ThrownValues) > 0 {
		doc.Thrown = map[string][]any{}
		for pc, vs := range r.ThrownValues {
			var rendered []any
			for _, v := range vs {
				rendered = append(rendered, renderValue(v))
			}
			doc.Thrown[strconv.Itoa(pc)] = rendered
		}
	}
	return doc
}

// MarshalJSON renders r directly to an indented JSON byte slice.
func MarshalJSON(r *interp.AIResult) ([]byte, error) {
	return json.MarshalIndent(Render(r), "", "  ")
}

func renderValues(vs []domain.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = renderValue(v)
	}
	return out
}

func renderValue(v domain.Value) any {
	if v == nil {
		return nil
	}
	switch tv := v.(type) {
	case refval.Value:
		return renderRefValue(tv)
	case numeric.Int:
		if exact, ok := tv.Value(); ok {
			return map[string]any{"sort": "int", "exact": exact}
		}
		return map[string]any{"sort": "int", "exact": nil}
	case numeric.Long:
		if exact, ok := tv.Value(); ok {
			return map[string]any{"sort": "long", "exact": exact}
		}
		return map[string]any{"sort": "long", "exact": nil}
	case numeric.Float:
		if exact, ok := tv.Value(); ok {
			return map[string]any{"sort": "float", "exact": exact}
		}
		return map[string]any{"sort": "float", "exact": nil}
	case numeric.Double:
		if exact, ok := tv.Value(); ok {
			return map[string]any{"sort": "double", "exact": exact}
		}
		return map[string]any{"sort": "double", "exact": nil}
	case domain.ReturnAddress:
		return map[string]any{"sort": "return-address", "pcs": []int(tv)}
	case domain.Wide:
		return map[string]any{"sort": "wide"}
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderRefValue(v refval.Value) any {
	base := map[string]any{
		"origin":    v.Origin(),
		"timestamp": v.Timestamp(),
		"isNull":    v.IsNull().String(),
		"utb":       v.UTB().String(),
	}
	switch tv := v.(type) {
	case *refval.Null:
		base["sort"] = "null"
	case *refval.Array:
		base["sort"] = "array"
		base["precise"] = tv.IsPrecise()
	case *refval.SObject:
		base["sort"] = "sobject"
		base["precise"] = tv.IsPrecise()
		base["type"] = string(tv.ObjectType())
	case *refval.MObject:
		base["sort"] = "mobject"
		types := tv.Types()
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		base["types"] = names
	case *refval.Multi:
		base["sort"] = "multi"
		base["precise"] = tv.IsPrecise()
		members := tv.Values()
		origins := make([]int, len(members))
		for i, m := range members {
			origins[i] = m.Origin()
		}
		sort.Ints(origins)
		base["memberOrigins"] = origins
	}
	return base
}

// Query evaluates a gjson path against a rendered AIResult document and
// returns the matched value as a string, or ok=false if the path matched
// nothing.
func Query(r *interp.AIResult, path string) (string, bool) {
	data, err := MarshalJSON(r)
	if err != nil {
		return "", false
	}
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return "", false
	}
	return result.String(), true
}

// SetField rewrites a single field of a rendered AIResult's JSON, returning
// the modified document. Used by tooling that wants to annotate a result
// (e.g. attach a review note to one pc) without re-deriving the whole tree.
func SetField(r *interp.AIResult, path string, value any) ([]byte, error) {
	data, err := MarshalJSON(r)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(data, path, value)
}
