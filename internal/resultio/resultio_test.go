package resultio

import (
	"strings"
	"testing"

	"github.com/cwbudde/aicore/internal/domain"
	"github.com/cwbudde/aicore/internal/domain/numeric"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/interp"
	"github.com/cwbudde/aicore/internal/typesys"
)

func sampleResult() *interp.AIResult {
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{
		typesys.ObjectObject: {},
	})
	d := domain.New(h)
	r := &interp.AIResult{
		OperandsAt: map[int]domain.OperandStack{
			0: {numeric.ExactInt(3), d.Refs.NullValue(0)},
		},
		LocalsAt: map[int]domain.Registers{
			0: {d.Refs.NonNullObjectValue(0, typesys.ObjectObject)},
		},
		ReturnValues: map[int]domain.Value{
			1: numeric.ExactInt(3),
		},
		ThrownValues: map[int][]domain.Value{
			2: {d.Refs.NewObject(2, typesys.Intern("java/lang/NullPointerException"))},
		},
		Domain: d,
	}
	return r
}

func TestRenderProducesOneEntryPerRecordedPC(t *testing.T) {
	doc := Render(sampleResult())
	if doc.WasAborted {
		t.Errorf("WasAborted should default false")
	}
	pc0, ok := doc.PCs["0"]
	if !ok {
		t.Fatalf("expected a rendered entry for pc 0")
	}
	if len(pc0.Operands) != 2 {
		t.Fatalf("operands at pc 0 = %v, want 2 entries", pc0.Operands)
	}
	if len(pc0.Locals) != 1 {
		t.Fatalf("locals at pc 0 = %v, want 1 entry", pc0.Locals)
	}
}

func TestRenderNumericValueShape(t *testing.T) {
	doc := Render(sampleResult())
	m, ok := doc.PCs["0"].Operands[0].(map[string]any)
	if !ok {
		t.Fatalf("operand 0 = %T, want map[string]any", doc.PCs["0"].Operands[0])
	}
	if m["sort"] != "int" || m["exact"] != int32(3) {
		t.Errorf("rendered int = %+v, want sort=int exact=3", m)
	}
}

func TestRenderRefValueShape(t *testing.T) {
	doc := Render(sampleResult())
	m, ok := doc.PCs["0"].Operands[1].(map[string]any)
	if !ok {
		t.Fatalf("operand 1 = %T, want map[string]any", doc.PCs["0"].Operands[1])
	}
	if m["sort"] != "null" {
		t.Errorf("rendered null value sort = %v, want null", m["sort"])
	}
	if m["isNull"] != typesys.Yes.String() {
		t.Errorf("rendered isNull = %v, want %s", m["isNull"], typesys.Yes)
	}
}

func TestMarshalJSONRoundTripsThroughQuery(t *testing.T) {
	r := sampleResult()
	data, err := MarshalJSON(r)
	if err != nil {
		t.Fatalf("MarshalJSON returned error: %v", err)
	}
	if !strings.Contains(string(data), `"wasAborted"`) {
		t.Errorf("rendered JSON missing wasAborted field: %s", data)
	}

	v, ok := Query(r, "pcs.0.operands.0.sort")
	if !ok {
		t.Fatalf("Query found nothing for pcs.0.operands.0.sort")
	}
	if v != "int" {
		t.Errorf("Query result = %q, want %q", v, "int")
	}
}

func TestQueryReportsMissingPath(t *testing.T) {
	if _, ok := Query(sampleResult(), "nope.nothing.here"); ok {
		t.Errorf("Query on a nonexistent path must report ok=false")
	}
}

func TestSetFieldRewritesOneField(t *testing.T) {
	r := sampleResult()
	out, err := SetField(r, "wasAborted", true)
	if err != nil {
		t.Fatalf("SetField returned error: %v", err)
	}
	if !strings.Contains(string(out), `"wasAborted": true`) {
		t.Errorf("SetField did not rewrite wasAborted, got %s", out)
	}
}

func TestRenderMultiValueSortsMemberOrigins(t *testing.T) {
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{
		typesys.ObjectObject: {},
	})
	d := domain.New(h)
	a := d.Refs.NewObject(5, typesys.Intern("demo/A"))
	b := d.Refs.NewObject(2, typesys.Intern("demo/B"))
	joined := d.Refs.Join(0, a, b)
	multi, ok := joined.Value.(*refval.Multi)
	if !ok {
		t.Skipf("join of unrelated precise types did not produce a Multi in this hierarchy shape: %T", joined.Value)
	}
	rendered := renderRefValue(multi)
	m := rendered.(map[string]any)
	origins, ok := m["memberOrigins"].([]int)
	if !ok {
		t.Fatalf("memberOrigins = %T, want []int", m["memberOrigins"])
	}
	for i := 1; i < len(origins); i++ {
		if origins[i-1] > origins[i] {
			t.Errorf("memberOrigins not sorted: %v", origins)
		}
	}
}
