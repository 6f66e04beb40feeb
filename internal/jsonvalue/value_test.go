package jsonvalue

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"null", `null`},
		{"bool", `true`},
		{"integer", `42`},
		{"float keeps text", `1.0`},
		{"exponent", `1e-7`},
		{"string", `"héllo \"world\""`},
		{"html is not escaped", `"<a&b>"`},
		{"empty array", `[]`},
		{"empty object", `{}`},
		{"key order", `{"z":1,"a":2,"m":{"y":true,"b":null}}`},
		{"filter", `{"and":[{"property":"Done","checkbox":{"equals":true}},{"property":"Tags","multi_select":{"contains":"x"}}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.in))
			if err != nil {
				t.Fatalf("Parse(%s) error = %v", tt.in, err)
			}
			if got := v.String(); got != tt.in {
				t.Errorf("String() = %s, want %s", got, tt.in)
			}
		})
	}
}

func TestParseWhitespace(t *testing.T) {
	v := MustParse("{\n  \"b\": [1, 2],\n  \"a\": \"x\"\n}\n")
	if got, want := v.String(), `{"b":[1,2],"a":"x"}`; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	if got := v.Keys(); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Keys() = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{``, `{`, `[1,]`, `{"a":1} {"b":2}`, `nul`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestAccessors(t *testing.T) {
	v := MustParse(`{"n":3.5,"s":"x","b":false,"arr":[1,"two"],"nil":null}`)
	if v.Kind() != KindObject || v.Len() != 5 {
		t.Fatalf("Kind() = %s, Len() = %d", v.Kind(), v.Len())
	}
	n, _ := v.Get("n")
	if f, ok := n.Float(); !ok || f != 3.5 {
		t.Errorf("Float() = %v, %v", f, ok)
	}
	s, _ := v.Get("s")
	if text, ok := s.Text(); !ok || text != "x" {
		t.Errorf("Text() = %q, %v", text, ok)
	}
	b, _ := v.Get("b")
	if val, ok := b.Boolean(); !ok || val {
		t.Errorf("Boolean() = %v, %v", val, ok)
	}
	arr, _ := v.Get("arr")
	if arr.Len() != 2 || arr.Index(1).Kind() != KindString || !arr.Index(5).IsNull() {
		t.Errorf("unexpected array accessors for %s", arr)
	}
	if _, ok := v.Get("missing"); ok {
		t.Error("Get(missing) reported present")
	}
	if nilValue, ok := v.Get("nil"); !ok || !nilValue.IsNull() {
		t.Error("Get(nil) is not null")
	}
}

func TestBuild(t *testing.T) {
	obj := Object()
	obj.Set("timestamp", String("last_edited_time"))
	obj.Set("direction", String("descending"))
	obj.Set("timestamp", String("created_time"))
	list := Array(obj, Number(2), Bool(true), Null())
	if got, want := list.String(), `[{"timestamp":"created_time","direction":"descending"},2,true,null]`; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	if got := Array().String(); got != "[]" {
		t.Errorf("Array() = %s", got)
	}
}

func TestNumberNotFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		v := Number(f)
		if v.Kind() != KindNull {
			t.Errorf("Number(%v).Kind() = %v, want null", f, v.Kind())
		}
		data, err := json.Marshal(Array(v, Number(1.5)))
		if err != nil {
			t.Fatalf("Marshal(Number(%v)) error = %v", f, err)
		}
		if string(data) != "[null,1.5]" {
			t.Errorf("Marshal(Number(%v)) = %s", f, data)
		}
	}
}

func TestEmbeddedInStruct(t *testing.T) {
	type request struct {
		Filter *Value `json:"filter,omitempty"`
		Size   int    `json:"page_size"`
	}
	f := MustParse(`{"property":"Status","status":{"equals":"Done"}}`)
	data, err := json.Marshal(request{Filter: &f, Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"filter":{"property":"Status","status":{"equals":"Done"}},"page_size":10}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	var back request
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Filter == nil || back.Filter.String() != f.String() {
		t.Errorf("Unmarshal() filter = %v", back.Filter)
	}
}
