package codec

import (
	"bytes"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	var id Identity
	var got string
	if !id.Parse(id.Serialize("hello world"), &got) {
		t.Fatal("Identity.Parse returned false for valid input")
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestBytesParseCopiesInput(t *testing.T) {
	var bc Bytes
	src := []byte("abc")
	var out []byte
	bc.Parse(src, &out)
	src[0] = 'z' // mutating the source after Parse must not affect out
	if !bytes.Equal(out, []byte("abc")) {
		t.Errorf("Bytes.Parse aliased the input slice: got %q, want %q", out, "abc")
	}
}

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	var jc JSON[widget]
	in := widget{Name: "bolt", Count: 5}
	raw := jc.Serialize(in)
	var out widget
	if !jc.Parse(raw, &out) {
		t.Fatal("JSON.Parse returned false for well-formed JSON")
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestJSONParseFailureIsNonFatal(t *testing.T) {
	var jc JSON[widget]
	var out widget
	if jc.Parse([]byte("{not json"), &out) {
		t.Fatal("Parse should return false, not panic or error, on malformed input")
	}
}

func TestJSONDocDynamicSchema(t *testing.T) {
	var jd JSONDoc
	raw := jd.Serialize(Doc{"foo": "bar", "n": 3.0})
	var out Doc
	if !jd.Parse(raw, &out) {
		t.Fatal("JSONDoc.Parse returned false for valid document")
	}
	if _, ok := out["foo"]; !ok {
		t.Errorf("decoded doc missing key %q: %v", "foo", out)
	}
}
