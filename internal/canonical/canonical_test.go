package canonical

import (
	"testing"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

func TestMarshal_SortedKeysNoWhitespace(t *testing.T) {
	ast := model.AST{
		Subject:  model.Subject{Type: model.SubjectUser, Identifier: "alice"},
		Verb:     model.Verb{Class: model.VerbMutate, Action: "MOVE"},
		Object:   model.Object{Type: model.ObjectFile, Identifier: "/home/alice/in/a.txt"},
		Metadata: model.Metadata{Scope: "home", Reversible: true, Sensitivity: model.SensitivityLow},
	}

	b, err := Marshal(ast)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"metadata":{"hrc_required":false,"reversible":true,"scope":"home","sensitivity":"LOW"},` +
		`"object":{"identifier":"/home/alice/in/a.txt","type":"FILE"},` +
		`"subject":{"identifier":"alice","type":"USER"},` +
		`"verb":{"action":"MOVE","class":"MUTATE"}}`
	if string(b) != want {
		t.Fatalf("canonical form mismatch:\n got %s\nwant %s", b, want)
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	v := map[string]any{"b": 2, "a": "x", "c": true}
	b1, err := Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b2, err := Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("not deterministic: %s != %s", b1, b2)
	}
	if string(b1) != `{"a":"x","b":2,"c":true}` {
		t.Fatalf("unexpected canonical form: %s", b1)
	}
}

func TestHash_HexSHA256(t *testing.T) {
	h, err := Hash(map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if len(h) != 64 {
		t.Fatalf("expected 64-char hex digest, got %d chars", len(h))
	}
}

func TestMessage_LengthPrefixedFields(t *testing.T) {
	m := NewMessage().String("ab").Int64(7).Bytes()

	want := []byte{0, 0, 0, 2, 'a', 'b', 0, 0, 0, 1, '7'}
	if len(m) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(m), len(want))
	}
	for i := range want {
		if m[i] != want[i] {
			t.Fatalf("byte %d: got %d want %d", i, m[i], want[i])
		}
	}
}

func TestMessage_NoDelimiterCollision(t *testing.T) {
	// ("ab","c") and ("a","bc") must encode differently.
	m1 := NewMessage().String("ab").String("c").Bytes()
	m2 := NewMessage().String("a").String("bc").Bytes()
	if string(m1) == string(m2) {
		t.Fatal("length-prefixed encoding collided across field boundaries")
	}
}
