package templates

import (
	"errors"
	"reflect"
	"testing"
)

func TestFormatDefaultsAndOverrides(t *testing.T) {
	res := &Resolved{
		Body:      "x={x} y={y}",
		Variables: map[string]string{"x": "1", "y": "2"},
	}

	out, err := res.Format(map[string]string{"x": "9"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out != "x=9 y=2" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFormatMissingVariable(t *testing.T) {
	res := &Resolved{Body: "value={z}", Variables: map[string]string{}}

	_, err := res.Format(nil)
	var missing *MissingVariableError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingVariableError, got %v", err)
	}
	if missing.Name != "z" {
		t.Fatalf("expected variable z, got %q", missing.Name)
	}
}

func TestFormatIdempotent(t *testing.T) {
	res := &Resolved{
		Body:      "Hello, {name}!",
		Variables: map[string]string{"name": "World"},
	}

	first, err := res.Format(map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	second, err := res.Format(map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical output, got %q then %q", first, second)
	}
	if res.Variables["name"] != "World" {
		t.Fatalf("Format must not mutate resolved variables")
	}
}

func TestFormatEscapedBraces(t *testing.T) {
	res := &Resolved{
		Body:      "literal {{x}} and value {x}",
		Variables: map[string]string{"x": "1"},
	}

	out, err := res.Format(nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out != "literal {x} and value 1" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFormatNonIdentifierBraces(t *testing.T) {
	res := &Resolved{Body: `{"json": true} and {1abc} stay put`, Variables: nil}

	out, err := res.Format(nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out != `{"json": true} and {1abc} stay put` {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFormatUnterminatedBrace(t *testing.T) {
	res := &Resolved{Body: "trailing {name", Variables: map[string]string{"name": "x"}}

	out, err := res.Format(nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out != "trailing {name" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPartialCommutative(t *testing.T) {
	res := &Resolved{
		Body:      "a={a} b={b}",
		Variables: map[string]string{},
	}

	first, err := res.Partial(map[string]string{"a": "1"}).Format(map[string]string{"b": "2"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	second, err := res.Partial(map[string]string{"b": "2"}).Format(map[string]string{"a": "1"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	direct, err := res.Format(map[string]string{"a": "1", "b": "2"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if first != direct || second != direct {
		t.Fatalf("partial application changed the result: %q, %q, %q", first, second, direct)
	}
}

func TestPartialLastWriteWins(t *testing.T) {
	res := &Resolved{Body: "v={v}", Variables: map[string]string{}}

	out, err := res.Partial(map[string]string{"v": "old"}).
		With(map[string]string{"v": "mid"}).
		Format(map[string]string{"v": "new"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out != "v=new" {
		t.Fatalf("expected last write to win, got %q", out)
	}
}

func TestPlaceholders(t *testing.T) {
	res := &Resolved{Body: "{a} {b} {{skip}} {a} {not-one}"}

	got := res.Placeholders()
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected placeholders: %v", got)
	}
}

func TestFormatEndToEnd(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"greet.yaml": `name: greet
variables:
  name: World
template: "Hello, {name}!"
`,
	})

	res, err := store.Resolve("greet")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	out, err := res.Format(nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out != "Hello, World!" {
		t.Fatalf("expected default greeting, got %q", out)
	}

	out, err = res.Format(map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out != "Hello, Ada!" {
		t.Fatalf("expected override greeting, got %q", out)
	}
}
