package engine

import (
	"strings"
	"testing"

	"asteria/internal/compiler"
	"asteria/internal/variable"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	q, err := compiler.Compile("<test>", src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	e := New()
	v, err := e.ExecuteTop(q)
	if err != nil {
		return "", err
	}
	return v.Describe(), nil
}

func TestArithmeticAndVariables(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"integer addition", `var x = 1 + 2; return x;`, "3"},
		{"mixed promotion", `var x = 1 + 0.5; return x;`, "1.5"},
		{"string concat", `var s = "foo" + "bar"; return s;`, `"foobar"`},
		{"reassignment", `var x = 1; x = x + 41; return x;`, "42"},
		{"short circuit and", `var x = false && (1 / 0 == 0); return x;`, "false"},
		{"null coalesce", `var x = null ?? 5; return x;`, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIfWhileLoops(t *testing.T) {
	src := `
	var total = 0;
	var i = 0;
	while (i < 5) {
		if (i == 2) {
			i = i + 1;
			continue;
		}
		total = total + i;
		i = i + 1;
	}
	return total;
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "8" {
		t.Fatalf("got %s, want 8 (0+1+3+4)", got)
	}
}

func TestBreakExitsWhile(t *testing.T) {
	src := `
	var i = 0;
	while (true) {
		if (i == 3) {
			break;
		}
		i = i + 1;
	}
	return i;
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "3" {
		t.Fatalf("got %s, want 3", got)
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	src := `
	func add(a, b) {
		return a + b;
	}
	return add(3, 4);
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "7" {
		t.Fatalf("got %s, want 7", got)
	}
}

// TestDeepTailRecursionDoesNotOverflow exercises the whole tail-call
// trampoline path end to end: a self-tail-recursive countdown deep enough
// that a naive recursive Go implementation of Invoke would blow the
// native call stack.
func TestDeepTailRecursionDoesNotOverflow(t *testing.T) {
	src := `
	func countdown(n) {
		if (n == 0) {
			return 0;
		}
		return countdown(n - 1);
	}
	return countdown(200000);
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "0" {
		t.Fatalf("got %s, want 0", got)
	}
}

func TestThrowCatch(t *testing.T) {
	src := `
	func risky() {
		throw "boom";
	}
	var result = "";
	try {
		risky();
		result = "unreachable";
	} catch (e) {
		result = e;
	}
	return result;
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != `"boom"` {
		t.Fatalf("got %s, want \"boom\"", got)
	}
}

func TestUncaughtExceptionPropagatesToCaller(t *testing.T) {
	src := `throw "unhandled";`
	_, err := run(t, src)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "unhandled") {
		t.Fatalf("error %q does not mention thrown value", err.Error())
	}
}

func TestDeferRunsOnNormalReturn(t *testing.T) {
	src := `
	var log = "";
	func withCleanup() {
		defer { log = log + "cleanup;"; }
		log = log + "body;";
		return 1;
	}
	withCleanup();
	return log;
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != `"body;cleanup;"` {
		t.Fatalf("got %s", got)
	}
}

func TestAssertFailureThrows(t *testing.T) {
	src := `assert(1 == 2, "one is not two");`
	_, err := run(t, src)
	if err == nil {
		t.Fatal("expected assert to fail")
	}
}

func TestArrayAndObjectLiterals(t *testing.T) {
	src := `
	var arr = [1, 2, 3];
	var obj = {a: 1, b: 2};
	return arr[1] + obj.b;
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "4" {
		t.Fatalf("got %s, want 4", got)
	}
}

func TestVariadicFunctionCollectsRestIntoArray(t *testing.T) {
	src := `
	func sum(first, ...rest) {
		var total = first;
		var i = 0;
		while (i < 2) {
			total = total + rest[i];
			i = i + 1;
		}
		return total;
	}
	return sum(1, 2, 3);
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "6" {
		t.Fatalf("got %s, want 6 (1+2+3)", got)
	}
}

func TestVariadicFunctionWithNoExtraArgsGetsEmptyArray(t *testing.T) {
	src := `
	func describe(...rest) {
		return rest;
	}
	return describe();
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[]" {
		t.Fatalf("got %s, want []", got)
	}
}

func TestUnsetRemovesArraySlotLeavingNullGap(t *testing.T) {
	src := `
	var arr = [1, 2, 3];
	unset arr[1];
	return arr[1];
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "null" {
		t.Fatalf("got %s, want null", got)
	}
}

func TestNegativeIndexWriteExtendsArrayHead(t *testing.T) {
	src := `
	var arr = [1];
	arr[-3] = 9;
	return arr[0];
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "9" {
		t.Fatalf("got %s, want 9", got)
	}
}

// TestShiftAndRotateOperators reproduces the shift/rotate assertions of
// the operator smoke test end to end: integer `<<`/`<<<` agree, integer
// `>>>` is a logical shift distinct from `>>`, and the string forms
// grow/shrink (`<<`/`>>`) versus fixed-length pad-and-lose (`<<<`/`>>>`).
func TestShiftAndRotateOperators(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"int << ", `var i = 12; return i << 3;`, "96"},
		{"int <<< agrees with <<", `var i = 12; return i <<< 3;`, "96"},
		{"negative int << ", `var i = -10; return i << 1;`, "-20"},
		{"negative int <<< agrees with <<", `var i = -10; return i <<< 1;`, "-20"},
		{"int >> ", `var i = 12; return i >> 3;`, "1"},
		{"int >>> agrees with >> when non-negative", `var i = 12; return i >>> 3;`, "1"},
		{"negative int >> is arithmetic", `var i = -10; return i >> 1;`, "-5"},
		{"negative int >>> is logical", `var i = -10; return i >>> 1;`, "9223372036854775803"},
		{"string << grows with spaces", `return "abc" << 1;`, `"abc "`},
		{"string >> shrinks", `return "abc" >> 1;`, `"ab"`},
		{"string <<< drops front and pads tail", `return "abc" <<< 1;`, `"bc "`},
		{"string >>> drops tail and pads front", `return "abc" >>> 1;`, `" ab"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

// TestThreeWayComparisonOperator exercises `<=>`, which must return -1,
// 0, or 1 for ordered same-kind operands and the literal string
// "<unordered>" for anything else (mismatched kinds, NaN).
func TestThreeWayComparisonOperator(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"less", `return 1 <=> 2;`, "-1"},
		{"equal", `return 1 <=> 1;`, "0"},
		{"greater", `return 2 <=> 1;`, "1"},
		{"cross-kind is unordered", `return "false" <=> false;`, `"<unordered>"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

// TestGCReclaimsDiscardedClosuresAcrossManyIterations drives a global `g`
// through 10000 calls to a function that captures a fresh local in a
// closure and overwrites `g` with it every time, dropping the previous
// closure. After the loop, and a full collection, the pool must hold only
// the handful of Variables still reachable from `g` and the Global
// Context — not one entry per iteration.
func TestGCReclaimsDiscardedClosuresAcrossManyIterations(t *testing.T) {
	src := `
	var g = null;
	func leak() {
		var f = 1;
		func inner() {
			return f;
		}
		g = inner;
	}
	var i = 0;
	while (i < 10000) {
		leak();
		i = i + 1;
	}
	return g();
	`
	q, err := compiler.Compile("<test>", src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	e := New()
	v, err := e.ExecuteTop(q)
	if err != nil {
		t.Fatal(err)
	}
	if v.Describe() != "1" {
		t.Fatalf("g() returned %s, want 1", v.Describe())
	}

	e.Global.Collect(variable.Oldest, e.markRoots)
	if size := e.Global.PoolSize(); size > 50 {
		t.Fatalf("pool size after full collection = %d, want a handful reachable from g, not 10000 leaked closures", size)
	}
}

func TestClosureCapturesEnclosingScope(t *testing.T) {
	src := `
	func makeAdder(n) {
		func adder(x) {
			return x + n;
		}
		return adder;
	}
	var add5 = makeAdder(5);
	return add5(10);
	`
	got, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if got != "15" {
		t.Fatalf("got %s, want 15", got)
	}
}
