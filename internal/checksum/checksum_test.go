package checksum

import (
	"testing"

	"asteria/internal/stdfn"
	"asteria/internal/value"
)

func call(fn func(*stdfn.Args) (value.Value, error), arg value.Value) (value.Value, error) {
	return fn(&stdfn.Args{Values: []value.Value{arg}})
}

func TestChecksumFunctionsProduceKnownDigests(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*stdfn.Args) (value.Value, error)
		in   string
		want string
	}{
		{"md5", Md5Hex, "abc", "900150983cd24fb0d6963f7d28e17f72"},
		{"sha1", Sha1Hex, "abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha256", Sha256Hex, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(tt.fn, value.Str(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if got.Str() != tt.want {
				t.Fatalf("got %s, want %s", got.Str(), tt.want)
			}
		})
	}
}

// TestChecksumFunctionsOnEmptyString pins the empty-input digests, the
// headline vectors of the checksum smoke test: crc32("") == 0,
// fnv1a32("") == 0x811c9dc5, and the well-known empty-message digests of
// md5, sha1 and sha256.
func TestChecksumFunctionsOnEmptyString(t *testing.T) {
	c, err := call(Crc32, value.Str(""))
	if err != nil {
		t.Fatal(err)
	}
	if c.Int() != 0x0 {
		t.Fatalf("crc32(\"\") = %#x, want 0x0", c.Int())
	}

	f, err := call(Fnv1a32, value.Str(""))
	if err != nil {
		t.Fatal(err)
	}
	if f.Int() != 0x811c9dc5 {
		t.Fatalf("fnv1a32(\"\") = %#x, want 0x811c9dc5", f.Int())
	}

	hexTests := []struct {
		name string
		fn   func(*stdfn.Args) (value.Value, error)
		want string
	}{
		{"md5", Md5Hex, "d41d8cd98f00b204e9800998ecf8427e"},
		{"sha1", Sha1Hex, "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"sha256", Sha256Hex, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}
	for _, tt := range hexTests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(tt.fn, value.Str(""))
			if err != nil {
				t.Fatal(err)
			}
			if got.Str() != tt.want {
				t.Fatalf("got %s, want %s", got.Str(), tt.want)
			}
		})
	}
}

func TestCrc32AndFnv1a32AreDeterministic(t *testing.T) {
	c1, err := call(Crc32, value.Str("hello"))
	if err != nil {
		t.Fatal(err)
	}
	c2, _ := call(Crc32, value.Str("hello"))
	if c1.Describe() != c2.Describe() {
		t.Fatal("crc32 of the same input must be stable")
	}

	f1, err := call(Fnv1a32, value.Str("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if f1.Kind() != value.KindInteger {
		t.Fatalf("got kind %v, want integer", f1.Kind())
	}
	f2, _ := call(Fnv1a32, value.Str("hello"))
	if f1.Describe() != f2.Describe() {
		t.Fatal("fnv1a32 of the same input must be stable")
	}
}

func TestBlake2b256HexProducesSixtyFourHexChars(t *testing.T) {
	got, err := call(Blake2b256Hex, value.Str("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Str()) != 64 {
		t.Fatalf("got length %d, want 64", len(got.Str()))
	}
}

func TestChecksumFunctionsRejectNonStringArguments(t *testing.T) {
	if _, err := call(Sha256Hex, value.Int(5)); err == nil {
		t.Fatal("expected a type error for a non-string argument")
	}
}

func TestMountBindsEveryChecksumFunctionUnderItsName(t *testing.T) {
	got := map[string]*stdfn.Native{}
	Mount(func(name string, fn *stdfn.Native) { got[name] = fn })

	for _, name := range []string{"crc32", "fnv1a32", "md5_hex", "sha1_hex", "sha256_hex", "blake2b256_hex"} {
		if _, ok := got[name]; !ok {
			t.Fatalf("Mount did not bind %q", name)
		}
	}
}
