// Package checksum mounts the checksum standard functions: the one
// corner of the stdlib the distillation calls out by name (the binding
// shape of every other stdlib function is in scope; the exact digest
// values these produce are what the integration tests pin). Grounded on
// the hashing calls in the teacher's internal/cryptoanalysis package
// (sha256.Sum256 et al.), extended to the full algorithm set named there
// plus BLAKE2b-256 pulled in from the rest of the example pack's crypto
// dependency.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash/crc32"
	"hash/fnv"

	"golang.org/x/crypto/blake2b"

	"asteria/internal/langerr"
	"asteria/internal/stdfn"
	"asteria/internal/value"
)

func bytesOf(v value.Value) ([]byte, error) {
	if v.Kind() != value.KindString {
		return nil, langerr.New(langerr.Type, "checksum functions take a string argument, got %s", v.Kind())
	}
	return []byte(v.Str()), nil
}

func Crc32(args *stdfn.Args) (value.Value, error) {
	data, err := bytesOf(args.At(0))
	if err != nil {
		return value.Value{}, err
	}
	sum := crc32.ChecksumIEEE(data)
	return value.Int(int64(sum)), nil
}

func Fnv1a32(args *stdfn.Args) (value.Value, error) {
	data, err := bytesOf(args.At(0))
	if err != nil {
		return value.Value{}, err
	}
	h := fnv.New32a()
	h.Write(data)
	return value.Int(int64(h.Sum32())), nil
}

func Md5Hex(args *stdfn.Args) (value.Value, error) {
	data, err := bytesOf(args.At(0))
	if err != nil {
		return value.Value{}, err
	}
	sum := md5.Sum(data)
	return value.Str(hex.EncodeToString(sum[:])), nil
}

func Sha1Hex(args *stdfn.Args) (value.Value, error) {
	data, err := bytesOf(args.At(0))
	if err != nil {
		return value.Value{}, err
	}
	sum := sha1.Sum(data)
	return value.Str(hex.EncodeToString(sum[:])), nil
}

func Sha256Hex(args *stdfn.Args) (value.Value, error) {
	data, err := bytesOf(args.At(0))
	if err != nil {
		return value.Value{}, err
	}
	sum := sha256.Sum256(data)
	return value.Str(hex.EncodeToString(sum[:])), nil
}

func Blake2b256Hex(args *stdfn.Args) (value.Value, error) {
	data, err := bytesOf(args.At(0))
	if err != nil {
		return value.Value{}, err
	}
	sum := blake2b.Sum256(data)
	return value.Str(hex.EncodeToString(sum[:])), nil
}

// Mount binds every checksum function into the given table under its
// script-visible name.
func Mount(mount func(name string, fn *stdfn.Native)) {
	mount("crc32", stdfn.New("crc32", 1, false, Crc32))
	mount("fnv1a32", stdfn.New("fnv1a32", 1, false, Fnv1a32))
	mount("md5_hex", stdfn.New("md5_hex", 1, false, Md5Hex))
	mount("sha1_hex", stdfn.New("sha1_hex", 1, false, Sha1Hex))
	mount("sha256_hex", stdfn.New("sha256_hex", 1, false, Sha256Hex))
	mount("blake2b256_hex", stdfn.New("blake2b256_hex", 1, false, Blake2b256Hex))
}
