package storage

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"strconv"
)

// TagSize is the number of ASCII bytes at the start of every key.
const TagSize = 8

// --------------------------------------------------------------------------
// Key
// --------------------------------------------------------------------------

// Key is the fixed 16 byte identifier of an entry: an 8 byte ASCII tag followed
// by a 64-bit ordinal ("lo") in native byte order.
//
// Keys are comparable values. Equality (and thereby map hashing) is defined over
// all 16 bytes, so two keys are equal exactly if their raw bytes are equal.
type Key struct {
	raw [boundary.KeySize]byte
}

// NewKey creates a key from its tag and ordinal.
// The tag must consist of exactly TagSize ASCII bytes.
func NewKey(tag string, lo uint64) (Key, error) {
	if len(tag) != TagSize {
		return Key{}, newArgumentError(fmt.Sprintf("the key tag %q must be exactly %d bytes long", tag, TagSize))
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] >= 0x80 {
			return Key{}, newArgumentError(fmt.Sprintf("the key tag %q contains non-ASCII bytes", tag))
		}
	}

	var k Key
	copy(k.raw[:TagSize], tag)
	binary.NativeEndian.PutUint64(k.raw[TagSize:], lo)
	return k, nil
}

// MustKey is like NewKey but panics if the tag is invalid.
func MustKey(tag string, lo uint64) Key {
	k, err := NewKey(tag, lo)
	if err != nil {
		panic(err)
	}
	return k
}

// ParseKey parses the canonical text form "<tag>-<lo>" produced by Key.String.
func ParseKey(text string) (Key, error) {
	if len(text) < TagSize+2 || text[TagSize] != '-' {
		return Key{}, newArgumentError(fmt.Sprintf("the key %q is not of the form <tag>-<lo>", text))
	}

	lo, err := strconv.ParseUint(text[TagSize+1:], 10, 64)
	if err != nil {
		return Key{}, newArgumentError(fmt.Sprintf("the key %q has an invalid ordinal: %v", text, err))
	}
	return NewKey(text[:TagSize], lo)
}

// MustParseKey is like ParseKey but panics if the text is invalid.
func MustParseKey(text string) Key {
	k, err := ParseKey(text)
	if err != nil {
		panic(err)
	}
	return k
}

// KeyFromBytes wraps the raw wire representation of a key. The bytes are taken
// as they are, no validation is done.
func KeyFromBytes(raw [boundary.KeySize]byte) Key {
	return Key{raw: raw}
}

// Bytes returns the raw wire representation of the key.
func (k Key) Bytes() [boundary.KeySize]byte {
	return k.raw
}

// Tag returns the tag part of the key.
func (k Key) Tag() string {
	return string(k.raw[:TagSize])
}

// Lo returns the ordinal part of the key.
func (k Key) Lo() uint64 {
	return binary.NativeEndian.Uint64(k.raw[TagSize:])
}

// String returns the canonical text form "<tag>-<lo>".
func (k Key) String() string {
	return k.Tag() + "-" + strconv.FormatUint(k.Lo(), 10)
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
