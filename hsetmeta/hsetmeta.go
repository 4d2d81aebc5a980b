// Package hsetmeta implements the optional, forward-compatible key/value
// metadata block appended to FHDR (and usable anywhere a chunk wants
// self-describing annotations without widening its fixed fields).
package hsetmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	bin "github.com/gagliardetto/binary"
)

const (
	MaxNumKVs    = 255
	MaxKeySize   = 255
	MaxValueSize = 255
)

// KV is a single length-prefixed key/value pair.
type KV struct {
	Key   []byte
	Value []byte
}

func NewKV(key, value []byte) KV { return KV{Key: key, Value: value} }

// Meta is an ordered list of KV pairs, capped at MaxNumKVs entries with
// each key and value capped at 255 bytes, so the whole block is bounded
// and self-describing: a decoder that only understands a chunk's fixed
// fields can skip this block entirely by its leading count byte.
type Meta struct {
	KeyVals []KV
}

// Bytes returns the serialized metadata, panicking if the block violates
// its own size caps (a programmer error: callers should construct Meta
// only through Add/Replace, which enforce the caps up front).
func (m *Meta) Bytes() []byte {
	b, err := m.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

func (m Meta) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if len(m.KeyVals) > MaxNumKVs {
		return nil, fmt.Errorf("hsetmeta: %d key-value pairs exceeds max %d", len(m.KeyVals), MaxNumKVs)
	}
	buf.WriteByte(byte(len(m.KeyVals)))
	for i, kv := range m.KeyVals {
		if len(kv.Key) > MaxKeySize {
			return nil, fmt.Errorf("hsetmeta: key %d size %d exceeds max %d", i, len(kv.Key), MaxKeySize)
		}
		buf.WriteByte(byte(len(kv.Key)))
		buf.Write(kv.Key)

		if len(kv.Value) > MaxValueSize {
			return nil, fmt.Errorf("hsetmeta: value %d size %d exceeds max %d", i, len(kv.Value), MaxValueSize)
		}
		buf.WriteByte(byte(len(kv.Value)))
		buf.Write(kv.Value)
	}
	return buf.Bytes(), nil
}

// Decoder is the minimal interface UnmarshalWithDecoder needs: a single
// byte at a time plus bulk reads, matching a Borsh decoder's surface.
type Decoder interface {
	io.ByteReader
	io.Reader
}

func (m *Meta) UnmarshalWithDecoder(decoder Decoder) error {
	numKVs, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("hsetmeta: read kv count: %w", err)
	}
	for i := 0; i < int(numKVs); i++ {
		var kv KV

		keyLen, err := decoder.ReadByte()
		if err != nil {
			return fmt.Errorf("hsetmeta: read key length %d: %w", i, err)
		}
		kv.Key = make([]byte, keyLen)
		if _, err := io.ReadFull(decoder, kv.Key); err != nil {
			return fmt.Errorf("hsetmeta: read key %d: %w", i, err)
		}

		valueLen, err := decoder.ReadByte()
		if err != nil {
			return fmt.Errorf("hsetmeta: read value length %d: %w", i, err)
		}
		kv.Value = make([]byte, valueLen)
		if _, err := io.ReadFull(decoder, kv.Value); err != nil {
			return fmt.Errorf("hsetmeta: read value %d: %w", i, err)
		}

		m.KeyVals = append(m.KeyVals, kv)
	}
	return nil
}

func (m *Meta) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	decoder := bin.NewBorshDecoder(b)
	return m.UnmarshalWithDecoder(decoder)
}

func cloneBytes(b []byte) []byte { return append([]byte(nil), b...) }

// Add appends a new key-value pair, enforcing all size caps.
func (m *Meta) Add(key, value []byte) error {
	if len(m.KeyVals) >= MaxNumKVs {
		return fmt.Errorf("hsetmeta: %d key-value pairs exceeds max %d", len(m.KeyVals), MaxNumKVs)
	}
	if len(key) > MaxKeySize {
		return fmt.Errorf("hsetmeta: key size %d exceeds max %d", len(key), MaxKeySize)
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("hsetmeta: value size %d exceeds max %d", len(value), MaxValueSize)
	}
	m.KeyVals = append(m.KeyVals, KV{Key: cloneBytes(key), Value: cloneBytes(value)})
	return nil
}

// AddString is a convenience wrapper for string-valued entries such as a
// build-tool version or source corpus identifier.
func (m *Meta) AddString(key []byte, value string) error {
	return m.Add(key, []byte(value))
}

func (m Meta) GetString(key []byte) (string, bool) {
	value, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return string(value), true
}

// AddUint64 stores value as a little-endian uint64, for annotations such
// as a source epoch or unix timestamp override.
func (m *Meta) AddUint64(key []byte, value uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return m.Add(key, buf)
}

func (m Meta) GetUint64(key []byte) (uint64, bool) {
	value, ok := m.Get(key)
	if !ok || len(value) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(value), true
}

// Replace overwrites the first value stored under key.
func (m *Meta) Replace(key, value []byte) error {
	if len(value) > MaxValueSize {
		return fmt.Errorf("hsetmeta: value size %d exceeds max %d", len(value), MaxValueSize)
	}
	for i, kv := range m.KeyVals {
		if bytes.Equal(kv.Key, key) {
			m.KeyVals[i].Value = cloneBytes(value)
			return nil
		}
	}
	return fmt.Errorf("hsetmeta: key %q not found", key)
}

// Get returns the first value stored under key.
func (m Meta) Get(key []byte) ([]byte, bool) {
	for _, kv := range m.KeyVals {
		if bytes.Equal(kv.Key, key) {
			return kv.Value, true
		}
	}
	return nil, false
}

// GetFirst is an alias for Get, named to match callers that read it as
// "the first of possibly several values under this key."
func (m Meta) GetFirst(key []byte) ([]byte, bool) { return m.Get(key) }

// GetAll returns every value stored under key, in insertion order.
func (m Meta) GetAll(key []byte) [][]byte {
	var values [][]byte
	for _, kv := range m.KeyVals {
		if bytes.Equal(kv.Key, key) {
			values = append(values, kv.Value)
		}
	}
	return values
}

// Count returns the number of entries stored under key.
func (m Meta) Count(key []byte) int {
	var count int
	for _, kv := range m.KeyVals {
		if bytes.Equal(kv.Key, key) {
			count++
		}
	}
	return count
}

// HasDuplicateKeys reports whether any key appears more than once.
func (m Meta) HasDuplicateKeys() bool {
	seen := make(map[string]struct{}, len(m.KeyVals))
	for _, kv := range m.KeyVals {
		k := string(kv.Key)
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}

// Remove deletes every entry stored under key.
func (m *Meta) Remove(key []byte) {
	var kept []KV
	for _, kv := range m.KeyVals {
		if !bytes.Equal(kv.Key, key) {
			kept = append(kept, kv)
		}
	}
	m.KeyVals = kept
}
