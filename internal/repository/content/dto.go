package content

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/venueqa/venueqa/internal/domain"
)

// Internal hash fields. Everything else in a record hash is a domain field.
const (
	fieldVector    = "__vector"
	fieldCreatedAt = "__created_at"
)

func recordKey(t domain.EntityType, dedupeKey string) string {
	return domain.KeyPrefix + "rec:" + string(t) + ":" + dedupeKey
}

func recordKeyPattern(t domain.EntityType) string {
	return domain.KeyPrefix + "rec:" + string(t) + ":*"
}

func indexedSetKey(t domain.EntityType) string {
	return domain.KeyPrefix + "indexed:" + string(t)
}

// buildHashFields converts a record into a flat map[string]string for HSET.
func buildHashFields(rec domain.Record) map[string]string {
	m := make(map[string]string, 2+len(rec.Fields))
	for k, v := range rec.Fields {
		if strings.HasPrefix(k, "__") {
			continue
		}
		m[k] = v
	}
	if len(rec.Vector) > 0 {
		m[fieldVector] = vectorToBytes(rec.Vector)
	}
	m[fieldCreatedAt] = strconv.FormatInt(rec.CreatedAt, 10)
	return m
}

// parseRecord converts a flat hash map back into a record.
func parseRecord(t domain.EntityType, m map[string]string) domain.Record {
	rec := domain.Record{Type: t, Fields: make(map[string]string, len(m))}
	for k, v := range m {
		switch k {
		case fieldVector:
			rec.Vector = bytesToVector(v)
		case fieldCreatedAt:
			rec.CreatedAt, _ = strconv.ParseInt(v, 10, 64)
		default:
			rec.Fields[k] = v
		}
	}
	return rec
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
// Returns nil for malformed input.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
