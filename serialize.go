package streamsketch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// Serialization constants and errors.
const (
	// serializeVersion is the current serialization format version.
	serializeVersion byte = 1

	// filterHeaderSize is Version (1) + Hasher (1) + Seed (4) + K (4) +
	// Capacity (8) + FPRate (8) + Count (8) + N (8).
	filterHeaderSize = 42

	// fm1Size is Version (1) + Hasher (1) + Seed (4) + R (1).
	fm1Size = 7

	// fmstHeaderSize is Version (1) + Hasher (1) + Seed (4) + G (4) + M (4).
	fmstHeaderSize = 14

	// maxRegister is the largest trailing zero count of a 64-bit window.
	maxRegister = 64
)

var (
	// ErrInvalidData is returned when serialized data is invalid or corrupted.
	ErrInvalidData = errors.New("streamsketch: invalid serialized data")

	// ErrUnsupportedVersion is returned when the serialization version is not supported.
	ErrUnsupportedVersion = errors.New("streamsketch: unsupported serialization version")

	// ErrUnknownHasher is returned when marshaling a sketch built with a
	// Hasher other than [Murmur3] or [XXH3].
	ErrUnknownHasher = errors.New("streamsketch: hasher cannot be serialized")
)

// MarshalBinary serializes the filter. The format is a little-endian header
// (version, hasher, seed, k, capacity, false positive rate, count, n)
// followed by the bit array in the bitset binary encoding.
func (f *Filter) MarshalBinary() ([]byte, error) {
	id, ok := idOf(f.family.Hasher)
	if !ok {
		return nil, ErrUnknownHasher
	}

	payload, err := f.bits.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal bit array: %w", err)
	}

	buf := make([]byte, filterHeaderSize, filterHeaderSize+len(payload))
	buf[0] = serializeVersion
	buf[1] = byte(id)
	binary.LittleEndian.PutUint32(buf[2:6], f.family.Seed)
	binary.LittleEndian.PutUint32(buf[6:10], f.k)
	binary.LittleEndian.PutUint64(buf[10:18], f.capacity)
	binary.LittleEndian.PutUint64(buf[18:26], math.Float64bits(f.fpRate))
	binary.LittleEndian.PutUint64(buf[26:34], f.count)
	binary.LittleEndian.PutUint64(buf[34:42], f.n)

	return append(buf, payload...), nil
}

// UnmarshalFilter deserializes a filter written by [Filter.MarshalBinary].
// The sizing fields must agree with [OptimalParams].
func UnmarshalFilter(data []byte) (*Filter, error) {
	if len(data) < filterHeaderSize {
		return nil, fmt.Errorf("%w: data too short (got %d bytes, need at least %d)", ErrInvalidData, len(data), filterHeaderSize)
	}
	if data[0] != serializeVersion {
		return nil, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, data[0], serializeVersion)
	}

	hasher, ok := hasherOf(hasherID(data[1]))
	if !ok {
		return nil, fmt.Errorf("%w: unknown hasher id %d", ErrInvalidData, data[1])
	}
	seed := binary.LittleEndian.Uint32(data[2:6])
	k := binary.LittleEndian.Uint32(data[6:10])
	capacity := binary.LittleEndian.Uint64(data[10:18])
	fpRate := math.Float64frombits(binary.LittleEndian.Uint64(data[18:26]))
	count := binary.LittleEndian.Uint64(data[26:34])
	n := binary.LittleEndian.Uint64(data[34:42])

	if err := validateBloom(capacity, fpRate); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if wantN, wantK := OptimalParams(capacity, fpRate); n != wantN || k != wantK {
		return nil, fmt.Errorf("%w: sizing mismatch (n=%d k=%d, expected n=%d k=%d)", ErrInvalidData, n, k, wantN, wantK)
	}

	payload := data[filterHeaderSize:]
	if want := 8 + 8*((n+63)/64); uint64(len(payload)) != want {
		return nil, fmt.Errorf("%w: bit array is %d bytes, expected %d", ErrInvalidData, len(payload), want)
	}
	if length := bitset.BinaryOrder().Uint64(payload[:8]); length != n {
		return nil, fmt.Errorf("%w: bit array length %d, expected %d", ErrInvalidData, length, n)
	}

	bs := &bitset.BitSet{}
	if err := bs.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("%w: bit array: %w", ErrInvalidData, err)
	}
	if uint64(bs.Len()) != n {
		return nil, fmt.Errorf("%w: bit array length %d, expected %d", ErrInvalidData, bs.Len(), n)
	}

	return &Filter{
		bits:     bs,
		n:        n,
		k:        k,
		capacity: capacity,
		fpRate:   fpRate,
		family:   Family{Hasher: hasher, Seed: seed},
		count:    count,
	}, nil
}

// MarshalBinary serializes the counter.
func (c *FM1) MarshalBinary() ([]byte, error) {
	id, ok := idOf(c.hasher)
	if !ok {
		return nil, ErrUnknownHasher
	}

	buf := make([]byte, fm1Size)
	buf[0] = serializeVersion
	buf[1] = byte(id)
	binary.LittleEndian.PutUint32(buf[2:6], c.seed)
	buf[6] = c.r
	return buf, nil
}

// UnmarshalFM1 deserializes a counter written by [FM1.MarshalBinary].
func UnmarshalFM1(data []byte) (*FM1, error) {
	if len(data) != fm1Size {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidData, len(data), fm1Size)
	}
	if data[0] != serializeVersion {
		return nil, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, data[0], serializeVersion)
	}
	hasher, ok := hasherOf(hasherID(data[1]))
	if !ok {
		return nil, fmt.Errorf("%w: unknown hasher id %d", ErrInvalidData, data[1])
	}
	if data[6] > maxRegister {
		return nil, fmt.Errorf("%w: register value %d exceeds %d", ErrInvalidData, data[6], maxRegister)
	}

	return &FM1{
		hasher: hasher,
		seed:   binary.LittleEndian.Uint32(data[2:6]),
		r:      data[6],
	}, nil
}

// MarshalBinary serializes the counter: a little-endian header (version,
// hasher, seed, g, m) followed by one byte per register.
func (c *FMst) MarshalBinary() ([]byte, error) {
	id, ok := idOf(c.family.Hasher)
	if !ok {
		return nil, ErrUnknownHasher
	}

	buf := make([]byte, fmstHeaderSize, fmstHeaderSize+len(c.registers))
	buf[0] = serializeVersion
	buf[1] = byte(id)
	binary.LittleEndian.PutUint32(buf[2:6], c.family.Seed)
	binary.LittleEndian.PutUint32(buf[6:10], uint32(c.g))
	binary.LittleEndian.PutUint32(buf[10:14], uint32(len(c.registers)))

	return append(buf, c.registers...), nil
}

// UnmarshalFMst deserializes a counter written by [FMst.MarshalBinary].
func UnmarshalFMst(data []byte) (*FMst, error) {
	if len(data) < fmstHeaderSize {
		return nil, fmt.Errorf("%w: data too short (got %d bytes, need at least %d)", ErrInvalidData, len(data), fmstHeaderSize)
	}
	if data[0] != serializeVersion {
		return nil, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, data[0], serializeVersion)
	}
	hasher, ok := hasherOf(hasherID(data[1]))
	if !ok {
		return nil, fmt.Errorf("%w: unknown hasher id %d", ErrInvalidData, data[1])
	}

	seed := binary.LittleEndian.Uint32(data[2:6])
	g := binary.LittleEndian.Uint32(data[6:10])
	m := binary.LittleEndian.Uint32(data[10:14])

	// Bound m and g to int32 so the conversions below cannot go negative.
	if g == 0 || g > math.MaxInt32 || m == 0 || m > math.MaxInt32 {
		return nil, fmt.Errorf("%w: m=%d g=%d", ErrInvalidData, m, g)
	}
	if uint64(len(data)-fmstHeaderSize) != uint64(m) {
		return nil, fmt.Errorf("%w: got %d registers, expected %d", ErrInvalidData, len(data)-fmstHeaderSize, m)
	}

	registers := make([]uint8, m)
	copy(registers, data[fmstHeaderSize:])
	for j, r := range registers {
		if r > maxRegister {
			return nil, fmt.Errorf("%w: register %d value %d exceeds %d", ErrInvalidData, j, r, maxRegister)
		}
	}

	return &FMst{
		family:    Family{Hasher: hasher, Seed: seed},
		g:         int(g),
		registers: registers,
	}, nil
}
