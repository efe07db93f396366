// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"errors"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// sizedParameters returns registry parameters with a fixed width, in id order
func sizedParameters() []Parameter {
	var params []Parameter
	for p, info := range registry {
		if info.size != SizeUnknown {
			params = append(params, p)
		}
	}
	sort.Slice(params, func(i, j int) bool { return params[i] < params[j] })
	return params
}

func randomCredential(rng *rand.Rand, max int) string {
	runes := make([]rune, rng.Intn(max+1))
	for i := range runes {
		// Latin-1 range
		runes[i] = rune(rng.Intn(256))
	}
	return string(runes)
}

// randomPacket builds a packet that fits in one frame and round-trips:
// write packets carry full registry-sized values, read-style packets none
func randomPacket(rng *rand.Rand, params []Parameter) *Packet {
	functions := []FunctionType{FuncRead, FuncWrite, FuncWriteRead, FuncIncRead, FuncDecRead}
	fn := functions[rng.Intn(len(functions))]

	deviceID := randomCredential(rng, 20)
	password := randomCredential(rng, 12)
	budget := MaxPacketSize - minPacketOverhead - ChecksumSize - len([]rune(deviceID)) - len([]rune(password))

	var entries []DataEntry
	for n := rng.Intn(20); n > 0; n-- {
		p := params[rng.Intn(len(params))]
		e := Entry(p)
		width := 1
		if fn.writesValues() {
			e.Value = make([]byte, SizeOf(p))
			rng.Read(e.Value)
			width += len(e.Value)
		}
		if width > budget {
			break
		}
		budget -= width
		entries = append(entries, e)
	}
	return NewPacket(deviceID, password, fn, entries)
}

// ============================================================
// Round Trip Fuzz Tests
// ============================================================

// TestFuzzRoundTrip_RandomPackets checks decode(encode(p)) == p for random packets
func TestFuzzRoundTrip_RandomPackets(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	params := sizedParameters()
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		p := randomPacket(rng, params)
		data, err := Encode(p)
		if err != nil {
			t.Fatalf("Round %d: encode error: %v", i, err)
		}
		if len(data) > MaxPacketSize {
			t.Fatalf("Round %d: frame of %d bytes exceeds maximum", i, len(data))
		}
		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("Round %d: decode error: %v\n% X", i, err, data)
		}
		if !packetsEqual(p, decoded) {
			t.Fatalf("Round %d: round trip mismatch\noriginal %s\ndecoded  %s", i, FormatPacket(p), FormatPacket(decoded))
		}
	}
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

// TestFuzzDecoder_RandomBytes feeds random bytes to the decoder
// and verifies it doesn't crash or panic
func TestFuzzDecoder_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(MaxPacketSize+1))
		rng.Read(data)
		if len(data) >= 3 && rng.Intn(2) == 0 {
			// Valid framing so the cursor gets exercised
			data[0], data[1], data[2] = HeaderByte, HeaderByte, ProtocolType
			if len(data) >= minPacketOverhead+ChecksumSize {
				data = frame(data[:len(data)-2]...)
			}
		}

		p, err := Decode(data)
		if err == nil && p == nil {
			t.Fatalf("Round %d: nil packet without error", i)
		}
	}
}

// TestFuzzDecoder_ChecksumFlip verifies a single-bit change after the
// protocol tag is always caught
func TestFuzzDecoder_ChecksumFlip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	params := sizedParameters()

	for i := 0; i < rounds; i++ {
		data := MustEncode(randomPacket(rng, params))
		pos := 3 + rng.Intn(len(data)-3)
		data[pos] ^= 1 << uint(rng.Intn(8))

		if _, err := Decode(data); !errors.Is(err, ErrInvalidChecksum) {
			t.Fatalf("Round %d: flipped byte %d, expected ErrInvalidChecksum, got %v", i, pos, err)
		}
	}
}
