// internal/regbus/regbus.go
package regbus

import (
	"fmt"
	"math/bits"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Access reads and writes 32-bit registers by dotted path.
// Implementations fail with an errcode.Transport error when the bus is unreachable.
type Access interface {
	ReadRegister(path string) (uint32, error)
	WriteRegister(path string, value uint32) error
}

// Join builds a full register path from a base node and a relative path.
func Join(base, rel string) string {
	if base == "" {
		return rel
	}
	if rel == "" {
		return base
	}
	return base + "." + rel
}

// Register is one address-table entry.
// A u32 register occupies two consecutive 16-bit words starting at Address.
// Mask selects a bit field inside the word; zero means the full word.
type Register struct {
	Address uint16 `yaml:"address"`
	Mask    uint32 `yaml:"mask"`
}

// FullWord reports whether the register spans the whole 32-bit word.
func (r Register) FullWord() bool {
	return r.Mask == 0 || r.Mask == 0xFFFFFFFF
}

// Extract pulls the field value out of a raw word.
func (r Register) Extract(word uint32) uint32 {
	if r.FullWord() {
		return word
	}
	return (word & r.Mask) >> uint(bits.TrailingZeros32(r.Mask))
}

// Insert places value into the field of word, leaving other bits untouched.
func (r Register) Insert(word, value uint32) uint32 {
	if r.FullWord() {
		return value
	}
	shift := uint(bits.TrailingZeros32(r.Mask))
	return (word &^ r.Mask) | ((value << shift) & r.Mask)
}

// AddressTable maps full register paths to bus locations.
type AddressTable map[string]Register

type addressFile struct {
	Registers map[string]Register `yaml:"registers"`
}

// LoadAddressTable reads a YAML address table.
func LoadAddressTable(path string) (AddressTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("regbus: read address table: %w", err)
	}
	return ParseAddressTable(raw)
}

// ParseAddressTable decodes a YAML address table.
func ParseAddressTable(raw []byte) (AddressTable, error) {
	var f addressFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("regbus: parse address table: %w", err)
	}
	if len(f.Registers) == 0 {
		return nil, fmt.Errorf("regbus: address table has no registers")
	}

	t := make(AddressTable, len(f.Registers))
	for path, reg := range f.Registers {
		p := strings.TrimSpace(path)
		if p == "" {
			return nil, fmt.Errorf("regbus: empty register path")
		}
		if reg.Address == 0xFFFF {
			return nil, fmt.Errorf("regbus: register %s: address 0x%04x leaves no room for a 32-bit word", p, reg.Address)
		}
		t[p] = reg
	}
	return t, nil
}

// Lookup returns the entry for path.
func (t AddressTable) Lookup(path string) (Register, bool) {
	r, ok := t[path]
	return r, ok
}
