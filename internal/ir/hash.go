package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm migration.
const (
	DomainCircuit = "qpass/circuit/v1"
	DomainTarget  = "qpass/target/v1"
	DomainRun     = "qpass/run/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte keeps the
// domain/data boundary unambiguous.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash canonically marshals v and hashes it under domain.
func ContentHash(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("content hash %s: %w", domain, err)
	}
	return HashWithDomain(domain, canonical), nil
}

// CircuitHash computes the content hash of a circuit.
// Two circuits hash equal exactly when Equal reports true and their
// register names match; circuit name and metadata are excluded.
func CircuitHash(c *Circuit) (string, error) {
	return ContentHash(DomainCircuit, c.canonicalMap())
}

// MustCircuitHash is like CircuitHash but panics on error.
// The canonical form of a circuit contains no floats, so it cannot fail.
func MustCircuitHash(c *Circuit) string {
	h, err := CircuitHash(c)
	if err != nil {
		panic(err)
	}
	return h
}

func (c *Circuit) canonicalMap() map[string]any {
	regs := make([]any, len(c.registers))
	for i, reg := range c.registers {
		regs[i] = map[string]any{
			"kind": reg.Kind.String(),
			"name": reg.Name,
			"size": reg.Size,
		}
	}

	instrs := make([]any, len(c.data))
	for i, in := range c.data {
		params := make([]string, in.Op.NumParams())
		for j := range params {
			params[j] = FormatFloat(in.Op.Param(j))
		}
		obj := map[string]any{
			"op":     in.Op.Name(),
			"params": params,
			"qubits": in.Qubits,
			"clbits": in.Clbits,
		}
		if in.Condition != nil {
			obj["condition"] = map[string]any{
				"clbit": in.Condition.Clbit,
				"value": in.Condition.Value,
			}
		}
		instrs[i] = obj
	}

	return map[string]any{
		"ir_version":   IRVersion,
		"global_phase": FormatFloat(c.globalPhase),
		"registers":    regs,
		"instructions": instrs,
	}
}
