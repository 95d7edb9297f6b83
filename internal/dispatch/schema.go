// Package dispatch implements the schema-validated tool dispatch core:
// a registry of tool contracts loaded from a static resource, a structural
// JSON-schema validator, and the engine that routes tool invocations through
// input validation, handler execution, and output validation.
package dispatch

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

//go:embed tools.json
var embeddedContracts []byte

// SchemaNode is a recursive JSON-Schema-like type description. Only the
// subset the tool contracts actually use is modelled; anything else in the
// resource is ignored rather than rejected.
type SchemaNode struct {
	Type        string                 `json:"type,omitempty"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*SchemaNode `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *SchemaNode            `json:"items,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Ref         string                 `json:"$ref,omitempty"`
	// Strict closes an object schema: properties not declared in Properties
	// are rejected. Off by default — contracts are permissive unless they
	// opt in.
	Strict bool `json:"strict,omitempty"`
}

// DefinitionsTable is the shared pool of named schema fragments referenced
// by $ref from output schemas. Lives as long as the registry that loaded it.
type DefinitionsTable map[string]*SchemaNode

// ToolContract declares one callable tool: its name, description, and the
// schemas its arguments and results must satisfy.
type ToolContract struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	InputSchema  *SchemaNode `json:"inputSchema"`
	OutputSchema *SchemaNode `json:"outputSchema"`

	// Raw schema documents as they appeared in the resource, kept for
	// declaring tools on the MCP server without re-marshalling.
	RawInputSchema  json.RawMessage `json:"-"`
	RawOutputSchema json.RawMessage `json:"-"`
}

// Registry holds all tool contracts plus the shared definitions table.
// Read-only after LoadRegistry returns.
type Registry struct {
	contracts map[string]*ToolContract
	order     []string
	defs      DefinitionsTable
}

// contractsDoc mirrors the wire format of tools.json.
type contractsDoc struct {
	Tools []struct {
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		InputSchema  json.RawMessage `json:"inputSchema"`
		OutputSchema json.RawMessage `json:"outputSchema"`
	} `json:"tools"`
	Definitions DefinitionsTable `json:"definitions"`
}

// contractsOverridePath is the primary (local-dev) location of the contract
// resource; the embedded copy is the fallback.
const contractsOverridePath = "tools.json"

// LoadRegistry loads tool contracts from tools.json in the working directory
// when present, otherwise from the copy embedded in the binary. Loading is
// idempotent; the returned registry never changes afterwards.
func LoadRegistry() (*Registry, error) {
	if data, err := os.ReadFile(contractsOverridePath); err == nil {
		reg, perr := loadRegistryBytes(data)
		if perr != nil {
			return nil, &Error{Kind: KindLoadError, Msg: fmt.Sprintf("parse %s: %v", contractsOverridePath, perr), Err: perr}
		}
		return reg, nil
	}
	if len(embeddedContracts) == 0 {
		return nil, &Error{Kind: KindLoadError, Msg: ErrResourceMissing.Error(), Err: ErrResourceMissing}
	}
	reg, err := loadRegistryBytes(embeddedContracts)
	if err != nil {
		return nil, &Error{Kind: KindLoadError, Msg: "parse embedded tools.json: " + err.Error(), Err: err}
	}
	return reg, nil
}

func loadRegistryBytes(data []byte) (*Registry, error) {
	var doc contractsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Tools) == 0 {
		return nil, errors.New("no tools declared")
	}

	reg := &Registry{
		contracts: make(map[string]*ToolContract, len(doc.Tools)),
		defs:      doc.Definitions,
	}
	if reg.defs == nil {
		reg.defs = DefinitionsTable{}
	}

	for _, t := range doc.Tools {
		if t.Name == "" {
			return nil, errors.New("tool with empty name")
		}
		if _, dup := reg.contracts[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		c := &ToolContract{
			Name:            t.Name,
			Description:     t.Description,
			RawInputSchema:  t.InputSchema,
			RawOutputSchema: t.OutputSchema,
		}
		// A missing schema means "accept anything": the validator treats a
		// nil node as pass.
		if len(t.InputSchema) > 0 {
			if err := json.Unmarshal(t.InputSchema, &c.InputSchema); err != nil {
				return nil, fmt.Errorf("tool %q: input schema: %w", t.Name, err)
			}
		}
		if len(t.OutputSchema) > 0 {
			if err := json.Unmarshal(t.OutputSchema, &c.OutputSchema); err != nil {
				return nil, fmt.Errorf("tool %q: output schema: %w", t.Name, err)
			}
		}
		reg.contracts[t.Name] = c
		reg.order = append(reg.order, t.Name)
	}
	return reg, nil
}

// Contract returns the contract for name, or nil when unknown.
func (r *Registry) Contract(name string) *ToolContract {
	return r.contracts[name]
}

// Tools returns all contracts in declaration order.
func (r *Registry) Tools() []*ToolContract {
	out := make([]*ToolContract, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.contracts[name])
	}
	return out
}

// Names returns all tool names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns the shared definitions table. Output validation needs
// it because $refs are not embedded per contract.
func (r *Registry) Definitions() DefinitionsTable {
	return r.defs
}
