// Package pack provides types for reusable tool collections.
package pack

import (
	"fmt"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/tool"
)

// Pack is a collection of related tools with their phase eligibility.
//
// The first tool listed for a phase is that phase's intended tool.
type Pack struct {
	// Name is the unique identifier for the pack.
	Name string

	// Description explains what the pack provides.
	Description string

	// Version is the semantic version of the pack.
	Version string

	// Tools is the collection of tools in this pack.
	Tools []tool.Tool

	// Eligibility maps phases to tool names allowed in that phase.
	Eligibility map[agent.Phase][]string
}

// ToolNames returns the names of all tools in the pack.
func (p *Pack) ToolNames() []string {
	names := make([]string, len(p.Tools))
	for i, t := range p.Tools {
		names[i] = t.Name()
	}
	return names
}

// GetTool returns a tool by name from the pack.
func (p *Pack) GetTool(name string) (tool.Tool, bool) {
	for _, t := range p.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// AllowedInPhase returns tools allowed in the given phase.
func (p *Pack) AllowedInPhase(phase agent.Phase) []string {
	if allowed, ok := p.Eligibility[phase]; ok {
		return allowed
	}
	return nil
}

// IsAllowed reports whether the named tool may run in the phase.
func (p *Pack) IsAllowed(phase agent.Phase, name string) bool {
	for _, n := range p.AllowedInPhase(phase) {
		if n == name {
			return true
		}
	}
	return false
}

// IntendedTool returns the tool a phase is meant to run.
func (p *Pack) IntendedTool(phase agent.Phase) (string, bool) {
	allowed := p.AllowedInPhase(phase)
	if len(allowed) == 0 {
		return "", false
	}
	return allowed[0], true
}

// Validate checks that every eligible tool name exists in the pack.
func (p *Pack) Validate() error {
	for phase, names := range p.Eligibility {
		if !phase.IsValid() {
			return fmt.Errorf("%w: unknown phase %q", ErrInvalidPack, phase)
		}
		for _, name := range names {
			if _, ok := p.GetTool(name); !ok {
				return fmt.Errorf("%w: %s lists missing tool %s", ErrInvalidPack, phase, name)
			}
		}
	}
	return nil
}

// Install registers the pack's tools in a tool registry.
func (p *Pack) Install(reg tool.Registry) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, t := range p.Tools {
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("install %s: %w", p.Name, err)
		}
	}
	return nil
}

// Builder provides a fluent API for constructing packs.
type Builder struct {
	pack *Pack
}

// NewBuilder creates a new pack builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		pack: &Pack{
			Name:        name,
			Tools:       make([]tool.Tool, 0),
			Eligibility: make(map[agent.Phase][]string),
		},
	}
}

// WithDescription sets the pack description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.pack.Description = desc
	return b
}

// WithVersion sets the pack version.
func (b *Builder) WithVersion(version string) *Builder {
	b.pack.Version = version
	return b
}

// AddTools adds multiple tools to the pack.
func (b *Builder) AddTools(tools ...tool.Tool) *Builder {
	b.pack.Tools = append(b.pack.Tools, tools...)
	return b
}

// AllowInPhase allows specified tools in the given phase.
// The first name ever allowed in a phase becomes its intended tool.
func (b *Builder) AllowInPhase(phase agent.Phase, toolNames ...string) *Builder {
	b.pack.Eligibility[phase] = append(b.pack.Eligibility[phase], toolNames...)
	return b
}

// Build returns the constructed pack.
func (b *Builder) Build() *Pack {
	return b.pack
}
