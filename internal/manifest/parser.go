package manifest

import (
	"context"
	"fmt"
	"os"

	"github.com/joshjhall/buildtrust/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser runs manifest code in a sandboxed VM with the platform table
// injected.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a manifest parser with the given platform detector.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseError is a manifest loading error with a friendly message.
type ParseError struct {
	Message string // user-facing summary
	Detail  string // raw Lua error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// ParseFile loads and parses a manifest file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses manifest code from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Manifest, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractManifest(L)
}

// extractManifest pulls the global "manifest" table out of the state.
func extractManifest(L *lua.LState) (*Manifest, error) {
	manifestVal := L.GetGlobal("manifest")
	if manifestVal.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'manifest' table",
			Detail:  fmt.Sprintf("expected table, got %s", manifestVal.Type()),
		}
	}

	table := manifestVal.(*lua.LTable)
	m := &Manifest{}

	if metaVal := table.RawGetString("meta"); metaVal.Type() == lua.LTTable {
		m.Meta = extractMeta(metaVal.(*lua.LTable))
	}

	if langsVal := table.RawGetString("languages"); langsVal.Type() == lua.LTTable {
		m.Languages = extractRequirements(langsVal.(*lua.LTable))
	}
	if toolsVal := table.RawGetString("tools"); toolsVal.Type() == lua.LTTable {
		m.Tools = extractRequirements(toolsVal.(*lua.LTable))
	}

	if err := m.Validate(); err != nil {
		return nil, &ParseError{
			Message: "manifest validation failed",
			Detail:  err.Error(),
		}
	}
	return m, nil
}

func extractMeta(table *lua.LTable) Meta {
	meta := Meta{}
	if v := table.RawGetString("name"); v.Type() == lua.LTString {
		meta.Name = v.String()
	}
	if v := table.RawGetString("description"); v.Type() == lua.LTString {
		meta.Description = v.String()
	}
	return meta
}

// extractRequirements reads a name-to-spec map. Non-string values are
// dropped: a platform conditional that does not apply evaluates to nil,
// and `platform.when(false, v)` leaves no entry at all.
func extractRequirements(table *lua.LTable) []Requirement {
	var reqs []Requirement
	table.ForEach(func(key, value lua.LValue) {
		if key.Type() != lua.LTString || value.Type() != lua.LTString {
			return
		}
		reqs = append(reqs, Requirement{Name: key.String(), Spec: value.String()})
	})
	sortRequirements(reqs)
	return reqs
}
