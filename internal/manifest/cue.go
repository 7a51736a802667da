package manifest

import (
	"embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema/manifest.cue
var schemaFS embed.FS

// CUEValidator validates and decodes CUE-authored transformer manifests
// against the embedded #Manifest schema, decoding into the same
// attribute.Expression values the JSON wire format produces.
type CUEValidator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewCUEValidator compiles the embedded #Manifest schema once.
func NewCUEValidator() (*CUEValidator, error) {
	ctx := cuecontext.New()

	schemaSrc, err := schemaFS.ReadFile("schema/manifest.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded manifest schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaSrc)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling manifest schema: %w", schema.Err())
	}

	return &CUEValidator{ctx: ctx, schema: schema}, nil
}

// DecodeCUE validates src against #Manifest and decodes it into a Manifest.
func (v *CUEValidator) DecodeCUE(src []byte) (Manifest, error) {
	value := v.ctx.CompileBytes(src)
	if value.Err() != nil {
		return Manifest{}, fmt.Errorf("compiling manifest: %w", value.Err())
	}

	def := v.schema.LookupPath(cue.ParsePath("#Manifest"))
	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return Manifest{}, fmt.Errorf("manifest does not satisfy #Manifest schema: %w", err)
	}

	data, err := unified.MarshalJSON()
	if err != nil {
		return Manifest{}, fmt.Errorf("encoding validated manifest: %w", err)
	}

	return DecodeJSON(data)
}

// ValidateManifest checks an already-decoded manifest (from either
// wire format) against the embedded #Manifest schema, round-tripping
// it through its JSON form since CUE accepts JSON syntax directly.
func (v *CUEValidator) ValidateManifest(m Manifest) error {
	data, err := EncodeJSON(m)
	if err != nil {
		return fmt.Errorf("encoding manifest for validation: %w", err)
	}
	_, err = v.DecodeCUE(data)
	return err
}
