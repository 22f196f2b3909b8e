package main

import (
	"fmt"
	"go/types"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/tools/go/packages"
)

const (
	daolitePkg = "github.com/syssam/daolite"
	schemaPkg  = "github.com/syssam/daolite/schema"
)

// kind mirrors schema.Kind for classification during generation.
type kind uint8

const (
	kindInvalid kind = iota
	kindInt
	kindFloat
	kindString
	kindBytes
	kindEmbedded
	kindRef
	kindList
	kindEncoded
)

// fieldSpec is one classified struct field.
type fieldSpec struct {
	goName string
	column string
	kind   kind
	child  string     // related type name for embedded/ref/list
	ptr    bool       // embedded field declared as a pointer
	typ    types.Type // Go field type, used for conversions
}

// generate loads the package, classifies the selected structs and writes
// the descriptor file next to them.
func generate(cfg Config) error {
	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedSyntax | packages.NeedImports,
	}, cfg.Package)
	if err != nil {
		return err
	}
	if len(pkgs) != 1 {
		return fmt.Errorf("pattern %q matched %d packages, want exactly one", cfg.Package, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return fmt.Errorf("load %s: %v", pkg.PkgPath, pkg.Errors[0])
	}

	f := jen.NewFilePathName(pkg.PkgPath, pkg.Name)
	f.HeaderComment("Code generated by daogen. DO NOT EDIT.")

	scope := pkg.Types.Scope()
	generated := 0
	for _, name := range scope.Names() {
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !obj.Exported() {
			continue
		}
		named, ok := obj.Type().(*types.Named)
		if !ok {
			continue
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok || !embedsBase(st) {
			continue
		}
		if len(cfg.Types) > 0 && !slices.Contains(cfg.Types, name) {
			continue
		}
		specs, err := classify(st)
		if err != nil {
			return fmt.Errorf("type %s: %w", name, err)
		}
		emitType(f, name, specs)
		generated++
	}
	if generated == 0 {
		return fmt.Errorf("no struct embedding daolite.Base found in %s", pkg.PkgPath)
	}

	if len(pkg.GoFiles) == 0 {
		return fmt.Errorf("package %s has no Go files", pkg.PkgPath)
	}
	out := cfg.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(filepath.Dir(pkg.GoFiles[0]), out)
	}
	return f.Save(out)
}

// embedsBase reports whether the struct embeds daolite.Base.
func embedsBase(st *types.Struct) bool {
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		if named, ok := f.Type().(*types.Named); ok && isDaoliteType(named, "Base") {
			return true
		}
	}
	return false
}

func isDaoliteType(named *types.Named, name string) bool {
	obj := named.Obj()
	return obj.Name() == name && obj.Pkg() != nil && obj.Pkg().Path() == daolitePkg
}

// recordName returns the type name when t is a record type (a struct
// embedding daolite.Base, possibly behind a pointer).
func recordName(t types.Type) (name string, ptr bool, ok bool) {
	if p, isPtr := t.(*types.Pointer); isPtr {
		t, ptr = p.Elem(), true
	}
	named, isNamed := t.(*types.Named)
	if !isNamed {
		return "", false, false
	}
	st, isStruct := named.Underlying().(*types.Struct)
	if !isStruct || !embedsBase(st) {
		return "", false, false
	}
	return named.Obj().Name(), ptr, true
}

// classify walks the struct fields in declaration order and assigns each
// exported one a kind, mirroring the column mapping of the schema package.
func classify(st *types.Struct) ([]fieldSpec, error) {
	var specs []fieldSpec
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if f.Embedded() || !f.Exported() {
			continue
		}
		spec := fieldSpec{
			goName: f.Name(),
			column: inflect.Underscore(f.Name()),
			typ:    f.Type(),
		}
		switch t := f.Type().(type) {
		case *types.Basic:
			switch {
			case t.Info()&types.IsBoolean != 0, t.Info()&types.IsInteger != 0:
				spec.kind = kindInt
			case t.Info()&types.IsFloat != 0:
				spec.kind = kindFloat
			case t.Info()&types.IsString != 0:
				spec.kind = kindString
			default:
				spec.kind = kindEncoded
			}
		case *types.Slice:
			if b, ok := t.Elem().(*types.Basic); ok && b.Kind() == types.Byte {
				spec.kind = kindBytes
				break
			}
			if name, ptr, ok := recordName(t.Elem()); ok {
				if !ptr {
					return nil, fmt.Errorf("field %s: collections must hold pointers, use []*%s", f.Name(), name)
				}
				spec.kind, spec.child = kindList, name
				break
			}
			spec.kind = kindEncoded
		case *types.Named:
			if isDaoliteType(t, "ForeignKey") {
				args := t.TypeArgs()
				if args.Len() != 1 {
					return nil, fmt.Errorf("field %s: ForeignKey needs a type argument", f.Name())
				}
				name, _, ok := recordName(args.At(0))
				if !ok {
					return nil, fmt.Errorf("field %s: ForeignKey target is not a record type", f.Name())
				}
				spec.kind, spec.child = kindRef, name
				break
			}
			if name, _, ok := recordName(t); ok {
				spec.kind, spec.child = kindEmbedded, name
				break
			}
			spec.kind = kindEncoded
		case *types.Pointer:
			if name, _, ok := recordName(t); ok {
				spec.kind, spec.child, spec.ptr = kindEmbedded, name, true
				break
			}
			spec.kind = kindEncoded
		default:
			spec.kind = kindEncoded
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// emitType writes the descriptor variable, the Descriptor method, the
// constructor and the registration hook for one record type.
func emitType(f *jen.File, typeName string, specs []fieldSpec) {
	descVar := lowerFirst(typeName) + "Descriptor"

	fields := []jen.Code{idField(typeName)}
	for _, s := range specs {
		fields = append(fields, fieldEntry(typeName, s))
	}

	f.Var().Id(descVar).Op("=").Op("&").Qual(schemaPkg, "Descriptor").Values(jen.Dict{
		jen.Id("Name"):   jen.Lit(typeName),
		jen.Id("New"):    jen.Func().Params().Any().Block(jen.Return(jen.Id("New" + typeName).Call())),
		jen.Id("Fields"): jen.Index().Qual(schemaPkg, "Field").Values(fields...),
	})
	f.Line()

	f.Commentf("Descriptor returns the field-descriptor table of %s.", typeName)
	f.Func().Params(jen.Op("*").Id(typeName)).Id("Descriptor").Params().
		Op("*").Qual(schemaPkg, "Descriptor").Block(
		jen.Return(jen.Id(descVar)),
	)
	f.Line()

	// Embedded children start unassigned too, so their cascaded inserts
	// receive fresh ids.
	ctor := jen.Dict{
		jen.Id("Base"): jen.Qual(daolitePkg, "NewBase").Call(),
	}
	for _, s := range specs {
		if s.kind != kindEmbedded {
			continue
		}
		if s.ptr {
			ctor[jen.Id(s.goName)] = jen.Id("New" + s.child).Call()
		} else {
			ctor[jen.Id(s.goName)] = jen.Op("*").Id("New" + s.child).Call()
		}
	}
	f.Commentf("New%s returns a %s with an unassigned id.", typeName, typeName)
	f.Func().Id("New" + typeName).Params().Op("*").Id(typeName).Block(
		jen.Return(jen.Op("&").Id(typeName).Values(ctor)),
	)
	f.Line()

	f.Func().Id("init").Params().Block(
		jen.Qual(schemaPkg, "Register").Call(jen.Id(descVar)),
	)
	f.Line()
}

// rec casts the untyped record to the concrete type: rec.(*X)
func rec(typeName string) *jen.Statement {
	return jen.Id("rec").Assert(jen.Op("*").Id(typeName))
}

// idField emits the schema.IDField entry reading daolite.Base.
func idField(typeName string) jen.Code {
	return jen.Qual(schemaPkg, "IDField").Call(
		jen.Func().Params(jen.Id("rec").Any()).Uint32().Block(
			jen.Return(rec(typeName).Dot("ID")),
		),
		jen.Func().Params(jen.Id("rec").Any(), jen.Id("id").Uint32()).Block(
			rec(typeName).Dot("ID").Op("=").Id("id"),
		),
	)
}

// fieldEntry emits one schema.Field literal (or schema.Encoded call) with
// the getter and setter closures for the field.
func fieldEntry(typeName string, s fieldSpec) jen.Code {
	if s.kind == kindEncoded {
		return encodedEntry(typeName, s)
	}
	d := jen.Dict{
		jen.Id("Name"): jen.Lit(s.column),
		jen.Id("Kind"): jen.Qual(schemaPkg, kindIdent(s.kind)),
		jen.Id("Get"):  getter(typeName, s),
		jen.Id("Set"):  setter(typeName, s),
	}
	if s.child != "" {
		d[jen.Id("Ref")] = jen.Lit(s.child)
	}
	return jen.Values(d)
}

func kindIdent(k kind) string {
	switch k {
	case kindInt:
		return "Int"
	case kindFloat:
		return "Float"
	case kindString:
		return "String"
	case kindBytes:
		return "Bytes"
	case kindEmbedded:
		return "Embedded"
	case kindRef:
		return "Ref"
	case kindList:
		return "List"
	}
	return "Invalid"
}

// getter emits the Get closure honoring the per-kind value contracts of
// the schema package.
func getter(typeName string, s fieldSpec) jen.Code {
	field := rec(typeName).Dot(s.goName)
	body := func(ret jen.Code) jen.Code {
		return jen.Func().Params(jen.Id("rec").Any()).Any().Block(ret)
	}
	switch s.kind {
	case kindInt:
		if isBool(s.typ) {
			return jen.Func().Params(jen.Id("rec").Any()).Any().Block(
				jen.If(field).Block(jen.Return(jen.Int64().Call(jen.Lit(1)))),
				jen.Return(jen.Int64().Call(jen.Lit(0))),
			)
		}
		return body(jen.Return(jen.Int64().Call(field)))
	case kindFloat:
		return body(jen.Return(jen.Float64().Call(field)))
	case kindString, kindBytes:
		return body(jen.Return(field))
	case kindEmbedded:
		if s.ptr {
			return jen.Func().Params(jen.Id("rec").Any()).Any().Block(
				jen.Id("r").Op(":=").Add(rec(typeName)),
				jen.If(jen.Id("r").Dot(s.goName).Op("==").Nil()).Block(
					jen.Id("r").Dot(s.goName).Op("=").Id("New"+s.child).Call(),
				),
				jen.Return(jen.Id("r").Dot(s.goName)),
			)
		}
		return body(jen.Return(jen.Op("&").Add(field)))
	case kindRef:
		return body(jen.Return(field.Clone().Dot("ID")))
	case kindList:
		return jen.Func().Params(jen.Id("rec").Any()).Any().Block(
			jen.Id("rs").Op(":=").Add(field),
			jen.Id("out").Op(":=").Make(jen.Index().Any(), jen.Len(jen.Id("rs"))),
			jen.For(jen.Id("i").Op(":=").Range().Id("rs")).Block(
				jen.Id("out").Index(jen.Id("i")).Op("=").Id("rs").Index(jen.Id("i")),
			),
			jen.Return(jen.Id("out")),
		)
	}
	return jen.Nil()
}

// setter emits the Set closure, converting from the transfer value back to
// the declared Go field type.
func setter(typeName string, s fieldSpec) jen.Code {
	field := rec(typeName).Dot(s.goName)
	body := func(code ...jen.Code) jen.Code {
		return jen.Func().Params(jen.Id("rec").Any(), jen.Id("v").Any()).Block(code...)
	}
	switch s.kind {
	case kindInt:
		if isBool(s.typ) {
			return body(field.Clone().Op("=").Id("v").Assert(jen.Int64()).Op("!=").Lit(0))
		}
		return body(field.Clone().Op("=").Add(typeCode(s.typ)).Call(jen.Id("v").Assert(jen.Int64())))
	case kindFloat:
		return body(field.Clone().Op("=").Add(typeCode(s.typ)).Call(jen.Id("v").Assert(jen.Float64())))
	case kindString:
		return body(field.Clone().Op("=").Id("v").Assert(jen.String()))
	case kindBytes:
		return body(field.Clone().Op("=").Id("v").Assert(jen.Index().Byte()))
	case kindEmbedded:
		if s.ptr {
			return body(field.Clone().Op("=").Id("v").Assert(jen.Op("*").Id(s.child)))
		}
		return body(field.Clone().Op("=").Op("*").Id("v").Assert(jen.Op("*").Id(s.child)))
	case kindRef:
		return body(field.Clone().Dot("ID").Op("=").Id("v").Assert(jen.Uint32()))
	case kindList:
		return body(
			jen.Id("r").Op(":=").Add(rec(typeName)),
			jen.Id("r").Dot(s.goName).Op("=").Append(
				jen.Id("r").Dot(s.goName),
				jen.Id("v").Assert(jen.Op("*").Id(s.child)),
			),
		)
	}
	return jen.Nil()
}

// encodedEntry emits a schema.Encoded call for fields with no scalar
// column mapping; the value rides in a BLOB column, msgpack-encoded.
func encodedEntry(typeName string, s fieldSpec) jen.Code {
	field := rec(typeName).Dot(s.goName)
	return jen.Qual(schemaPkg, "Encoded").Call(
		jen.Lit(s.column),
		jen.Func().Params(jen.Id("rec").Any()).Add(typeCode(s.typ)).Block(
			jen.Return(field),
		),
		jen.Func().Params(jen.Id("rec").Any(), jen.Id("v").Add(typeCode(s.typ))).Block(
			field.Clone().Op("=").Id("v"),
		),
	)
}

// typeCode renders a Go type expression for the common shapes daogen
// meets: basics, named types, pointers, slices and maps.
func typeCode(t types.Type) *jen.Statement {
	switch t := t.(type) {
	case *types.Basic:
		return jen.Id(t.Name())
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return jen.Id(obj.Name())
		}
		return jen.Qual(obj.Pkg().Path(), obj.Name())
	case *types.Pointer:
		return jen.Op("*").Add(typeCode(t.Elem()))
	case *types.Slice:
		return jen.Index().Add(typeCode(t.Elem()))
	case *types.Map:
		return jen.Map(typeCode(t.Key())).Add(typeCode(t.Elem()))
	}
	return jen.Id(t.String())
}

func isBool(t types.Type) bool {
	b, ok := t.(*types.Basic)
	return ok && b.Info()&types.IsBoolean != 0
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
