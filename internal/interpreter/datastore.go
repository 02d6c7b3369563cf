package interpreter

import (
	"strconv"

	"github.com/funvibe/rulejitc/internal/ruleset"
)

// section names which canonical map a field belongs to.
type section int

const (
	sectionInput section = iota
	sectionCache
	sectionOutput
)

// DataStore holds the canonical per-instance value maps (spec.md §4.G
// "owns a DataStore") plus the document's meta info for type lookups at
// the host marshalling boundary.
type DataStore struct {
	Doc *ruleset.Document

	Input  map[string]RuntimeValue
	Cache  map[string]RuntimeValue
	Output map[string]RuntimeValue

	fieldSection map[string]section
}

// NewDataStore builds a DataStore with every MetaInfo field initialized
// to its literal InitValue (a decimal number, or true/false as 1/0) when
// it has one, else to its type's zero value, so copy-on-read staging
// always has a canonical source to read from. Fields with a Value
// expression are recomputed by the preprocess function on every Tick.
func NewDataStore(doc *ruleset.Document) *DataStore {
	ds := &DataStore{
		Doc:          doc,
		Input:        map[string]RuntimeValue{},
		Cache:        map[string]RuntimeValue{},
		Output:       map[string]RuntimeValue{},
		fieldSection: map[string]section{},
	}
	for _, v := range doc.Meta.Inputs {
		ds.Input[v.Name] = zeroForType(v)
		ds.fieldSection[v.Name] = sectionInput
	}
	for _, v := range doc.Meta.Caches {
		ds.Cache[v.Name] = zeroForType(v)
		ds.fieldSection[v.Name] = sectionCache
	}
	for _, v := range doc.Meta.Outputs {
		ds.Output[v.Name] = zeroForType(v)
		ds.fieldSection[v.Name] = sectionOutput
	}
	return ds
}

func zeroForType(v ruleset.VarInfo) RuntimeValue {
	switch v.InitValue {
	case "true":
		return 1.0
	case "false":
		return 0.0
	}
	if f, err := strconv.ParseFloat(v.InitValue, 64); err == nil {
		return f
	}
	switch {
	case v.Type.IsComplexType():
		return zeroFor("struct")
	case v.Type.IsArrayType():
		return zeroFor("array")
	case v.Type.String() == "string":
		return zeroFor("string")
	default:
		return zeroFor("f64")
	}
}

// canonicalSlot returns the map holding name's canonical value and
// whether name is a known field at all.
func (ds *DataStore) canonicalSlot(name string) (map[string]RuntimeValue, bool) {
	sec, ok := ds.fieldSection[name]
	if !ok {
		return nil, false
	}
	switch sec {
	case sectionInput:
		return ds.Input, true
	case sectionCache:
		return ds.Cache, true
	default:
		return ds.Output, true
	}
}
