// Package rulesetxml decodes the XML surface syntax of a rule-set
// document into internal/ruleset.Document (SPEC_FULL.md §C.7): a thin,
// replaceable adapter with no rule semantics of its own, grounded on
// original_source/src/frontend/ruleset/rulesetxmlparser.h's document
// shape (TypeDefines, MetaInfo.Inputs/Caches/Outputs, SubRuleSets).
//
// Uses the standard library's encoding/xml: none of the retrieved
// example repos wires a third-party XML library for a document shape
// this small, and encoding/xml's struct-tag decoding matches the
// teacher's own preference for stdlib parsers over a dependency for a
// one-off ingestion format (see DESIGN.md).
package rulesetxml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/token"
	"github.com/funvibe/rulejitc/internal/types"
)

type xmlDoc struct {
	XMLName  xml.Name      `xml:"RuleSet"`
	Version  string        `xml:"version,attr"`
	Types    []xmlType     `xml:"TypeDefines>Type"`
	Meta     xmlMeta       `xml:"MetaInfo"`
	SubSets  []xmlSubSet   `xml:"SubRuleSets>SubRuleSet"`
}

type xmlType struct {
	Name    string      `xml:"name,attr"`
	Members []xmlMember `xml:"Member"`
}

type xmlMember struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

type xmlMeta struct {
	Inputs  []xmlVar `xml:"Inputs>Var"`
	Caches  []xmlVar `xml:"Caches>Var"`
	Outputs []xmlVar `xml:"Outputs>Var"`
}

type xmlVar struct {
	Name      string `xml:"name,attr"`
	Type      string `xml:"type,attr"`
	InitValue string `xml:"InitValue,attr"`
	Value     string `xml:"Value,attr"`
	HostKind  string `xml:"hostKind,attr"`
}

type xmlSubSet struct {
	Name  string    `xml:"name,attr"`
	Rules []xmlRule `xml:"Rule"`
}

type xmlRule struct {
	Condition    string            `xml:"Condition"`
	Consequences []xmlConsequence `xml:"Consequence>Action"`
}

type xmlConsequence struct {
	Target string `xml:"target,attr"`
	Op     string `xml:"op,attr"` // empty for a plain assignment
	Value  string `xml:"value,attr"`
	Args   string `xml:"args,attr"` // comma-separated expression texts
}

// Decode reads an XML rule-set document from r into a ruleset.Document.
func Decode(r io.Reader) (*ruleset.Document, error) {
	var x xmlDoc
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&x); err != nil {
		return nil, diagnostics.New(diagnostics.TranslatorError, "rulesetxml", fmt.Sprintf("malformed document: %s", err.Error()), token.Range{})
	}

	doc := &ruleset.Document{Version: x.Version}
	for _, t := range x.Types {
		td := ruleset.TypeDefine{Name: t.Name}
		for _, m := range t.Members {
			ty, err := parseTypeAttr(m.Type)
			if err != nil {
				return nil, err
			}
			td.Members = append(td.Members, ruleset.MemberDefine{Name: m.Name, Type: ty})
		}
		doc.Types = append(doc.Types, td)
	}

	var err error
	if doc.Meta.Inputs, err = convertVars(x.Meta.Inputs); err != nil {
		return nil, err
	}
	if doc.Meta.Caches, err = convertVars(x.Meta.Caches); err != nil {
		return nil, err
	}
	if doc.Meta.Outputs, err = convertVars(x.Meta.Outputs); err != nil {
		return nil, err
	}

	for _, s := range x.SubSets {
		sub := ruleset.SubRuleSetDoc{Name: s.Name}
		for _, r := range s.Rules {
			rule := ruleset.Rule{Condition: r.Condition}
			for _, c := range r.Consequences {
				cons := ruleset.Consequence{Target: c.Target, Value: c.Value}
				if c.Op == "" {
					cons.Kind = ruleset.ConsequenceAssign
				} else {
					cons.Kind = ruleset.ConsequenceOperation
					cons.Op = c.Op
					cons.Args = splitArgs(c.Args)
				}
				rule.Consequences = append(rule.Consequences, cons)
			}
			sub.Rules = append(sub.Rules, rule)
		}
		doc.SubSets = append(doc.SubSets, sub)
	}

	return doc, nil
}

func convertVars(in []xmlVar) ([]ruleset.VarInfo, error) {
	out := make([]ruleset.VarInfo, 0, len(in))
	for _, v := range in {
		ty, err := parseTypeAttr(v.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, ruleset.VarInfo{
			Name:      v.Name,
			Type:      ty,
			InitValue: v.InitValue,
			Value:     v.Value,
			HostKind:  v.HostKind,
		})
	}
	return out, nil
}

func parseTypeAttr(s string) (types.Type, error) {
	if s == "" {
		return types.New(types.F64), nil
	}
	return types.MakeType(s)
}

func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
