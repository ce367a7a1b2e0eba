package grammar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

// LoadGrammar decodes and validates a JSON-encoded Grammar document.
// This is the boundary between an external front-end (spec §1: "out of
// scope, assumed to deliver a validated Grammar value") and the
// lowering pipeline: it schema-validates the document, checks the
// declared schemaVersion for compatibility, and only then decodes it
// into the Grammar value the pipeline consumes.
func LoadGrammar(r io.Reader) (*Grammar, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("grammar: reading document: %w", err)
	}

	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("grammar: schema validation failed: %w", err)
	}

	var doc wireDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("grammar: decoding document: %w", err)
	}

	if err := checkSchemaVersion(doc.SchemaVersion); err != nil {
		return nil, err
	}

	return doc.toGrammar()
}

func validateAgainstSchema(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	const resourceURL = "grammar.json"
	if err := compiler.AddResource(resourceURL, strings.NewReader(jsonSchema)); err != nil {
		return fmt.Errorf("compiling embedded schema: %w", err)
	}
	schema, err := compiler.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("compiling embedded schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding document for validation: %w", err)
	}
	return schema.Validate(doc)
}

func checkSchemaVersion(v string) error {
	vv, minv := "v"+strings.TrimPrefix(v, "v"), minSupportedSchemaVersion
	if !semver.IsValid(vv) {
		return fmt.Errorf("grammar: invalid schemaVersion %q", v)
	}
	if semver.Compare(vv, minv) < 0 {
		return fmt.Errorf("grammar: schemaVersion %q is older than the minimum supported %q", v, minv)
	}
	if semver.Major(vv) != semver.Major(minv) {
		return fmt.Errorf("grammar: schemaVersion %q has an incompatible major version (want %s)", v, semver.Major(minv))
	}
	return nil
}

// ---- wire (JSON) representation ----

type wireDocument struct {
	SchemaVersion string      `json:"schemaVersion"`
	Storage       wireStorage `json:"storage"`
	Nodes         []wireNode  `json:"nodes"`
}

type wireStorage struct {
	Props     []wireProp     `json:"props"`
	Callbacks []wireCallback `json:"callbacks"`
}

type wireProp struct {
	Name string `json:"name"`
	Typ  string `json:"typ"`
}

type wireCallback struct {
	Name     string `json:"name"`
	ArgProps []int  `json:"argProps"`
	IsSpan   bool   `json:"isSpan"`
}

type wireNode struct {
	Name  string     `json:"name"`
	Cases []wireCase `json:"cases"`
}

type wireCase struct {
	Pattern wirePattern `json:"pattern"`
	Action  wireAction  `json:"action"`
}

// Set is []int, not []byte: encoding/json only decodes a JSON array
// into []byte via a base64 string, never from a natural array of
// numbers like [65,66] - []int decodes "set":[65,66] the way a
// grammar document actually writes it, and toPattern range-checks
// each element into a byte.
type wirePattern struct {
	Kind    string `json:"kind"`
	Byte    *byte  `json:"byte,omitempty"`
	Lo      *byte  `json:"lo,omitempty"`
	Hi      *byte  `json:"hi,omitempty"`
	Set     []int  `json:"set,omitempty"`
	Literal string `json:"literal,omitempty"`
	LenProp *int   `json:"lenProp,omitempty"`
}

type wireCall struct {
	Kind            string `json:"kind"`
	ArbitraryIx     int    `json:"arbitraryIx,omitempty"`
	Base            string `json:"base,omitempty"`
	Prop            int    `json:"prop,omitempty"`
	CallStoreCallIx int    `json:"callStoreCallIx,omitempty"`
	StoreValue      uint64 `json:"storeValue,omitempty"`
}

type wireSelectArm struct {
	Value  uint64     `json:"value"`
	Action wireAction `json:"action"`
}

type wireAction struct {
	Kind string `json:"kind"`

	StoreCapture string      `json:"storeCapture,omitempty"`
	StoreProp    int         `json:"storeProp,omitempty"`
	Next         *wireAction `json:"next,omitempty"`

	Call wireCall `json:"call,omitempty"`

	GotoState string `json:"gotoState,omitempty"`

	ErrorCode uint64 `json:"errorCode,omitempty"`

	SelectOn        string          `json:"selectOn,omitempty"`
	SelectCall      wireCall        `json:"selectCall,omitempty"`
	SelectProp      int             `json:"selectProp,omitempty"`
	SelectArms      []wireSelectArm `json:"selectArms,omitempty"`
	SelectOtherwise *wireAction     `json:"selectOtherwise,omitempty"`
}

func (d wireDocument) toGrammar() (*Grammar, error) {
	g := &Grammar{
		Storage: Storage{
			Props:     make([]Prop, len(d.Storage.Props)),
			Callbacks: make([]Callback, len(d.Storage.Callbacks)),
		},
		Nodes: make([]Node, len(d.Nodes)),
	}

	for i, p := range d.Storage.Props {
		g.Storage.Props[i] = Prop{Name: p.Name, Typ: Typ(p.Typ)}
	}
	for i, cb := range d.Storage.Callbacks {
		g.Storage.Callbacks[i] = Callback{Name: cb.Name, ArgProps: cb.ArgProps, IsSpan: cb.IsSpan}
	}

	for i, n := range d.Nodes {
		node := Node{Name: n.Name, Cases: make([]Case, len(n.Cases))}
		for j, c := range n.Cases {
			pat, err := c.Pattern.toPattern()
			if err != nil {
				return nil, fmt.Errorf("grammar: node %q case %d: %w", n.Name, j, err)
			}
			act, err := c.Action.toAction()
			if err != nil {
				return nil, fmt.Errorf("grammar: node %q case %d: %w", n.Name, j, err)
			}
			node.Cases[j] = Case{Pattern: pat, Action: act}
		}
		g.Nodes[i] = node
	}

	return g, nil
}

func (p wirePattern) toPattern() (Pattern, error) {
	switch PatternKind(p.Kind) {
	case PatternByte:
		if p.Byte == nil {
			return Pattern{}, fmt.Errorf("byte pattern missing byte value")
		}
		return Pattern{Kind: PatternByte, Byte: *p.Byte}, nil
	case PatternRange:
		if p.Lo == nil || p.Hi == nil {
			return Pattern{}, fmt.Errorf("range pattern missing lo/hi")
		}
		return Pattern{Kind: PatternRange, Lo: *p.Lo, Hi: *p.Hi}, nil
	case PatternSet:
		if len(p.Set) == 0 {
			return Pattern{}, fmt.Errorf("set pattern must not be empty")
		}
		set := make([]byte, len(p.Set))
		for i, b := range p.Set {
			if b < 0 || b > 255 {
				return Pattern{}, fmt.Errorf("set pattern: value %d out of byte range", b)
			}
			set[i] = byte(b)
		}
		return Pattern{Kind: PatternSet, Set: set}, nil
	case PatternLiteral:
		if p.Literal == "" {
			return Pattern{}, fmt.Errorf("%w: literal pattern", errEmptyPattern)
		}
		return Pattern{Kind: PatternLiteral, Literal: p.Literal}, nil
	case PatternOtherwise:
		return Pattern{Kind: PatternOtherwise}, nil
	case PatternConsume:
		if p.LenProp == nil {
			return Pattern{}, fmt.Errorf("consume pattern missing lenProp")
		}
		return Pattern{Kind: PatternConsume, LenProp: *p.LenProp}, nil
	default:
		return Pattern{}, fmt.Errorf("unknown pattern kind %q", p.Kind)
	}
}

var errEmptyPattern = fmt.Errorf("empty pattern")

func (c wireCall) toCall() (Call, error) {
	switch CallKind(c.Kind) {
	case CallArbitrary:
		return Call{Kind: CallArbitrary, ArbitraryIx: c.ArbitraryIx}, nil
	case CallMulAdd:
		return Call{Kind: CallMulAdd, Base: Base(c.Base), Prop: c.Prop}, nil
	case CallLoadNum:
		return Call{Kind: CallLoadNum, Prop: c.Prop}, nil
	case CallCallStore:
		return Call{Kind: CallCallStore, Prop: c.Prop, CallStoreCallIx: c.CallStoreCallIx}, nil
	case CallStoreConst:
		return Call{Kind: CallStoreConst, Prop: c.Prop, StoreValue: c.StoreValue}, nil
	default:
		return Call{}, fmt.Errorf("unknown call kind %q", c.Kind)
	}
}

func (a wireAction) toAction() (Action, error) {
	switch ActionKind(a.Kind) {
	case ActionStore:
		if a.Next == nil {
			return Action{}, fmt.Errorf("store action missing next")
		}
		next, err := a.Next.toAction()
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionStore, StoreCapture: Capture(a.StoreCapture), StoreProp: a.StoreProp, Next: &next}, nil
	case ActionCall:
		call, err := a.Call.toCall()
		if err != nil {
			return Action{}, err
		}
		if a.Next == nil {
			return Action{}, fmt.Errorf("call action missing next")
		}
		next, err := a.Next.toAction()
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionCall, Call: call, Next: &next}, nil
	case ActionGoto:
		if a.GotoState == "" {
			return Action{}, fmt.Errorf("goto action missing target state name")
		}
		return Action{Kind: ActionGoto, GotoState: a.GotoState}, nil
	case ActionError:
		return Action{Kind: ActionError, ErrorCode: a.ErrorCode}, nil
	case ActionSelect:
		arms := make([]SelectArm, len(a.SelectArms))
		for i, sa := range a.SelectArms {
			act, err := sa.Action.toAction()
			if err != nil {
				return Action{}, err
			}
			arms[i] = SelectArm{Value: sa.Value, Action: act}
		}
		var otherwise *Action
		if a.SelectOtherwise != nil {
			act, err := a.SelectOtherwise.toAction()
			if err != nil {
				return Action{}, err
			}
			otherwise = &act
		}
		result := Action{Kind: ActionSelect, SelectOn: SelectOn(a.SelectOn), SelectArms: arms, SelectOtherwise: otherwise}
		if result.SelectOn == SelectOnCall {
			call, err := a.SelectCall.toCall()
			if err != nil {
				return Action{}, err
			}
			result.SelectCall = call
		} else {
			result.SelectProp = a.SelectProp
		}
		return result, nil
	default:
		return Action{}, fmt.Errorf("unknown action kind %q", a.Kind)
	}
}

// MustIndent renders v as two-space-indented JSON, panicking if v
// cannot be encoded.
func MustIndent(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
	return buf.String()
}
