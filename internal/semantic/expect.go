package semantic

import "github.com/kryonlabs/kryon/internal/ir/category"

// expectedType classifies what shape of Value a property's expression
// should reduce to, for the "type mismatch" check. Properties
// whose values are closed enums, packed bitfields, or otherwise not a
// single Value kind (layout flags, transforms, shadows, custom data) are
// exempt (typeAny) — there is nothing for a Value-kind check to compare
// against without re-implementing those sub-grammars here.
type expectedType int

const (
	typeAny expectedType = iota
	typeString
	typeColor
	typeBool
	typeLength // a VUnit; a bare VInt/VFloat is promoted to px by unit inference
	typeNumber // VInt or VFloat, Int promotes to Float
	typeInt    // VInt only, no unit
)

// valueRange gives a [Min, Max] a typeLength/typeNumber/typeInt property's
// numeric value must fall within for RecoverySanitize to clamp into,
// Has false when the property is unbounded.
type valueRange struct {
	Has      bool
	Min, Max float64
}

type propertyRule struct {
	Type  expectedType
	Range valueRange
}

func bounded(min, max float64) valueRange { return valueRange{Has: true, Min: min, Max: max} }

// propertyRules uses the same grouping as category.go's property
// constants; every PropertyID not listed here is typeAny.
var propertyRules = map[category.PropertyID]propertyRule{
	category.PropPadding:      {Type: typeLength, Range: bounded(0, 1e9)},
	category.PropMargin:       {Type: typeLength},
	category.PropGap:          {Type: typeLength, Range: bounded(0, 1e9)},
	category.PropMinWidth:     {Type: typeLength, Range: bounded(0, 1e9)},
	category.PropMinHeight:    {Type: typeLength, Range: bounded(0, 1e9)},
	category.PropMaxWidth:     {Type: typeLength, Range: bounded(0, 1e9)},
	category.PropMaxHeight:    {Type: typeLength, Range: bounded(0, 1e9)},
	category.PropBorderWidth:  {Type: typeLength, Range: bounded(0, 1e6)},
	category.PropBorderRadius: {Type: typeLength, Range: bounded(0, 1e6)},
	category.PropFontSize:     {Type: typeLength, Range: bounded(1, 1e4)},
	category.PropWindowWidth:  {Type: typeLength, Range: bounded(1, 1e6)},
	category.PropWindowHeight: {Type: typeLength, Range: bounded(1, 1e6)},

	category.PropAspectRatio: {Type: typeNumber, Range: bounded(0.001, 1000)},
	category.PropOpacity:     {Type: typeNumber, Range: bounded(0, 1)},
	category.PropScaleFactor: {Type: typeNumber, Range: bounded(0.01, 100)},
	category.PropZIndex:      {Type: typeInt},

	category.PropBgColor:     {Type: typeColor},
	category.PropBorderColor: {Type: typeColor},
	category.PropFgColor:     {Type: typeColor},

	category.PropTextContent: {Type: typeString},
	category.PropPlaceholder: {Type: typeString},
	category.PropValue:       {Type: typeString},
	category.PropWindowTitle: {Type: typeString},
	category.PropIcon:        {Type: typeString},
	category.PropVersion:     {Type: typeString},
	category.PropAuthor:      {Type: typeString},
	category.PropImageSource: {Type: typeString},
	category.PropSrc:         {Type: typeString},

	category.PropDisabled:  {Type: typeBool},
	category.PropFocusable: {Type: typeBool},
	category.PropResizable: {Type: typeBool},
	category.PropKeepAspect: {Type: typeBool},
	category.PropChecked:    {Type: typeBool},
	category.PropIndeterminate: {Type: typeBool},
}

func ruleFor(p category.PropertyID) (propertyRule, bool) {
	r, ok := propertyRules[p]
	return r, ok
}
