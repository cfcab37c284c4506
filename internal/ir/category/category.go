// Package category implements the closed property/element categorization
// system: a 16-bit property-ID space whose high byte names a
// category range root, and a per-element-type inheritance closure that
// decides which ranges that element may draw properties from.
//
// Naming (PropID..., ElemType...) and grouping of properties
// (color/border/text/layout/window) follow a flat-enum convention familiar
// from simpler property-ID schemes, re-bucketed here into category ranges
// instead of one flat enum.
package category

// Root is a 16-bit category range root.
type Root uint16

const (
	Base           Root = 0x0000
	Layout         Root = 0x0100
	Visual         Root = 0x0200
	Typography     Root = 0x0300
	Interactive    Root = 0x0500
	ElementSpecific Root = 0x0600
	Window         Root = 0x0700
	Checkbox       Root = 0x0800
)

func (r Root) String() string {
	switch r {
	case Base:
		return "Base"
	case Layout:
		return "Layout"
	case Visual:
		return "Visual"
	case Typography:
		return "Typography"
	case Interactive:
		return "Interactive"
	case ElementSpecific:
		return "ElementSpecific"
	case Window:
		return "Window"
	case Checkbox:
		return "Checkbox"
	default:
		return "Unknown"
	}
}

// PropertyID is a full 16-bit property identifier: high byte is its
// category Root, low byte its offset within that category.
type PropertyID uint16

// RootOf extracts a property's category root in O(1): a single mask.
func RootOf(p PropertyID) Root { return Root(uint16(p) & 0xFF00) }

// Property IDs, grouped by category. Naming and grouping follow a
// conventional PropID* constant scheme; values are regrouped into the
// category ranges this package defines.
const (
	// Base (0x0000): properties every element, regardless of type, may set.
	PropInvalid PropertyID = PropertyID(Base) | 0x00

	// Layout (0x0100)
	PropPadding      PropertyID = PropertyID(Layout) | 0x01
	PropMargin       PropertyID = PropertyID(Layout) | 0x02
	PropGap          PropertyID = PropertyID(Layout) | 0x03
	PropMinWidth     PropertyID = PropertyID(Layout) | 0x04
	PropMinHeight    PropertyID = PropertyID(Layout) | 0x05
	PropMaxWidth     PropertyID = PropertyID(Layout) | 0x06 // KRY 'width' maps here
	PropMaxHeight    PropertyID = PropertyID(Layout) | 0x07 // KRY 'height' maps here
	PropAspectRatio  PropertyID = PropertyID(Layout) | 0x08
	PropLayoutFlags  PropertyID = PropertyID(Layout) | 0x09 // packed layout byte, see internal/ir LayoutByte
	PropOverflow     PropertyID = PropertyID(Layout) | 0x0A

	// Visual (0x0200)
	PropBgColor      PropertyID = PropertyID(Visual) | 0x01
	PropBorderColor  PropertyID = PropertyID(Visual) | 0x02
	PropBorderWidth  PropertyID = PropertyID(Visual) | 0x03
	PropBorderRadius PropertyID = PropertyID(Visual) | 0x04
	PropOpacity      PropertyID = PropertyID(Visual) | 0x05
	PropZIndex       PropertyID = PropertyID(Visual) | 0x06
	PropVisibility   PropertyID = PropertyID(Visual) | 0x07
	PropTransform    PropertyID = PropertyID(Visual) | 0x08
	PropShadow       PropertyID = PropertyID(Visual) | 0x09

	// Typography (0x0300)
	PropFgColor       PropertyID = PropertyID(Typography) | 0x01 // also "text_color"
	PropTextContent   PropertyID = PropertyID(Typography) | 0x02
	PropFontSize      PropertyID = PropertyID(Typography) | 0x03
	PropFontWeight    PropertyID = PropertyID(Typography) | 0x04
	PropTextAlignment PropertyID = PropertyID(Typography) | 0x05

	// Interactive (0x0500)
	PropDisabled    PropertyID = PropertyID(Interactive) | 0x01
	PropPlaceholder PropertyID = PropertyID(Interactive) | 0x02
	PropValue       PropertyID = PropertyID(Interactive) | 0x03
	PropFocusable   PropertyID = PropertyID(Interactive) | 0x04

	// ElementSpecific (0x0600)
	PropImageSource    PropertyID = PropertyID(ElementSpecific) | 0x01
	PropCustomDataBlob PropertyID = PropertyID(ElementSpecific) | 0x02
	PropSrc            PropertyID = PropertyID(ElementSpecific) | 0x03 // video/canvas source

	// Window (0x0700)
	PropWindowWidth  PropertyID = PropertyID(Window) | 0x01
	PropWindowHeight PropertyID = PropertyID(Window) | 0x02
	PropWindowTitle  PropertyID = PropertyID(Window) | 0x03
	PropResizable    PropertyID = PropertyID(Window) | 0x04
	PropKeepAspect   PropertyID = PropertyID(Window) | 0x05
	PropScaleFactor  PropertyID = PropertyID(Window) | 0x06
	PropIcon         PropertyID = PropertyID(Window) | 0x07
	PropVersion      PropertyID = PropertyID(Window) | 0x08
	PropAuthor       PropertyID = PropertyID(Window) | 0x09

	// Checkbox (0x0800)
	PropChecked       PropertyID = PropertyID(Checkbox) | 0x01
	PropIndeterminate PropertyID = PropertyID(Checkbox) | 0x02
)

// ElementKind is the closed set of standard element types.
type ElementKind uint8

const (
	ElemApp ElementKind = iota
	ElemContainer
	ElemText
	ElemImage
	ElemCanvas
	ElemButton
	ElemInput
	ElemCheckbox
	ElemList
	ElemGrid
	ElemScrollable
	ElemVideo
	ElemCustom // name carried out-of-band on ir.Element.CustomTypeName, the escape hatch for a non-standard element type
)

func (k ElementKind) String() string {
	switch k {
	case ElemApp:
		return "App"
	case ElemContainer:
		return "Container"
	case ElemText:
		return "Text"
	case ElemImage:
		return "Image"
	case ElemCanvas:
		return "Canvas"
	case ElemButton:
		return "Button"
	case ElemInput:
		return "Input"
	case ElemCheckbox:
		return "Checkbox"
	case ElemList:
		return "List"
	case ElemGrid:
		return "Grid"
	case ElemScrollable:
		return "Scrollable"
	case ElemVideo:
		return "Video"
	default:
		return "Custom"
	}
}

// ElementKindByName maps a frontend type-name spelling to its ElementKind;
// ok is false for anything not in the standard set (the caller then treats
// it as ElemCustom and keeps the original name).
var ElementKindByName = map[string]ElementKind{
	"App":        ElemApp,
	"Container":  ElemContainer,
	"Text":       ElemText,
	"Image":      ElemImage,
	"Canvas":     ElemCanvas,
	"Button":     ElemButton,
	"Input":      ElemInput,
	"Checkbox":   ElemCheckbox,
	"List":       ElemList,
	"Grid":       ElemGrid,
	"Scrollable": ElemScrollable,
	"Video":      ElemVideo,
}

// inheritance is the category-range closure each standard element type
// draws properties from. Every element implicitly inherits Base.
var inheritance = map[ElementKind][]Root{
	ElemApp:        {Window},
	ElemContainer:  {Layout, Visual},
	ElemText:       {Layout, Visual, Typography},
	ElemImage:      {Layout, Visual, ElementSpecific},
	ElemCanvas:     {Layout, Visual, ElementSpecific},
	ElemButton:     {Layout, Visual, Typography, Interactive},
	ElemInput:      {Layout, Visual, Typography, Interactive},
	ElemCheckbox:   {Layout, Visual, Typography, Interactive, Checkbox},
	ElemList:       {Layout, Visual, Interactive},
	ElemGrid:       {Layout, Visual, Interactive},
	ElemScrollable: {Layout, Visual, Interactive},
	ElemVideo:      {Layout, Visual, ElementSpecific, Interactive},
	// ElemCustom inherits everything: an unknown/custom element type is
	// the documented escape hatch, and category validation does not
	// apply to it (see ir package's Element.CustomTypeName).
}

// InheritanceClosure returns the set of category roots k may draw
// properties from, always including Base.
func InheritanceClosure(k ElementKind) map[Root]bool {
	closure := map[Root]bool{Base: true}
	for _, r := range inheritance[k] {
		closure[r] = true
	}
	return closure
}

// Valid reports whether property p may be used on an element of kind k:
// P is valid for E iff P's category root is in E's
// inheritance closure. Custom element types always validate true — there
// is no closed property set to check a custom type against.
func Valid(k ElementKind, p PropertyID) bool {
	if k == ElemCustom {
		return true
	}
	return InheritanceClosure(k)[RootOf(p)]
}

// Inheritable marks the small set of universal properties that propagate
// down the tree when a child leaves its own value unset.
var inheritableProps = map[PropertyID]bool{
	PropFgColor:  true,
	PropFontSize: true,
	PropFontWeight: true,
	PropVisibility: true,
}

// Inheritable reports whether p's effective value should fall back to an
// ancestor's value when absent on the element itself.
func Inheritable(p PropertyID) bool { return inheritableProps[p] }

// PropertyIDByName maps a frontend property spelling to its closed
// PropertyID. A name absent from this table is not an error: the builder
// treats it as a custom property (the supplemented escape hatch) rather
// than rejecting it outright.
var PropertyIDByName = map[string]PropertyID{
	"padding":        PropPadding,
	"margin":         PropMargin,
	"gap":            PropGap,
	"minWidth":       PropMinWidth,
	"minHeight":      PropMinHeight,
	"width":          PropMaxWidth,
	"maxWidth":       PropMaxWidth,
	"height":         PropMaxHeight,
	"maxHeight":      PropMaxHeight,
	"aspectRatio":    PropAspectRatio,
	"layout":         PropLayoutFlags,
	"overflow":       PropOverflow,
	"backgroundColor": PropBgColor,
	"borderColor":    PropBorderColor,
	"borderWidth":    PropBorderWidth,
	"borderRadius":   PropBorderRadius,
	"opacity":        PropOpacity,
	"zIndex":         PropZIndex,
	"visibility":     PropVisibility,
	"transform":      PropTransform,
	"shadow":         PropShadow,
	"color":          PropFgColor,
	"textColor":      PropFgColor,
	"text":           PropTextContent,
	"fontSize":       PropFontSize,
	"fontWeight":     PropFontWeight,
	"textAlignment":  PropTextAlignment,
	"textAlign":      PropTextAlignment,
	"disabled":       PropDisabled,
	"placeholder":    PropPlaceholder,
	"value":          PropValue,
	"focusable":      PropFocusable,
	"source":         PropImageSource,
	"src":            PropSrc,
	"customData":     PropCustomDataBlob,
	"windowWidth":    PropWindowWidth,
	"windowHeight":   PropWindowHeight,
	"windowTitle":    PropWindowTitle,
	"resizable":      PropResizable,
	"keepAspect":     PropKeepAspect,
	"scaleFactor":    PropScaleFactor,
	"icon":           PropIcon,
	"version":        PropVersion,
	"author":         PropAuthor,
	"checked":        PropChecked,
	"indeterminate":  PropIndeterminate,
}

// PropertyNames maps a PropertyID back to its canonical spelling, used by
// the source printer. Picked explicitly (rather than derived by iterating
// PropertyIDByName, which has several aliases per ID and an unspecified
// map iteration order) so the printer's output is deterministic.
var PropertyNames = map[PropertyID]string{
	PropPadding:        "padding",
	PropMargin:         "margin",
	PropGap:            "gap",
	PropMinWidth:       "minWidth",
	PropMinHeight:      "minHeight",
	PropMaxWidth:       "width",
	PropMaxHeight:      "height",
	PropAspectRatio:    "aspectRatio",
	PropLayoutFlags:    "layout",
	PropOverflow:       "overflow",
	PropBgColor:        "backgroundColor",
	PropBorderColor:    "borderColor",
	PropBorderWidth:    "borderWidth",
	PropBorderRadius:   "borderRadius",
	PropOpacity:        "opacity",
	PropZIndex:         "zIndex",
	PropVisibility:     "visibility",
	PropTransform:      "transform",
	PropShadow:         "shadow",
	PropFgColor:        "color",
	PropTextContent:    "text",
	PropFontSize:       "fontSize",
	PropFontWeight:     "fontWeight",
	PropTextAlignment:  "textAlignment",
	PropDisabled:       "disabled",
	PropPlaceholder:    "placeholder",
	PropValue:          "value",
	PropFocusable:      "focusable",
	PropImageSource:    "source",
	PropSrc:            "src",
	PropCustomDataBlob: "customData",
	PropWindowWidth:    "windowWidth",
	PropWindowHeight:   "windowHeight",
	PropWindowTitle:    "windowTitle",
	PropResizable:      "resizable",
	PropKeepAspect:     "keepAspect",
	PropScaleFactor:    "scaleFactor",
	PropIcon:           "icon",
	PropVersion:        "version",
	PropAuthor:         "author",
	PropChecked:        "checked",
	PropIndeterminate:  "indeterminate",
}
