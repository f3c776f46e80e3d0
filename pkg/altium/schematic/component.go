package schematic

import (
	"image/color"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// Colors the vendor tool assigns to freshly placed objects.
var (
	DefaultLineColor      = params.ColorFromWin32(8388608)  // dark blue
	DefaultAreaColor      = params.ColorFromWin32(11599871) // pale yellow
	DefaultComponentColor = params.ColorFromWin32(128)      // dark red
	DefaultPinColor       = params.ColorFromWin32(0)
	DefaultSheetColor     = params.ColorFromWin32(16317695)
)

// Component is the root record of a library symbol or a placed part.
type Component struct {
	Base
	HasLocation
	HasColor
	AreaColor         color.RGBA
	LibReference      string      // Library symbol name
	Description       string      // COMPONENTDESCRIPTION
	PartCount         int         // As stored: number of parts plus one
	DisplayModeCount  int         // Number of alternate graphics
	CurrentPartID     int         // Part shown in the editor
	DisplayMode       int         // Alternate graphic shown in the editor
	Orientation       Orientation // Placement rotation
	IsMirrored        bool        // Placement mirror
	LibraryPath       string
	SourceLibraryName string
	SheetPartFileName string
	TargetFileName    string
	PartIDLocked      bool
	DesignItemID      string
	AliasList         string
	ComponentKind     int
	AllPinCount       int

	// Promoted children. They are part of the record stream but are not
	// listed among the component's generic children.
	Designator      *Designator
	Comment         *Parameter
	Implementations *ImplementationList
}

// NewComponent returns a component with the editor's defaults for a new
// library symbol.
func NewComponent() *Component {
	return &Component{
		Base:              Base{OwnerPartID: -1, IndexInSheet: -1},
		HasColor:          HasColor{Color: DefaultComponentColor},
		AreaColor:         DefaultAreaColor,
		PartCount:         2,
		DisplayModeCount:  1,
		CurrentPartID:     1,
		LibraryPath:       "*",
		SourceLibraryName: "*",
		SheetPartFileName: "*",
		TargetFileName:    "*",
		PartIDLocked:      true,
	}
}

func (c *Component) Record() RecordType { return RecordComponent }

// Parts returns the number of parts of a multi-part symbol.
func (c *Component) Parts() int {
	return max(c.PartCount-1, 0)
}

func (c *Component) ImportFromParameters(p *params.Collection) error {
	if err := c.importBase(p, RecordComponent); err != nil {
		return err
	}
	c.importLocation(p)
	c.importColor(p)
	c.AreaColor = p.Get("AREACOLOR").AsColorOrDefault(params.ColorFromWin32(0))
	c.LibReference = p.Get("LIBREFERENCE").AsStringOrDefault("")
	c.Description = p.Get("COMPONENTDESCRIPTION").AsStringOrDefault("")
	c.PartCount = p.Get("PARTCOUNT").AsIntOrDefault(0)
	c.DisplayModeCount = p.Get("DISPLAYMODECOUNT").AsIntOrDefault(0)
	c.CurrentPartID = p.Get("CURRENTPARTID").AsIntOrDefault(0)
	c.DisplayMode = p.Get("DISPLAYMODE").AsIntOrDefault(0)
	c.Orientation = params.AsEnumOrDefault(p.Get("ORIENTATION"), Orientation0)
	c.IsMirrored = p.Get("ISMIRRORED").AsBool()
	c.LibraryPath = p.Get("LIBRARYPATH").AsStringOrDefault("")
	c.SourceLibraryName = p.Get("SOURCELIBRARYNAME").AsStringOrDefault("")
	c.SheetPartFileName = p.Get("SHEETPARTFILENAME").AsStringOrDefault("")
	c.TargetFileName = p.Get("TARGETFILENAME").AsStringOrDefault("")
	c.PartIDLocked = p.Get("PARTIDLOCKED").AsBool()
	c.DesignItemID = p.Get("DESIGNITEMID").AsStringOrDefault("")
	c.AliasList = p.Get("ALIASLIST").AsStringOrDefault("")
	c.ComponentKind = p.Get("COMPONENTKIND").AsIntOrDefault(0)
	c.AllPinCount = p.Get("ALLPINCOUNT").AsIntOrDefault(0)
	return nil
}

func (c *Component) ExportToParameters(p *params.Collection) {
	c.exportBase(p, RecordComponent)
	p.AddString("LIBREFERENCE", c.LibReference, false)
	p.AddString("COMPONENTDESCRIPTION", c.Description, false)
	p.AddInt("PARTCOUNT", c.PartCount, false)
	p.AddInt("DISPLAYMODECOUNT", c.DisplayModeCount, false)

	// The header fields follow the symbol identity in vendor files.
	p.SetBookmark()
	for _, k := range []string{"OWNERINDEX", "ISNOTACCESIBLE", "INDEXINSHEET", "OWNERPARTID", "OWNERPARTDISPLAYMODE", "GRAPHICALLYLOCKED"} {
		p.MoveKey(k)
	}

	c.exportLocation(p)
	p.AddInt("DISPLAYMODE", c.DisplayMode, false)
	params.AddEnum(p, "ORIENTATION", c.Orientation, Orientation0, false)
	p.AddBool("ISMIRRORED", c.IsMirrored, false)
	p.AddInt("CURRENTPARTID", c.CurrentPartID, false)
	p.AddString("LIBRARYPATH", c.LibraryPath, false)
	p.AddString("SOURCELIBRARYNAME", c.SourceLibraryName, false)
	p.AddString("SHEETPARTFILENAME", c.SheetPartFileName, false)
	p.AddString("TARGETFILENAME", c.TargetFileName, false)
	p.AddString("UNIQUEID", c.UniqueID, false)
	p.AddColor("AREACOLOR", c.AreaColor, false)
	c.exportColor(p)
	p.AddBool("PARTIDLOCKED", c.PartIDLocked, false)
	p.AddString("ALIASLIST", c.AliasList, false)
	p.AddInt("COMPONENTKIND", c.ComponentKind, false)
	p.AddString("DESIGNITEMID", c.DesignItemID, false)
	p.AddInt("ALLPINCOUNT", c.AllPinCount, false)
	p.Merge(c.Unmapped)
}

// CalculateBounds returns a unit box at the component origin. The extent of
// the drawn symbol is the union of its children, see Tree.Bounds.
func (c *Component) CalculateBounds() coord.Rect {
	return coord.BoundsOf(c.Location)
}

// promote stores a designator, comment or implementation list record in its
// named field. It reports false for any other record.
func (c *Component) promote(p Primitive) bool {
	switch v := p.(type) {
	case *Designator:
		c.Designator = v
	case *Parameter:
		if !isComment(v) {
			return false
		}
		c.Comment = v
	case *ImplementationList:
		c.Implementations = v
	default:
		return false
	}
	return true
}

// unpromote clears the named field holding p, if any.
func (c *Component) unpromote(p Primitive) {
	switch {
	case c.Designator != nil && Primitive(c.Designator) == p:
		c.Designator = nil
	case c.Comment != nil && Primitive(c.Comment) == p:
		c.Comment = nil
	case c.Implementations != nil && Primitive(c.Implementations) == p:
		c.Implementations = nil
	}
}

func isComment(p *Parameter) bool {
	return strings.EqualFold(p.Name, "Comment")
}
