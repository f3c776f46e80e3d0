package schematic

import (
	"image/color"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// Font is one entry of a document font table. Records refer to fonts by
// their 1-based position.
type Font struct {
	Name      string
	Size      int
	Rotation  int
	Bold      bool
	Italic    bool
	Underline bool
	StrikeOut bool
}

// DefaultFont is the single font of a new document.
var DefaultFont = Font{Name: "Times New Roman", Size: 10}

// importFonts reads FONTIDCOUNT and the numbered font keys.
func importFonts(p *params.Collection) []Font {
	n := p.Count("FONTIDCOUNT")
	fonts := make([]Font, 0, n)
	for i := 1; i <= n; i++ {
		fonts = append(fonts, Font{
			Name:      p.Get(fmtKey("FONTNAME", i)).AsStringOrDefault(""),
			Size:      p.Get(fmtKey("SIZE", i)).AsIntOrDefault(0),
			Rotation:  p.Get(fmtKey("ROTATION", i)).AsIntOrDefault(0),
			Bold:      p.Get(fmtKey("BOLD", i)).AsBool(),
			Italic:    p.Get(fmtKey("ITALIC", i)).AsBool(),
			Underline: p.Get(fmtKey("UNDERLINE", i)).AsBool(),
			StrikeOut: p.Get(fmtKey("STRIKEOUT", i)).AsBool(),
		})
	}
	return fonts
}

func exportFonts(p *params.Collection, fonts []Font) {
	p.AddInt("FONTIDCOUNT", len(fonts), false)
	for i, f := range fonts {
		id := i + 1
		p.AddInt(fmtKey("SIZE", id), f.Size, false)
		p.AddInt(fmtKey("ROTATION", id), f.Rotation, false)
		p.AddBool(fmtKey("UNDERLINE", id), f.Underline, false)
		p.AddBool(fmtKey("ITALIC", id), f.Italic, false)
		p.AddBool(fmtKey("BOLD", id), f.Bold, false)
		p.AddBool(fmtKey("STRIKEOUT", id), f.StrikeOut, false)
		p.AddString(fmtKey("FONTNAME", id), f.Name, false)
	}
}

// Standard sheet sizes in DXP units, indexed by SHEETSTYLE.
var sheetSizes = [][2]int{
	{1150, 760},  // A4
	{1550, 1110}, // A3
	{2230, 1570}, // A2
	{3150, 2230}, // A1
	{4460, 3150}, // A0
	{950, 750},   // A
	{1500, 950},  // B
	{2000, 1500}, // C
	{3200, 2000}, // D
	{4200, 3200}, // E
	{1100, 850},  // Letter
	{1400, 850},  // Legal
	{1700, 1100}, // Tabloid
}

// SheetHeader is record 0 of a schematic document: the sheet settings and
// font table.
type SheetHeader struct {
	Base
	Fonts                []Font
	UseMBCS              bool
	IsBOC                bool
	HotSpotGridOn        bool
	HotSpotGridSize      int
	SheetStyle           int
	SystemFont           int
	BorderOn             bool
	TitleBlockOn         bool
	SheetNumberSpaceSize int
	AreaColor            color.RGBA
	SnapGridOn           bool
	SnapGridSize         int
	VisibleGridOn        bool
	VisibleGridSize      int
	CustomX              coord.Coord
	CustomY              coord.Coord
	UseCustomSheet       bool
	ReferenceZonesOn     bool
	DisplayUnit          int
	WorkspaceOrientation int
}

// NewSheetHeader returns the settings of a new A4 sheet.
func NewSheetHeader() *SheetHeader {
	return &SheetHeader{
		Fonts:                []Font{DefaultFont},
		UseMBCS:              true,
		IsBOC:                true,
		HotSpotGridOn:        true,
		HotSpotGridSize:      4,
		SystemFont:           1,
		BorderOn:             true,
		TitleBlockOn:         true,
		SheetNumberSpaceSize: 4,
		AreaColor:            DefaultSheetColor,
		SnapGridOn:           true,
		SnapGridSize:         10,
		VisibleGridOn:        true,
		VisibleGridSize:      10,
		CustomX:              coord.FromDxp(1500),
		CustomY:              coord.FromDxp(950),
		ReferenceZonesOn:     true,
	}
}

func (h *SheetHeader) Record() RecordType { return RecordSheetHeader }

func (h *SheetHeader) ImportFromParameters(p *params.Collection) error {
	if err := h.importBase(p, RecordSheetHeader); err != nil {
		return err
	}
	h.Fonts = importFonts(p)
	h.UseMBCS = p.Get("USEMBCS").AsBool()
	h.IsBOC = p.Get("ISBOC").AsBool()
	h.HotSpotGridOn = p.Get("HOTSPOTGRIDON").AsBool()
	h.HotSpotGridSize = p.Get("HOTSPOTGRIDSIZE").AsIntOrDefault(0)
	h.SheetStyle = p.Get("SHEETSTYLE").AsIntOrDefault(0)
	h.SystemFont = p.Get("SYSTEMFONT").AsIntOrDefault(0)
	h.BorderOn = p.Get("BORDERON").AsBool()
	h.TitleBlockOn = p.Get("TITLEBLOCKON").AsBool()
	h.SheetNumberSpaceSize = p.Get("SHEETNUMBERSPACESIZE").AsIntOrDefault(0)
	h.AreaColor = p.Get("AREACOLOR").AsColorOrDefault(params.ColorFromWin32(0))
	h.SnapGridOn = p.Get("SNAPGRIDON").AsBool()
	h.SnapGridSize = p.Get("SNAPGRIDSIZE").AsIntOrDefault(0)
	h.VisibleGridOn = p.Get("VISIBLEGRIDON").AsBool()
	h.VisibleGridSize = p.Get("VISIBLEGRIDSIZE").AsIntOrDefault(0)
	h.CustomX = p.DxpCoord("CUSTOMX")
	h.CustomY = p.DxpCoord("CUSTOMY")
	h.UseCustomSheet = p.Get("USECUSTOMSHEET").AsBool()
	h.ReferenceZonesOn = p.Get("REFERENCEZONESON").AsBool()
	h.DisplayUnit = p.Get("DISPLAY_UNIT").AsIntOrDefault(0)
	h.WorkspaceOrientation = p.Get("WORKSPACEORIENTATION").AsIntOrDefault(0)
	return nil
}

func (h *SheetHeader) ExportToParameters(p *params.Collection) {
	h.exportBase(p, RecordSheetHeader)
	exportFonts(p, h.Fonts)
	p.AddBool("USEMBCS", h.UseMBCS, false)
	p.AddBool("ISBOC", h.IsBOC, false)
	p.AddBool("HOTSPOTGRIDON", h.HotSpotGridOn, false)
	p.AddInt("HOTSPOTGRIDSIZE", h.HotSpotGridSize, false)
	p.AddInt("SHEETSTYLE", h.SheetStyle, false)
	p.AddInt("SYSTEMFONT", h.SystemFont, false)
	p.AddBool("BORDERON", h.BorderOn, false)
	p.AddBool("TITLEBLOCKON", h.TitleBlockOn, false)
	p.AddInt("SHEETNUMBERSPACESIZE", h.SheetNumberSpaceSize, false)
	p.AddColor("AREACOLOR", h.AreaColor, false)
	p.AddBool("SNAPGRIDON", h.SnapGridOn, false)
	p.AddInt("SNAPGRIDSIZE", h.SnapGridSize, false)
	p.AddBool("VISIBLEGRIDON", h.VisibleGridOn, false)
	p.AddInt("VISIBLEGRIDSIZE", h.VisibleGridSize, false)
	p.AddDxpCoord("CUSTOMX", h.CustomX, false)
	p.AddDxpCoord("CUSTOMY", h.CustomY, false)
	p.AddBool("USECUSTOMSHEET", h.UseCustomSheet, false)
	p.AddBool("REFERENCEZONESON", h.ReferenceZonesOn, false)
	p.AddInt("DISPLAY_UNIT", h.DisplayUnit, false)
	p.AddInt("WORKSPACEORIENTATION", h.WorkspaceOrientation, false)
	h.exportTail(p)
}

// Size returns the drawing area of the sheet.
func (h *SheetHeader) Size() (w, ht coord.Coord) {
	if h.UseCustomSheet || h.SheetStyle < 0 || h.SheetStyle >= len(sheetSizes) {
		return h.CustomX, h.CustomY
	}
	s := sheetSizes[h.SheetStyle]
	return coord.FromDxp(s[0]), coord.FromDxp(s[1])
}

// CalculateBounds covers the sheet, whose origin is its bottom left corner.
func (h *SheetHeader) CalculateBounds() coord.Rect {
	w, ht := h.Size()
	return coord.BoundsOf(coord.Point{}, coord.Pt(w, ht))
}
