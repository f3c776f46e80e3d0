package schematic

import (
	"bytes"
	"context"
	"testing"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// opAmp builds a symbol with two inputs on the left, one output on the
// right and a triangular body.
func opAmp() *Tree {
	c := NewComponent()
	c.LibReference = "OPAMP"
	c.Description = "Operational amplifier"
	t := NewTree(c)

	inMinus := NewPin("2", "IN-", dxp(0, 20), coord.FromDxp(20))
	inMinus.SetOrientation(Orientation180)
	inPlus := NewPin("3", "IN+", dxp(0, -20), coord.FromDxp(20))
	inPlus.SetOrientation(Orientation180)
	out := NewPin("1", "OUT", dxp(60, 0), coord.FromDxp(20))
	t.Add(0, inMinus)
	t.Add(0, inPlus)
	t.Add(0, out)
	t.Add(0, NewPolyline(dxp(0, 40), dxp(60, 0), dxp(0, -40), dxp(0, 40)))
	return t
}

// Test the op-amp pin corners
func TestOpAmpCorners(t *testing.T) {
	tree := opAmp()
	tests := []struct {
		designator string
		want       coord.Point
	}{
		{"2", dxp(-20, 20)},
		{"3", dxp(-20, -20)},
		{"1", dxp(80, 0)},
	}
	pins := tree.Find(RecordPin)
	if len(pins) != 3 {
		t.Fatalf("Expected 3 pins, got %d", len(pins))
	}
	for i, tt := range tests {
		pin := tree.Records[pins[i]].(*Pin)
		if pin.Designator != tt.designator {
			t.Fatalf("Expected pin %s at position %d, got %s", tt.designator, i, pin.Designator)
		}
		if got := pin.Corner(); got != tt.want {
			t.Errorf("Pin %s: expected corner %v, got %v", tt.designator, tt.want, got)
		}
	}

	b := tree.Bounds()
	if b.Min.X != coord.FromDxp(-20) || b.Max.X != coord.FromDxp(80) {
		t.Errorf("Expected bounds from -20 to 80 DXP on x, got %v", b)
	}
}

// Test record stream round trip
func TestRecordStreamRoundTrip(t *testing.T) {
	ctx := context.Background()
	tree := opAmp()

	w := binfmt.NewWriter()
	if err := WriteRecords(ctx, w, tree); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	first := bytes.Clone(w.Bytes())

	got, err := ReadRecords(ctx, binfmt.NewBytesReader(first, "Data"))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", got.Warnings)
	}
	if got.Len() != tree.Len() {
		t.Fatalf("Expected %d records, got %d", tree.Len(), got.Len())
	}
	if c := got.Component(); c == nil || c.LibReference != "OPAMP" {
		t.Fatalf("Expected OPAMP component root, got %v", got.Root())
	}
	for _, i := range got.Find(RecordPin) {
		pin := got.Records[i].(*Pin)
		if !pin.Binary {
			t.Errorf("Expected pin %s to be read from the binary form", pin.Designator)
		}
		if got.Owner(i) != 0 {
			t.Errorf("Expected pin %s to belong to the component, got owner %d", pin.Designator, got.Owner(i))
		}
	}
	want := tree.Records[1].(*Pin).Corner()
	if c := got.Records[1].(*Pin).Corner(); c != want {
		t.Errorf("Expected corner %v after round trip, got %v", want, c)
	}

	w2 := binfmt.NewWriter()
	if err := WriteRecords(ctx, w2, got); err != nil {
		t.Fatalf("second WriteRecords failed: %v", err)
	}
	if !bytes.Equal(first, w2.Bytes()) {
		t.Error("Expected identical bytes after a second round trip")
	}
}

// Test that unchanged records keep their original bytes
func TestUnchangedRecordsKeepBytes(t *testing.T) {
	ctx := context.Background()
	// Key order differs from the codec's own order.
	lines := []string{
		"|RECORD=1|LIBREFERENCE=X|PARTCOUNT=2|CURRENTPARTID=1",
		"|RECORD=13|COLOR=255|LOCATION.X=1|OWNERPARTID=1",
	}
	w := binfmt.NewWriter()
	for _, l := range lines {
		w.WriteCStringBlock(0, binfmt.CString{Text: l, Terminated: true})
	}
	src := bytes.Clone(w.Bytes())

	tree, err := ReadRecords(ctx, binfmt.NewBytesReader(src, "Data"))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	out := binfmt.NewWriter()
	if err := WriteRecords(ctx, out, tree); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	if !bytes.Equal(src, out.Bytes()) {
		t.Error("Expected unchanged records to be written from their original bytes")
	}

	tree.Records[1].(*Line).Color = DefaultLineColor
	out = binfmt.NewWriter()
	if err := WriteRecords(ctx, out, tree); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	if bytes.Equal(src, out.Bytes()) {
		t.Error("Expected a modified record to be re-encoded")
	}
}

// Test visibility conjunction
func TestVisibility(t *testing.T) {
	c := NewComponent()
	c.PartCount = 3
	tree := NewTree(c)

	part2 := NewLine(dxp(0, 0), dxp(10, 0))
	part2.OwnerPartID = 2
	i2, _ := tree.Add(0, part2)

	hidden := NewPin("1", "A", dxp(0, 0), coord.FromDxp(10))
	hidden.OwnerPartID = 2
	hidden.Flags |= PinHide
	ih, _ := tree.Add(0, hidden)

	alt := NewLine(dxp(0, 0), dxp(0, 10))
	alt.OwnerPartID = 2
	alt.OwnerPartDisplayMode = 1
	ia, _ := tree.Add(0, alt)

	shared := NewRectangle(dxp(0, 0), dxp(5, 5))
	shared.OwnerPartID = -1
	is, _ := tree.Add(0, shared)

	param := NewParameter("Value", "10k")
	ip, _ := tree.Add(0, param)
	inner := NewLabel()
	inner.OwnerPartID = 1
	ii, _ := tree.Add(ip, inner)

	if tree.IsVisible(i2) {
		t.Error("Expected part 2 record to be hidden while part 1 is current")
	}
	c.CurrentPartID = 2
	if !tree.IsVisible(i2) {
		t.Error("Expected part 2 record to be visible once part 2 is current")
	}
	if tree.IsVisible(ih) {
		t.Error("Expected hidden pin to stay hidden on its own part")
	}
	hidden.Flags &^= PinHide
	if !tree.IsVisible(ih) {
		t.Error("Expected pin to be visible after clearing its hidden flag")
	}

	if tree.IsVisible(ia) {
		t.Error("Expected alternate display mode record to be hidden")
	}
	c.DisplayMode = 1
	if !tree.IsVisible(ia) {
		t.Error("Expected alternate display mode record to be visible in mode 1")
	}
	c.DisplayMode = 0

	if !tree.IsVisible(is) {
		t.Error("Expected record shared by all parts to be visible")
	}

	c.CurrentPartID = 1
	if !tree.IsVisible(ii) {
		t.Error("Expected child of a visible parameter to be visible")
	}
	param.Hidden = true
	if tree.IsVisible(ii) {
		t.Error("Expected child of a hidden parameter to be hidden")
	}
}

// Test promoted children and removal
func TestPromotedChildren(t *testing.T) {
	c := NewComponent()
	tree := NewTree(c)

	i, attached := tree.Add(0, NewDesignator("U?"))
	if attached {
		t.Error("Expected designator not to be attached as a generic child")
	}
	if c.Designator == nil || c.Designator.Text != "U?" {
		t.Fatalf("Expected designator field to be set, got %v", c.Designator)
	}
	if _, attached := tree.Add(0, NewParameter("Comment", "LM358")); attached || c.Comment == nil {
		t.Error("Expected comment parameter to be promoted")
	}
	if _, attached := tree.Add(0, NewImplementationList()); attached || c.Implementations == nil {
		t.Error("Expected implementation list to be promoted")
	}
	iv, attached := tree.Add(0, NewParameter("Value", "1"))
	if !attached {
		t.Error("Expected ordinary parameter to be attached")
	}
	if got := tree.Children(0); len(got) != 1 || got[0] != iv {
		t.Errorf("Expected only the value parameter among the children, got %v", got)
	}
	if tree.Owner(i) != 0 {
		t.Errorf("Expected promoted designator to keep owner 0, got %d", tree.Owner(i))
	}

	if err := tree.Remove(i); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if c.Designator != nil {
		t.Error("Expected designator field to be cleared on removal")
	}
	if tree.IsVisible(i) {
		t.Error("Expected removed record to be invisible")
	}
	if err := tree.Remove(0); err == nil {
		t.Error("Expected removing the root to fail")
	}
}

// Test orphan handling
func TestOrphans(t *testing.T) {
	tree := NewTree(NewComponent())
	tests := []struct {
		name  string
		owner func(index int) int
	}{
		{"forward", func(i int) int { return i + 3 }},
		{"self", func(i int) int { return i }},
		{"negative", func(int) int { return -3 }},
	}
	for _, tt := range tests {
		i, attached := tree.Add(tt.owner(tree.Len()), NewLine(dxp(0, 0), dxp(1, 1)))
		if attached {
			t.Errorf("%s: expected orphan, got attached", tt.name)
		}
		if tree.Owner(i) != -1 {
			t.Errorf("%s: expected owner -1, got %d", tt.name, tree.Owner(i))
		}
		if tree.IsVisible(i) {
			t.Errorf("%s: expected orphan to be invisible", tt.name)
		}
	}
	if got := tree.Orphans(); len(got) != 3 {
		t.Errorf("Expected 3 orphans, got %v", got)
	}
	if len(tree.Warnings) != 3 {
		t.Errorf("Expected 3 warnings, got %d", len(tree.Warnings))
	}
}

// Test owners implied by record order
func TestImpliedOwners(t *testing.T) {
	ctx := context.Background()
	lines := []string{
		"|RECORD=1|LIBREFERENCE=X|CURRENTPARTID=1",
		"|RECORD=44",
		"|RECORD=45|MODELNAME=A|MODELTYPE=PCBLIB",
		"|RECORD=46",
		"|RECORD=47|DESINTF=1",
		"|RECORD=48",
		"|RECORD=45|MODELNAME=B|MODELTYPE=SIM",
		"|RECORD=13|OWNERINDEX=0|OWNERPARTID=1",
	}
	w := binfmt.NewWriter()
	for _, l := range lines {
		w.WriteCStringBlock(0, binfmt.CString{Text: l, Terminated: true})
	}
	tree, err := ReadRecords(ctx, binfmt.NewBytesReader(w.Bytes(), "Data"))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	want := []int{-1, 0, 1, 2, 3, 2, 1, 0}
	for i, o := range want {
		if got := tree.Owner(i); got != o {
			t.Errorf("Record %d: expected owner %d, got %d", i, o, got)
		}
	}
	impl := tree.Records[2].(*Implementation)
	if !impl.ImpliedOwner {
		t.Error("Expected implementation owner to be implied")
	}
	if ExportRecord(impl).Has("OWNERINDEX") {
		t.Error("Expected implied owner index not to be written")
	}
	if c := tree.Component(); c.Implementations != tree.Records[1] {
		t.Error("Expected implementation list to be promoted into the component")
	}
}

// Test that undecodable records are kept
func TestReadRecordsKeepsBadRecords(t *testing.T) {
	ctx := context.Background()
	w := binfmt.NewWriter()
	w.WriteCStringBlock(0, binfmt.CString{Text: "|RECORD=31|FONTIDCOUNT=1|SIZE1=10|FONTNAME1=Arial", Terminated: true})
	w.WriteRawBlock(BinaryPinFlag, []byte{2, 0, 0})
	w.WriteCStringBlock(0, binfmt.CString{Text: "|RECORD=77|X=1", Terminated: true})
	src := bytes.Clone(w.Bytes())

	tree, err := ReadRecords(ctx, binfmt.NewBytesReader(src, "FileHeader"))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if tree.Sheet() == nil || len(tree.Sheet().Fonts) != 1 || tree.Sheet().Fonts[0].Name != "Arial" {
		t.Fatalf("Expected sheet header with one Arial font, got %v", tree.Root())
	}
	if _, ok := tree.Records[1].(*RawRecord); !ok {
		t.Errorf("Expected truncated pin to be kept raw, got %T", tree.Records[1])
	}
	if _, ok := tree.Records[2].(*Unknown); !ok {
		t.Errorf("Expected unknown record, got %T", tree.Records[2])
	}
	if len(tree.Warnings) != 2 {
		t.Errorf("Expected 2 warnings, got %v", tree.Warnings)
	}

	out := binfmt.NewWriter()
	if err := WriteRecords(ctx, out, tree); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	if !bytes.Equal(src, out.Bytes()) {
		t.Error("Expected bad records to be written back unchanged")
	}
}

// Test cancellation between records
func TestReadRecordsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := binfmt.NewWriter()
	w.WriteCStringBlock(0, binfmt.CString{Text: params.MustParse("|RECORD=1").String(), Terminated: true})
	if _, err := ReadRecords(ctx, binfmt.NewBytesReader(w.Bytes(), "Data")); err == nil {
		t.Error("Expected cancelled read to fail")
	}
}

// Test that orphans do not pick up a new owner when written
func TestWriteOrphans(t *testing.T) {
	ctx := context.Background()
	lines := []string{
		"|RECORD=1|LIBREFERENCE=X",
		"|RECORD=14|OWNERINDEX=0|LOCATION.X=0|LOCATION.Y=0|CORNER.X=10|CORNER.Y=10",
		"|RECORD=13|OWNERINDEX=0|LOCATION.X=0|LOCATION.Y=0|CORNER.X=5|CORNER.Y=5",
		"|RECORD=13|OWNERINDEX=1|LOCATION.X=1|LOCATION.Y=1|CORNER.X=2|CORNER.Y=2",
		"|RECORD=13|OWNERINDEX=9|LOCATION.X=3|LOCATION.Y=3|CORNER.X=4|CORNER.Y=4",
	}
	w := binfmt.NewWriter()
	for _, l := range lines {
		w.WriteCStringBlock(0, binfmt.CString{Text: l, Terminated: true})
	}
	tree, err := ReadRecords(ctx, binfmt.NewBytesReader(w.Bytes(), "Data"))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if err := tree.Remove(1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	out := binfmt.NewWriter()
	if err := WriteRecords(ctx, out, tree); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}
	got, err := ReadRecords(ctx, binfmt.NewBytesReader(out.Bytes(), "Data"))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if got.Len() != 4 {
		t.Fatalf("Expected 4 records, got %d", got.Len())
	}
	want := []int{-1, 0, -1, -1}
	for i, o := range want {
		if g := got.Owner(i); g != o {
			t.Errorf("Record %d: expected owner %d, got %d", i, o, g)
		}
	}
	if ch := got.Children(1); len(ch) != 0 {
		t.Errorf("Expected the line to have no children, got %v", ch)
	}
	if got.Records[3].Common().OwnerIndex != 9 {
		t.Errorf("Expected unresolvable owner 9 to be kept, got %d", got.Records[3].Common().OwnerIndex)
	}
}
