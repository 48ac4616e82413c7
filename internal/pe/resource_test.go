package pe

import (
	"errors"
	"testing"
)

func parseFixtureResources(t *testing.T, fixture *testImage) (*ResourceNode, []error) {
	t.Helper()
	img := fixture.image()
	hdrs, err := ParseHeaders(img)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	table := ParseSectionTable(img, hdrs)
	return ParseResourceTree(img, table, hdrs.OptionalHeader.Directory(IMAGE_DIRECTORY_ENTRY_RESOURCE))
}

func TestParseResourceTreeCycle(t *testing.T) {
	root, problems := parseFixtureResources(t, newTestPE32().withCyclicResources())

	if root == nil {
		t.Fatal("root = nil")
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}

	// The self-referential VERSION branch is flagged, not looped on.
	found := false
	for _, p := range problems {
		if errors.Is(p, ErrMalformedResourceTree) {
			found = true
		}
	}
	if !found {
		t.Errorf("problems = %v, want ErrMalformedResourceTree", problems)
	}

	// The sibling ICON branch still decodes down to its leaf.
	icon := root.Children[1]
	if icon.TypeLabel != "ICON" {
		t.Errorf("TypeLabel = %q, want ICON", icon.TypeLabel)
	}
	if len(icon.Children) != 1 {
		t.Fatalf("ICON branch has %d children, want 1", len(icon.Children))
	}
	leaf := icon.Children[0]
	if !leaf.IsLeaf {
		t.Fatal("ICON child is not a leaf")
	}
	if leaf.Key.ByName || leaf.Key.ID != 1033 {
		t.Errorf("leaf key = %v, want ID=1033", leaf.Key)
	}
	if leaf.Size != 4 || leaf.CodePage != 1252 {
		t.Errorf("leaf = {size %d, codepage %d}, want {4, 1252}", leaf.Size, leaf.CodePage)
	}
	if leaf.DataOffset != fileOff(0x1100) {
		t.Errorf("DataOffset = 0x%X, want 0x%X", leaf.DataOffset, fileOff(0x1100))
	}
}

func TestParseResourceTreeLabelsRootOnly(t *testing.T) {
	root, _ := parseFixtureResources(t, newTestPE32().withCyclicResources())

	if root.Children[0].TypeLabel != "VERSION" {
		t.Errorf("root child TypeLabel = %q, want VERSION", root.Children[0].TypeLabel)
	}
	// Deeper ID keys keep their raw form.
	leaf := root.Children[1].Children[0]
	if leaf.TypeLabel != "" {
		t.Errorf("leaf TypeLabel = %q, want empty", leaf.TypeLabel)
	}
	if got := leaf.Key.String(); got != "ID=1033" {
		t.Errorf("leaf key string = %q, want ID=1033", got)
	}
}

func TestParseResourceTreeAbsent(t *testing.T) {
	root, problems := parseFixtureResources(t, newTestPE32())
	if root != nil || problems != nil {
		t.Errorf("ParseResourceTree() = (%v, %v), want (nil, nil)", root, problems)
	}
}

func TestParseResourceTreeNamedEntry(t *testing.T) {
	fixture := newTestPE32()
	base := fileOff(0x1000)

	// Root with one named entry ("HM" in UTF-16) leading to a leaf.
	fixture.put16(base+12, 1)
	fixture.put32(base+16, 0x80000000|0x40) // name at +0x40
	fixture.put32(base+20, 0x20)            // leaf data entry at +0x20

	fixture.put32(base+0x20, 0x1100)
	fixture.put32(base+0x24, 8)

	fixture.put16(base+0x40, 2) // two UTF-16 units
	fixture.put16(base+0x42, 'H')
	fixture.put16(base+0x44, 'M')

	fixture.setDirectory(IMAGE_DIRECTORY_ENTRY_RESOURCE, 0x1000, 0x200)

	root, problems := parseFixtureResources(t, fixture)
	if len(problems) != 0 {
		t.Fatalf("problems = %v, want none", problems)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}
	child := root.Children[0]
	if !child.Key.ByName || child.Key.Name != "HM" {
		t.Errorf("key = %v, want name HM", child.Key)
	}
	if !child.IsLeaf || child.Size != 8 {
		t.Errorf("child = %+v, want leaf of size 8", child)
	}
}

func TestFindResourceData(t *testing.T) {
	fixture := newTestPE32().withCyclicResources()
	fixture.putString(fileOff(0x1100), "ICON")

	img := fixture.image()
	hdrs, _ := ParseHeaders(img)
	table := ParseSectionTable(img, hdrs)
	root, _ := ParseResourceTree(img, table, hdrs.OptionalHeader.Directory(IMAGE_DIRECTORY_ENTRY_RESOURCE))

	data, ok := FindResourceData(img, root, RT_ICON)
	if !ok {
		t.Fatal("FindResourceData(RT_ICON) not found")
	}
	if string(data) != "ICON" {
		t.Errorf("data = %q, want ICON", data)
	}

	// The VERSION branch is the malformed one: no leaf reachable.
	if _, ok := FindResourceData(img, root, RT_VERSION); ok {
		t.Error("FindResourceData(RT_VERSION) = ok for a malformed branch")
	}

	if _, ok := FindResourceData(img, nil, RT_ICON); ok {
		t.Error("FindResourceData(nil root) = ok")
	}
}
