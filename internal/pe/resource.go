package pe

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Resource type IDs.
const (
	RT_CURSOR      = 1
	RT_BITMAP      = 2
	RT_ICON        = 3
	RT_MENU        = 4
	RT_DIALOG      = 5
	RT_STRING      = 6
	RT_ACCELERATOR = 9
	RT_GROUP_ICON  = 14
	RT_VERSION     = 16
)

// resourceTypeNames labels well-known type IDs at the root of the tree.
var resourceTypeNames = map[uint16]string{
	RT_CURSOR:      "CURSOR",
	RT_BITMAP:      "BITMAP",
	RT_ICON:        "ICON",
	RT_MENU:        "MENU",
	RT_DIALOG:      "DIALOG",
	RT_STRING:      "STRING",
	RT_ACCELERATOR: "ACCELERATOR",
	RT_GROUP_ICON:  "GROUP_ICON",
	RT_VERSION:     "VERSION",
}

const (
	resourceDirHeaderSize = 16
	resourceDirEntrySize  = 8
	resourceDataEntrySize = 16

	// maxResourceDepth bounds recursion; well-formed trees are exactly
	// three levels deep (type, name/ID, language).
	maxResourceDepth = 8

	subdirFlag = 0x80000000
)

// ResourceKey identifies a child within a resource directory: either a
// UTF-16 name or a numeric ID. ByName tags which variant applies.
type ResourceKey struct {
	Name   string
	ID     uint16
	ByName bool
}

func (k ResourceKey) String() string {
	if k.ByName {
		return k.Name
	}
	return fmt.Sprintf("ID=%d", k.ID)
}

// ResourceNode is one node of the resource tree. Directories carry
// Children; leaves carry the located data blob's file offset, size and code
// page. TypeLabel is set only on root-level directories with a well-known
// type ID (deeper levels keep raw keys, matching how the tree is commonly
// displayed).
type ResourceNode struct {
	Key       ResourceKey
	TypeLabel string

	IsLeaf     bool
	DataOffset uint32
	Size       uint32
	CodePage   uint32

	Children []*ResourceNode
}

type resourceParser struct {
	img      *Image
	sections *SectionTable
	base     uint32 // file offset of the resource directory root
	visited  map[uint32]bool
	problems []error
}

// ParseResourceTree recursively decodes the resource directory. Subtrees
// that recurse past maxResourceDepth or point back at an already visited
// directory offset are reported as ErrMalformedResourceTree in the returned
// problem list without aborting sibling subtrees, so hostile self-referential
// offsets terminate instead of looping.
func ParseResourceTree(img *Image, sections *SectionTable, dir DataDirectory) (*ResourceNode, []error) {
	if dir.VirtualAddress == 0 {
		return nil, nil
	}
	base, err := sections.RVAToOffset(dir.VirtualAddress)
	if err != nil {
		return nil, []error{fmt.Errorf("resource directory: %w", err)}
	}

	p := &resourceParser{
		img:      img,
		sections: sections,
		base:     base,
		visited:  make(map[uint32]bool),
	}
	root := &ResourceNode{}
	p.parseDirectory(root, 0, 0)
	return root, p.problems
}

func (p *resourceParser) fail(format string, args ...interface{}) {
	p.problems = append(p.problems, fmt.Errorf(format, args...))
}

// parseDirectory decodes the directory at base+rel into node.
func (p *resourceParser) parseDirectory(node *ResourceNode, rel uint32, depth int) {
	abs := p.base + rel
	if depth >= maxResourceDepth {
		p.fail("%w: depth %d at offset 0x%X", ErrMalformedResourceTree, depth, abs)
		return
	}
	if p.visited[abs] {
		p.fail("%w: directory 0x%X revisited", ErrMalformedResourceTree, abs)
		return
	}
	p.visited[abs] = true

	raw, err := p.img.Bytes(abs, resourceDirHeaderSize)
	if err != nil {
		p.fail("resource directory 0x%X: %w", abs, err)
		return
	}
	named := le16(raw[12:])
	byID := le16(raw[14:])
	total := uint32(named) + uint32(byID)

	for i := uint32(0); i < total; i++ {
		entryOff := abs + resourceDirHeaderSize + i*resourceDirEntrySize
		entry, err := p.img.Bytes(entryOff, resourceDirEntrySize)
		if err != nil {
			p.fail("resource entry 0x%X: %w", entryOff, err)
			return
		}
		nameOrID := le32(entry[0:])
		target := le32(entry[4:])

		child := &ResourceNode{}
		if nameOrID&subdirFlag != 0 {
			name, err := p.readName(nameOrID &^ subdirFlag)
			if err != nil {
				p.fail("resource name: %w", err)
				continue
			}
			child.Key = ResourceKey{Name: name, ByName: true}
		} else {
			child.Key = ResourceKey{ID: uint16(nameOrID)}
			if depth == 0 {
				child.TypeLabel = resourceTypeNames[uint16(nameOrID)]
			}
		}

		if target&subdirFlag != 0 {
			p.parseDirectory(child, target&^subdirFlag, depth+1)
		} else {
			p.parseLeaf(child, target)
		}
		node.Children = append(node.Children, child)
	}
}

// parseLeaf decodes an IMAGE_RESOURCE_DATA_ENTRY and resolves its data RVA
// to a file offset. An unmappable blob keeps the node (size and code page
// are still reported) with a zero offset.
func (p *resourceParser) parseLeaf(node *ResourceNode, rel uint32) {
	node.IsLeaf = true
	raw, err := p.img.Bytes(p.base+rel, resourceDataEntrySize)
	if err != nil {
		p.fail("resource data entry 0x%X: %w", p.base+rel, err)
		return
	}
	dataRVA := le32(raw[0:])
	node.Size = le32(raw[4:])
	node.CodePage = le32(raw[8:])

	offset, err := p.sections.RVAToOffset(dataRVA)
	if err != nil {
		p.fail("resource data: %w", err)
		return
	}
	node.DataOffset = offset
}

// readName decodes a length-prefixed UTF-16 resource name.
func (p *resourceParser) readName(rel uint32) (string, error) {
	abs := p.base + rel
	count, err := p.img.U16(abs)
	if err != nil {
		return "", err
	}
	raw, err := p.img.Bytes(abs+2, uint32(count)*2)
	if err != nil {
		return "", err
	}
	return decodeUTF16(raw), nil
}

// FindResourceData returns the raw bytes of the first leaf found under the
// root-level directory with the given type ID.
func FindResourceData(img *Image, root *ResourceNode, typeID uint16) ([]byte, bool) {
	if root == nil {
		return nil, false
	}
	for _, child := range root.Children {
		if child.Key.ByName || child.Key.ID != typeID {
			continue
		}
		if leaf := firstLeaf(child); leaf != nil && leaf.DataOffset != 0 {
			data, err := img.Bytes(leaf.DataOffset, leaf.Size)
			if err != nil {
				return nil, false
			}
			return data, true
		}
	}
	return nil, false
}

func firstLeaf(node *ResourceNode) *ResourceNode {
	if node.IsLeaf {
		return node
	}
	for _, child := range node.Children {
		if leaf := firstLeaf(child); leaf != nil {
			return leaf
		}
	}
	return nil
}

// decodeUTF16 converts little-endian UTF-16 bytes to a string.
func decodeUTF16(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return string(utf16.Decode(u16))
}
