package pe

import "encoding/binary"

// Synthetic 32-bit PE used across the parser tests: headers at the standard
// offsets and one .text section at VA 0x1000 backed by file range
// 0x400-0x600. Tests poke directory-specific bytes into the section raw data
// before wrapping it in an Image.
//
// Layout:
//
//	0x000  DOS header ("MZ", e_lfanew = 0x80)
//	0x080  PE signature + file header
//	0x098  optional header (PE32, 224 bytes incl. 16 data directories)
//	0x178  section table (.text)
//	0x400  .text raw data (RVA 0x1000, 0x200 bytes)
const (
	fixtureSize       = 0x600
	fixtureSectionVA  = 0x1000
	fixtureSectionRaw = 0x400
	fixtureDirTable   = 0xF8
)

type testImage struct {
	data []byte
}

func newTestPE32() *testImage {
	t := &testImage{data: make([]byte, fixtureSize)}

	t.put16(0x00, 0x5A4D) // MZ
	t.put32(0x3C, 0x80)
	t.put32(0x80, 0x00004550) // PE\0\0

	// File header.
	t.put16(0x84, IMAGE_FILE_MACHINE_I386)
	t.put16(0x86, 1)          // NumberOfSections
	t.put32(0x88, 0x386D4380) // TimeDateStamp
	t.put16(0x94, 224)        // SizeOfOptionalHeader
	t.put16(0x96, IMAGE_FILE_EXECUTABLE_IMAGE|IMAGE_FILE_32BIT_MACHINE)

	// Optional header.
	t.put16(0x98, PE32Magic)
	t.data[0x9A] = 6 // linker 6.0
	t.put32(0xA8, fixtureSectionVA) // entry point
	t.put32(0xB4, 0x400000)         // image base
	t.put32(0xB8, 0x1000)           // section alignment
	t.put32(0xBC, 0x200)            // file alignment
	t.put32(0xD0, 0x2000)           // SizeOfImage
	t.put32(0xD4, 0x400)            // SizeOfHeaders
	t.put16(0xDC, IMAGE_SUBSYSTEM_WINDOWS_CUI)
	t.put32(0xF4, NumDataDirectories)

	// .text section header.
	copy(t.data[0x178:], ".text")
	t.put32(0x180, 0x1000)            // VirtualSize
	t.put32(0x184, fixtureSectionVA)  // VirtualAddress
	t.put32(0x188, 0x200)             // SizeOfRawData
	t.put32(0x18C, fixtureSectionRaw) // PointerToRawData
	t.put32(0x19C, IMAGE_SCN_CNT_CODE|IMAGE_SCN_MEM_READ|IMAGE_SCN_MEM_EXECUTE)

	return t
}

func (t *testImage) put16(off uint32, v uint16) {
	binary.LittleEndian.PutUint16(t.data[off:], v)
}

func (t *testImage) put32(off uint32, v uint32) {
	binary.LittleEndian.PutUint32(t.data[off:], v)
}

func (t *testImage) putString(off uint32, s string) {
	copy(t.data[off:], s) // fixture strings are pre-zeroed, NUL comes free
}

func (t *testImage) setDirectory(index int, rva, size uint32) {
	t.put32(fixtureDirTable+uint32(index)*8, rva)
	t.put32(fixtureDirTable+uint32(index)*8+4, size)
}

// fileOff translates a fixture RVA into its file offset.
func fileOff(rva uint32) uint32 {
	return rva - fixtureSectionVA + fixtureSectionRaw
}

func (t *testImage) image() *Image {
	return NewImage(t.data)
}

// withKernel32Import writes an import directory with one descriptor for
// KERNEL32.DLL importing ExitProcess by name.
func (t *testImage) withKernel32Import() *testImage {
	const (
		descRVA    = 0x1000
		intRVA     = 0x1030
		iatRVA     = 0x1040
		dllNameRVA = 0x1050
		hintRVA    = 0x1060
	)

	t.put32(fileOff(descRVA), intRVA)
	t.put32(fileOff(descRVA)+12, dllNameRVA)
	t.put32(fileOff(descRVA)+16, iatRVA)
	// Zero descriptor at +20 terminates the table.

	t.put32(fileOff(intRVA), hintRVA)
	t.put32(fileOff(iatRVA), hintRVA)
	t.putString(fileOff(dllNameRVA), "KERNEL32.DLL")
	t.put16(fileOff(hintRVA), 42)
	t.putString(fileOff(hintRVA)+2, "ExitProcess")

	t.setDirectory(IMAGE_DIRECTORY_ENTRY_IMPORT, descRVA, 40)
	return t
}

// withExports writes an export directory with OrdinalBase 5 and two
// functions, the second of which is named.
func (t *testImage) withExports() *testImage {
	const (
		dirRVA   = 0x1100
		funcsRVA = 0x1128
		namesRVA = 0x1130
		ordsRVA  = 0x1138
		strRVA   = 0x1140
	)

	t.put32(fileOff(dirRVA)+16, 5) // Base
	t.put32(fileOff(dirRVA)+20, 2) // NumberOfFunctions
	t.put32(fileOff(dirRVA)+24, 1) // NumberOfNames
	t.put32(fileOff(dirRVA)+28, funcsRVA)
	t.put32(fileOff(dirRVA)+32, namesRVA)
	t.put32(fileOff(dirRVA)+36, ordsRVA)

	t.put32(fileOff(funcsRVA), 0x2000)
	t.put32(fileOff(funcsRVA)+4, 0x2010)
	t.put32(fileOff(namesRVA), strRVA)
	t.put16(fileOff(ordsRVA), 1) // name belongs to the second function
	t.putString(fileOff(strRVA), "Frobnicate")

	t.setDirectory(IMAGE_DIRECTORY_ENTRY_EXPORT, dirRVA, 0x100)
	return t
}

// withCyclicResources writes a resource directory whose VERSION subtree
// points back at the root while a sibling ICON subtree holds a valid leaf.
func (t *testImage) withCyclicResources() *testImage {
	base := fileOff(0x1000)

	// Root: two ID entries (header 0x00-0x10, entries 0x10-0x20).
	t.put16(base+14, 2)
	// Entry 0: type VERSION -> subdirectory at +0x20.
	t.put32(base+0x10, RT_VERSION)
	t.put32(base+0x14, 0x80000000|0x20)
	// Entry 1: type ICON -> subdirectory at +0x40.
	t.put32(base+0x18, RT_ICON)
	t.put32(base+0x1C, 0x80000000|0x40)

	// VERSION subdirectory: one entry pointing back at the root.
	t.put16(base+0x20+14, 1)
	t.put32(base+0x30, 1)
	t.put32(base+0x34, 0x80000000|0x0)

	// ICON subdirectory: one leaf.
	t.put16(base+0x40+14, 1)
	t.put32(base+0x50, 1033)
	t.put32(base+0x54, 0x58) // data entry, high bit clear

	// Data entry: 4 bytes at RVA 0x1100.
	t.put32(base+0x58, 0x1100)
	t.put32(base+0x5C, 4)
	t.put32(base+0x60, 1252)

	t.setDirectory(IMAGE_DIRECTORY_ENTRY_RESOURCE, 0x1000, 0x200)
	return t
}
