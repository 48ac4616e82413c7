package pe

import "fmt"

// Optional header magic values.
const (
	PE32Magic     = 0x10B
	PE32PlusMagic = 0x20B
)

// Machine types.
const (
	IMAGE_FILE_MACHINE_I386  = 0x14C
	IMAGE_FILE_MACHINE_AMD64 = 0x8664
	IMAGE_FILE_MACHINE_ARM   = 0x1C0
	IMAGE_FILE_MACHINE_ARM64 = 0xAA64
)

// File characteristics.
const (
	IMAGE_FILE_RELOCS_STRIPPED     = 0x0001
	IMAGE_FILE_EXECUTABLE_IMAGE    = 0x0002
	IMAGE_FILE_LINE_NUMS_STRIPPED  = 0x0004
	IMAGE_FILE_LARGE_ADDRESS_AWARE = 0x0020
	IMAGE_FILE_32BIT_MACHINE       = 0x0100
	IMAGE_FILE_DEBUG_STRIPPED      = 0x0200
	IMAGE_FILE_DLL                 = 0x2000
)

// DLL characteristics.
const (
	IMAGE_DLLCHARACTERISTICS_DYNAMIC_BASE    = 0x0040
	IMAGE_DLLCHARACTERISTICS_FORCE_INTEGRITY = 0x0080
	IMAGE_DLLCHARACTERISTICS_NX_COMPAT       = 0x0100
	IMAGE_DLLCHARACTERISTICS_NO_SEH          = 0x0400
	IMAGE_DLLCHARACTERISTICS_GUARD_CF        = 0x4000
)

// Subsystems.
const (
	IMAGE_SUBSYSTEM_NATIVE      = 1
	IMAGE_SUBSYSTEM_WINDOWS_GUI = 2
	IMAGE_SUBSYSTEM_WINDOWS_CUI = 3
)

// Data directory indices.
const (
	IMAGE_DIRECTORY_ENTRY_EXPORT    = 0
	IMAGE_DIRECTORY_ENTRY_IMPORT    = 1
	IMAGE_DIRECTORY_ENTRY_RESOURCE  = 2
	IMAGE_DIRECTORY_ENTRY_EXCEPTION = 3
	IMAGE_DIRECTORY_ENTRY_SECURITY  = 4
	IMAGE_DIRECTORY_ENTRY_BASERELOC = 5
	IMAGE_DIRECTORY_ENTRY_DEBUG     = 6
	IMAGE_DIRECTORY_ENTRY_TLS       = 9
	IMAGE_DIRECTORY_ENTRY_IAT       = 12
)

// NumDataDirectories is the fixed size of the data-directory table.
const NumDataDirectories = 16

const (
	dosMagic          = 0x5A4D // "MZ"
	peSignature       = 0x00004550
	lfanewFieldOffset = 0x3C
	fileHeaderSize    = 20
)

// FileHeader is IMAGE_FILE_HEADER.
type FileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

// DataDirectory is one (RVA, size) entry of the optional header's directory
// table. VirtualAddress == 0 means the directory is absent.
type DataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// OptionalHeader holds the fields of IMAGE_OPTIONAL_HEADER shared by the
// PE32 and PE32+ layouts. Is64Bit tags which layout was decoded; it changes
// the width of ImageBase and the position of the directory table.
type OptionalHeader struct {
	Magic               uint16
	MajorLinkerVersion  uint8
	MinorLinkerVersion  uint8
	AddressOfEntryPoint uint32
	ImageBase           uint64
	SectionAlignment    uint32
	FileAlignment       uint32
	SizeOfImage         uint32
	SizeOfHeaders       uint32
	CheckSum            uint32
	Subsystem           uint16
	DllCharacteristics  uint16
	NumberOfRvaAndSizes uint32
	DataDirectory       [NumDataDirectories]DataDirectory
	Is64Bit             bool
}

// Directory returns the data-directory entry at index, or a zero entry when
// the header declares fewer directories.
func (oh *OptionalHeader) Directory(index int) DataDirectory {
	if index < 0 || index >= NumDataDirectories || uint32(index) >= oh.NumberOfRvaAndSizes {
		return DataDirectory{}
	}
	return oh.DataDirectory[index]
}

// Headers is the result of the mandatory two-stage header parse. The stored
// offsets locate the structures that follow (section table, checksum field).
type Headers struct {
	FileHeader           FileHeader
	OptionalHeader       OptionalHeader
	PEOffset             uint32
	OptionalHeaderOffset uint32
	SectionTableOffset   uint32
}

// ParseHeaders validates the DOS stub and PE signature, then decodes the
// file header and the 32- or 64-bit optional header including the
// data-directory table. Any failure here is fatal for the whole analysis:
// without these headers nothing else in the file can be located.
func ParseHeaders(img *Image) (*Headers, error) {
	mz, err := img.U16(0)
	if err != nil {
		return nil, fmt.Errorf("DOS header: %w", err)
	}
	if mz != dosMagic {
		return nil, fmt.Errorf("%w: missing MZ magic", ErrInvalidSignature)
	}

	peOffset, err := img.U32(lfanewFieldOffset)
	if err != nil {
		return nil, fmt.Errorf("e_lfanew: %w", err)
	}
	sig, err := img.U32(peOffset)
	if err != nil {
		return nil, fmt.Errorf("PE signature: %w", err)
	}
	if sig != peSignature {
		return nil, fmt.Errorf("%w: missing PE\\0\\0 at 0x%X", ErrInvalidSignature, peOffset)
	}

	h := &Headers{PEOffset: peOffset}
	if err := parseFileHeader(img, peOffset+4, &h.FileHeader); err != nil {
		return nil, fmt.Errorf("file header: %w", err)
	}

	h.OptionalHeaderOffset = peOffset + 4 + fileHeaderSize
	if err := parseOptionalHeader(img, h.OptionalHeaderOffset, &h.OptionalHeader); err != nil {
		return nil, err
	}

	h.SectionTableOffset = h.OptionalHeaderOffset + uint32(h.FileHeader.SizeOfOptionalHeader)
	return h, nil
}

func parseFileHeader(img *Image, offset uint32, fh *FileHeader) error {
	raw, err := img.Bytes(offset, fileHeaderSize)
	if err != nil {
		return err
	}
	fh.Machine = le16(raw[0:])
	fh.NumberOfSections = le16(raw[2:])
	fh.TimeDateStamp = le32(raw[4:])
	fh.PointerToSymbolTable = le32(raw[8:])
	fh.NumberOfSymbols = le32(raw[12:])
	fh.SizeOfOptionalHeader = le16(raw[16:])
	fh.Characteristics = le16(raw[18:])
	return nil
}

func parseOptionalHeader(img *Image, offset uint32, oh *OptionalHeader) error {
	magic, err := img.U16(offset)
	if err != nil {
		return fmt.Errorf("optional header: %w", err)
	}

	var dirTable uint32
	switch magic {
	case PE32Magic:
		// PE32 layout: 96 header bytes, then the directory table.
		raw, err := img.Bytes(offset, 96)
		if err != nil {
			return fmt.Errorf("optional header: %w", err)
		}
		oh.Magic = magic
		oh.MajorLinkerVersion = raw[2]
		oh.MinorLinkerVersion = raw[3]
		oh.AddressOfEntryPoint = le32(raw[16:])
		oh.ImageBase = uint64(le32(raw[28:]))
		oh.SectionAlignment = le32(raw[32:])
		oh.FileAlignment = le32(raw[36:])
		oh.SizeOfImage = le32(raw[56:])
		oh.SizeOfHeaders = le32(raw[60:])
		oh.CheckSum = le32(raw[64:])
		oh.Subsystem = le16(raw[68:])
		oh.DllCharacteristics = le16(raw[70:])
		oh.NumberOfRvaAndSizes = le32(raw[92:])
		dirTable = offset + 96
	case PE32PlusMagic:
		// PE32+ layout: 112 header bytes, 64-bit image base.
		raw, err := img.Bytes(offset, 112)
		if err != nil {
			return fmt.Errorf("optional header: %w", err)
		}
		oh.Magic = magic
		oh.Is64Bit = true
		oh.MajorLinkerVersion = raw[2]
		oh.MinorLinkerVersion = raw[3]
		oh.AddressOfEntryPoint = le32(raw[16:])
		oh.ImageBase = le64(raw[24:])
		oh.SectionAlignment = le32(raw[32:])
		oh.FileAlignment = le32(raw[36:])
		oh.SizeOfImage = le32(raw[56:])
		oh.SizeOfHeaders = le32(raw[60:])
		oh.CheckSum = le32(raw[64:])
		oh.Subsystem = le16(raw[68:])
		oh.DllCharacteristics = le16(raw[70:])
		oh.NumberOfRvaAndSizes = le32(raw[108:])
		dirTable = offset + 112
	default:
		return fmt.Errorf("%w: 0x%X", ErrUnsupportedImageFormat, magic)
	}

	count := oh.NumberOfRvaAndSizes
	if count > NumDataDirectories {
		count = NumDataDirectories
	}
	for i := uint32(0); i < count; i++ {
		rva, err := img.U32(dirTable + i*8)
		if err != nil {
			return fmt.Errorf("data directory %d: %w", i, err)
		}
		size, err := img.U32(dirTable + i*8 + 4)
		if err != nil {
			return fmt.Errorf("data directory %d: %w", i, err)
		}
		oh.DataDirectory[i] = DataDirectory{VirtualAddress: rva, Size: size}
	}
	return nil
}
