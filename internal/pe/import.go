package pe

import "fmt"

const (
	importDescriptorSize = 20

	// maxThunks caps the thunk walk so a corrupt array without a zero
	// sentinel still terminates.
	maxThunks = 10000
)

// ImportDescriptor is IMAGE_IMPORT_DESCRIPTOR.
type ImportDescriptor struct {
	OriginalFirstThunk uint32 // RVA to Import Name Table (INT).
	TimeDateStamp      uint32
	ForwarderChain     uint32
	Name               uint32 // RVA to DLL name.
	FirstThunk         uint32 // RVA to Import Address Table (IAT).
}

// ImportedSymbol is one imported function: either named (with its hint) or
// referenced by ordinal. ByOrdinal tags which variant applies.
type ImportedSymbol struct {
	Name      string
	Hint      uint16
	Ordinal   uint16
	ByOrdinal bool
}

// ImportEntry groups the symbols imported from one module.
type ImportEntry struct {
	Module  string
	Symbols []ImportedSymbol
}

// ParseImports walks the import directory into (module, symbols) pairs.
// The descriptor array has no count field; an all-zero descriptor marks the
// end. An absent or unmappable directory returns an empty list (soft fail),
// and a corrupt thunk array truncates its entry rather than aborting the
// rest of the analysis.
func ParseImports(img *Image, sections *SectionTable, dir DataDirectory, is64bit bool) ([]ImportEntry, error) {
	if dir.VirtualAddress == 0 {
		return nil, nil
	}
	offset, err := sections.RVAToOffset(dir.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("import directory: %w", err)
	}

	var imports []ImportEntry
	for {
		raw, err := img.Bytes(offset, importDescriptorSize)
		if err != nil {
			break // truncated descriptor table
		}
		desc := ImportDescriptor{
			OriginalFirstThunk: le32(raw[0:]),
			TimeDateStamp:      le32(raw[4:]),
			ForwarderChain:     le32(raw[8:]),
			Name:               le32(raw[12:]),
			FirstThunk:         le32(raw[16:]),
		}
		offset += importDescriptorSize

		// Null descriptor marks end.
		if desc.OriginalFirstThunk == 0 && desc.Name == 0 && desc.FirstThunk == 0 {
			break
		}

		nameOffset, err := sections.RVAToOffset(desc.Name)
		if err != nil {
			continue
		}
		module, err := img.CString(nameOffset, 256)
		if err != nil || module == "" {
			continue
		}

		// Bound import descriptors can zero the INT; the IAT then still
		// holds the pre-bind thunks on disk.
		thunkRVA := desc.OriginalFirstThunk
		if thunkRVA == 0 {
			thunkRVA = desc.FirstThunk
		}

		imports = append(imports, ImportEntry{
			Module:  module,
			Symbols: walkThunks(img, sections, thunkRVA, is64bit),
		})
	}
	return imports, nil
}

// walkThunks reads an INT/IAT array up to its zero sentinel. Each thunk is
// either an ordinal (high bit set) or an RVA to a (hint, name) pair.
func walkThunks(img *Image, sections *SectionTable, rva uint32, is64bit bool) []ImportedSymbol {
	offset, err := sections.RVAToOffset(rva)
	if err != nil {
		return nil
	}

	ptrSize := uint32(4)
	ordinalFlag := uint64(0x80000000)
	if is64bit {
		ptrSize = 8
		ordinalFlag = 0x8000000000000000
	}

	var symbols []ImportedSymbol
	for len(symbols) < maxThunks {
		var thunk uint64
		if is64bit {
			thunk, err = img.U64(offset)
		} else {
			var v uint32
			v, err = img.U32(offset)
			thunk = uint64(v)
		}
		if err != nil || thunk == 0 {
			break
		}
		offset += ptrSize

		if thunk&ordinalFlag != 0 {
			symbols = append(symbols, ImportedSymbol{
				Ordinal:   uint16(thunk & 0xFFFF),
				ByOrdinal: true,
			})
			continue
		}

		nameOffset, err := sections.RVAToOffset(uint32(thunk))
		if err != nil {
			break // corrupt thunk truncates the entry
		}
		hint, err := img.U16(nameOffset)
		if err != nil {
			break
		}
		name, err := img.CString(nameOffset+2, 256)
		if err != nil {
			break
		}
		symbols = append(symbols, ImportedSymbol{Name: name, Hint: hint})
	}
	return symbols
}
