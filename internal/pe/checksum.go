package pe

import "encoding/binary"

// ChecksumInfo contains PE checksum verification results.
type ChecksumInfo struct {
	Stored   uint32
	Computed uint32
	Valid    bool
}

// VerifyChecksum compares the optional header's stored checksum against the
// computed one. A stored checksum of zero means the file is simply not
// checksummed (common outside system binaries) and counts as valid.
func VerifyChecksum(img *Image, hdrs *Headers) *ChecksumInfo {
	stored := hdrs.OptionalHeader.CheckSum
	computed := ComputeChecksum(img, hdrs.OptionalHeaderOffset+64)
	return &ChecksumInfo{
		Stored:   stored,
		Computed: computed,
		Valid:    stored == 0 || stored == computed,
	}
}

// ComputeChecksum calculates the standard PE checksum over the image: sum
// the file as little-endian DWORDs (skipping the 4-byte checksum field
// itself), folding carries back into the low 32 bits, then add the file
// size and fold to 16 bits.
func ComputeChecksum(img *Image, checksumFieldOffset uint32) uint32 {
	var checksum uint64
	data := img.data

	for offset := 0; offset < len(data); offset += 4 {
		if offset >= int(checksumFieldOffset) && offset < int(checksumFieldOffset)+4 {
			continue
		}

		var buf [4]byte
		copy(buf[:], data[offset:]) // partial tail stays zero-padded
		checksum += uint64(binary.LittleEndian.Uint32(buf[:]))

		if checksum > 0xFFFFFFFF {
			checksum = (checksum & 0xFFFFFFFF) + (checksum >> 32)
		}
	}

	checksum += uint64(len(data))
	checksum = (checksum & 0xFFFF) + (checksum >> 16)
	checksum += checksum >> 16
	checksum &= 0xFFFF

	return uint32(checksum)
}
