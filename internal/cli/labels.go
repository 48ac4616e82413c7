package cli

import (
	"fmt"
	"strings"

	"github.com/sp00nznet/heavymetal/internal/pe"
)

func machineLabel(machine uint16) string {
	switch machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		return "Intel 386 (32-bit)"
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "AMD64 (64-bit)"
	case pe.IMAGE_FILE_MACHINE_ARM:
		return "ARM"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "ARM64"
	default:
		return fmt.Sprintf("unknown (0x%04X)", machine)
	}
}

func subsystemLabel(subsystem uint16) string {
	switch subsystem {
	case pe.IMAGE_SUBSYSTEM_NATIVE:
		return "Native"
	case pe.IMAGE_SUBSYSTEM_WINDOWS_GUI:
		return "Windows GUI"
	case pe.IMAGE_SUBSYSTEM_WINDOWS_CUI:
		return "Windows Console"
	default:
		return fmt.Sprintf("unknown (%d)", subsystem)
	}
}

func characteristicsLabel(c uint16) string {
	var flags []string
	if c&pe.IMAGE_FILE_RELOCS_STRIPPED != 0 {
		flags = append(flags, "RELOCS_STRIPPED")
	}
	if c&pe.IMAGE_FILE_EXECUTABLE_IMAGE != 0 {
		flags = append(flags, "EXECUTABLE_IMAGE")
	}
	if c&pe.IMAGE_FILE_LINE_NUMS_STRIPPED != 0 {
		flags = append(flags, "LINE_NUMS_STRIPPED")
	}
	if c&pe.IMAGE_FILE_LARGE_ADDRESS_AWARE != 0 {
		flags = append(flags, "LARGE_ADDRESS_AWARE")
	}
	if c&pe.IMAGE_FILE_32BIT_MACHINE != 0 {
		flags = append(flags, "32BIT_MACHINE")
	}
	if c&pe.IMAGE_FILE_DEBUG_STRIPPED != 0 {
		flags = append(flags, "DEBUG_STRIPPED")
	}
	if c&pe.IMAGE_FILE_DLL != 0 {
		flags = append(flags, "DLL")
	}
	if len(flags) == 0 {
		return fmt.Sprintf("0x%04X", c)
	}
	return fmt.Sprintf("0x%04X (%s)", c, strings.Join(flags, ", "))
}

func dllCharacteristicsLabel(c uint16) string {
	if c == 0 {
		return "0x0000 (NONE - no ASLR, no DEP, no CFG)"
	}

	var flags []string
	if c&pe.IMAGE_DLLCHARACTERISTICS_DYNAMIC_BASE != 0 {
		flags = append(flags, "DYNAMIC_BASE (ASLR)")
	}
	if c&pe.IMAGE_DLLCHARACTERISTICS_FORCE_INTEGRITY != 0 {
		flags = append(flags, "FORCE_INTEGRITY")
	}
	if c&pe.IMAGE_DLLCHARACTERISTICS_NX_COMPAT != 0 {
		flags = append(flags, "NX_COMPAT (DEP)")
	}
	if c&pe.IMAGE_DLLCHARACTERISTICS_NO_SEH != 0 {
		flags = append(flags, "NO_SEH")
	}
	if c&pe.IMAGE_DLLCHARACTERISTICS_GUARD_CF != 0 {
		flags = append(flags, "GUARD_CF")
	}
	if len(flags) == 0 {
		return fmt.Sprintf("0x%04X", c)
	}
	return fmt.Sprintf("0x%04X (%s)", c, strings.Join(flags, ", "))
}
