package clr

// MinFileSize On Windows XP (x32) the smallest PE executable is 97 bytes.
const MinFileSize = 97

const (
	lfanewOffset = 0x3C

	ImageNTHeaderSignature = 0x00004550 // PE\0\0
	ImageFileMachineI386   = 0x014C

	ImageNtOptionalHdr32Magic = 0x10B
	ImageNtOptionalHdr64Magic = 0x20B

	MetadataSignature = 0x424A5342 // BSJB

	sectionHeaderSize = 40
	maxStreamNameSize = 32
	maxVersionLength  = 255
)

// Characteristics are the COFF file header characteristics flags.
type Characteristics uint16

const (
	ImageFileRelocsStripped       Characteristics = 0x0001
	ImageFileExecutableImage      Characteristics = 0x0002
	ImageFileLineNumsStripped     Characteristics = 0x0004
	ImageFileLocalSymsStripped    Characteristics = 0x0008
	ImageFileAggressiveWsTrim     Characteristics = 0x0010
	ImageFileLargeAddressAware    Characteristics = 0x0020
	ImageFileBytesReversedLo      Characteristics = 0x0080
	ImageFile32BitMachine         Characteristics = 0x0100
	ImageFileDebugStripped        Characteristics = 0x0200
	ImageFileRemovableRunFromSwap Characteristics = 0x0400
	ImageFileNetRunFromSwap       Characteristics = 0x0800
	ImageFileSystem               Characteristics = 0x1000
	ImageFileDLL                  Characteristics = 0x2000
	ImageFileUpSystemOnly         Characteristics = 0x4000
	ImageFileBytesReversedHi      Characteristics = 0x8000
)

// Subsystem is the optional header subsystem field.
type Subsystem uint16

const (
	ImageSubsystemUnknown                Subsystem = 0
	ImageSubsystemNative                 Subsystem = 1
	ImageSubsystemWindowsGUI             Subsystem = 2
	ImageSubsystemWindowsCUI             Subsystem = 3
	ImageSubsystemOS2CUI                 Subsystem = 5
	ImageSubsystemPosixCUI               Subsystem = 7
	ImageSubsystemWindowsCEGUI           Subsystem = 9
	ImageSubsystemEFIApplication         Subsystem = 10
	ImageSubsystemEFIBootServiceDriver   Subsystem = 11
	ImageSubsystemEFIRuntimeDriver       Subsystem = 12
	ImageSubsystemEFIROM                 Subsystem = 13
	ImageSubsystemXbox                   Subsystem = 14
	ImageSubsystemWindowsBootApplication Subsystem = 16
)

// DllFlags are the optional header DLL characteristics.
type DllFlags uint16

const (
	ImageDllCharacteristicsHighEntropyVA       DllFlags = 0x0020
	ImageDllCharacteristicsDynamicBase         DllFlags = 0x0040
	ImageDllCharacteristicsForceIntegrity      DllFlags = 0x0080
	ImageDllCharacteristicsNXCompat            DllFlags = 0x0100
	ImageDllCharacteristicsNoIsolation         DllFlags = 0x0200
	ImageDllCharacteristicsNoSEH               DllFlags = 0x0400
	ImageDllCharacteristicsNoBind              DllFlags = 0x0800
	ImageDllCharacteristicsAppContainer        DllFlags = 0x1000
	ImageDllCharacteristicsWdmDriver           DllFlags = 0x2000
	ImageDllCharacteristicsGuardCF             DllFlags = 0x4000
	ImageDllCharacteristicsTerminalServerAware DllFlags = 0x8000
)

// RuntimeFlags are the flags of the runtime (CLI) header.
type RuntimeFlags uint32

const (
	RuntimeFlagsILOnly           RuntimeFlags = 0x00000001
	RuntimeFlags32BitRequired    RuntimeFlags = 0x00000002
	RuntimeFlagsStrongNameSigned RuntimeFlags = 0x00000008
	RuntimeFlagsNativeEntryPoint RuntimeFlags = 0x00000010
	RuntimeFlagsTrackDebugData   RuntimeFlags = 0x00010000
	RuntimeFlags32BitPreferred   RuntimeFlags = 0x00020000
)

const (
	ImageScnCntCode              = 0x00000020
	ImageScnCntInitializedData   = 0x00000040
	ImageScnCntUninitializedData = 0x00000080
	ImageScnMemExecute           = 0x20000000
	ImageScnMemRead              = 0x40000000
	ImageScnMemWrite             = 0x80000000
)

// heap size flags of the table heap header
const (
	heapSizeStrings = 0x01
	heapSizeGUID    = 0x02
	heapSizeBlob    = 0x04
)

const (
	streamTables             = "#~"
	streamTablesUncompressed = "#-"
	streamStrings            = "#Strings"
	streamBlob               = "#Blob"
	streamGUID               = "#GUID"
	streamUserStrings        = "#US"
)
