package clr

import "fmt"

// TableID identifies one of the metadata tables by its bit in the valid mask.
type TableID uint8

// TableCount is the number of slots in the valid and sorted masks.
const TableCount = 64

const (
	TableModule                 TableID = 0x00
	TableTypeRef                TableID = 0x01
	TableTypeDef                TableID = 0x02
	TableFieldPtr               TableID = 0x03
	TableField                  TableID = 0x04
	TableMethodPtr              TableID = 0x05
	TableMethodDef              TableID = 0x06
	TableParamPtr               TableID = 0x07
	TableParam                  TableID = 0x08
	TableInterfaceImpl          TableID = 0x09
	TableMemberRef              TableID = 0x0A
	TableConstant               TableID = 0x0B
	TableCustomAttribute        TableID = 0x0C
	TableFieldMarshal           TableID = 0x0D
	TableDeclSecurity           TableID = 0x0E
	TableClassLayout            TableID = 0x0F
	TableFieldLayout            TableID = 0x10
	TableStandAloneSig          TableID = 0x11
	TableEventMap               TableID = 0x12
	TableEventPtr               TableID = 0x13
	TableEvent                  TableID = 0x14
	TablePropertyMap            TableID = 0x15
	TablePropertyPtr            TableID = 0x16
	TableProperty               TableID = 0x17
	TableMethodSemantics        TableID = 0x18
	TableMethodImpl             TableID = 0x19
	TableModuleRef              TableID = 0x1A
	TableTypeSpec               TableID = 0x1B
	TableImplMap                TableID = 0x1C
	TableFieldRVA               TableID = 0x1D
	TableEncLog                 TableID = 0x1E
	TableEncMap                 TableID = 0x1F
	TableAssembly               TableID = 0x20
	TableAssemblyProcessor      TableID = 0x21
	TableAssemblyOS             TableID = 0x22
	TableAssemblyRef            TableID = 0x23
	TableAssemblyRefProcessor   TableID = 0x24
	TableAssemblyRefOS          TableID = 0x25
	TableFile                   TableID = 0x26
	TableExportedType           TableID = 0x27
	TableManifestResource       TableID = 0x28
	TableNestedClass            TableID = 0x29
	TableGenericParam           TableID = 0x2A
	TableMethodSpec             TableID = 0x2B
	TableGenericParamConstraint TableID = 0x2C

	// Portable debug tables. Only their widths are known here.
	TableDocument               TableID = 0x30
	TableMethodDebugInformation TableID = 0x31
	TableLocalScope             TableID = 0x32
	TableLocalVariable          TableID = 0x33
	TableLocalConstant          TableID = 0x34
	TableImportScope            TableID = 0x35
	TableStateMachineMethod     TableID = 0x36
	TableCustomDebugInformation TableID = 0x37
)

func (t TableID) String() string {
	if s, ok := tableSchemas[t]; ok {
		return s.Name
	}
	return fmt.Sprintf("Table(0x%02x)", uint8(t))
}

// Token is a metadata token: the table in the high byte and a 1-based row in
// the low 24 bits.
type Token uint32

func NewToken(table TableID, row uint32) Token {
	return Token(uint32(table)<<24 | row&0x00FFFFFF)
}

func (t Token) Table() TableID {
	return TableID(t >> 24)
}

func (t Token) Row() uint32 {
	return uint32(t) & 0x00FFFFFF
}

// IsNil reports whether the token refers to no row.
func (t Token) IsNil() bool {
	return t.Row() == 0
}

func (t Token) String() string {
	return fmt.Sprintf("%s[%d]", t.Table(), t.Row())
}
