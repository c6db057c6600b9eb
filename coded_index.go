package clr

import "github.com/pkg/errors"

// CodedIndex is a column kind that packs a table tag into the low bits of a
// row index.
type CodedIndex uint8

const (
	TypeDefOrRef CodedIndex = iota
	HasConstant
	HasCustomAttribute
	HasFieldMarshal
	HasDeclSecurity
	MemberRefParent
	HasSemantics
	MethodDefOrRef
	MemberForwarded
	Implementation
	CustomAttributeType
	ResolutionScope
	TypeOrMethodDef
	HasCustomDebugInformation

	codedIndexCount
)

// tableUnused fills tag values that do not select any table.
const tableUnused TableID = 0xFF

type codedIndexInfo struct {
	name    string
	tagBits uint
	tables  []TableID
}

var codedIndexes = [codedIndexCount]codedIndexInfo{
	TypeDefOrRef: {"TypeDefOrRef", 2, []TableID{TableTypeDef, TableTypeRef, TableTypeSpec}},
	HasConstant:  {"HasConstant", 2, []TableID{TableField, TableParam, TableProperty}},
	HasCustomAttribute: {"HasCustomAttribute", 5, []TableID{
		TableMethodDef, TableField, TableTypeRef, TableTypeDef, TableParam,
		TableInterfaceImpl, TableMemberRef, TableModule, TableDeclSecurity, TableProperty,
		TableEvent, TableStandAloneSig, TableModuleRef, TableTypeSpec, TableAssembly,
		TableAssemblyRef, TableFile, TableExportedType, TableManifestResource, TableGenericParam,
		TableGenericParamConstraint, TableMethodSpec,
	}},
	HasFieldMarshal: {"HasFieldMarshal", 1, []TableID{TableField, TableParam}},
	HasDeclSecurity: {"HasDeclSecurity", 2, []TableID{TableTypeDef, TableMethodDef, TableAssembly}},
	MemberRefParent: {"MemberRefParent", 3, []TableID{
		TableTypeDef, TableTypeRef, TableModuleRef, TableMethodDef, TableTypeSpec,
	}},
	HasSemantics:    {"HasSemantics", 1, []TableID{TableEvent, TableProperty}},
	MethodDefOrRef:  {"MethodDefOrRef", 1, []TableID{TableMethodDef, TableMemberRef}},
	MemberForwarded: {"MemberForwarded", 1, []TableID{TableField, TableMethodDef}},
	Implementation:  {"Implementation", 2, []TableID{TableFile, TableAssemblyRef, TableExportedType}},
	CustomAttributeType: {"CustomAttributeType", 3, []TableID{
		tableUnused, tableUnused, TableMethodDef, TableMemberRef, tableUnused,
	}},
	ResolutionScope: {"ResolutionScope", 2, []TableID{TableModule, TableModuleRef, TableAssemblyRef, TableTypeRef}},
	TypeOrMethodDef: {"TypeOrMethodDef", 1, []TableID{TableTypeDef, TableMethodDef}},
	HasCustomDebugInformation: {"HasCustomDebugInformation", 5, []TableID{
		TableMethodDef, TableField, TableTypeRef, TableTypeDef, TableParam,
		TableInterfaceImpl, TableMemberRef, TableModule, TableDeclSecurity, TableProperty,
		TableEvent, TableStandAloneSig, TableModuleRef, TableTypeSpec, TableAssembly,
		TableAssemblyRef, TableFile, TableExportedType, TableManifestResource, TableGenericParam,
		TableGenericParamConstraint, TableMethodSpec, TableDocument, TableLocalScope, TableLocalVariable,
		TableLocalConstant, TableImportScope,
	}},
}

func (c CodedIndex) String() string {
	if c < codedIndexCount {
		return codedIndexes[c].name
	}
	return "CodedIndex(?)"
}

// TagBits is the number of low bits that select the candidate table.
func (c CodedIndex) TagBits() uint {
	return codedIndexes[c].tagBits
}

// Tables returns the candidate tables in tag order. Unused tags are
// reported as 0xFF.
func (c CodedIndex) Tables() []TableID {
	return codedIndexes[c].tables
}

// width computes the encoded size of c given the row count of every table.
func (c CodedIndex) width(rows func(TableID) uint32) int {
	info := &codedIndexes[c]
	var max uint32
	for _, t := range info.tables {
		if t == tableUnused {
			continue
		}
		if n := rows(t); n > max {
			max = n
		}
	}
	if max < 1<<(16-info.tagBits) {
		return 2
	}
	return 4
}

// Decode splits an encoded value into the table it selects and its row.
func (c CodedIndex) Decode(value uint32) (TableID, uint32, error) {
	info := &codedIndexes[c]
	tag := value & (1<<info.tagBits - 1)
	if int(tag) >= len(info.tables) || info.tables[tag] == tableUnused {
		return 0, 0, errors.Wrapf(ErrUnsupportedSchema, "%s tag %d selects no table", info.name, tag)
	}
	return info.tables[tag], value >> info.tagBits, nil
}

// Token decodes value into a metadata token.
func (c CodedIndex) Token(value uint32) (Token, error) {
	table, row, err := c.Decode(value)
	if err != nil {
		return 0, err
	}
	return NewToken(table, row), nil
}
