package clr

// ColumnKind tells how a column's width is resolved.
type ColumnKind uint8

const (
	ColumnFixed ColumnKind = iota
	ColumnString
	ColumnGUID
	ColumnBlob
	ColumnTable
	ColumnCoded
)

// Column describes one field of a table row.
type Column struct {
	Name string
	Kind ColumnKind
	// Size is the byte width of a ColumnFixed column.
	Size int
	// Table is the target of a ColumnTable column.
	Table TableID
	// Coded is the kind of a ColumnCoded column.
	Coded CodedIndex
}

type tableSchema struct {
	Name    string
	Columns []Column
}

func fixedCol(name string, size int) Column {
	return Column{Name: name, Kind: ColumnFixed, Size: size}
}

func stringCol(name string) Column { return Column{Name: name, Kind: ColumnString} }
func guidCol(name string) Column   { return Column{Name: name, Kind: ColumnGUID} }
func blobCol(name string) Column   { return Column{Name: name, Kind: ColumnBlob} }

func tableCol(name string, t TableID) Column {
	return Column{Name: name, Kind: ColumnTable, Table: t}
}

func codedCol(name string, c CodedIndex) Column {
	return Column{Name: name, Kind: ColumnCoded, Coded: c}
}

var tableSchemas = map[TableID]*tableSchema{
	TableModule: {"Module", []Column{
		fixedCol("Generation", 2), stringCol("Name"), guidCol("Mvid"), guidCol("EncId"), guidCol("EncBaseId"),
	}},
	TableTypeRef: {"TypeRef", []Column{
		codedCol("ResolutionScope", ResolutionScope), stringCol("TypeName"), stringCol("TypeNamespace"),
	}},
	TableTypeDef: {"TypeDef", []Column{
		fixedCol("Flags", 4), stringCol("TypeName"), stringCol("TypeNamespace"), codedCol("Extends", TypeDefOrRef),
		tableCol("FieldList", TableField), tableCol("MethodList", TableMethodDef),
	}},
	TableFieldPtr: {"FieldPtr", []Column{tableCol("Field", TableField)}},
	TableField: {"Field", []Column{
		fixedCol("Flags", 2), stringCol("Name"), blobCol("Signature"),
	}},
	TableMethodPtr: {"MethodPtr", []Column{tableCol("Method", TableMethodDef)}},
	TableMethodDef: {"MethodDef", []Column{
		fixedCol("RVA", 4), fixedCol("ImplFlags", 2), fixedCol("Flags", 2), stringCol("Name"), blobCol("Signature"),
		tableCol("ParamList", TableParam),
	}},
	TableParamPtr: {"ParamPtr", []Column{tableCol("Param", TableParam)}},
	TableParam: {"Param", []Column{
		fixedCol("Flags", 2), fixedCol("Sequence", 2), stringCol("Name"),
	}},
	TableInterfaceImpl: {"InterfaceImpl", []Column{
		tableCol("Class", TableTypeDef), codedCol("Interface", TypeDefOrRef),
	}},
	TableMemberRef: {"MemberRef", []Column{
		codedCol("Class", MemberRefParent), stringCol("Name"), blobCol("Signature"),
	}},
	TableConstant: {"Constant", []Column{
		fixedCol("Type", 2), codedCol("Parent", HasConstant), blobCol("Value"),
	}},
	TableCustomAttribute: {"CustomAttribute", []Column{
		codedCol("Parent", HasCustomAttribute), codedCol("Type", CustomAttributeType), blobCol("Value"),
	}},
	TableFieldMarshal: {"FieldMarshal", []Column{
		codedCol("Parent", HasFieldMarshal), blobCol("NativeType"),
	}},
	TableDeclSecurity: {"DeclSecurity", []Column{
		fixedCol("Action", 2), codedCol("Parent", HasDeclSecurity), blobCol("PermissionSet"),
	}},
	TableClassLayout: {"ClassLayout", []Column{
		fixedCol("PackingSize", 2), fixedCol("ClassSize", 4), tableCol("Parent", TableTypeDef),
	}},
	TableFieldLayout: {"FieldLayout", []Column{
		fixedCol("Offset", 4), tableCol("Field", TableField),
	}},
	TableStandAloneSig: {"StandAloneSig", []Column{blobCol("Signature")}},
	TableEventMap: {"EventMap", []Column{
		tableCol("Parent", TableTypeDef), tableCol("EventList", TableEvent),
	}},
	TableEventPtr: {"EventPtr", []Column{tableCol("Event", TableEvent)}},
	TableEvent: {"Event", []Column{
		fixedCol("EventFlags", 2), stringCol("Name"), codedCol("EventType", TypeDefOrRef),
	}},
	TablePropertyMap: {"PropertyMap", []Column{
		tableCol("Parent", TableTypeDef), tableCol("PropertyList", TableProperty),
	}},
	TablePropertyPtr: {"PropertyPtr", []Column{tableCol("Property", TableProperty)}},
	TableProperty: {"Property", []Column{
		fixedCol("Flags", 2), stringCol("Name"), blobCol("Type"),
	}},
	TableMethodSemantics: {"MethodSemantics", []Column{
		fixedCol("Semantics", 2), tableCol("Method", TableMethodDef), codedCol("Association", HasSemantics),
	}},
	TableMethodImpl: {"MethodImpl", []Column{
		tableCol("Class", TableTypeDef), codedCol("MethodBody", MethodDefOrRef), codedCol("MethodDeclaration", MethodDefOrRef),
	}},
	TableModuleRef: {"ModuleRef", []Column{stringCol("Name")}},
	TableTypeSpec:  {"TypeSpec", []Column{blobCol("Signature")}},
	TableImplMap: {"ImplMap", []Column{
		fixedCol("MappingFlags", 2), codedCol("MemberForwarded", MemberForwarded), stringCol("ImportName"),
		tableCol("ImportScope", TableModuleRef),
	}},
	TableFieldRVA: {"FieldRVA", []Column{
		fixedCol("RVA", 4), tableCol("Field", TableField),
	}},
	TableEncLog: {"EncLog", []Column{fixedCol("Token", 4), fixedCol("FuncCode", 4)}},
	TableEncMap: {"EncMap", []Column{fixedCol("Token", 4)}},
	TableAssembly: {"Assembly", []Column{
		fixedCol("HashAlgId", 4), fixedCol("MajorVersion", 2), fixedCol("MinorVersion", 2), fixedCol("BuildNumber", 2),
		fixedCol("RevisionNumber", 2), fixedCol("Flags", 4), blobCol("PublicKey"), stringCol("Name"), stringCol("Culture"),
	}},
	TableAssemblyProcessor: {"AssemblyProcessor", []Column{fixedCol("Processor", 4)}},
	TableAssemblyOS: {"AssemblyOS", []Column{
		fixedCol("OSPlatformID", 4), fixedCol("OSMajorVersion", 4), fixedCol("OSMinorVersion", 4),
	}},
	TableAssemblyRef: {"AssemblyRef", []Column{
		fixedCol("MajorVersion", 2), fixedCol("MinorVersion", 2), fixedCol("BuildNumber", 2), fixedCol("RevisionNumber", 2),
		fixedCol("Flags", 4), blobCol("PublicKeyOrToken"), stringCol("Name"), stringCol("Culture"), blobCol("HashValue"),
	}},
	TableAssemblyRefProcessor: {"AssemblyRefProcessor", []Column{
		fixedCol("Processor", 4), tableCol("AssemblyRef", TableAssemblyRef),
	}},
	TableAssemblyRefOS: {"AssemblyRefOS", []Column{
		fixedCol("OSPlatformID", 4), fixedCol("OSMajorVersion", 4), fixedCol("OSMinorVersion", 4),
		tableCol("AssemblyRef", TableAssemblyRef),
	}},
	TableFile: {"File", []Column{
		fixedCol("Flags", 4), stringCol("Name"), blobCol("HashValue"),
	}},
	TableExportedType: {"ExportedType", []Column{
		fixedCol("Flags", 4), fixedCol("TypeDefId", 4), stringCol("TypeName"), stringCol("TypeNamespace"),
		codedCol("Implementation", Implementation),
	}},
	TableManifestResource: {"ManifestResource", []Column{
		fixedCol("Offset", 4), fixedCol("Flags", 4), stringCol("Name"), codedCol("Implementation", Implementation),
	}},
	TableNestedClass: {"NestedClass", []Column{
		tableCol("NestedClass", TableTypeDef), tableCol("EnclosingClass", TableTypeDef),
	}},
	TableGenericParam: {"GenericParam", []Column{
		fixedCol("Number", 2), fixedCol("Flags", 2), codedCol("Owner", TypeOrMethodDef), stringCol("Name"),
	}},
	TableMethodSpec: {"MethodSpec", []Column{
		codedCol("Method", MethodDefOrRef), blobCol("Instantiation"),
	}},
	TableGenericParamConstraint: {"GenericParamConstraint", []Column{
		tableCol("Owner", TableGenericParam), codedCol("Constraint", TypeDefOrRef),
	}},

	TableDocument: {"Document", []Column{
		blobCol("Name"), guidCol("HashAlgorithm"), blobCol("Hash"), guidCol("Language"),
	}},
	TableMethodDebugInformation: {"MethodDebugInformation", []Column{
		tableCol("Document", TableDocument), blobCol("SequencePoints"),
	}},
	TableLocalScope: {"LocalScope", []Column{
		tableCol("Method", TableMethodDef), tableCol("ImportScope", TableImportScope),
		tableCol("VariableList", TableLocalVariable), tableCol("ConstantList", TableLocalConstant),
		fixedCol("StartOffset", 4), fixedCol("Length", 4),
	}},
	TableLocalVariable: {"LocalVariable", []Column{
		fixedCol("Attributes", 2), fixedCol("Index", 2), stringCol("Name"),
	}},
	TableLocalConstant: {"LocalConstant", []Column{
		stringCol("Name"), blobCol("Signature"),
	}},
	TableImportScope: {"ImportScope", []Column{
		tableCol("Parent", TableImportScope), blobCol("Imports"),
	}},
	TableStateMachineMethod: {"StateMachineMethod", []Column{
		tableCol("MoveNextMethod", TableMethodDef), tableCol("KickoffMethod", TableMethodDef),
	}},
	TableCustomDebugInformation: {"CustomDebugInformation", []Column{
		codedCol("Parent", HasCustomDebugInformation), guidCol("Kind"), blobCol("Value"),
	}},
}

// Columns returns the column layout of table t, or nil when the table is not
// part of the known schema.
func (t TableID) Columns() []Column {
	if s, ok := tableSchemas[t]; ok {
		return s.Columns
	}
	return nil
}
