package clr

import (
	"testing"

	"github.com/pkg/errors"
)

func TestTableHeap_CodedIndexSize(t *testing.T) {
	tests := []struct {
		name  string
		coded CodedIndex
		table TableID
		rows  uint32
		want  int
	}{
		{"TypeDefOrRef below limit", TypeDefOrRef, TableTypeSpec, 1<<14 - 1, 2},
		{"TypeDefOrRef at limit", TypeDefOrRef, TableTypeSpec, 1 << 14, 4},
		{"HasCustomAttribute below limit", HasCustomAttribute, TableGenericParam, 1<<11 - 1, 2},
		{"HasCustomAttribute at limit", HasCustomAttribute, TableMethodSpec, 1 << 11, 4},
		{"HasFieldMarshal below limit", HasFieldMarshal, TableParam, 1<<15 - 1, 2},
		{"HasFieldMarshal at limit", HasFieldMarshal, TableParam, 1 << 15, 4},
		{"CustomAttributeType at limit", CustomAttributeType, TableMemberRef, 1 << 13, 4},
		{"CustomAttributeType ignores other tables", CustomAttributeType, TableModule, 1 << 20, 2},
		{"ResolutionScope at limit", ResolutionScope, TableTypeRef, 1 << 14, 4},
		{"HasCustomDebugInformation debug table", HasCustomDebugInformation, TableImportScope, 1 << 11, 4},
		{"HasSemantics empty", HasSemantics, TableEvent, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := &TableHeap{}
			th.Tables[tt.table].Rows = tt.rows
			if got := th.CodedIndexSize(tt.coded); got != tt.want {
				t.Errorf("CodedIndexSize(%s) = %d, want %d", tt.coded, got, tt.want)
			}
		})
	}
}

func TestTableHeap_CodedIndexSizeMonotonic(t *testing.T) {
	prev := 0
	for rows := uint32(0); rows < 1<<13; rows += 97 {
		th := &TableHeap{}
		th.Tables[TableTypeDef].Rows = rows
		size := th.CodedIndexSize(HasCustomAttribute)
		if size < prev {
			t.Fatalf("CodedIndexSize shrank from %d to %d at %d rows", prev, size, rows)
		}
		prev = size
	}
	if prev != 4 {
		t.Errorf("CodedIndexSize = %d with 8k rows, want 4", prev)
	}
}

func TestTableHeap_CodedIndexSizeMemoized(t *testing.T) {
	th := &TableHeap{}
	th.Tables[TableTypeRef].Rows = 1 << 14
	if got := th.CodedIndexSize(TypeDefOrRef); got != 4 {
		t.Fatalf("CodedIndexSize() = %d, want 4", got)
	}
	th.Tables[TableTypeRef].Rows = 1
	for i := 0; i < 3; i++ {
		if got := th.CodedIndexSize(TypeDefOrRef); got != 4 {
			t.Errorf("CodedIndexSize() = %d after caching, want 4", got)
		}
	}
	if th.codedMisses != 1 {
		t.Errorf("codedMisses = %d, want 1", th.codedMisses)
	}

	th = &TableHeap{Name: "#~", HeaderSize: 24, Data: make([]byte, 24)}
	if err := th.computeLayout(); err != nil {
		t.Fatal(err)
	}
	if th.codedMisses != int(codedIndexCount) {
		t.Errorf("codedMisses after layout = %d, want %d", th.codedMisses, codedIndexCount)
	}
	for c := CodedIndex(0); c < codedIndexCount; c++ {
		th.CodedIndexSize(c)
	}
	if th.codedMisses != int(codedIndexCount) {
		t.Errorf("lookups after layout recomputed sizes: codedMisses = %d", th.codedMisses)
	}
}

func TestCodedIndex_Decode(t *testing.T) {
	tests := []struct {
		name      string
		coded     CodedIndex
		value     uint32
		wantTable TableID
		wantRow   uint32
		wantErr   error
	}{
		{"TypeRef", TypeDefOrRef, 5<<2 | 1, TableTypeRef, 5, nil},
		{"TypeSpec", TypeDefOrRef, 1<<2 | 2, TableTypeSpec, 1, nil},
		{"unused TypeDefOrRef tag", TypeDefOrRef, 3, 0, 0, ErrUnsupportedSchema},
		{"MethodSpec attribute", HasCustomAttribute, 3<<5 | 21, TableMethodSpec, 3, nil},
		{"MemberRef constructor", CustomAttributeType, 7<<3 | 3, TableMemberRef, 7, nil},
		{"unused constructor tag", CustomAttributeType, 7 << 3, 0, 0, ErrUnsupportedSchema},
		{"constructor tag beyond tables", CustomAttributeType, 1<<3 | 6, 0, 0, ErrUnsupportedSchema},
		{"ImportScope debug info", HasCustomDebugInformation, 2<<5 | 26, TableImportScope, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, row, err := tt.coded.Decode(tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode(0x%x) error = %v, want %v", tt.value, err, tt.wantErr)
			}
			if table != tt.wantTable || row != tt.wantRow {
				t.Errorf("Decode(0x%x) = %s, %d, want %s, %d", tt.value, table, row, tt.wantTable, tt.wantRow)
			}
		})
	}
}

func TestCodedIndex_Token(t *testing.T) {
	tok, err := TypeDefOrRef.Token(2<<2 | 0)
	if err != nil {
		t.Fatal(err)
	}
	if tok != 0x02000002 {
		t.Errorf("Token() = 0x%08x, want 0x02000002", uint32(tok))
	}
	if tok.Table() != TableTypeDef || tok.Row() != 2 || tok.IsNil() {
		t.Errorf("Token() = %s", tok)
	}
	if got := tok.String(); got != "TypeDef[2]" {
		t.Errorf("String() = %q", got)
	}

	// a nil Extends column decodes to a nil TypeDef token
	tok, err = TypeDefOrRef.Token(0)
	if err != nil || !tok.IsNil() {
		t.Errorf("Token(0) = %s, %v", tok, err)
	}
}

func TestCodedIndex_Tables(t *testing.T) {
	tests := []struct {
		coded   CodedIndex
		bits    uint
		entries int
	}{
		{TypeDefOrRef, 2, 3},
		{HasConstant, 2, 3},
		{HasCustomAttribute, 5, 22},
		{HasFieldMarshal, 1, 2},
		{HasDeclSecurity, 2, 3},
		{MemberRefParent, 3, 5},
		{HasSemantics, 1, 2},
		{MethodDefOrRef, 1, 2},
		{MemberForwarded, 1, 2},
		{Implementation, 2, 3},
		{CustomAttributeType, 3, 5},
		{ResolutionScope, 2, 4},
		{TypeOrMethodDef, 1, 2},
		{HasCustomDebugInformation, 5, 27},
	}
	if len(tests) != int(codedIndexCount) {
		t.Fatalf("%d kinds tested, %d defined", len(tests), codedIndexCount)
	}
	for _, tt := range tests {
		if tt.coded.TagBits() != tt.bits || len(tt.coded.Tables()) != tt.entries {
			t.Errorf("%s: %d tag bits, %d tables", tt.coded, tt.coded.TagBits(), len(tt.coded.Tables()))
		}
		if len(tt.coded.Tables()) > 1<<tt.bits {
			t.Errorf("%s: %d tables do not fit in %d bits", tt.coded, len(tt.coded.Tables()), tt.bits)
		}
	}
}
