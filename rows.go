package clr

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (f *File) values(t TableID, row uint32) ([]uint32, error) {
	if f.Tables == nil {
		return nil, errors.Wrapf(ErrRowOutOfRange, "%s row %d: module has no tables", t, row)
	}
	return f.Tables.Values(t, row)
}

// Module is the single row of the Module table.
type Module struct {
	Generation uint16
	Name       string
	Mvid       uuid.UUID
	EncID      uuid.UUID
	EncBaseID  uuid.UUID
}

func (f *File) Module() (m Module, err error) {
	v, err := f.values(TableModule, 1)
	if err != nil {
		return m, err
	}
	m.Generation = uint16(v[0])
	if m.Name, err = f.Strings.StringAt(v[1]); err != nil {
		return m, err
	}
	if m.Mvid, err = f.GUIDs.GUID(v[2]); err != nil {
		return m, err
	}
	if m.EncID, err = f.GUIDs.GUID(v[3]); err != nil {
		return m, err
	}
	m.EncBaseID, err = f.GUIDs.GUID(v[4])
	return m, err
}

type TypeDef struct {
	Flags     uint32
	Name      string
	Namespace string
	Extends   Token
	// FieldList and MethodList are the first rows of the type's run in the
	// Field and MethodDef tables.
	FieldList  uint32
	MethodList uint32
}

func (f *File) TypeDef(row uint32) (td TypeDef, err error) {
	v, err := f.values(TableTypeDef, row)
	if err != nil {
		return td, err
	}
	td.Flags = v[0]
	if td.Name, err = f.Strings.StringAt(v[1]); err != nil {
		return td, err
	}
	if td.Namespace, err = f.Strings.StringAt(v[2]); err != nil {
		return td, err
	}
	if td.Extends, err = TypeDefOrRef.Token(v[3]); err != nil {
		return td, err
	}
	td.FieldList, td.MethodList = v[4], v[5]
	return td, nil
}

type Field struct {
	Flags uint16
	Name  string
	// Signature is the blob heap index of the field signature.
	Signature uint32
}

func (f *File) Field(row uint32) (fd Field, err error) {
	v, err := f.values(TableField, row)
	if err != nil {
		return fd, err
	}
	fd.Flags = uint16(v[0])
	fd.Name, err = f.Strings.StringAt(v[1])
	fd.Signature = v[2]
	return fd, err
}

// FieldRVA maps a field to its initial data.
type FieldRVA struct {
	RVA   uint32
	Field Field
}

func (f *File) FieldRVA(row uint32) (fr FieldRVA, err error) {
	v, err := f.values(TableFieldRVA, row)
	if err != nil {
		return fr, err
	}
	fr.RVA = v[0]
	fr.Field, err = f.Field(v[1])
	return fr, err
}

type MethodDef struct {
	RVA       uint32
	ImplFlags uint16
	Flags     uint16
	Name      string
	Signature uint32
	ParamList uint32
}

func (f *File) MethodDef(row uint32) (md MethodDef, err error) {
	v, err := f.values(TableMethodDef, row)
	if err != nil {
		return md, err
	}
	md.RVA = v[0]
	md.ImplFlags = uint16(v[1])
	md.Flags = uint16(v[2])
	md.Name, err = f.Strings.StringAt(v[3])
	md.Signature = v[4]
	md.ParamList = v[5]
	return md, err
}
