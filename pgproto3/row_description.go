package pgproto3

import "github.com/blenq/pagio/pgio"

// FieldDescription describes one column of a result row, as reported by
// RowDescription or a Describe reply.
type FieldDescription struct {
	Name                 string
	TableOID             uint32
	TableAttributeNumber uint16
	DataTypeOID          uint32
	DataTypeSize         int16
	TypeModifier         int32
	Format               int16
}

// RowDescription reports the shape of the rows a query is about to produce.
type RowDescription struct {
	Fields []FieldDescription
}

func (*RowDescription) Backend() {}

// Decode implements BackendMessage.
func (dst *RowDescription) Decode(src []byte) error {
	rest, n := pgio.NextInt16(src)
	fields := make([]FieldDescription, n)
	for i := range fields {
		var name string
		var err error
		rest, name, err = pgio.NextCString(rest)
		if err != nil {
			return err
		}

		var tableOID, dataTypeOID uint32
		var tableAttrNum uint16
		var dataTypeSize, format int16
		var typeModifier int32

		rest, tableOID = pgio.NextUint32(rest)
		rest, tableAttrNum = pgio.NextUint16(rest)
		rest, dataTypeOID = pgio.NextUint32(rest)
		rest, dataTypeSize = pgio.NextInt16(rest)
		rest, typeModifier = pgio.NextInt32(rest)
		rest, format = pgio.NextInt16(rest)

		fields[i] = FieldDescription{
			Name:                 name,
			TableOID:             tableOID,
			TableAttributeNumber: tableAttrNum,
			DataTypeOID:          dataTypeOID,
			DataTypeSize:         dataTypeSize,
			TypeModifier:         typeModifier,
			Format:               format,
		}
	}
	dst.Fields = fields
	return nil
}

// ParameterDescription reports the inferred or declared OID of each
// parameter of a parsed statement.
type ParameterDescription struct {
	ParameterOIDs []uint32
}

func (*ParameterDescription) Backend() {}

// Decode implements BackendMessage.
func (dst *ParameterDescription) Decode(src []byte) error {
	rest, n := pgio.NextInt16(src)
	oids := make([]uint32, n)
	for i := range oids {
		rest, oids[i] = pgio.NextUint32(rest)
	}
	dst.ParameterOIDs = oids
	return nil
}

// DataRow carries one row of query results. Values[i] is nil for SQL NULL;
// it aliases src and is only valid until the buffer that produced it is
// reused.
type DataRow struct {
	Values [][]byte
}

func (*DataRow) Backend() {}

// Decode implements BackendMessage.
func (dst *DataRow) Decode(src []byte) error {
	rest, n := pgio.NextInt16(src)
	values := make([][]byte, n)
	for i := range values {
		var l int32
		rest, l = pgio.NextInt32(rest)
		if l < 0 {
			values[i] = nil
			continue
		}
		values[i] = rest[:l]
		rest = rest[l:]
	}
	dst.Values = values
	return nil
}

// CommandComplete reports the tag of the statement that just finished (e.g.
// "UPDATE 3").
type CommandComplete struct {
	CommandTag []byte
}

func (*CommandComplete) Backend() {}

// Decode implements BackendMessage.
func (dst *CommandComplete) Decode(src []byte) error {
	_, tag, err := pgio.NextCString(src)
	if err != nil {
		return err
	}
	dst.CommandTag = []byte(tag)
	return nil
}
