package pgtype

// PostgreSQL builtin type OIDs needed by the codec registry. Mirrors the
// well-known values in pg_type.dat; not an exhaustive list.
const (
	BoolOID             uint32 = 16
	ByteaOID            uint32 = 17
	CharOID             uint32 = 18
	NameOID             uint32 = 19
	Int8OID             uint32 = 20
	Int2OID             uint32 = 21
	Int4OID             uint32 = 23
	TextOID             uint32 = 25
	OIDOID              uint32 = 26
	JSONOID             uint32 = 114
	JSONArrayOID        uint32 = 199
	XIDOID              uint32 = 28
	PointOID            uint32 = 600
	Float4OID           uint32 = 700
	Float8OID           uint32 = 701
	UnknownOID          uint32 = 705
	InetOID             uint32 = 869
	BoolArrayOID        uint32 = 1000
	Int2ArrayOID        uint32 = 1005
	Int4ArrayOID        uint32 = 1007
	TextArrayOID        uint32 = 1009
	Float4ArrayOID      uint32 = 1021
	Float8ArrayOID      uint32 = 1022
	InetArrayOID        uint32 = 1041
	BPCharOID           uint32 = 1042
	VarcharOID          uint32 = 1043
	DateOID             uint32 = 1082
	TimeOID             uint32 = 1083
	TimestampOID        uint32 = 1114
	TimestampArrayOID   uint32 = 1115
	DateArrayOID        uint32 = 1182
	TimeArrayOID        uint32 = 1183
	TimestampTzOID      uint32 = 1184
	TimestampTzArrayOID uint32 = 1185
	IntervalOID         uint32 = 1186
	IntervalArrayOID    uint32 = 1187
	NumericArrayOID     uint32 = 1231
	CidrOID             uint32 = 650
	CidrArrayOID        uint32 = 651
	TimeTzOID           uint32 = 1266
	BitOID              uint32 = 1560
	VarbitOID           uint32 = 1562
	NumericOID          uint32 = 1700
	UUIDOID             uint32 = 2950
	UUIDArrayOID        uint32 = 2951
	JSONBOID            uint32 = 3802
	JSONBArrayOID       uint32 = 3807
	Int4RangeOID        uint32 = 3904
	NumRangeOID         uint32 = 3906
	TimestampRangeOID   uint32 = 3908
	TimestampTzRangeOID uint32 = 3910
	DateRangeOID        uint32 = 3912
	Int8RangeOID        uint32 = 3926
	Int4MultirangeOID   uint32 = 4451
	NumMultirangeOID    uint32 = 4532
	Int8MultirangeOID   uint32 = 4536
	DateMultirangeOID   uint32 = 4535
	TimestampMultirangeOID   uint32 = 4533
	TimestampTzMultirangeOID uint32 = 4534
)
