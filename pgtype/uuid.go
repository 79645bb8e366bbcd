package pgtype

import (
	"github.com/google/uuid"
)

// registerUUIDCodec wires github.com/google/uuid as the accepted/returned
// Go value for the uuid OID, per the DOMAIN STACK mapping.
func registerUUIDCodec(r *Registry) {
	r.Register(&Codec{OID: UUIDOID, Name: "uuid", TextDecode: decodeUUIDText, BinaryDecode: decodeUUIDBinary})
	r.RegisterEncoder(encodeUUID)
}

func decodeUUIDText(src []byte) (any, error) {
	u, err := uuid.ParseBytes(src)
	if err != nil {
		return nil, &DecodeError{OID: UUIDOID, Reason: "invalid uuid text", Err: err}
	}
	return u, nil
}

func decodeUUIDBinary(src []byte) (any, error) {
	if len(src) != 16 {
		return nil, &DecodeError{OID: UUIDOID, Format: 1, Reason: "expected 16 bytes"}
	}
	u, err := uuid.FromBytes(src)
	if err != nil {
		return nil, &DecodeError{OID: UUIDOID, Format: 1, Reason: "invalid uuid bytes", Err: err}
	}
	return u, nil
}

func encodeUUID(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	u, ok := val.(uuid.UUID)
	if !ok {
		return 0, 0, nil, false, nil
	}
	b, _ := u.MarshalBinary()
	return UUIDOID, 1, b, true, nil
}
