package algo

import "errors"

// Curve identifies one EC/Edwards/Montgomery curve by its OpenPGP card OID.
type Curve int

const (
	CurveUnknown Curve = iota
	CurveSECP256R1
	CurveSECP384R1
	CurveSECP521R1
	CurveBrainpoolP256R1
	CurveBrainpoolP384R1
	CurveBrainpoolP512R1
	CurveX25519
	CurveEd25519
)

// curveOID holds the bare OBJECT IDENTIFIER content octets (no DER
// tag or length byte) the card uses to name each curve in an
// Algorithm Attributes DO — the wire form is just the OID content,
// optionally followed by 0xFF when an embedded public key is present.
var curveOID = map[Curve][]byte{
	CurveSECP256R1:       {0x2A, 0x86, 0x48, 0xCE, 0x3D, 0x03, 0x01, 0x07},
	CurveSECP384R1:       {0x2B, 0x81, 0x04, 0x00, 0x22},
	CurveSECP521R1:       {0x2B, 0x81, 0x04, 0x00, 0x23},
	CurveBrainpoolP256R1: {0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x07},
	CurveBrainpoolP384R1: {0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x0B},
	CurveBrainpoolP512R1: {0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x0D},
	CurveX25519:          {0x2B, 0x06, 0x01, 0x04, 0x01, 0x97, 0x55, 0x01, 0x05, 0x01},
	CurveEd25519:         {0x2B, 0x06, 0x01, 0x04, 0x01, 0xDA, 0x47, 0x0F, 0x01},
}

var oidCurve = func() map[string]Curve {
	m := make(map[string]Curve, len(curveOID))
	for c, oid := range curveOID {
		m[string(oid)] = c
	}
	return m
}()

var errUnknownCurve = errors.New("algo: unknown curve OID")

func encodeCurve(c Curve, withPublicKey bool) ([]byte, error) {
	oid, ok := curveOID[c]
	if !ok {
		return nil, errUnknownCurve
	}
	out := append([]byte(nil), oid...)
	if withPublicKey {
		out = append(out, 0xFF)
	}
	return out, nil
}

func decodeCurve(value []byte) (curve Curve, withPublicKey bool, err error) {
	if len(value) > 0 && value[len(value)-1] == 0xFF {
		if c, ok := oidCurve[string(value[:len(value)-1])]; ok {
			return c, true, nil
		}
		return CurveUnknown, false, errUnknownCurve
	}
	if c, ok := oidCurve[string(value)]; ok {
		return c, false, nil
	}
	return CurveUnknown, false, errUnknownCurve
}

// isNISTCurve reports whether c is backed directly by crypto/ecdsa and
// crypto/ecdh (the Brainpool curves are declared but not implemented:
// the stdlib carries no Brainpool support and no library in the pack
// supplies one).
func isNISTCurve(c Curve) bool {
	switch c {
	case CurveSECP256R1, CurveSECP384R1, CurveSECP521R1:
		return true
	default:
		return false
	}
}
