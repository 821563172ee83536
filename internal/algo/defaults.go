package algo

// DefaultSignatureAttributes is the factory algorithm attribute set
// for the SIGN slot: RSA-2048, public exponent 32 bits, standard
// import format. Encodes to 01 08 00 00 20 00.
func DefaultSignatureAttributes() Algorithm {
	return RSAAttributes{ModulusBits: 2048, PublicExponentBits: 32, Format: ImportFormatStandard}
}

// DefaultDecryptionAttributes is the factory algorithm attribute set
// for the DECRYPT slot: ECDH over X25519. Encodes to
// 12 2B 06 01 04 01 97 55 01 05 01.
func DefaultDecryptionAttributes() Algorithm {
	return ECDHAttributes{Curve: CurveX25519, WithPublicKey: false}
}

// DefaultAuthenticationAttributes is the factory algorithm attribute
// set for the AUTH slot: the same RSA-2048 default as SIGN. Encodes to
// 01 08 00 00 20 00.
func DefaultAuthenticationAttributes() Algorithm {
	return RSAAttributes{ModulusBits: 2048, PublicExponentBits: 32, Format: ImportFormatStandard}
}
