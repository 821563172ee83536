package store

import (
	"fmt"
	"strconv"
)

func keySecret(ref ReferenceIndex) []byte  { return []byte("ref:" + strconv.Itoa(int(ref)) + ":secret") }
func keyCounter(ref ReferenceIndex) []byte { return []byte("ref:" + strconv.Itoa(int(ref)) + ":counter") }

func keyAttrs(slot SlotIndex) []byte    { return []byte("slot:" + strconv.Itoa(int(slot)) + ":attrs") }
func keyKeyDER(slot SlotIndex) []byte   { return []byte("slot:" + strconv.Itoa(int(slot)) + ":key") }
func keyKeyInfo(slot SlotIndex) []byte  { return []byte("slot:" + strconv.Itoa(int(slot)) + ":keyinfo") }
func keyFingerprint(slot SlotIndex) []byte {
	return []byte("slot:" + strconv.Itoa(int(slot)) + ":fp")
}
func keyCAFingerprint(slot SlotIndex) []byte {
	return []byte("slot:" + strconv.Itoa(int(slot)) + ":cafp")
}
func keyTimestamp(slot SlotIndex) []byte {
	return []byte("slot:" + strconv.Itoa(int(slot)) + ":ts")
}

var (
	keySignatureCounter = []byte("sigcounter")
	keyMultiSigFlag     = []byte("multisig")
	keyLifecycle        = []byte("lifecycle")
)

func keyDO(tag uint32) []byte {
	return []byte(fmt.Sprintf("do:%08x", tag))
}
