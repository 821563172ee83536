package store

// Txn is the set of operations available inside one transaction. All
// reads observe the transaction's snapshot; all writes are staged until
// the enclosing Update call returns nil, at which point they commit
// atomically.
type Txn interface {
	// Reference data (PW1/PW3/RC).
	GetSecret(ref ReferenceIndex) ([]byte, error)       // nil, nil if absent
	SetSecret(ref ReferenceIndex, secret []byte) error  // also resets the counter: len>0 -> DefaultRetryCount, else 0
	GetRetryCounter(ref ReferenceIndex) (int, error)
	SetRetryCounter(ref ReferenceIndex, n int) error

	// Key slots.
	GetAlgorithmAttributes(slot SlotIndex) ([]byte, error) // nil, nil if unset
	SetAlgorithmAttributes(slot SlotIndex, raw []byte) error
	GetKeyMaterial(slot SlotIndex) (der []byte, info KeyInfo, err error)
	SetKeyMaterial(slot SlotIndex, der []byte, info KeyInfo) error
	EraseKey(slot SlotIndex) error // clears key material, fingerprint, CA fingerprint, timestamp; info -> NotPresent
	GetFingerprint(slot SlotIndex) ([20]byte, error)
	SetFingerprint(slot SlotIndex, fp [20]byte) error
	GetCAFingerprint(slot SlotIndex) ([20]byte, error)
	SetCAFingerprint(slot SlotIndex, fp [20]byte) error
	GetKeyTimestamp(slot SlotIndex) (uint32, error)
	SetKeyTimestamp(slot SlotIndex, ts uint32) error

	// Counters and flags.
	GetSignatureCounter() (uint32, error)
	SetSignatureCounter(value uint32) error
	GetMultiSigFlag() (bool, error)
	SetMultiSigFlag(bool) error

	// Lifecycle.
	GetLifecycle() (Lifecycle, error)
	SetLifecycle(Lifecycle) error

	// Miscellaneous data objects addressed directly by tag number
	// (Name, LanguagePreference, Sex, Login Data, URL, AID, and any
	// other simple DO the tag schema doesn't give a dedicated accessor).
	GetDO(tag uint32) (value []byte, present bool, err error)
	SetDO(tag uint32, value []byte) error
	DeleteDO(tag uint32) error
}

// Store is the persistent application state. Every mutation happens
// inside Update; Update commits all staged writes atomically on a nil
// return and discards them otherwise.
type Store interface {
	Update(fn func(Txn) error) error
	View(fn func(Txn) error) error
	Close() error
}
