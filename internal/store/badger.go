package store

import (
	"encoding/binary"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore is the BadgerDB-backed implementation of Store.
//
// Implementation Details:
//   - Every Update call runs inside a single db.Update transaction, so
//     either all of its writes land or none do.
//   - Reads inside a transaction see that transaction's own uncommitted
//     writes, matching Badger's default snapshot-isolation semantics.
//
// Thread Safety: safe for concurrent use; BadgerDB serializes
// transaction commits internally. mu guards only BadgerStore's own
// lifecycle (Close), not individual transactions.
type BadgerStore struct {
	mu sync.RWMutex
	db *badger.DB
}

// Open opens (or creates) a BadgerDB-backed store at path.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, NewIOError("failed to open badger store: " + err.Error())
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying BadgerDB handles.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *BadgerStore) Update(fn func(Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn})
	})
}

func (s *BadgerStore) View(fn func(Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn})
	})
}

// badgerTxn adapts a single *badger.Txn to the Txn interface.
type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) get(key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, NewIOError(err.Error())
	}
	var val []byte
	err = item.Value(func(v []byte) error {
		val = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, NewIOError(err.Error())
	}
	return val, true, nil
}

func (t *badgerTxn) set(key, value []byte) error {
	if err := t.txn.Set(key, value); err != nil {
		return NewIOError(err.Error())
	}
	return nil
}

func (t *badgerTxn) del(key []byte) error {
	if err := t.txn.Delete(key); err != nil {
		return NewIOError(err.Error())
	}
	return nil
}

func (t *badgerTxn) GetSecret(ref ReferenceIndex) ([]byte, error) {
	val, _, err := t.get(keySecret(ref))
	return val, err
}

func (t *badgerTxn) SetSecret(ref ReferenceIndex, secret []byte) error {
	if err := t.set(keySecret(ref), secret); err != nil {
		return err
	}
	counter := 0
	if len(secret) > 0 {
		counter = DefaultRetryCount
	}
	return t.SetRetryCounter(ref, counter)
}

func (t *badgerTxn) GetRetryCounter(ref ReferenceIndex) (int, error) {
	val, ok, err := t.get(keyCounter(ref))
	if err != nil {
		return 0, err
	}
	if !ok || len(val) == 0 {
		return 0, nil
	}
	return int(val[0]), nil
}

func (t *badgerTxn) SetRetryCounter(ref ReferenceIndex, n int) error {
	return t.set(keyCounter(ref), []byte{byte(n)})
}

func (t *badgerTxn) GetAlgorithmAttributes(slot SlotIndex) ([]byte, error) {
	val, _, err := t.get(keyAttrs(slot))
	return val, err
}

func (t *badgerTxn) SetAlgorithmAttributes(slot SlotIndex, raw []byte) error {
	return t.set(keyAttrs(slot), raw)
}

func (t *badgerTxn) GetKeyMaterial(slot SlotIndex) ([]byte, KeyInfo, error) {
	der, ok, err := t.get(keyKeyDER(slot))
	if err != nil {
		return nil, KeyInfoNotPresent, err
	}
	if !ok {
		return nil, KeyInfoNotPresent, nil
	}
	infoBytes, _, err := t.get(keyKeyInfo(slot))
	if err != nil {
		return nil, KeyInfoNotPresent, err
	}
	info := KeyInfoNotPresent
	if len(infoBytes) > 0 {
		info = KeyInfo(infoBytes[0])
	}
	return der, info, nil
}

func (t *badgerTxn) SetKeyMaterial(slot SlotIndex, der []byte, info KeyInfo) error {
	if err := t.set(keyKeyDER(slot), der); err != nil {
		return err
	}
	return t.set(keyKeyInfo(slot), []byte{byte(info)})
}

// EraseKey clears a slot's key material, fingerprint, CA fingerprint,
// and timestamp. Deleting an absent key is a no-op in BadgerDB.
func (t *badgerTxn) EraseKey(slot SlotIndex) error {
	for _, k := range [][]byte{
		keyKeyDER(slot), keyKeyInfo(slot),
		keyFingerprint(slot), keyCAFingerprint(slot), keyTimestamp(slot),
	} {
		if err := t.del(k); err != nil {
			return err
		}
	}
	return nil
}

func (t *badgerTxn) GetFingerprint(slot SlotIndex) ([20]byte, error) {
	var fp [20]byte
	val, ok, err := t.get(keyFingerprint(slot))
	if err != nil || !ok {
		return fp, err
	}
	copy(fp[:], val)
	return fp, nil
}

func (t *badgerTxn) SetFingerprint(slot SlotIndex, fp [20]byte) error {
	return t.set(keyFingerprint(slot), fp[:])
}

func (t *badgerTxn) GetCAFingerprint(slot SlotIndex) ([20]byte, error) {
	var fp [20]byte
	val, ok, err := t.get(keyCAFingerprint(slot))
	if err != nil || !ok {
		return fp, err
	}
	copy(fp[:], val)
	return fp, nil
}

func (t *badgerTxn) SetCAFingerprint(slot SlotIndex, fp [20]byte) error {
	return t.set(keyCAFingerprint(slot), fp[:])
}

func (t *badgerTxn) GetKeyTimestamp(slot SlotIndex) (uint32, error) {
	val, ok, err := t.get(keyTimestamp(slot))
	if err != nil || !ok || len(val) < 4 {
		return 0, err
	}
	return binary.BigEndian.Uint32(val), nil
}

func (t *badgerTxn) SetKeyTimestamp(slot SlotIndex, ts uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], ts)
	return t.set(keyTimestamp(slot), b[:])
}

func (t *badgerTxn) GetSignatureCounter() (uint32, error) {
	val, ok, err := t.get(keySignatureCounter)
	if err != nil || !ok || len(val) < 4 {
		return 0, err
	}
	return binary.BigEndian.Uint32(val), nil
}

func (t *badgerTxn) SetSignatureCounter(value uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], value)
	return t.set(keySignatureCounter, b[:])
}

func (t *badgerTxn) GetMultiSigFlag() (bool, error) {
	val, ok, err := t.get(keyMultiSigFlag)
	if err != nil || !ok || len(val) == 0 {
		return false, err
	}
	return val[0] != 0, nil
}

func (t *badgerTxn) SetMultiSigFlag(flag bool) error {
	v := byte(0)
	if flag {
		v = 1
	}
	return t.set(keyMultiSigFlag, []byte{v})
}

func (t *badgerTxn) GetLifecycle() (Lifecycle, error) {
	val, ok, err := t.get(keyLifecycle)
	if err != nil || !ok || len(val) == 0 {
		return LifecycleCreation, err
	}
	return Lifecycle(val[0]), nil
}

func (t *badgerTxn) SetLifecycle(l Lifecycle) error {
	return t.set(keyLifecycle, []byte{byte(l)})
}

func (t *badgerTxn) GetDO(tag uint32) ([]byte, bool, error) {
	return t.get(keyDO(tag))
}

func (t *badgerTxn) SetDO(tag uint32, value []byte) error {
	return t.set(keyDO(tag), value)
}

func (t *badgerTxn) DeleteDO(tag uint32) error {
	return t.del(keyDO(tag))
}
