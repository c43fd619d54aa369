// Package ledger persists accounts, custody vaults and records on a
// storage.Database and gives the native engines an atomic unit of work:
// every state mutation inside Apply either commits as one batch or is
// discarded.
package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"custodian/core/types"
	"custodian/storage"
)

var (
	// ErrInsufficientBalance is returned when a debit exceeds the funds held
	// by an account or vault.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrInvalidAmount is returned for nil or non-positive transfer amounts.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrNoTransaction is returned when a mutation is attempted outside Apply.
	ErrNoTransaction = errors.New("ledger: no open transaction")
)

const (
	accountPrefix = "accounts/"
	vaultPrefix   = "vault/"
	escrowPrefix  = "escrow/"
	swapPrefix    = "swap/"
	recordSeqKey  = "seq/records"
)

func accountKey(addr [20]byte) []byte {
	return []byte(accountPrefix + hex.EncodeToString(addr[:]))
}

func vaultKey(id [32]byte, asset string) []byte {
	return []byte(vaultPrefix + hex.EncodeToString(id[:]) + "/" + asset)
}

func escrowKey(id [32]byte) []byte {
	return []byte(escrowPrefix + hex.EncodeToString(id[:]))
}

func swapKey(id [32]byte) []byte {
	return []byte(swapPrefix + hex.EncodeToString(id[:]))
}

// Ledger implements the state interfaces of the native engines on top of a
// key-value database. Mutations are only permitted inside Apply, which
// buffers them and commits with a single write batch. Callers that share a
// Ledger across goroutines must wrap reads in View so they cannot interleave
// with a transaction in progress.
type Ledger struct {
	mu      sync.Mutex
	db      storage.Database
	overlay map[string][]byte
	dirty   []string
}

// NewLedger wraps the given database.
func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

// Apply runs fn inside a transaction. All reads observe the buffered writes;
// if fn returns an error nothing reaches the database.
func (l *Ledger) Apply(fn func() error) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("ledger: not initialised")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overlay = make(map[string][]byte)
	l.dirty = l.dirty[:0]
	defer func() {
		l.overlay = nil
		l.dirty = nil
	}()
	if err := fn(); err != nil {
		return err
	}
	if len(l.dirty) == 0 {
		return nil
	}
	batch := make([]storage.BatchEntry, 0, len(l.dirty))
	for _, key := range l.dirty {
		batch = append(batch, storage.BatchEntry{Key: []byte(key), Value: l.overlay[key]})
	}
	return l.db.WriteBatch(batch)
}

// View runs fn holding the transaction lock with no write buffer, so fn
// observes only committed state and never interleaves with an Apply in
// progress. All reads that may run concurrently with writers go through
// here.
func (l *Ledger) View(fn func() error) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("ledger: not initialised")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

func (l *Ledger) read(key []byte) ([]byte, error) {
	if l.overlay != nil {
		if value, ok := l.overlay[string(key)]; ok {
			if value == nil {
				return nil, storage.ErrNotFound
			}
			out := make([]byte, len(value))
			copy(out, value)
			return out, nil
		}
	}
	return l.db.Get(key)
}

func (l *Ledger) write(key, value []byte) error {
	if l.overlay == nil {
		return ErrNoTransaction
	}
	k := string(key)
	if _, ok := l.overlay[k]; !ok {
		l.dirty = append(l.dirty, k)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	l.overlay[k] = buf
	return nil
}

func (l *Ledger) remove(key []byte) error {
	if l.overlay == nil {
		return ErrNoTransaction
	}
	k := string(key)
	if _, ok := l.overlay[k]; !ok {
		l.dirty = append(l.dirty, k)
	}
	l.overlay[k] = nil
	return nil
}

// GetAccount loads the account for addr, returning a fresh empty account when
// none is stored.
func (l *Ledger) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := l.read(accountKey(addr))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.NewAccount(), nil
		}
		return nil, err
	}
	return decodeAccount(raw)
}

// PutAccount stores the account for addr.
func (l *Ledger) PutAccount(addr [20]byte, acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("ledger: nil account")
	}
	raw, err := encodeAccount(acc)
	if err != nil {
		return err
	}
	return l.write(accountKey(addr), raw)
}

// AccountCredit adds amt of asset to the account balance.
func (l *Ledger) AccountCredit(addr [20]byte, asset string, amt *big.Int) error {
	if amt == nil || amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := l.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.SetBalance(asset, new(big.Int).Add(acc.Balance(asset), amt))
	return l.PutAccount(addr, acc)
}

// AccountDebit removes amt of asset from the account balance.
func (l *Ledger) AccountDebit(addr [20]byte, asset string, amt *big.Int) error {
	if amt == nil || amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := l.GetAccount(addr)
	if err != nil {
		return err
	}
	current := acc.Balance(asset)
	if current.Cmp(amt) < 0 {
		return fmt.Errorf("%w: account %x holds %s %s, needs %s", ErrInsufficientBalance, addr, current, asset, amt)
	}
	acc.SetBalance(asset, current.Sub(current, amt))
	return l.PutAccount(addr, acc)
}

// VaultBalance reports the funds held in custody for the given record.
func (l *Ledger) VaultBalance(id [32]byte, asset string) (*big.Int, error) {
	raw, err := l.read(vaultKey(id, asset))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	balance, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("ledger: corrupt vault balance %q", raw)
	}
	return balance, nil
}

// VaultCredit moves amt of asset into the record's custody vault.
func (l *Ledger) VaultCredit(id [32]byte, asset string, amt *big.Int) error {
	if amt == nil || amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.VaultBalance(id, asset)
	if err != nil {
		return err
	}
	balance.Add(balance, amt)
	return l.write(vaultKey(id, asset), []byte(balance.String()))
}

// VaultDebit moves amt of asset out of the record's custody vault. The vault
// entry is removed once empty.
func (l *Ledger) VaultDebit(id [32]byte, asset string, amt *big.Int) error {
	if amt == nil || amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.VaultBalance(id, asset)
	if err != nil {
		return err
	}
	if balance.Cmp(amt) < 0 {
		return fmt.Errorf("%w: vault %x holds %s %s, needs %s", ErrInsufficientBalance, id, balance, asset, amt)
	}
	balance.Sub(balance, amt)
	if balance.Sign() == 0 {
		return l.remove(vaultKey(id, asset))
	}
	return l.write(vaultKey(id, asset), []byte(balance.String()))
}

// NextRecordID increments the global record sequence and derives an
// identifier from the record kind and the sequence number.
func (l *Ledger) NextRecordID(kind string) ([32]byte, error) {
	var id [32]byte
	raw, err := l.read([]byte(recordSeqKey))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return id, err
	}
	var seq uint64
	if len(raw) == 8 {
		seq = binary.BigEndian.Uint64(raw)
	}
	seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	if err := l.write([]byte(recordSeqKey), buf[:]); err != nil {
		return id, err
	}
	return ethcrypto.Keccak256Hash([]byte(kind), buf[:]), nil
}
