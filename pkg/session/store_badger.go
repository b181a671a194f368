package session

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// ============================================================================
// Database Key Namespace Design
// ============================================================================
//
// Data Type          Prefix    Key Format                       Value
// seq:<id>           seq:      seq:<sender>:<target>            SequenceState (JSON)
// msg:<id>:<seqnum>  msg:      msg:<sender>:<target>:<seqnum>   raw outbound bytes
// rcv:<id>:<ord>     rcv:      rcv:<sender>:<target>:<ord>      raw inbound bytes
//
// <seqnum> and <ord> are 8-byte big-endian so lexicographic key order is
// numeric order; <ord> is a process-monotonic arrival counter, not a
// FIX sequence number.

const (
	prefixSeq = "seq:"
	prefixMsg = "msg:"
	prefixRcv = "rcv:"
)

func keySeq(id ID) []byte {
	return []byte(prefixSeq + id.SenderCompID + ":" + id.TargetCompID)
}

func keyMsg(id ID, seqNum int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seqNum))
	return append([]byte(prefixMsg+id.SenderCompID+":"+id.TargetCompID+":"), buf[:]...)
}

func keyMsgPrefix(id ID) []byte {
	return []byte(prefixMsg + id.SenderCompID + ":" + id.TargetCompID + ":")
}

func keyRcv(id ID, ord uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], ord)
	return append([]byte(prefixRcv+id.SenderCompID+":"+id.TargetCompID+":"), buf[:]...)
}

func keyRcvPrefix(id ID) []byte {
	return []byte(prefixRcv + id.SenderCompID + ":" + id.TargetCompID + ":")
}

// BadgerStore is a durable Store backed by BadgerDB, for deployments that
// must survive process restarts without losing sequence-number state or
// the sent-message journal kept for audit and diagnostics.
type BadgerStore struct {
	db *badgerdb.DB

	// rcvOrd orders the receive journal within and across process
	// lifetimes: seeded from the wall clock at open, then incremented
	// per append, so restarts keep appending after existing entries.
	rcvOrd atomic.Uint64
}

// OpenBadgerStore opens (creating if necessary) a BadgerDB database at
// dir to back a Store.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badgerdb.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	s := &BadgerStore{db: db}
	s.rcvOrd.Store(uint64(time.Now().UnixNano()))
	return s, nil
}

// Close releases the underlying database handle.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) LoadSequenceState(ctx context.Context, id ID) (SequenceState, error) {
	if err := ctx.Err(); err != nil {
		return SequenceState{}, err
	}

	var st SequenceState
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keySeq(id))
		if err == badgerdb.ErrKeyNotFound {
			st = SequenceState{NextSent: 1, NextRecv: 1}
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &st)
		})
	})
	if err != nil {
		return SequenceState{}, fmt.Errorf("loading sequence state for %s: %w", id, err)
	}
	return st, nil
}

func (s *BadgerStore) SaveSequenceState(ctx context.Context, id ID, st SequenceState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling sequence state: %w", err)
	}
	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keySeq(id), data)
	})
	if err != nil {
		return fmt.Errorf("saving sequence state for %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) ResetSequenceState(ctx context.Context, id ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		data, err := json.Marshal(SequenceState{NextSent: 1, NextRecv: 1})
		if err != nil {
			return err
		}
		if err := txn.Set(keySeq(id), data); err != nil {
			return err
		}

		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		var toDelete [][]byte
		for _, prefix := range [][]byte{keyMsgPrefix(id), keyRcvPrefix(id)} {
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				toDelete = append(toDelete, it.Item().KeyCopy(nil))
			}
		}
		for _, k := range toDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("resetting sequence state for %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) SaveSentMessage(ctx context.Context, id ID, seqNum int64, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyMsg(id, seqNum), raw)
	})
	if err != nil {
		return fmt.Errorf("saving sent message %d for %s: %w", seqNum, id, err)
	}
	return nil
}

func (s *BadgerStore) SaveReceivedMessage(ctx context.Context, id ID, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ord := s.rcvOrd.Add(1)
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyRcv(id, ord), raw)
	})
	if err != nil {
		return fmt.Errorf("saving received message for %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) LoadSentMessages(ctx context.Context, id ID, fromSeqNum, toSeqNum int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out [][]byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		prefix := keyMsgPrefix(id)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.Key()
			seqBytes := key[len(prefix):]
			if len(seqBytes) != 8 {
				continue
			}
			n := int64(binary.BigEndian.Uint64(seqBytes))
			if n < fromSeqNum {
				continue
			}
			if toSeqNum != 0 && n > toSeqNum {
				continue
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, val)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading sent messages for %s: %w", id, err)
	}
	return out, nil
}
