// Package mockhsm implements a deterministic, in-process simulator of the
// device wire surface: the object store, the command dispatch state
// machine, and a device-side secure channel peer, sharing the commands
// and securechannel packages with the client so both sides evolve in
// lockstep (spec component C7). Grounded on
// original_source/src/mockhsm/command.rs's dispatch table and
// original_source/src/mockhsm/state.rs's object store, rendered without
// the original's per-command panics: a parse failure inside a handler
// here produces a device error response, never a panic (spec.md §4.7).
package mockhsm

import "github.com/riftlabs/yubihsm-go/commands"

// objectKey is the object store's primary key: an (id, type) pair, per
// spec.md §3's Object invariant that id alone is not unique.
type objectKey struct {
	id  uint16
	typ commands.ObjectType
}

// object is one stored record: its wire-visible metadata plus whatever
// raw key/opaque material the algorithm demands.
type object struct {
	info    commands.ObjectInfo
	payload []byte
}

// objects is the simulator's object store: a (id, type)-keyed table with
// per-slot incarnation sequence numbers that persist across deletion, so
// a caller that deletes and recreates an object at the same slot can
// still tell the two incarnations apart (spec.md §3's "callers must
// treat reuse as a new object instance").
type objects struct {
	table map[objectKey]*object
	seq   map[objectKey]uint8
}

func newObjects() *objects {
	return &objects{
		table: make(map[objectKey]*object),
		seq:   make(map[objectKey]uint8),
	}
}

func (o *objects) get(id uint16, typ commands.ObjectType) (*object, bool) {
	obj, ok := o.table[objectKey{id, typ}]
	return obj, ok
}

func (o *objects) delete(id uint16, typ commands.ObjectType) bool {
	key := objectKey{id, typ}
	if _, ok := o.table[key]; !ok {
		return false
	}
	delete(o.table, key)
	return true
}

// nextID returns the lowest unused object id for typ, starting at 1 (id 0
// is reserved for "let the device choose").
func (o *objects) nextID(typ commands.ObjectType) uint16 {
	for id := uint16(1); id < 0xffff; id++ {
		if _, ok := o.table[objectKey{id, typ}]; !ok {
			return id
		}
	}
	return 0
}

// put inserts or overwrites the object at (id, typ), advancing its
// incarnation sequence and returning the stored record.
func (o *objects) put(id uint16, typ commands.ObjectType, alg commands.Algorithm, label string, caps, delegated commands.Capability, domains commands.Domain, origin commands.Origin, payload []byte) *object {
	key := objectKey{id, typ}
	o.seq[key]++

	info := commands.ObjectInfo{
		Capabilities:          caps,
		ObjectID:              id,
		Length:                uint16(len(payload)),
		Domains:               domains,
		Type:                  typ,
		Algorithm:             alg,
		Sequence:              o.seq[key],
		Origin:                origin,
		DelegatedCapabilities: delegated,
	}
	copy(info.Label[:], label)

	obj := &object{info: info, payload: payload}
	o.table[key] = obj
	return obj
}

// list returns every stored object's info, for ListObjects to filter.
func (o *objects) list() []*commands.ObjectInfo {
	out := make([]*commands.ObjectInfo, 0, len(o.table))
	for _, obj := range o.table {
		info := obj.info
		out = append(out, &info)
	}
	return out
}
