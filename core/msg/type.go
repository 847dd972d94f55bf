package msg

import (
	"reflect"
	"strings"
	"sync"
)

// maxTypeCacheSize bounds the type cache. The set of message types in a
// program is small, the cache is reset if it is ever exceeded.
const maxTypeCacheSize = 1024

var (
	muTypes sync.RWMutex
	types   = make(map[reflect.Type]Type)
)

// Type identifies a message type. Key is the exact dynamic type and is what
// subscription tables are keyed by. Name is a human-readable form used in
// logs and metric labels.
type Type struct {
	Key  reflect.Type
	Name string
}

func (t Type) String() string { return t.Name }

// IsZero reports whether t describes no type at all.
func (t Type) IsZero() bool { return t.Key == nil }

// TypeOf returns the Type of the dynamic type of m.
func TypeOf(m any) Type {
	return typeForKey(reflect.TypeOf(m))
}

// TypeFor returns the Type of T.
func TypeFor[T any]() Type {
	return typeForKey(reflect.TypeFor[T]())
}

func typeForKey(k reflect.Type) Type {
	if k == nil {
		return Type{}
	}

	muTypes.RLock()
	t, ok := types[k]
	muTypes.RUnlock()
	if ok {
		return t
	}

	t = Type{Key: k, Name: typeName(k)}

	muTypes.Lock()
	if existing, ok := types[k]; ok {
		muTypes.Unlock()
		return existing
	}
	if len(types) >= maxTypeCacheSize {
		types = make(map[reflect.Type]Type)
	}
	types[k] = t
	muTypes.Unlock()

	return t
}

// typeName strips pointers and qualifies the name with the last element of
// the package path, e.g. "shop.PurchaseOrder".
func typeName(k reflect.Type) string {
	for k.Kind() == reflect.Pointer {
		k = k.Elem()
	}
	name := k.Name()
	if name == "" {
		return k.String()
	}
	pkg := k.PkgPath()
	if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
		pkg = pkg[i+1:]
	}
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
