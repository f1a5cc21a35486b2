package iocraft

import (
	"fmt"
	"reflect"
	"sync"
)

// rootLinkKeys are the keys every object carries as a link to its type.
var rootLinkKeys = []string{"constructor", "__proto__"}

// structuralKeys are noise only when copying static members.
var structuralKeys = map[string]bool{
	"length":    true,
	"name":      true,
	"prototype": true,
}

// nativeKeys is the denylist of member names intrinsic to every value: the method sets
// of the interfaces the runtime and fmt treat specially, plus the root link keys.
var nativeKeys = sync.OnceValue(func() map[string]bool {
	keys := map[string]bool{}

	for _, key := range rootLinkKeys {
		keys[key] = true
	}

	for _, iface := range []reflect.Type{
		reflect.TypeFor[fmt.Stringer](),
		reflect.TypeFor[fmt.GoStringer](),
		reflect.TypeFor[fmt.Formatter](),
		reflect.TypeFor[error](),
	} {
		for i := range iface.NumMethod() {
			keys[iface.Method(i).Name] = true
		}
	}

	return keys
})

// isNativeKey reports whether key is runtime noise that must never reach a facade.
// Symbols are never noise.
func isNativeKey(key Key) bool {
	if key.IsSymbol() {
		return false
	}
	return nativeKeys()[key.name]
}

// isStaticNoise extends isNativeKey with the structural keys every type carries.
func isStaticNoise(key Key) bool {
	if isNativeKey(key) {
		return true
	}
	return !key.IsSymbol() && structuralKeys[key.name]
}
