// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package spsc

import (
	"fmt"
	"reflect"
)

// checkTriviallyCopyable reports an error if values of typ cannot be moved
// between address spaces by copying their bytes.
func checkTriviallyCopyable(typ reflect.Type) error {
	if path, ok := firstReference(typ, typ.String()); ok {
		return fmt.Errorf("%w: %s holds %s", ErrNotTriviallyCopyable, typ, path)
	}
	return nil
}

// firstReference returns the path to the first field of typ that refers to
// memory outside the value itself.
func firstReference(typ reflect.Type, path string) (string, bool) {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return "", false
	case reflect.Array:
		if typ.Len() == 0 {
			return "", false
		}
		return firstReference(typ.Elem(), path+"[]")
	case reflect.Struct:
		for i := range typ.NumField() {
			f := typ.Field(i)
			if p, ok := firstReference(f.Type, path+"."+f.Name); ok {
				return p, true
			}
		}
		return "", false
	default:
		return fmt.Sprintf("%s (%s)", path, typ.Kind()), true
	}
}
