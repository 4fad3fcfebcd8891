// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package byteview

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"unsafe"
)

var (
	// ErrNotABuffer is returned for handles that do not expose raw
	// bytes: unsupported types, strings, and views whose item size
	// is not exactly one byte.
	ErrNotABuffer = errors.New("object does not expose a byte buffer")

	// ErrNonContiguousBuffer is returned for views that expose bytes
	// only through a strided or otherwise gapped layout.
	ErrNonContiguousBuffer = errors.New("buffer is not contiguous")
)

// Bytes is implemented by handles that always expose a single
// contiguous byte range.
type Bytes interface {
	Bytes() []byte
}

// Provider is implemented by handles that describe their memory as a
// (possibly multi-dimensional) view. The boundary accepts the view
// only if it is C-contiguous with one-byte items.
type Provider interface {
	View() (View, error)
}

// Releaser is implemented by providers that pin resources for the
// lifetime of a view. Release is called exactly once, when the
// borrow obtained from the provider is released.
type Releaser interface {
	Release()
}

// View describes a region of memory in the same terms as a
// multi-dimensional array: the first element's bytes, the size of one
// item, the extent of each dimension, and the byte distance between
// neighbouring elements along each dimension.
type View struct {
	// Data starts at the first element of the view. For contiguous
	// views it must be at least Len bytes long.
	Data []byte

	// ItemSize is the size of one element in bytes. Only 1 is
	// accepted by [Acquire].
	ItemSize int

	// Shape is the extent of each dimension. A nil Shape describes a
	// one-dimensional view of len(Data)/ItemSize elements.
	Shape []int

	// Strides is the byte step along each dimension. A nil Strides
	// means the view is C-contiguous.
	Strides []int
}

// Len returns the number of bytes covered by the view's elements.
func (v View) Len() int {
	if v.Shape == nil {
		if v.ItemSize <= 0 {
			return 0
		}
		return len(v.Data) / v.ItemSize * v.ItemSize
	}
	length := v.ItemSize
	for _, extent := range v.Shape {
		length *= extent
	}
	return length
}

// IsContiguous reports whether the view's elements are laid out in
// row-major order with no gaps. Dimensions of extent 1 may carry any
// stride, and an empty view is trivially contiguous.
func (v View) IsContiguous() bool {
	if v.Strides == nil {
		return true
	}
	if len(v.Strides) != len(v.Shape) {
		return false
	}
	for _, extent := range v.Shape {
		if extent == 0 {
			return true
		}
	}
	expected := v.ItemSize
	for dimension := len(v.Shape) - 1; dimension >= 0; dimension-- {
		extent := v.Shape[dimension]
		if extent != 1 && v.Strides[dimension] != expected {
			return false
		}
		expected *= extent
	}
	return true
}

// Borrow is a read-only loan of caller memory. The zero value is an
// empty borrow whose Release is a no-op.
type Borrow struct {
	data    []byte
	handle  any
	release func()
}

// Bytes returns the borrowed range. The slice must not be retained
// after Release and must never be written to.
func (b Borrow) Bytes() []byte { return b.data }

// Len returns the number of borrowed bytes.
func (b Borrow) Len() int { return len(b.data) }

// Release ends the borrow. The handle is kept reachable until this
// call returns.
func (b Borrow) Release() {
	if b.release != nil {
		b.release()
	}
	runtime.KeepAlive(b.handle)
}

// Acquire converts handle into a Borrow over its bytes. See the
// package documentation for the accepted handle kinds.
func Acquire(handle any) (Borrow, error) {
	switch typed := handle.(type) {
	case nil:
		return Borrow{}, fmt.Errorf("%w: nil", ErrNotABuffer)
	case []byte:
		return Borrow{data: typed, handle: handle}, nil
	case []int8:
		return Borrow{data: signedBytes(typed), handle: handle}, nil
	case string:
		return Borrow{}, fmt.Errorf("%w: string (convert to []byte explicitly)", ErrNotABuffer)
	case Provider:
		return acquireProvider(typed)
	case Bytes:
		return Borrow{data: typed.Bytes(), handle: handle}, nil
	}
	return acquireReflect(handle)
}

func acquireProvider(provider Provider) (Borrow, error) {
	view, err := provider.View()
	if err != nil {
		return Borrow{}, fmt.Errorf("%w: %w", ErrNotABuffer, err)
	}

	release := func() {}
	if releaser, ok := provider.(Releaser); ok {
		release = releaser.Release
	}

	if view.ItemSize != 1 {
		release()
		return Borrow{}, fmt.Errorf("%w: item size is %d bytes, want 1", ErrNotABuffer, view.ItemSize)
	}
	if !view.IsContiguous() {
		release()
		return Borrow{}, fmt.Errorf("%w: shape %v, strides %v", ErrNonContiguousBuffer, view.Shape, view.Strides)
	}
	length := view.Len()
	if length < 0 || length > len(view.Data) {
		release()
		return Borrow{}, fmt.Errorf("%w: view describes %d bytes but exposes %d", ErrNotABuffer, length, len(view.Data))
	}

	return Borrow{data: view.Data[:length], handle: provider, release: release}, nil
}

// acquireReflect handles named slice and array types of one-byte
// integers, such as `type Payload []byte` or *[32]byte.
func acquireReflect(handle any) (Borrow, error) {
	value := reflect.ValueOf(handle)
	if value.Kind() == reflect.Pointer && !value.IsNil() && value.Elem().Kind() == reflect.Array {
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return Borrow{}, fmt.Errorf("%w: %T", ErrNotABuffer, handle)
	}

	element := value.Type().Elem()
	if element.Kind() != reflect.Uint8 && element.Kind() != reflect.Int8 {
		return Borrow{}, fmt.Errorf("%w: %T has %d-byte %s elements", ErrNotABuffer, handle, element.Size(), element.Kind())
	}

	length := value.Len()
	if length == 0 {
		return Borrow{handle: handle}, nil
	}

	if value.Kind() == reflect.Array && !value.CanAddr() {
		// An array passed by value is already a private copy held by
		// the interface; copying it out is the only way to address it.
		data := make([]byte, length)
		for index := range length {
			if element.Kind() == reflect.Int8 {
				data[index] = byte(value.Index(index).Int())
			} else {
				data[index] = byte(value.Index(index).Uint())
			}
		}
		return Borrow{data: data, handle: handle}, nil
	}

	first := (*byte)(value.Index(0).Addr().UnsafePointer())
	return Borrow{data: unsafe.Slice(first, length), handle: handle}, nil
}

func signedBytes(data []int8) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), len(data))
}
