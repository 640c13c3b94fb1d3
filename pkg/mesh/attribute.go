package mesh

import "fmt"

// Scalar is the set of element types a vertex attribute can hold.
type Scalar interface {
	~float32 | ~uint8 | ~uint16
}

// Attribute is flat per-vertex data with a fixed number of values per vertex.
//
// Positions and normals have a size of 3, uvs a size of 2. The data does not
// say how many vertices of the mesh use it: two corners can share one entry.
type Attribute[T Scalar] struct {
	data []T
	size uint8
}

// NewAttribute wraps data as an attribute with size values per vertex.
func NewAttribute[T Scalar](data []T, size uint8) (Attribute[T], error) {
	if size == 0 {
		return Attribute[T]{}, fmt.Errorf("%w: size must be positive", ErrAttributeStride)
	}
	if len(data)%int(size) != 0 {
		return Attribute[T]{}, fmt.Errorf("%w: %d values, size %d", ErrAttributeStride, len(data), size)
	}
	return Attribute[T]{data: data, size: size}, nil
}

// Data returns the underlying values. Useful for buffering onto the GPU.
func (a Attribute[T]) Data() []T {
	return a.data
}

// Size returns the number of values per vertex.
func (a Attribute[T]) Size() uint8 {
	return a.size
}

// Len returns the number of vertices stored.
func (a Attribute[T]) Len() int {
	if a.size == 0 {
		return 0
	}
	return len(a.data) / int(a.size)
}

// At returns the values of one vertex. The returned slice aliases the
// attribute's storage.
func (a Attribute[T]) At(vertex int) []T {
	start := vertex * int(a.size)
	end := start + int(a.size)
	return a.data[start:end:end]
}

// Append adds whole vertices to the end of the attribute. The number of
// values must be a multiple of Size.
func (a *Attribute[T]) Append(values ...T) error {
	if a.size == 0 {
		return fmt.Errorf("%w: size must be positive", ErrAttributeStride)
	}
	if len(values)%int(a.size) != 0 {
		return fmt.Errorf("%w: appending %d values, size %d", ErrAttributeStride, len(values), a.size)
	}
	a.data = append(a.data, values...)
	return nil
}

func (a Attribute[T]) clone() Attribute[T] {
	if a.data == nil {
		return Attribute[T]{size: a.size}
	}
	return Attribute[T]{data: append([]T{}, a.data...), size: a.size}
}
