package mem

import "unsafe"

// Block is the in/out descriptor of one dispatch call. The request shape is
// encoded in Ptr and Size:
//
//	Ptr == nil, Size > 0   allocate Size bytes
//	Ptr != nil, Size == 0  free the allocation at Ptr
//	Ptr != nil, Size > 0   resize the allocation at Ptr to Size bytes
//
// Dispatch mutates the block in place: a successful allocate or resize
// leaves the (new) address in Ptr; a successful free clears Ptr. A zero
// Align requests the default (8-byte) alignment.
type Block struct {
	Ptr    unsafe.Pointer
	Size   int64
	Align  int
	Handle Handle
}

// IsAlloc reports whether the block describes an allocation request.
func (b *Block) IsAlloc() bool { return b.Ptr == nil && b.Size > 0 }

// IsFree reports whether the block describes a free request.
func (b *Block) IsFree() bool { return b.Ptr != nil && b.Size == 0 }

// IsResize reports whether the block describes a resize request.
func (b *Block) IsResize() bool { return b.Ptr != nil && b.Size > 0 }

// Bytes returns the allocation as a byte slice, or nil for an empty block.
func (b *Block) Bytes() []byte {
	if b.Ptr == nil || b.Size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.Ptr), b.Size)
}
