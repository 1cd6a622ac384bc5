// Package record implements a declarative binary record codec.
//
// A Record is an ordered typedef of Fields. Unpacking walks the typedef in
// order, reading each field from a seekable stream and storing its decoded
// Value on an Instance; packing walks the same typedef and writes the values
// back. For fields whose raw length is fully described by the schema the
// round trip is byte-exact.
//
// Field kinds form a closed set:
//
//   - Primitive: fixed-width numbers, struct-style formats, C strings, raw
//     byte blocks, padding, no-op and abort markers.
//   - Record: a nested typedef stored as a child Instance.
//   - Conditional: If, IfElse, Switch and the direction filters.
//   - Repetition: List, MetaList and MetaSizeList.
//   - Indirection: Pointer and ReadAhead.
//   - Adapter: Adapter, CookedInt and CookedFloat.
//   - Computed: Modify, ComputeUnpack, ComputePack, Anchor and checksums.
//
// Schemas are validated once by NewRecord. Instances hold a non-owning
// back-reference to their parent so that caller-supplied functions can
// inspect sibling and ancestor values.
//
// A Record may be shared between goroutines. An Instance must not be
// unpacked or packed concurrently with itself.
package record
