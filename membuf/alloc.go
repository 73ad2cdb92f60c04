package membuf

import "fmt"

// LookupAllocator maps a command-line name to an Allocator.
func LookupAllocator(name string) (Allocator, error) {
	switch name {
	case "heap", "":
		return HeapAllocator{}, nil
	case "mmap":
		return MmapAllocator{}, nil
	default:
		return nil, fmt.Errorf("unknown allocator %q (want heap or mmap)", name)
	}
}
