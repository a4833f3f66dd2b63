package xzblock

// Preset mirrors LZMA_PRESET_DEFAULT: the dictionary size pixz derives
// its block size from, adapted from the teacher's lzma.Default
// parameters (LC 3, LP 0, PB 2, 8 MiB dictionary).
type Preset struct {
	DictSize int64
}

// DefaultPreset is the xz "preset 6" dictionary size, matching
// original_source/write.c's lzma_lzma_preset(&lzma_opts,
// LZMA_PRESET_DEFAULT) call.
var DefaultPreset = Preset{DictSize: 8 * 1024 * 1024}

// BlockInSize returns the target uncompressed size of one pipeline
// block for a given preset: 2x the dictionary size, matching
// original_source/write.c's `gBlockInSize = lzma_opts.dict_size * 2.0`.
func (p Preset) BlockInSize() int64 {
	return p.DictSize * 2
}

// BlockOutSize returns the worst-case compressed size of one block of
// BlockInSize bytes, matching lzma_block_buffer_bound: the input size
// plus its own size divided by 3, plus a fixed 128-byte margin, rounded
// up to a multiple of 4 (the smallest size the xz format ever expands
// incompressible data to).
func (p Preset) BlockOutSize() int64 {
	in := p.BlockInSize()
	bound := in + in/3 + 128
	return int64(pad4(int(bound)))
}
