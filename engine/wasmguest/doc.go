// Package wasmguest runs a windowless engine compiled to WebAssembly on
// wazero.
//
// A Loader compiles guests (plain or zstd-compressed, cached by BLAKE3
// digest) and instantiates each as an Engine implementing engine.Engine.
//
// # Guest ABI
//
// Buffers are (ptr i32, len i32) pairs in guest memory. The host allocates
// argument buffers with wl_alloc and never frees them; the guest owns them
// once the call starts. Results are packed as ptr<<32|len in an i64.
// Status results are 0 on success.
//
//	Export                                                     Required
//	──────────────────────────────────────────────────────────────────────
//	memory                                                     yes
//	wl_alloc(size i32) -> i32                                  yes
//	wl_attach(hwnd i64) -> i32                                 yes
//	wl_handle_message(hwnd i64, msg i32, len i32) -> i32       yes
//	wl_detach(hwnd i64) -> i32
//	wl_load_html(hwnd i64, html i32, len i32, uri i32, len i32) -> i32
//	wl_load_file(hwnd i64, uri i32, len i32) -> i32
//	wl_data_ready(hwnd i64, uri i32, len i32, data i32, len i32, id i64) -> i32
//	wl_root(hwnd i64) -> i64                                   0 = no document
//	wl_call(hwnd i64, el i64, name i32, len i32, args i32, len i32) -> i64
//	wl_register_behavior(hwnd i64, name i32, len i32) -> i32
//	wl_gfx_flush(hwnd i64) -> i32
//	wl_set_option(option i32, value i32, len i32) -> i32
//
// Messages use the engine.WireMessage binary layout. Script arguments are
// one CBOR array, results and option values one CBOR item. wl_call returns
// -1 for an undefined function and -2 for a failed one.
//
// Imports from the host module "windowless":
//
//	data_load(hwnd i64, uri i32, len i32, id i64, type i32) -> i32     0 = no answer, else LoadResult+1
//	script_call(hwnd i64, root i64, name i32, len i32, args i32, len i32) -> i64
//	draw(hwnd i64, name i32, len i32, left, top, right, bottom i32, layer i32) -> i32
//	invalidate(hwnd i64, left, top, right, bottom i32)
//	debug_output(hwnd i64, subsystem i32, severity i32, msg i32, len i32)
//	graphics_failure(hwnd i64)
//
// script_call returns 0 when the host produced no value.
package wasmguest
