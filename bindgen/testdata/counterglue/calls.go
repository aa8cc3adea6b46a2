package counter

/*
#include <stdlib.h>
#include <string.h>
#include "counter.h"

static int released_providers = 0;

static counter_buffer test_get_token(void* context, counter_str service, counter_status* status) {
	counter_buffer out = {0};
	if (service.len == 0) {
		static const char msg[] = "no service";
		status->code = 1;
		status->error_kind = 0;
		status->message.data = malloc(sizeof(msg) - 1);
		memcpy(status->message.data, msg, sizeof(msg) - 1);
		status->message.len = sizeof(msg) - 1;
		return out;
	}
	status->code = 0;
	out.len = service.len + 4;
	out.data = malloc(out.len);
	memcpy(out.data, "tok:", 4);
	memcpy(out.data + 4, service.data, service.len);
	return out;
}

static uint32_t test_ttl(void* context) { return 60; }

static void test_release(void* context) { released_providers++; }

static counter_token_provider* new_test_provider(counter_status* status) {
	counter_token_provider_vtable vt;
	memset(&vt, 0, sizeof(vt));
	vt.get_token = test_get_token;
	vt.ttl = test_ttl;
	vt.release = test_release;
	return counter_token_provider_new(&vt, status);
}

static int provider_releases(void) { return released_providers; }
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/wippyai/bindgen/boundary"
	"github.com/wippyai/bindgen/registry"
)

// outcome is a status read back from C.
type outcome struct {
	message string
	code    boundary.Code
	kind    int32
}

func takeStatus(st *C.counter_status) outcome {
	out := outcome{code: boundary.Code(st.code), kind: int32(st.error_kind)}
	if st.message.data != nil {
		out.message = C.GoStringN((*C.char)(unsafe.Pointer(st.message.data)), C.int(st.message.len))
		C.counter_buffer_free(st.message)
	}
	return out
}

func cstr(s string) C.counter_str {
	var out C.counter_str
	if s == "" {
		return out
	}
	out.data = (*C.uint8_t)(C.CBytes([]byte(s)))
	out.len = C.size_t(len(s))
	return out
}

func freeStr(s C.counter_str) { C.free(unsafe.Pointer(s.data)) }

func takeBuffer(b C.counter_buffer) []byte {
	defer C.counter_buffer_free(b)
	if b.data == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(b.data), C.int(b.len))
}

func counterPtr(h registry.Handle) *C.counter_counter {
	return boundary.PointerOf[*C.counter_counter](h)
}

func initLib() outcome {
	var st C.counter_status
	C.counter_init(&st)
	return takeStatus(&st)
}

func shutdownLib() outcome {
	var st C.counter_status
	C.counter_shutdown(&st)
	return takeStatus(&st)
}

func newCounter(start uint64, mode Mode) (registry.Handle, outcome) {
	var st C.counter_status
	p := C.counter_counter_new(C.uint64_t(start), C.counter_mode(mode), &st)
	return boundary.HandleOf(p), takeStatus(&st)
}

func increment(h registry.Handle, by uint32) (uint64, outcome) {
	var st C.counter_status
	v := C.counter_counter_increment(counterPtr(h), C.uint32_t(by), &st)
	return uint64(v), takeStatus(&st)
}

func counterStats(h registry.Handle) (Stats, outcome) {
	var st C.counter_status
	r := C.counter_counter_stats(counterPtr(h), &st)
	return Stats{Value: uint64(r.value), Increments: uint32(r.increments), Mode: Mode(r.mode)}, takeStatus(&st)
}

func label(h registry.Handle, prefix string) (string, outcome) {
	arg := cstr(prefix)
	defer freeStr(arg)
	var st C.counter_status
	r := C.counter_counter_label(counterPtr(h), arg, &st)
	return string(takeBuffer(r)), takeStatus(&st)
}

func destroyCounter(h registry.Handle) outcome {
	var st C.counter_status
	C.counter_counter_destroy(counterPtr(h), &st)
	return takeStatus(&st)
}

func merge(into, from registry.Handle) outcome {
	var st C.counter_status
	C.counter_merge(counterPtr(into), counterPtr(from), &st)
	return takeStatus(&st)
}

// mergeWithoutStatus calls merge with a NULL status pointer.
func mergeWithoutStatus(into, from registry.Handle) {
	C.counter_merge(counterPtr(into), counterPtr(from), nil)
}

// parse hands payload to the callee, which frees it.
func parse(text string, payload []byte) (registry.Handle, outcome) {
	arg := cstr(text)
	defer freeStr(arg)
	var buf C.counter_buffer
	if len(payload) > 0 {
		buf.data = (*C.uint8_t)(C.CBytes(payload))
		buf.len = C.size_t(len(payload))
	}
	var st C.counter_status
	p := C.counter_parse(arg, buf, &st)
	return boundary.HandleOf(p), takeStatus(&st)
}

func unitSquare() (registry.Handle, outcome) {
	var st C.counter_status
	p := C.counter_unit_square(&st)
	return boundary.HandleOf(p), takeStatus(&st)
}

func shapeCall(h registry.Handle, method uint32, args string) ([]byte, outcome) {
	arg := cstr(args)
	defer freeStr(arg)
	var st C.counter_status
	r := C.counter_shape_call(boundary.PointerOf[*C.counter_shape](h), C.uint32_t(method), arg, &st)
	return takeBuffer(r), takeStatus(&st)
}

func newProvider() (registry.Handle, outcome) {
	var st C.counter_status
	p := C.new_test_provider(&st)
	return boundary.HandleOf(p), takeStatus(&st)
}

func authenticate(provider registry.Handle, service string) (bool, outcome) {
	arg := cstr(service)
	defer freeStr(arg)
	var st C.counter_status
	ok := C.counter_authenticate(boundary.PointerOf[*C.counter_token_provider](provider), arg, &st)
	return bool(ok), takeStatus(&st)
}

func destroyProvider(h registry.Handle) outcome {
	var st C.counter_status
	C.counter_token_provider_destroy(boundary.PointerOf[*C.counter_token_provider](h), &st)
	return takeStatus(&st)
}

func providerReleases() int { return int(C.provider_releases()) }

// held keeps a handle pointer in a pointer-typed global while the collector
// scans it.
var held *C.counter_counter

func holdAcrossGC(h registry.Handle) registry.Handle {
	held = counterPtr(h)
	runtime.GC()
	h = boundary.HandleOf(held)
	held = nil
	return h
}
