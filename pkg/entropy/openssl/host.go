//go:build openssl && cgo

package openssl

/*
#cgo pkg-config: libcrypto
#include <stdlib.h>
#include "rand_method.h"
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/ochairo/cauldron/pkg/entropy"
)

// ErrRegistration is returned when RAND_set_rand_method rejects the method
var ErrRegistration = errors.New("openssl: RAND_set_rand_method failed")

var (
	boundMu sync.Mutex
	bound   entropy.Method
)

func current() entropy.Method {
	boundMu.Lock()
	defer boundMu.Unlock()
	return bound
}

// Host registers methods with libcrypto
type Host struct{}

var _ entropy.Host = Host{}

// Register makes m the process-wide RAND_METHOD
func (Host) Register(m entropy.Method) error {
	boundMu.Lock()
	prev := bound
	bound = m
	boundMu.Unlock()

	if C.cauldron_install_rand_method() != 1 {
		boundMu.Lock()
		bound = prev
		boundMu.Unlock()
		return ErrRegistration
	}
	return nil
}

// Install binds gen as libcrypto's random backend via entropy.Install
func Install(gen entropy.Method) error {
	return entropy.Install(Host{}, gen)
}

// RandBytes reads n bytes through libcrypto's RAND_bytes
func RandBytes(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	buf := C.malloc(C.size_t(n))
	defer C.free(buf)
	if C.cauldron_rand_bytes((*C.uchar)(buf), C.int(n)) != 1 {
		return nil, errors.New("openssl: RAND_bytes failed")
	}
	return C.GoBytes(buf, C.int(n)), nil
}

func cBytes(buf unsafe.Pointer, num C.int) []byte {
	if buf == nil || num <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(buf), int(num))
}

func cBool(ok bool) C.int {
	if ok {
		return 1
	}
	return 0
}

//export cauldronRandSeed
func cauldronRandSeed(buf unsafe.Pointer, num C.int) C.int {
	m := current()
	if m == nil {
		return 0
	}
	return cBool(m.Seed(cBytes(buf, num)))
}

//export cauldronRandBytes
func cauldronRandBytes(buf *C.uchar, num C.int) C.int {
	m := current()
	if m == nil {
		return 0
	}
	return cBool(m.Bytes(cBytes(unsafe.Pointer(buf), num)))
}

//export cauldronRandCleanup
func cauldronRandCleanup() {
	if m := current(); m != nil {
		m.Cleanup()
	}
}

//export cauldronRandAdd
func cauldronRandAdd(buf unsafe.Pointer, num C.int, estimate C.double) C.int {
	m := current()
	if m == nil {
		return 0
	}
	return cBool(m.Add(cBytes(buf, num), float64(estimate)))
}

//export cauldronRandPseudoBytes
func cauldronRandPseudoBytes(buf *C.uchar, num C.int) C.int {
	m := current()
	if m == nil {
		return 0
	}
	return cBool(m.PseudoBytes(cBytes(unsafe.Pointer(buf), num)))
}

//export cauldronRandStatus
func cauldronRandStatus() C.int {
	m := current()
	if m == nil {
		return 0
	}
	return cBool(m.Status())
}
