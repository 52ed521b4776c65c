// Package openssl binds an entropy.Method into OpenSSL 1.1.1's RAND_METHOD
// plugin API, replacing the library's random number backend for the whole
// process.
//
// The binding needs cgo and libcrypto headers and is compiled only with the
// "openssl" build tag:
//
//	go test -tags openssl ./pkg/entropy/openssl
//
// Typical use from a fuzzing harness:
//
//	gen := entropy.New()
//	if err := openssl.Install(gen); err != nil {
//		log.Fatal(err)
//	}
package openssl
