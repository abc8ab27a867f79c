//go:build !govips || !cgo

package processor

func Startup() error {
	return nil
}

func Shutdown() {}

func newCodec() Codec {
	return stdCodec{}
}
