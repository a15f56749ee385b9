//go:build !unix

package services

import "errors"

func freeDiskBytes(string) (uint64, error) {
	return 0, errors.New("disk probe not supported on this platform")
}
