//go:build tinygo || !cgo

package eqshadeaux

import "errors"

func ui(s *Scene, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
