//go:build !darwin

package platform

func HideDockIcon() {}

// IsFrontmost cannot be queried here and always reports true
func IsFrontmost() bool {
	return true
}

func BringToFront() {}
