// ABOUTME: Build-time version and device identity constants
// ABOUTME: Reported to the server in client/hello's device_info
package version

const (
	// Version is the player software version reported in client/hello.
	Version = "0.1.0"

	// Product is the device_info.product_name reported in client/hello.
	Product = "Resonate Player"

	// Manufacturer is the device_info.manufacturer reported in client/hello.
	Manufacturer = "Resonate"
)
