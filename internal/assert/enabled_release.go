//go:build !ecsdebug

package assert

// Enabled reports whether this binary was built with debug assertions.
const Enabled = false
