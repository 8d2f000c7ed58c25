// Package secure provides memory-safe handling of key material.
//
// The resolver-wide cache key lives in a SecureBuffer for the lifetime of the
// resolver. The buffer wraps memguard so that the key is:
//
//   - Encrypted at rest in memory (XSalsa20Poly1305)
//   - Protected from swapping via mlock
//   - Wiped when the plaintext view is destroyed
//
// # Usage
//
//	buf, err := secure.NewSecureBuffer(key)
//	if err != nil {
//	    return err
//	}
//	defer buf.Destroy()
//
//	err = buf.Use(func(k []byte) error {
//	    // k is only valid inside this function
//	    return nil
//	})
//
// It does NOT protect against attackers with root access to the running
// process or against hardware-level attacks.
package secure
