// Package provider defines the capability every secret source implements.
//
// A provider answers a single question for a key: is there a value, and if so
// what is it. The resolver composes several providers into a fallback chain
// and consults them in a fixed precedence order:
//
//  1. Environment (origin "env")
//  2. CI context (origin "ci"), active only when a CI marker variable is set
//  3. Platform bindings (origin "bindings" or "platform-env")
//  4. External vault (origin is the vault name), active only when configured
//
// # Implementing a Custom Provider
//
//	type MyProvider struct{}
//
//	func (p *MyProvider) Name() string { return "my-provider" }
//
//	func (p *MyProvider) Get(ctx context.Context, key string) (ResolvedSecret, bool, error) {
//	    value, ok, err := lookup(ctx, key)
//	    if err != nil {
//	        return ResolvedSecret{}, false, &TransportError{Provider: p.Name(), Err: err}
//	    }
//	    if !ok {
//	        return ResolvedSecret{}, false, nil
//	    }
//	    return ResolvedSecret{Key: key, Value: value, Origin: p.Name(), FetchedAt: time.Now()}, true, nil
//	}
//
// # Error Handling
//
// A missing secret is never an error. Return found=false and a nil error.
// Return a TransportError only when the backing source could not be reached.
//
// # Security Considerations
//
// Providers must never log secret values and should never log full key names;
// use logging.RedactKey for names and logging.Secret for values.
package provider
