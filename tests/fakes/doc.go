// Package fakes provides test doubles for unisecret provider interfaces.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior.
//
// Usage:
//
//	primary := fakes.NewFakeProvider("primary").
//	    WithError("DB_PASS", errors.New("connection reset"))
//	secondary := fakes.NewFakeProvider("secondary").
//	    WithSecret("DB_PASS", "secret123")
//
//	r, _ := resolve.New([]provider.Provider{primary, secondary})
//	value, _ := r.Resolve(ctx, "DB_PASS") // "secret123"
package fakes
