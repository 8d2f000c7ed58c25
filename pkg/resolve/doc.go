// Package resolve turns a secret name into its current value.
//
// A Resolver consults an encrypted in-memory cache first. On a miss it asks
// each provider in precedence order, stores the first hit under a ttl and
// returns it. Providers that fail or exceed their deadline are skipped. When
// nothing answers, the error is a *SecretNotFoundError.
//
//	r, err := resolve.New(providers.BuildRegistry(providers.RegistryOptions{}),
//		resolve.WithKey(key),
//		resolve.WithDefaultTTL(time.Minute),
//	)
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	password, err := r.Resolve(ctx, "DB_PASS")
//
// Secret names are redacted in every log line and error message. Secret
// values never appear in logs, stats or metrics.
//
// Concurrent cold-cache lookups of one key may each query the providers.
// WithSingleflight(true) collapses them into one provider walk.
package resolve
