//go:build unit || e2e

package testutil

// Field sets key on a request body map; a nil value removes the key, which is how
// tests express "field missing" for required bindings.
func Field(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		if value == nil {
			delete(m, key)
			return
		}
		m[key] = value
	}
}

// Fields applies several Field mutations in order.
func Fields(muts ...func(map[string]any)) func(map[string]any) {
	return func(m map[string]any) {
		for _, mut := range muts {
			mut(m)
		}
	}
}
