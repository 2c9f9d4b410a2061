package adapter

// Translator resolves message keys to localized text.
type Translator interface {
	T(key string, args ...interface{}) string
}
