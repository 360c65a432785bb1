package i18n

// Translator is a Catalog bound to one language.
type Translator struct {
	catalog *Catalog
	lang    string
}

// For returns a Translator for lang; empty means the default language.
func (c *Catalog) For(lang string) *Translator {
	if lang == "" {
		lang = c.defaultLang
	}
	return &Translator{catalog: c, lang: lang}
}

// T translates key.
func (t *Translator) T(key string, vars ...M) string {
	return t.catalog.T(t.lang, key, vars...)
}

// Tn translates the plural form of key for n.
func (t *Translator) Tn(key string, n int, vars ...M) string {
	return t.catalog.Tn(t.lang, key, n, vars...)
}

// Translate has the shape of a translate(key, vars) capability, so it can be
// handed to collaborators that know nothing about languages.
func (t *Translator) Translate(key string, vars map[string]any) string {
	return t.catalog.T(t.lang, key, vars)
}

// Language returns the bound language.
func (t *Translator) Language() string {
	return t.lang
}
