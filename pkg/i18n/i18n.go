package i18n

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLang is used when no default language is configured.
const DefaultLang = "en"

// M holds placeholder values for interpolation.
type M = map[string]any

// Catalog holds translated messages per language. It is immutable after
// New returns and safe for concurrent use.
type Catalog struct {
	// lang -> flattened key -> message
	messages map[string]map[string]string

	defaultLang string
	languages   []string
	matcher     language.Matcher

	missingKeyHandler func(lang, key string)
}

// Option configures a Catalog during construction.
type Option func(*Catalog) error

// New builds a Catalog. The default language always comes first in
// Languages; the others follow in alphabetical order.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		messages:    make(map[string]map[string]string),
		defaultLang: DefaultLang,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("i18n: apply option: %w", err)
		}
	}

	langs := slices.Sorted(maps.Keys(c.messages))
	langs = slices.DeleteFunc(langs, func(l string) bool { return l == c.defaultLang })
	c.languages = append([]string{c.defaultLang}, langs...)

	tags := make([]language.Tag, len(c.languages))
	for i, l := range c.languages {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, l)
		}
		tags[i] = tag
	}
	c.matcher = language.NewMatcher(tags)

	return c, nil
}

// WithDefaultLanguage sets the fallback language.
func WithDefaultLanguage(lang string) Option {
	return func(c *Catalog) error {
		if lang == "" {
			return ErrEmptyLanguage
		}
		c.defaultLang = lang
		return nil
	}
}

// WithMessages adds messages for lang. Nested maps are flattened into
// dot-separated keys, so {"post": {"title": "Title"}} is looked up as
// "post.title".
func WithMessages(lang string, messages map[string]any) Option {
	return func(c *Catalog) error {
		if lang == "" {
			return ErrEmptyLanguage
		}
		c.add(lang, messages)
		return nil
	}
}

// WithMissingKeyHandler registers a callback for keys that are missing
// from both the requested and the default language.
func WithMissingKeyHandler(fn func(lang, key string)) Option {
	return func(c *Catalog) error {
		c.missingKeyHandler = fn
		return nil
	}
}

func (c *Catalog) add(lang string, messages map[string]any) {
	dst, ok := c.messages[lang]
	if !ok {
		dst = make(map[string]string)
		c.messages[lang] = dst
	}
	flatten(dst, messages, "")
}

// T returns the message for key in lang with {{name}} placeholders
// replaced. Lookup tries lang, its base language ("pt" for "pt-BR"), then
// the default language; the key itself is returned when nothing matches.
func (c *Catalog) T(lang, key string, vars ...M) string {
	if msg, ok := c.lookup(lang, key); ok {
		return Interpolate(msg, merge(vars...))
	}
	c.missing(lang, key)
	return key
}

// Tn returns the plural form of key matching n, looked up as key.one,
// key.few, key.other and so on. The count is available as {{count}}.
func (c *Catalog) Tn(lang, key string, n int, vars ...M) string {
	form := pluralForm(lang, n)
	for _, f := range []string{form, pluralOther} {
		if msg, ok := c.lookup(lang, key+"."+f); ok {
			return Interpolate(msg, merge(append([]M{{"count": n}}, vars...)...))
		}
	}
	if msg, ok := c.lookup(lang, key); ok {
		return Interpolate(msg, merge(append([]M{{"count": n}}, vars...)...))
	}
	c.missing(lang, key)
	return key
}

// Has reports whether key exists in lang or one of its fallbacks.
func (c *Catalog) Has(lang, key string) bool {
	_, ok := c.lookup(lang, key)
	return ok
}

func (c *Catalog) lookup(lang, key string) (string, bool) {
	for _, l := range c.chain(lang) {
		if msg, ok := c.messages[l][key]; ok {
			return msg, true
		}
	}
	return "", false
}

func (c *Catalog) chain(lang string) []string {
	chain := make([]string, 0, 3)
	if lang != "" {
		chain = append(chain, lang)
		if base, _, ok := strings.Cut(lang, "-"); ok {
			chain = append(chain, base)
		}
	}
	if !slices.Contains(chain, c.defaultLang) {
		chain = append(chain, c.defaultLang)
	}
	return chain
}

func (c *Catalog) missing(lang, key string) {
	if c.missingKeyHandler != nil {
		c.missingKeyHandler(lang, key)
	}
}

// Match picks the best supported language for an Accept-Language header
// value, falling back to the default language.
func (c *Catalog) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.defaultLang
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.defaultLang
	}
	return c.languages[idx]
}

// Languages returns the supported languages, default first.
func (c *Catalog) Languages() []string {
	return slices.Clone(c.languages)
}

// DefaultLanguage returns the fallback language.
func (c *Catalog) DefaultLanguage() string {
	return c.defaultLang
}

// Interpolate replaces {{name}} placeholders with vars. Unknown
// placeholders are left as is.
func Interpolate(msg string, vars M) string {
	if len(vars) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}
	pairs := make([]string, 0, len(vars)*2)
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		pairs = append(pairs, "{{"+k+"}}", fmt.Sprint(vars[k]))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func merge(vars ...M) M {
	switch len(vars) {
	case 0:
		return nil
	case 1:
		return vars[0]
	}
	out := make(M)
	for _, v := range vars {
		maps.Copy(out, v)
	}
	return out
}

func flatten(dst map[string]string, src map[string]any, prefix string) {
	for key, value := range src {
		if prefix != "" {
			key = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			dst[key] = v
		case map[string]any:
			flatten(dst, v, key)
		case map[string]string:
			for sub, msg := range v {
				dst[key+"."+sub] = msg
			}
		default:
			dst[key] = fmt.Sprint(v)
		}
	}
}
