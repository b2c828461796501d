package order

import (
	"fmt"

	"orderlifecycle/domain/order"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supportedLocales = []language.Tag{language.English, language.Spanish}

var displayStrings = map[language.Tag]map[string]string{
	language.English: {
		"channel.Ecommerce":      "E-commerce",
		"channel.CallCenter":     "Call center",
		"channel.Store":          "Physical store",
		"channel.Affiliate":      "Affiliate",
		"status.Created":         "Created",
		"status.PaymentReceived": "Payment received",
		"status.Cancelled":       "Cancelled",
		"status.Invoiced":        "Invoiced",
		"status.Returned":        "Returned",
	},
	language.Spanish: {
		"channel.Ecommerce":      "Comercio electronico",
		"channel.CallCenter":     "Centro de llamadas",
		"channel.Store":          "Tienda fisica",
		"channel.Affiliate":      "Afiliado",
		"status.Created":         "Creada",
		"status.PaymentReceived": "Pago recibido",
		"status.Cancelled":       "Cancelada",
		"status.Invoiced":        "Facturada",
		"status.Returned":        "Devuelta",
	},
}

// Translator renders channel and status display strings in one locale.
// Unknown values come back unchanged.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// NewTranslator matches locale against the supported languages, falling
// back to English.
func NewTranslator(locale string) (*Translator, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, messages := range displayStrings {
		for key, msg := range messages {
			if err := builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("register %s %q: %w", tag, key, err)
			}
		}
	}

	tag := language.English
	if locale != "" {
		requested, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
		_, index, _ := language.NewMatcher(supportedLocales).Match(requested)
		tag = supportedLocales[index]
	}

	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}, nil
}

// defaultTranslator is the English translator. The display strings are
// compiled in, so a failure here is a programming error.
func defaultTranslator() *Translator {
	t, err := NewTranslator("")
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Translator) Locale() language.Tag { return t.tag }

func (t *Translator) Channel(c order.Channel) string {
	if _, ok := order.ParseChannel(string(c)); !ok {
		return string(c)
	}
	return t.printer.Sprintf(message.Key("channel."+string(c), string(c)))
}

func (t *Translator) Status(s order.Status) string {
	if _, ok := order.ParseStatus(string(s)); !ok {
		return string(s)
	}
	return t.printer.Sprintf(message.Key("status."+string(s), string(s)))
}
